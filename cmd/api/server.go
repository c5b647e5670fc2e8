package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/podiumlab/racenight/src/app/tournaments"
	"github.com/podiumlab/racenight/src/domain/shared"
	"github.com/podiumlab/racenight/src/domain/tournament"
)

type ServerConfig struct {
	Logger         *zap.Logger
	Tournaments    *tournaments.Service
	Watcher        *tournaments.Watcher
	Tokens         *OrganizerTokens
	AllowedOrigins []string
}

// Server wires HTTP endpoints to the tournament service with
// observability instrumentation.
type Server struct {
	cfg            ServerConfig
	router         *mux.Router
	httpMetrics    *prometheus.HistogramVec
	requestCounter *prometheus.CounterVec
}

func NewServer(cfg ServerConfig) *Server {
	srv := &Server{cfg: cfg}
	srv.initMetrics()
	srv.buildRouter()
	return srv
}

func (s *Server) Handler() http.Handler {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-Id"}),
	)
	return handlers.RecoveryHandler()(cors(s.router))
}

func (s *Server) initMetrics() {
	s.httpMetrics = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "racenight",
		Subsystem: "http",
		Name:      "request_latency_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "code"})
	s.requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racenight",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route",
	}, []string{"route", "method", "code"})
	prometheus.MustRegister(s.httpMetrics, s.requestCounter)
}

func (s *Server) buildRouter() {
	r := mux.NewRouter()
	r.Use(s.correlationMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)

	api := r.PathPrefix("/v1").Subrouter()
	api.Handle("/tournaments", otelhttp.NewHandler(http.HandlerFunc(s.handleCreateTournament), "CreateTournament")).Methods(http.MethodPost)
	api.Handle("/tournaments", otelhttp.NewHandler(http.HandlerFunc(s.handleListTournaments), "ListTournaments")).Methods(http.MethodGet)
	api.Handle("/tournaments/code/{code}", otelhttp.NewHandler(http.HandlerFunc(s.handleGetByInviteCode), "GetByInviteCode")).Methods(http.MethodGet)
	api.Handle("/tournaments/{id}", otelhttp.NewHandler(http.HandlerFunc(s.handleGetTournament), "GetTournament")).Methods(http.MethodGet)
	api.Handle("/tournaments/{id}", otelhttp.NewHandler(s.requireOrganizer(s.handleDeleteTournament), "DeleteTournament")).Methods(http.MethodDelete)
	api.Handle("/tournaments/{id}/players", otelhttp.NewHandler(http.HandlerFunc(s.handleJoin), "JoinTournament")).Methods(http.MethodPost)
	api.Handle("/tournaments/{id}/start", otelhttp.NewHandler(s.requireOrganizer(s.handleStartTournament), "StartTournament")).Methods(http.MethodPost)
	api.Handle("/tournaments/{id}/rounds/current/positions", otelhttp.NewHandler(http.HandlerFunc(s.handleSubmitPosition), "SubmitPosition")).Methods(http.MethodPost)
	api.Handle("/tournaments/{id}/rounds/current/votes", otelhttp.NewHandler(http.HandlerFunc(s.handleSubmitMVPVote), "SubmitMVPVote")).Methods(http.MethodPost)
	api.Handle("/tournaments/{id}/rounds/end", otelhttp.NewHandler(s.requireOrganizer(s.handleEndRound), "EndRound")).Methods(http.MethodPost)
	api.Handle("/tournaments/{id}/close", otelhttp.NewHandler(s.requireOrganizer(s.handleCloseTournament), "CloseTournament")).Methods(http.MethodPost)
	api.Handle("/tournaments/{id}/leaderboard", otelhttp.NewHandler(http.HandlerFunc(s.handleLeaderboard), "Leaderboard")).Methods(http.MethodGet)
	api.HandleFunc("/tournaments/{id}/watch", s.handleWatch).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router = r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

// statusForError maps domain outcomes onto HTTP statuses: state conflicts
// are 409 so clients know to refresh and retry, missing entities are 404,
// store outages are 502, anything else is treated as caller error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, tournament.ErrTournamentNotFound),
		errors.Is(err, tournament.ErrUnknownPlayer),
		errors.Is(err, tournament.ErrUnknownTarget),
		errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tournament.ErrAlreadyStarted),
		errors.Is(err, tournament.ErrTournamentFull),
		errors.Is(err, tournament.ErrDuplicateNickname),
		errors.Is(err, tournament.ErrNotWaiting),
		errors.Is(err, tournament.ErrNotActive),
		errors.Is(err, tournament.ErrInsufficientPlayers),
		errors.Is(err, tournament.ErrInvalidRound),
		errors.Is(err, tournament.ErrPositionTaken),
		errors.Is(err, tournament.ErrAlreadySubmitted),
		errors.Is(err, tournament.ErrAlreadyVoted),
		errors.Is(err, tournament.ErrRoundIncomplete),
		errors.Is(err, tournament.ErrTournamentCompleted),
		errors.Is(err, tournament.ErrTournamentDeleted),
		errors.Is(err, shared.ErrConflict),
		errors.Is(err, shared.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, shared.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// requireOrganizer guards organizer-only routes with the tournament-scoped
// bearer token issued at creation.
func (s *Server) requireOrganizer(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := shared.TournamentID(mux.Vars(r)["id"])
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || s.cfg.Tokens.Verify(token, id) != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "organizer token required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.cfg.Logger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", correlationIDFromContext(r.Context())),
		)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := mux.CurrentRoute(r)
		routeName := "unknown"
		if route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				routeName = tmpl
			}
		}
		codeLabel := strconv.Itoa(rw.status)
		labels := prometheus.Labels{"route": routeName, "method": r.Method, "code": codeLabel}
		s.httpMetrics.With(labels).Observe(time.Since(start).Seconds())
		s.requestCounter.With(labels).Inc()
	})
}

// responseWriter captures HTTP status codes for logging/metrics.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack keeps the WebSocket upgrade working through the middleware chain.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}
