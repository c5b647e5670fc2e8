package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/podiumlab/racenight/src/app/tournaments"
	"github.com/podiumlab/racenight/src/domain/tournament"
	sessioninfra "github.com/podiumlab/racenight/src/infra/session"
	tournamentinfra "github.com/podiumlab/racenight/src/infra/tournament"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		// Logger is not up yet.
		panic(err)
	}

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	baseCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	shutdownTelemetry, err := setupTelemetry(baseCtx, "racenight-api", cfg.OTELEndpoint)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTelemetry(ctx)
		}()
	}

	var repo tournament.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(baseCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open database pool", zap.Error(err))
		}
		defer pool.Close()

		pgRepo := tournamentinfra.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(baseCtx); err != nil {
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
		repo = pgRepo
		logger.Info("using postgres tournament store")
	} else {
		repo = tournamentinfra.NewMemoryRepository()
		logger.Info("using in-memory tournament store")
	}

	sessions := sessioninfra.NewMemoryStore()
	service := tournaments.NewService(repo, sessions, logger)
	watcher := tournaments.NewWatcher(repo, logger)
	watcher.Interval = cfg.PollInterval
	tokens := NewOrganizerTokens([]byte(cfg.TokenSecret))

	server := NewServer(ServerConfig{
		Logger:         logger,
		Tournaments:    service,
		Watcher:        watcher,
		Tokens:         tokens,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Racenight API listening", zap.String("addr", cfg.HTTPAddress))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-baseCtx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newLogger builds a production logger, rotating through lumberjack when a
// log file is configured.
func newLogger(logFile string) (*zap.Logger, error) {
	if logFile == "" {
		return zap.NewProduction()
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(os.Stdout)),
		zap.InfoLevel,
	)
	return zap.New(core), nil
}
