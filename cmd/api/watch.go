package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/podiumlab/racenight/src/domain/shared"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Cross-origin policy is enforced by the CORS layer on the REST
	// surface; dashboards connect from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// handleWatch streams tournament snapshots over a WebSocket. Each message
// is a full tournament document; the stream ends when the tournament is
// deleted, disappears, or the client goes away.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := shared.TournamentID(mux.Vars(r)["id"])

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, err := s.cfg.Watcher.Watch(ctx, id)
	if err != nil {
		deadline := time.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), deadline)
		return
	}

	// Drain client frames so close/ping handling works and a dropped
	// client cancels the watch.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for snapshot := range snapshots {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(toTournamentResponse(snapshot)); err != nil {
			s.cfg.Logger.Debug("watch stream closed",
				zap.String("tournament_id", string(id)),
				zap.Error(err),
			)
			return
		}
	}

	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}
