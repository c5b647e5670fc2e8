package tournaments

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/podiumlab/racenight/src/domain/shared"
	"github.com/podiumlab/racenight/src/domain/tournament"
)

// DefaultPollInterval matches the refresh cadence the dashboards expect.
const DefaultPollInterval = 5 * time.Second

// Watcher turns the store into a snapshot stream by bounded periodic
// polling. Each delivered snapshot reflects some past consistent state;
// there is no ordering guarantee between polls beyond the version check
// that suppresses duplicates.
type Watcher struct {
	Repo     tournament.Repository
	Logger   *zap.Logger
	Interval time.Duration

	active atomic.Int64
}

// NewWatcher creates a watcher polling at the default interval.
func NewWatcher(repo tournament.Repository, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		Repo:     repo,
		Logger:   logger,
		Interval: DefaultPollInterval,
	}
}

// Active reports how many watch loops are currently running.
func (w *Watcher) Active() int64 {
	return w.active.Load()
}

// Watch polls the tournament and sends a snapshot whenever its version
// advances, starting with the current state. The channel closes when ctx
// is cancelled or the tournament is deleted or no longer found. Sends
// never block past ctx cancellation.
func (w *Watcher) Watch(ctx context.Context, id shared.TournamentID) (<-chan *tournament.Tournament, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	first, err := w.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make(chan *tournament.Tournament, 1)
	out <- first

	w.active.Inc()
	go func() {
		defer w.active.Dec()
		defer close(out)

		lastVersion := first.Version
		if first.Status == tournament.StatusDeleted {
			return
		}

		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			snapshot, err := w.Repo.Get(ctx, id)
			if err != nil {
				if errors.Is(err, tournament.ErrTournamentNotFound) || errors.Is(err, shared.ErrNotFound) {
					return
				}
				w.Logger.Warn("tournament poll failed",
					zap.String("tournament_id", string(id)),
					zap.Error(err),
				)
				continue
			}
			if snapshot.Version == lastVersion {
				continue
			}
			lastVersion = snapshot.Version

			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
			if snapshot.Status == tournament.StatusDeleted {
				return
			}
		}
	}()

	return out, nil
}
