package tournament

import (
	"context"
	"sort"
	"sync"

	"github.com/podiumlab/racenight/src/domain/shared"
	"github.com/podiumlab/racenight/src/domain/tournament"
)

// MemoryRepository implements tournament.Repository with in-memory storage
// and versioned compare-and-set writes. Aggregates are deep-copied on the
// way in and out so readers never observe a half-applied mutation.
type MemoryRepository struct {
	mu          sync.RWMutex
	tournaments map[shared.TournamentID]*tournament.Tournament
	byCode      map[shared.InviteCode]shared.TournamentID
}

// NewMemoryRepository creates a new in-memory tournament repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tournaments: make(map[shared.TournamentID]*tournament.Tournament),
		byCode:      make(map[shared.InviteCode]shared.TournamentID),
	}
}

// Create stores a new tournament at version 1.
func (r *MemoryRepository) Create(ctx context.Context, t *tournament.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tournaments[t.ID]; exists {
		return shared.ErrConflict
	}
	if _, exists := r.byCode[t.InviteCode]; exists {
		return shared.ErrConflict
	}

	stored := t.Clone()
	stored.Version = 1
	r.tournaments[stored.ID] = stored
	r.byCode[stored.InviteCode] = stored.ID
	t.Version = stored.Version
	return nil
}

// Get retrieves a tournament by ID.
func (r *MemoryRepository) Get(ctx context.Context, id shared.TournamentID) (*tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tournaments[id]
	if !exists {
		return nil, tournament.ErrTournamentNotFound
	}
	return t.Clone(), nil
}

// GetByInviteCode retrieves a tournament by its join token.
func (r *MemoryRepository) GetByInviteCode(ctx context.Context, code shared.InviteCode) (*tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byCode[code]
	if !exists {
		return nil, tournament.ErrTournamentNotFound
	}
	return r.tournaments[id].Clone(), nil
}

// Update writes the aggregate back if its version still matches the stored
// one, then bumps the version. Stale writers get shared.ErrConflict and
// are expected to re-read and retry.
func (r *MemoryRepository) Update(ctx context.Context, t *tournament.Tournament) (*tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.tournaments[t.ID]
	if !exists {
		return nil, tournament.ErrTournamentNotFound
	}
	if current.Version != t.Version {
		return nil, shared.ErrConflict
	}

	stored := t.Clone()
	stored.Version = current.Version + 1
	r.tournaments[stored.ID] = stored
	return stored.Clone(), nil
}

// List retrieves tournaments newest first.
func (r *MemoryRepository) List(ctx context.Context, limit, offset int) ([]*tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*tournament.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		all = append(all, t.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := offset
	if start > len(all) {
		return []*tournament.Tournament{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}
