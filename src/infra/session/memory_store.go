package session

import (
	"context"
	"sync"

	"github.com/podiumlab/racenight/src/domain/session"
	"github.com/podiumlab/racenight/src/domain/shared"
)

// MemoryStore implements session.Repository using in-memory storage.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.PlayerSession
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session.PlayerSession),
	}
}

func makeKey(tournamentID shared.TournamentID, playerID shared.PlayerID) string {
	return string(tournamentID) + ":" + string(playerID)
}

// Save stores a session bookmark.
func (s *MemoryStore) Save(ctx context.Context, bookmark *session.PlayerSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[makeKey(bookmark.TournamentID, bookmark.PlayerID)] = bookmark
	return nil
}

// Get retrieves a session bookmark.
func (s *MemoryStore) Get(ctx context.Context, tournamentID shared.TournamentID, playerID shared.PlayerID) (*session.PlayerSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookmark, exists := s.sessions[makeKey(tournamentID, playerID)]
	if !exists {
		return nil, shared.ErrNotFound
	}
	return bookmark, nil
}

// Delete removes a session bookmark.
func (s *MemoryStore) Delete(ctx context.Context, tournamentID shared.TournamentID, playerID shared.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, makeKey(tournamentID, playerID))
	return nil
}
