package session

import (
	"context"
	"time"

	"github.com/podiumlab/racenight/src/domain/shared"
)

// PlayerSession bookmarks the player id a client was assigned when joining
// a tournament. It is supplied back as explicit context on submit calls;
// the scoring engine never looks it up ambiently.
type PlayerSession struct {
	TournamentID shared.TournamentID
	PlayerID     shared.PlayerID
	Nickname     string
	JoinedAt     time.Time
}

// NewPlayerSession creates a session bookmark.
func NewPlayerSession(tournamentID shared.TournamentID, playerID shared.PlayerID, nickname string, joinedAt time.Time) (*PlayerSession, error) {
	if err := tournamentID.Validate(); err != nil {
		return nil, err
	}
	if err := playerID.Validate(); err != nil {
		return nil, err
	}
	return &PlayerSession{
		TournamentID: tournamentID,
		PlayerID:     playerID,
		Nickname:     nickname,
		JoinedAt:     joinedAt,
	}, nil
}

// Repository manages session persistence.
type Repository interface {
	Save(ctx context.Context, s *PlayerSession) error
	Get(ctx context.Context, tournamentID shared.TournamentID, playerID shared.PlayerID) (*PlayerSession, error)
	Delete(ctx context.Context, tournamentID shared.TournamentID, playerID shared.PlayerID) error
}
