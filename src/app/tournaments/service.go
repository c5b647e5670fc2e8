package tournaments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/podiumlab/racenight/src/domain/session"
	"github.com/podiumlab/racenight/src/domain/shared"
	"github.com/podiumlab/racenight/src/domain/tournament"
)

// defaultWriteAttempts bounds the compare-and-set retry loop. Conflicts
// only happen when two clients race the same tournament, so a handful of
// attempts is plenty.
const defaultWriteAttempts = 5

// Service coordinates tournament operations. Every mutation is an
// optimistic compare-and-set against the store: read, apply the domain
// transition, write back at the version read. Stale writes retry from a
// fresh read, so settlement effects always land atomically with the write
// that completed the round.
type Service struct {
	Repo          tournament.Repository
	Sessions      session.Repository
	Logger        *zap.Logger
	Clock         func() time.Time
	NewID         func() string
	WriteAttempts int
}

// NewService creates a new tournament service.
func NewService(repo tournament.Repository, sessions session.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Repo:          repo,
		Sessions:      sessions,
		Logger:        logger,
		Clock:         func() time.Time { return time.Now().UTC() },
		NewID:         func() string { return uuid.Must(uuid.NewV4()).String() },
		WriteAttempts: defaultWriteAttempts,
	}
}

// mutate runs fn against a fresh read of the tournament and writes the
// result back, retrying on version conflicts. Domain rejections abort
// immediately; only stale writes retry.
func (s *Service) mutate(ctx context.Context, id shared.TournamentID, fn func(*tournament.Tournament) error) (*tournament.Tournament, error) {
	attempts := s.WriteAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		t, err := s.Repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(t); err != nil {
			return nil, err
		}
		updated, err := s.Repo.Update(ctx, t)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return nil, err
		}
		s.Logger.Debug("tournament write conflict, retrying",
			zap.String("tournament_id", string(id)),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, shared.ErrConflict
}

// CreateTournamentCommand contains parameters for creating a tournament.
type CreateTournamentCommand struct {
	Name             string
	ParticipantCount int
}

// CreateTournamentResult contains the created tournament.
type CreateTournamentResult struct {
	Tournament *tournament.Tournament
}

// CreateTournament creates a tournament in the waiting state with a fresh
// invite code.
func (s *Service) CreateTournament(ctx context.Context, cmd CreateTournamentCommand) (CreateTournamentResult, error) {
	now := s.Clock()
	id := shared.TournamentID(s.NewID())
	code := shared.InviteCode(s.newInviteCode())

	t, err := tournament.NewTournament(id, cmd.Name, cmd.ParticipantCount, code, now)
	if err != nil {
		return CreateTournamentResult{}, err
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		return CreateTournamentResult{}, err
	}
	return CreateTournamentResult{Tournament: t}, nil
}

// newInviteCode derives an opaque lowercase join token, independent of the
// tournament's storage identity.
func (s *Service) newInviteCode() string {
	raw := strings.ReplaceAll(s.NewID(), "-", "")
	if len(raw) > 12 {
		raw = raw[:12]
	}
	return strings.ToLower(raw)
}

// JoinCommand contains parameters for joining a tournament.
type JoinCommand struct {
	TournamentID shared.TournamentID
	Nickname     string
}

// JoinResult contains the updated tournament and the assigned player id.
type JoinResult struct {
	Tournament *tournament.Tournament
	PlayerID   shared.PlayerID
}

// Join registers a player and bookmarks the assigned id in the session
// store, keyed by tournament.
func (s *Service) Join(ctx context.Context, cmd JoinCommand) (JoinResult, error) {
	if err := cmd.TournamentID.Validate(); err != nil {
		return JoinResult{}, err
	}
	now := s.Clock()
	playerID := shared.PlayerID(s.NewID())

	updated, err := s.mutate(ctx, cmd.TournamentID, func(t *tournament.Tournament) error {
		_, err := t.Join(playerID, cmd.Nickname, now)
		return err
	})
	if err != nil {
		return JoinResult{}, err
	}

	bookmark, err := session.NewPlayerSession(cmd.TournamentID, playerID, strings.TrimSpace(cmd.Nickname), now)
	if err != nil {
		return JoinResult{}, err
	}
	if err := s.Sessions.Save(ctx, bookmark); err != nil {
		return JoinResult{}, err
	}

	return JoinResult{Tournament: updated, PlayerID: playerID}, nil
}

// StartTournamentCommand contains parameters for starting a tournament.
type StartTournamentCommand struct {
	TournamentID shared.TournamentID
}

// StartTournament activates the tournament and opens round 0.
func (s *Service) StartTournament(ctx context.Context, cmd StartTournamentCommand) (*tournament.Tournament, error) {
	if err := cmd.TournamentID.Validate(); err != nil {
		return nil, err
	}
	now := s.Clock()
	return s.mutate(ctx, cmd.TournamentID, func(t *tournament.Tournament) error {
		return t.Start(now)
	})
}

// SubmitPositionCommand contains parameters for a position submission.
type SubmitPositionCommand struct {
	TournamentID shared.TournamentID
	PlayerID     shared.PlayerID
	Position     int
}

// SubmitPosition records a finishing position for the current round.
func (s *Service) SubmitPosition(ctx context.Context, cmd SubmitPositionCommand) (*tournament.Tournament, error) {
	if err := cmd.TournamentID.Validate(); err != nil {
		return nil, err
	}
	if err := cmd.PlayerID.Validate(); err != nil {
		return nil, err
	}
	now := s.Clock()
	return s.mutate(ctx, cmd.TournamentID, func(t *tournament.Tournament) error {
		return t.SubmitPosition(cmd.PlayerID, cmd.Position, now)
	})
}

// SubmitMVPVoteCommand contains parameters for an MVP vote.
type SubmitMVPVoteCommand struct {
	TournamentID shared.TournamentID
	VoterID      shared.PlayerID
	TargetID     shared.PlayerID
}

// SubmitMVPVote records an MVP vote for the current round.
func (s *Service) SubmitMVPVote(ctx context.Context, cmd SubmitMVPVoteCommand) (*tournament.Tournament, error) {
	if err := cmd.TournamentID.Validate(); err != nil {
		return nil, err
	}
	if err := cmd.VoterID.Validate(); err != nil {
		return nil, err
	}
	if err := cmd.TargetID.Validate(); err != nil {
		return nil, err
	}
	now := s.Clock()
	return s.mutate(ctx, cmd.TournamentID, func(t *tournament.Tournament) error {
		return t.SubmitMVPVote(cmd.VoterID, cmd.TargetID, now)
	})
}

// EndRoundCommand contains parameters for ending the current round.
type EndRoundCommand struct {
	TournamentID shared.TournamentID
}

// EndRound settles the completed round if needed and opens the next one.
func (s *Service) EndRound(ctx context.Context, cmd EndRoundCommand) (*tournament.Tournament, error) {
	if err := cmd.TournamentID.Validate(); err != nil {
		return nil, err
	}
	now := s.Clock()
	return s.mutate(ctx, cmd.TournamentID, func(t *tournament.Tournament) error {
		return t.EndRound(now)
	})
}

// CloseTournamentCommand contains parameters for closing a tournament.
type CloseTournamentCommand struct {
	TournamentID shared.TournamentID
}

// CloseTournament marks the tournament completed.
func (s *Service) CloseTournament(ctx context.Context, cmd CloseTournamentCommand) (*tournament.Tournament, error) {
	if err := cmd.TournamentID.Validate(); err != nil {
		return nil, err
	}
	now := s.Clock()
	return s.mutate(ctx, cmd.TournamentID, func(t *tournament.Tournament) error {
		return t.Close(now)
	})
}

// DeleteTournamentCommand contains parameters for deleting a tournament.
type DeleteTournamentCommand struct {
	TournamentID shared.TournamentID
}

// DeleteTournament tombstones the tournament.
func (s *Service) DeleteTournament(ctx context.Context, cmd DeleteTournamentCommand) error {
	if err := cmd.TournamentID.Validate(); err != nil {
		return err
	}
	now := s.Clock()
	_, err := s.mutate(ctx, cmd.TournamentID, func(t *tournament.Tournament) error {
		return t.Delete(now)
	})
	return err
}

// GetTournamentQuery contains parameters for retrieving a tournament.
type GetTournamentQuery struct {
	TournamentID shared.TournamentID
}

// GetTournament retrieves a tournament by ID.
func (s *Service) GetTournament(ctx context.Context, query GetTournamentQuery) (*tournament.Tournament, error) {
	if err := query.TournamentID.Validate(); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, query.TournamentID)
}

// GetByInviteCodeQuery contains parameters for the join-flow lookup.
type GetByInviteCodeQuery struct {
	InviteCode shared.InviteCode
}

// GetByInviteCode retrieves a tournament by its invite code.
func (s *Service) GetByInviteCode(ctx context.Context, query GetByInviteCodeQuery) (*tournament.Tournament, error) {
	if err := query.InviteCode.Validate(); err != nil {
		return nil, err
	}
	return s.Repo.GetByInviteCode(ctx, query.InviteCode)
}

// ListTournamentsQuery contains parameters for listing tournaments.
type ListTournamentsQuery struct {
	Limit  int
	Offset int
}

// ListTournaments retrieves tournaments newest first.
func (s *Service) ListTournaments(ctx context.Context, query ListTournamentsQuery) ([]*tournament.Tournament, error) {
	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	return s.Repo.List(ctx, query.Limit, query.Offset)
}

// LeaderboardQuery contains parameters for the leaderboard projection.
type LeaderboardQuery struct {
	TournamentID shared.TournamentID
}

// Leaderboard returns players ranked by points then MVP votes.
func (s *Service) Leaderboard(ctx context.Context, query LeaderboardQuery) ([]*tournament.Player, error) {
	if err := query.TournamentID.Validate(); err != nil {
		return nil, err
	}
	t, err := s.Repo.Get(ctx, query.TournamentID)
	if err != nil {
		return nil, err
	}
	return t.Leaderboard(), nil
}
