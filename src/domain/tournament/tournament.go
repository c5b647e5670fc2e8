package tournament

import (
	"errors"
	"strings"
	"time"

	"github.com/podiumlab/racenight/src/domain/shared"
)

// Status represents the lifecycle state.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
)

// MaxParticipants caps tournament capacity.
const MaxParticipants = 50

// Tournament aggregate owns players, rounds and all scoring transitions.
// Version is the optimistic concurrency counter bumped by the store on
// every successful write; mutations never change it themselves.
type Tournament struct {
	ID               shared.TournamentID
	Name             string
	ParticipantCount int
	InviteCode       shared.InviteCode
	Status           Status
	CurrentRound     int
	Players          []*Player
	Rounds           []*Round
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTournament creates a tournament in the waiting state with no players
// and no rounds.
func NewTournament(id shared.TournamentID, name string, participantCount int, inviteCode shared.InviteCode, now time.Time) (*Tournament, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name is required")
	}
	if participantCount < 1 {
		return nil, errors.New("participant count must be positive")
	}
	if participantCount > MaxParticipants {
		return nil, errors.New("participant count exceeds maximum")
	}
	if err := inviteCode.Validate(); err != nil {
		return nil, err
	}

	return &Tournament{
		ID:               id,
		Name:             strings.TrimSpace(name),
		ParticipantCount: participantCount,
		InviteCode:       inviteCode,
		Status:           StatusWaiting,
		Players:          []*Player{},
		Rounds:           []*Round{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Join registers a new player. Nicknames are unique case-insensitively and
// players may only join while the tournament is waiting.
func (t *Tournament) Join(playerID shared.PlayerID, nickname string, now time.Time) (*Player, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	if t.Status != StatusWaiting {
		return nil, ErrAlreadyStarted
	}
	if len(t.Players) >= t.ParticipantCount {
		return nil, ErrTournamentFull
	}
	player, err := NewPlayer(playerID, nickname, now)
	if err != nil {
		return nil, err
	}
	for _, existing := range t.Players {
		if strings.EqualFold(existing.Nickname, player.Nickname) {
			return nil, ErrDuplicateNickname
		}
	}
	t.Players = append(t.Players, player)
	t.UpdatedAt = now
	return player, nil
}

// Start activates the tournament and opens round 0.
func (t *Tournament) Start(now time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if len(t.Players) < 1 {
		return ErrInsufficientPlayers
	}
	t.Status = StatusActive
	t.Rounds = []*Round{newRound(0)}
	t.CurrentRound = 0
	t.UpdatedAt = now
	return nil
}

// SubmitPosition records a player's finishing position for the current
// round. When the last registered player submits, the round completes and
// its points settle in the same mutation.
func (t *Tournament) SubmitPosition(playerID shared.PlayerID, position int, now time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.Status != StatusActive {
		return ErrNotActive
	}
	round, err := t.currentRound()
	if err != nil {
		return err
	}
	if t.playerByID(playerID) == nil {
		return ErrUnknownPlayer
	}
	if position < 1 || position > len(t.Players) {
		return ErrInvalidPosition
	}
	if round.HasSubmittedPosition(playerID) {
		return ErrAlreadySubmitted
	}
	if round.positionTaken(position) {
		return ErrPositionTaken
	}

	round.Positions[playerID] = position
	if len(round.Positions) == len(t.Players) {
		round.Completed = true
		t.settlePositions(round)
	}
	t.UpdatedAt = now
	return nil
}

// SubmitMVPVote records one player's MVP vote for the current round. When
// the last registered player votes, the tally settles in the same mutation.
// Vote completion is independent of position completion.
func (t *Tournament) SubmitMVPVote(voterID, targetID shared.PlayerID, now time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.Status != StatusActive {
		return ErrNotActive
	}
	round, err := t.currentRound()
	if err != nil {
		return err
	}
	if t.playerByID(voterID) == nil {
		return ErrUnknownPlayer
	}
	if voterID == targetID {
		return ErrSelfVote
	}
	if t.playerByID(targetID) == nil {
		return ErrUnknownTarget
	}
	if round.HasVoted(voterID) {
		return ErrAlreadyVoted
	}

	round.Votes[voterID] = targetID
	if len(round.Votes) == len(t.Players) {
		t.settleVotes(round)
	}
	t.UpdatedAt = now
	return nil
}

// EndRound advances to the next round. The current round must be complete;
// its points settle here if they have not already, so the transition is
// idempotent with respect to point application.
func (t *Tournament) EndRound(now time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.Status != StatusActive {
		return ErrNotActive
	}
	round, err := t.currentRound()
	if err != nil {
		return err
	}
	if !round.Completed {
		return ErrRoundIncomplete
	}
	t.settlePositions(round)
	t.Rounds = append(t.Rounds, newRound(round.ID+1))
	t.CurrentRound++
	t.UpdatedAt = now
	return nil
}

// Close ends the tournament. No further rounds or score mutations are
// accepted afterwards.
func (t *Tournament) Close(now time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.Status = StatusCompleted
	t.UpdatedAt = now
	return nil
}

// Delete tombstones the tournament. Valid from any non-deleted state.
func (t *Tournament) Delete(now time.Time) error {
	if t.Status == StatusDeleted {
		return ErrTournamentDeleted
	}
	t.Status = StatusDeleted
	t.UpdatedAt = now
	return nil
}

// writable rejects mutations against terminal states.
func (t *Tournament) writable() error {
	switch t.Status {
	case StatusCompleted:
		return ErrTournamentCompleted
	case StatusDeleted:
		return ErrTournamentDeleted
	}
	return nil
}

func (t *Tournament) currentRound() (*Round, error) {
	if len(t.Rounds) == 0 || t.CurrentRound < 0 || t.CurrentRound >= len(t.Rounds) {
		return nil, ErrInvalidRound
	}
	return t.Rounds[t.CurrentRound], nil
}

// Round returns the round currently accepting submissions.
func (t *Tournament) Round() (*Round, error) {
	return t.currentRound()
}

func (t *Tournament) playerByID(id shared.PlayerID) *Player {
	for _, p := range t.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByID returns the registered player with the given id.
func (t *Tournament) PlayerByID(id shared.PlayerID) (*Player, error) {
	if p := t.playerByID(id); p != nil {
		return p, nil
	}
	return nil, ErrUnknownPlayer
}

// AvailablePositions lists the positions not yet claimed in the current
// round, in ascending order. Recomputed on demand, never stored.
func (t *Tournament) AvailablePositions() []int {
	available := []int{}
	round, err := t.currentRound()
	if err != nil {
		return available
	}
	for pos := 1; pos <= len(t.Players); pos++ {
		if !round.positionTaken(pos) {
			available = append(available, pos)
		}
	}
	return available
}

// Clone returns a deep copy. Stores hand out clones so callers never share
// mutable state with persisted aggregates.
func (t *Tournament) Clone() *Tournament {
	cp := *t
	cp.Players = make([]*Player, len(t.Players))
	for i, p := range t.Players {
		cp.Players[i] = p.clone()
	}
	cp.Rounds = make([]*Round, len(t.Rounds))
	for i, r := range t.Rounds {
		cp.Rounds[i] = r.clone()
	}
	return &cp
}
