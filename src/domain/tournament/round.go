package tournament

import "github.com/podiumlab/racenight/src/domain/shared"

// Round is one scored unit of competition. Positions maps a player to the
// finishing position they claimed (unique values 1..N). Votes maps a voter
// to the player they picked as MVP. PointsSettled and VotesSettled guard
// the two independent one-time settlement effects.
type Round struct {
	ID            int
	Positions     map[shared.PlayerID]int
	Votes         map[shared.PlayerID]shared.PlayerID
	Completed     bool
	PointsSettled bool
	VotesSettled  bool
}

func newRound(id int) *Round {
	return &Round{
		ID:        id,
		Positions: make(map[shared.PlayerID]int),
		Votes:     make(map[shared.PlayerID]shared.PlayerID),
	}
}

// PositionOf reports the position a player claimed this round, if any.
func (r *Round) PositionOf(playerID shared.PlayerID) (int, bool) {
	pos, ok := r.Positions[playerID]
	return pos, ok
}

// HasSubmittedPosition reports whether the player already claimed a position.
func (r *Round) HasSubmittedPosition(playerID shared.PlayerID) bool {
	_, ok := r.Positions[playerID]
	return ok
}

// HasVoted reports whether the player already cast an MVP vote.
func (r *Round) HasVoted(playerID shared.PlayerID) bool {
	_, ok := r.Votes[playerID]
	return ok
}

func (r *Round) positionTaken(pos int) bool {
	for _, taken := range r.Positions {
		if taken == pos {
			return true
		}
	}
	return false
}

func (r *Round) clone() *Round {
	cp := &Round{
		ID:            r.ID,
		Positions:     make(map[shared.PlayerID]int, len(r.Positions)),
		Votes:         make(map[shared.PlayerID]shared.PlayerID, len(r.Votes)),
		Completed:     r.Completed,
		PointsSettled: r.PointsSettled,
		VotesSettled:  r.VotesSettled,
	}
	for id, pos := range r.Positions {
		cp.Positions[id] = pos
	}
	for voter, target := range r.Votes {
		cp.Votes[voter] = target
	}
	return cp
}
