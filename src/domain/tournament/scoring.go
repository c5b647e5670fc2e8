package tournament

import (
	"sort"

	"github.com/podiumlab/racenight/src/domain/shared"
)

// PointsForPosition computes the points awarded for a finishing position.
// First place earns totalPlayers*2, each position down earns 2 fewer, with
// a floor of 1 point.
func PointsForPosition(position, totalPlayers int) int {
	points := totalPlayers*2 - (position-1)*2
	if points < 1 {
		return 1
	}
	return points
}

// settlePositions applies round points to player totals exactly once. A
// player without a submission scores 0 and has position 0 recorded for the
// round; that outcome is final and never retried.
func (t *Tournament) settlePositions(r *Round) {
	if r.PointsSettled {
		return
	}
	r.PointsSettled = true
	for _, p := range t.Players {
		pos, ok := r.Positions[p.ID]
		if !ok {
			p.Positions = append(p.Positions, 0)
			continue
		}
		p.Positions = append(p.Positions, pos)
		p.TotalPoints += PointsForPosition(pos, len(t.Players))
	}
}

// settleVotes tallies a round's MVP votes exactly once. Every player's
// MVPVotes counter grows by the raw votes they received; the single winner
// earns the +1 bonus point. Ties break to the earliest-joined player among
// the tied candidates.
func (t *Tournament) settleVotes(r *Round) {
	if r.VotesSettled {
		return
	}
	r.VotesSettled = true

	counts := make(map[shared.PlayerID]int, len(t.Players))
	for _, target := range r.Votes {
		counts[target]++
	}
	if len(counts) == 0 {
		return
	}

	var winner *Player
	best := 0
	for _, p := range t.Players {
		received := counts[p.ID]
		p.MVPVotes += received
		if received > best {
			best = received
			winner = p
		}
	}
	if winner != nil {
		winner.TotalPoints++
	}
}

// Leaderboard returns players ordered by total points descending, then MVP
// votes descending. The sort is stable so equal keys keep join order. The
// result is a projection over copies; mutating it never touches the
// aggregate.
func (t *Tournament) Leaderboard() []*Player {
	ranked := make([]*Player, len(t.Players))
	for i, p := range t.Players {
		ranked[i] = p.clone()
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalPoints != ranked[j].TotalPoints {
			return ranked[i].TotalPoints > ranked[j].TotalPoints
		}
		return ranked[i].MVPVotes > ranked[j].MVPVotes
	})
	return ranked
}
