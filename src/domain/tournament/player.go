package tournament

import (
	"strings"
	"time"

	"github.com/podiumlab/racenight/src/domain/shared"
)

// Player represents a registered player in a tournament. TotalPoints and
// MVPVotes only ever grow; Positions holds one entry per settled round,
// with 0 recorded when the player never submitted for that round.
type Player struct {
	ID          shared.PlayerID
	Nickname    string
	TotalPoints int
	MVPVotes    int
	Positions   []int
	JoinedAt    time.Time
}

// NewPlayer creates a player with zeroed scoring state.
func NewPlayer(id shared.PlayerID, nickname string, joinedAt time.Time) (*Player, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrEmptyNickname
	}
	return &Player{
		ID:       id,
		Nickname: nickname,
		JoinedAt: joinedAt,
	}, nil
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Positions = append([]int(nil), p.Positions...)
	return &cp
}
