package tournament

import (
	"context"

	"github.com/podiumlab/racenight/src/domain/shared"
)

// Repository manages tournament persistence. Update is a compare-and-set
// on the aggregate's Version: implementations must reject stale writes
// with shared.ErrConflict and bump the version on success.
type Repository interface {
	Create(ctx context.Context, t *Tournament) error
	Get(ctx context.Context, id shared.TournamentID) (*Tournament, error)
	GetByInviteCode(ctx context.Context, code shared.InviteCode) (*Tournament, error)
	Update(ctx context.Context, t *Tournament) (*Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*Tournament, error)
}
