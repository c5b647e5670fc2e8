package tournament

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/podiumlab/racenight/src/domain/shared"
	"github.com/podiumlab/racenight/src/domain/tournament"
)

const schema = `
CREATE TABLE IF NOT EXISTS tournaments (
	id          TEXT PRIMARY KEY,
	invite_code TEXT NOT NULL UNIQUE,
	status      TEXT NOT NULL,
	version     BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	doc         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS tournaments_created_at_idx ON tournaments (created_at DESC);
`

// PostgresRepository implements tournament.Repository on Postgres. Each
// tournament is one row: lookup keys and the version live in columns, the
// aggregate itself in a JSONB document. Compare-and-set runs as a single
// conditional UPDATE, so settlement effects land atomically with the write
// that completed the round.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the tournaments table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return storeErr("ensure schema", err)
	}
	return nil
}

// Create inserts a new tournament at version 1.
func (r *PostgresRepository) Create(ctx context.Context, t *tournament.Tournament) error {
	doc, err := marshalDoc(t)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO tournaments (id, invite_code, status, version, created_at, doc)
		 VALUES ($1, $2, $3, 1, $4, $5)`,
		string(t.ID), string(t.InviteCode), string(t.Status), t.CreatedAt, string(doc),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return shared.ErrConflict
		}
		return storeErr("insert tournament", err)
	}
	t.Version = 1
	return nil
}

// Get retrieves a tournament by ID.
func (r *PostgresRepository) Get(ctx context.Context, id shared.TournamentID) (*tournament.Tournament, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, invite_code, status, version, created_at, doc FROM tournaments WHERE id = $1`,
		string(id),
	)
	return scanTournament(row)
}

// GetByInviteCode retrieves a tournament by its join token.
func (r *PostgresRepository) GetByInviteCode(ctx context.Context, code shared.InviteCode) (*tournament.Tournament, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, invite_code, status, version, created_at, doc FROM tournaments WHERE invite_code = $1`,
		string(code),
	)
	return scanTournament(row)
}

// Update writes the aggregate back when the stored version still matches,
// bumping the version in the same statement. Zero rows affected means
// either a stale writer or a missing row; the follow-up read tells the two
// apart.
func (r *PostgresRepository) Update(ctx context.Context, t *tournament.Tournament) (*tournament.Tournament, error) {
	doc, err := marshalDoc(t)
	if err != nil {
		return nil, err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE tournaments SET status = $1, version = version + 1, doc = $2
		 WHERE id = $3 AND version = $4`,
		string(t.Status), string(doc), string(t.ID), t.Version,
	)
	if err != nil {
		return nil, storeErr("update tournament", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.Get(ctx, t.ID); getErr != nil {
			return nil, getErr
		}
		return nil, shared.ErrConflict
	}
	updated := t.Clone()
	updated.Version = t.Version + 1
	return updated, nil
}

// List retrieves tournaments newest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*tournament.Tournament, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, invite_code, status, version, created_at, doc FROM tournaments
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, storeErr("list tournaments", err)
	}
	defer rows.Close()

	tournaments := []*tournament.Tournament{}
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list tournaments", err)
	}
	return tournaments, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrUnavailable, op, err)
}

// tournamentDoc is the JSONB shape. Field names follow the store's
// snake_case convention.
type tournamentDoc struct {
	Name             string      `json:"name"`
	ParticipantCount int         `json:"participant_count"`
	CurrentRound     int         `json:"current_round"`
	Players          []playerDoc `json:"players"`
	Rounds           []roundDoc  `json:"rounds"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type playerDoc struct {
	ID          string    `json:"id"`
	Nickname    string    `json:"nickname"`
	TotalPoints int       `json:"total_points"`
	MVPVotes    int       `json:"mvp_votes"`
	Positions   []int     `json:"positions"`
	JoinedAt    time.Time `json:"joined_at"`
}

type roundDoc struct {
	ID            int               `json:"id"`
	Positions     map[string]int    `json:"positions"`
	Votes         map[string]string `json:"mvp_votes"`
	Completed     bool              `json:"completed"`
	PointsSettled bool              `json:"points_settled"`
	VotesSettled  bool              `json:"votes_settled"`
}

func marshalDoc(t *tournament.Tournament) ([]byte, error) {
	doc := tournamentDoc{
		Name:             t.Name,
		ParticipantCount: t.ParticipantCount,
		CurrentRound:     t.CurrentRound,
		Players:          make([]playerDoc, len(t.Players)),
		Rounds:           make([]roundDoc, len(t.Rounds)),
		UpdatedAt:        t.UpdatedAt,
	}
	for i, p := range t.Players {
		doc.Players[i] = playerDoc{
			ID:          string(p.ID),
			Nickname:    p.Nickname,
			TotalPoints: p.TotalPoints,
			MVPVotes:    p.MVPVotes,
			Positions:   p.Positions,
			JoinedAt:    p.JoinedAt,
		}
	}
	for i, r := range t.Rounds {
		rd := roundDoc{
			ID:            r.ID,
			Positions:     make(map[string]int, len(r.Positions)),
			Votes:         make(map[string]string, len(r.Votes)),
			Completed:     r.Completed,
			PointsSettled: r.PointsSettled,
			VotesSettled:  r.VotesSettled,
		}
		for id, pos := range r.Positions {
			rd.Positions[string(id)] = pos
		}
		for voter, target := range r.Votes {
			rd.Votes[string(voter)] = string(target)
		}
		doc.Rounds[i] = rd
	}
	return json.Marshal(doc)
}

func scanTournament(row pgx.Row) (*tournament.Tournament, error) {
	var (
		id, code, status string
		version          int64
		createdAt        time.Time
		raw              []byte
	)
	if err := row.Scan(&id, &code, &status, &version, &createdAt, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tournament.ErrTournamentNotFound
		}
		return nil, storeErr("scan tournament", err)
	}

	var doc tournamentDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode tournament doc: %w", err)
	}

	t := &tournament.Tournament{
		ID:               shared.TournamentID(id),
		Name:             doc.Name,
		ParticipantCount: doc.ParticipantCount,
		InviteCode:       shared.InviteCode(code),
		Status:           tournament.Status(status),
		CurrentRound:     doc.CurrentRound,
		Players:          make([]*tournament.Player, len(doc.Players)),
		Rounds:           make([]*tournament.Round, len(doc.Rounds)),
		Version:          version,
		CreatedAt:        createdAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	for i, p := range doc.Players {
		t.Players[i] = &tournament.Player{
			ID:          shared.PlayerID(p.ID),
			Nickname:    p.Nickname,
			TotalPoints: p.TotalPoints,
			MVPVotes:    p.MVPVotes,
			Positions:   p.Positions,
			JoinedAt:    p.JoinedAt,
		}
	}
	for i, rd := range doc.Rounds {
		round := &tournament.Round{
			ID:            rd.ID,
			Positions:     make(map[shared.PlayerID]int, len(rd.Positions)),
			Votes:         make(map[shared.PlayerID]shared.PlayerID, len(rd.Votes)),
			Completed:     rd.Completed,
			PointsSettled: rd.PointsSettled,
			VotesSettled:  rd.VotesSettled,
		}
		for pid, pos := range rd.Positions {
			round.Positions[shared.PlayerID(pid)] = pos
		}
		for voter, target := range rd.Votes {
			round.Votes[shared.PlayerID(voter)] = shared.PlayerID(target)
		}
		t.Rounds[i] = round
	}
	return t, nil
}
