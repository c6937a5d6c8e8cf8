package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/vancomm/minefield/internal/mines"
)

// LoadSnapshot reads the single board row.
func (q *Queries) LoadSnapshot(ctx context.Context) (*mines.Snapshot, error) {
	var state []byte
	err := q.db.QueryRow(ctx, "SELECT state FROM board_snapshot WHERE id = 1").Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, mines.ErrNoSnapshot
	} else if err != nil {
		return nil, err
	}
	return mines.DecodeSnapshot(state)
}

func (q *Queries) SaveSnapshot(ctx context.Context, snap *mines.Snapshot) error {
	state, err := snap.Bytes()
	if err != nil {
		return err
	}
	_, err = q.db.Exec(
		ctx,
		`INSERT INTO board_snapshot (id, generation, state, updated_at)
		VALUES (1, @generation, @state, now())
		ON CONFLICT (id) DO UPDATE SET
			generation = excluded.generation,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		pgx.NamedArgs{
			"generation": snap.Generation,
			"state":      state,
		},
	)
	return err
}

// PgSnapshotStore keeps the board in postgres.
type PgSnapshotStore struct {
	q *Queries
}

func NewPgSnapshotStore(q *Queries) *PgSnapshotStore {
	return &PgSnapshotStore{q: q}
}

func (s *PgSnapshotStore) Load(ctx context.Context) (*mines.Snapshot, error) {
	return s.q.LoadSnapshot(ctx)
}

func (s *PgSnapshotStore) Save(ctx context.Context, snap *mines.Snapshot) error {
	return s.q.SaveSnapshot(ctx, snap)
}
