package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vancomm/minefield/internal/mines"
)

// OnlineWindow is how long after its last update a player still counts as
// online.
const OnlineWindow = 5 * time.Minute

type Player struct {
	Username  string    `json:"username" db:"username"`
	Avatar    string    `json:"avatar" db:"avatar"`
	Color     string    `json:"color" db:"color"`
	X         int       `json:"x" db:"x"`
	Y         int       `json:"y" db:"y"`
	LastSeen  time.Time `json:"last_seen" db:"last_seen"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (p Player) Position() mines.Point {
	return mines.Pt(p.X, p.Y)
}

type CreatePlayerParams struct {
	Username string `schema:"username,required"`
	Avatar   string `schema:"avatar"`
	Color    string `schema:"color"`
	X        int    `schema:"x"`
	Y        int    `schema:"y"`
}

func (q *Queries) CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO player (username, avatar, color, x, y)
		VALUES (@username, @avatar, @color, @x, @y)
		RETURNING username, avatar, color, x, y, last_seen, created_at`,
		pgx.NamedArgs{
			"username": params.Username,
			"avatar":   params.Avatar,
			"color":    params.Color,
			"x":        params.X,
			"y":        params.Y,
		},
	)
	player, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return nil, ErrNameTaken
	}
	return player, err
}

func (q *Queries) FetchPlayer(ctx context.Context, username string) (*Player, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT username, avatar, color, x, y, last_seen, created_at
		FROM player WHERE username = $1`,
		username,
	)
	player, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	return player, err
}

// EnsurePlayer creates the player unless one with the same name exists,
// and returns the stored row either way.
func (q *Queries) EnsurePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	player, err := q.CreatePlayer(ctx, params)
	if errors.Is(err, ErrNameTaken) {
		return q.FetchPlayer(ctx, params.Username)
	}
	return player, err
}

// UpdatePlayerPosition moves the player and marks it as seen.
func (q *Queries) UpdatePlayerPosition(ctx context.Context, username string, x, y int) (*Player, error) {
	rows, _ := q.db.Query(
		ctx,
		`UPDATE player SET x = @x, y = @y, last_seen = now()
		WHERE username = @username
		RETURNING username, avatar, color, x, y, last_seen, created_at`,
		pgx.NamedArgs{"username": username, "x": x, "y": y},
	)
	player, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	return player, err
}

func (q *Queries) ListOnlinePlayers(ctx context.Context, since time.Time) ([]Player, error) {
	rows, err := q.db.Query(
		ctx,
		`SELECT username, avatar, color, x, y, last_seen, created_at
		FROM player WHERE last_seen >= $1
		ORDER BY username`,
		since,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Player])
}
