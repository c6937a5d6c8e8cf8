package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vancomm/minefield/internal/mines"
)

var (
	ErrBadName  = fmt.Errorf("bad name for store")
	ErrNotFound = fmt.Errorf("value not found")
)

// KVStore is a gob-encoded key-value table in an SQL database, sqlite in
// practice.
type KVStore struct {
	mu   sync.Mutex
	name string
	db   *sql.DB
}

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
	}
	return true
}

// NewKVStore creates the backing table if needed. name may only contain
// Latin letters and underscores since it is spliced into the queries.
func NewKVStore(ctx context.Context, db *sql.DB, name string) (*KVStore, error) {
	if !isLetters(name) {
		return nil, ErrBadName
	}

	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+name+` (
	key		TEXT PRIMARY KEY,
	value	BLOB
);`)
	if err != nil {
		return nil, err
	}
	return &KVStore{name: name, db: db}, nil
}

// Get decodes the value under key into value, which must be a pointer or
// nil. A missing key yields [ErrNotFound].
func (s *KVStore) Get(ctx context.Context, key string, value any) error {
	var v []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM `+s.name+` WHERE key = ?;`, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return gob.NewDecoder(bytes.NewReader(v)).Decode(value)
}

// Set inserts or replaces the value under key.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO `+s.name+` (key, value)
VALUES (?, ?)
ON CONFLICT(key)
DO UPDATE SET value=excluded.value;`,
		key, buf.Bytes())
	return err
}

// Delete removes key without checking that it existed.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM `+s.name+` WHERE key = ?;`, key)
	return err
}

func (s *KVStore) Count(ctx context.Context) (count int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.name+`;`).Scan(&count)
	return
}

func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM `+s.name+` ORDER BY key;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

const boardKey = "board"

// KVSnapshotStore keeps the board document under a single key.
type KVSnapshotStore struct {
	kv *KVStore
}

func NewKVSnapshotStore(kv *KVStore) *KVSnapshotStore {
	return &KVSnapshotStore{kv: kv}
}

func (s *KVSnapshotStore) Load(ctx context.Context) (*mines.Snapshot, error) {
	var doc []byte
	err := s.kv.Get(ctx, boardKey, &doc)
	if errors.Is(err, ErrNotFound) {
		return nil, mines.ErrNoSnapshot
	} else if err != nil {
		return nil, err
	}
	return mines.DecodeSnapshot(doc)
}

func (s *KVSnapshotStore) Save(ctx context.Context, snap *mines.Snapshot) error {
	doc, err := snap.Bytes()
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, boardKey, doc)
}

const playerPrefix = "player:"

// KVPlayers is a player registry kept in a [KVStore], one gob value per
// player under "player:<name>".
type KVPlayers struct {
	mu  sync.Mutex
	kv  *KVStore
	now func() time.Time
}

func NewKVPlayers(kv *KVStore) *KVPlayers {
	return &KVPlayers{kv: kv, now: time.Now}
}

func (s *KVPlayers) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *KVPlayers) get(ctx context.Context, username string) (*Player, error) {
	var p Player
	err := s.kv.Get(ctx, playerPrefix+username, &p)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrPlayerNotFound
	} else if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *KVPlayers) CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(ctx, params.Username); err == nil {
		return nil, ErrNameTaken
	} else if !errors.Is(err, ErrPlayerNotFound) {
		return nil, err
	}
	p := newPlayer(params, s.now())
	if err := s.kv.Set(ctx, playerPrefix+p.Username, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *KVPlayers) FetchPlayer(ctx context.Context, username string) (*Player, error) {
	return s.get(ctx, username)
}

func (s *KVPlayers) EnsurePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	if p, err := s.get(ctx, params.Username); err == nil {
		return p, nil
	}
	return s.CreatePlayer(ctx, params)
}

func (s *KVPlayers) UpdatePlayerPosition(ctx context.Context, username string, x, y int) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.get(ctx, username)
	if err != nil {
		return nil, err
	}
	p.X, p.Y = x, y
	p.LastSeen = s.now()
	if err := s.kv.Set(ctx, playerPrefix+username, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *KVPlayers) ListOnlinePlayers(ctx context.Context, since time.Time) ([]Player, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, err
	}
	online := []Player{}
	for _, key := range keys {
		name, ok := strings.CutPrefix(key, playerPrefix)
		if !ok {
			continue
		}
		p, err := s.get(ctx, name)
		if err != nil {
			return nil, err
		}
		if !p.LastSeen.Before(since) {
			online = append(online, *p)
		}
	}
	return online, nil
}
