package repository

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/vancomm/minefield/internal/mines"
)

// MemoryStore keeps the encoded board in memory. Nothing survives a
// restart.
type MemoryStore struct {
	mu  sync.Mutex
	doc []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*mines.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, mines.ErrNoSnapshot
	}
	return mines.DecodeSnapshot(s.doc)
}

func (s *MemoryStore) Save(ctx context.Context, snap *mines.Snapshot) error {
	doc, err := snap.Bytes()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// MemoryPlayers is an in-process player registry. When persist is set it
// is called with the whole registry after every change.
type MemoryPlayers struct {
	mu      sync.RWMutex
	now     func() time.Time
	players map[string]Player
	persist func(ctx context.Context, players map[string]Player) error
}

func newPlayer(params CreatePlayerParams, now time.Time) Player {
	return Player{
		Username:  params.Username,
		Avatar:    params.Avatar,
		Color:     params.Color,
		X:         params.X,
		Y:         params.Y,
		LastSeen:  now,
		CreatedAt: now,
	}
}

func NewMemoryPlayers() *MemoryPlayers {
	return &MemoryPlayers{
		now:     time.Now,
		players: make(map[string]Player),
	}
}

func (m *MemoryPlayers) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *MemoryPlayers) CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[params.Username]; ok {
		return nil, ErrNameTaken
	}
	p := newPlayer(params, m.now())
	m.players[p.Username] = p
	if err := m.save(ctx); err != nil {
		delete(m.players, p.Username)
		return nil, err
	}
	return &p, nil
}

func (m *MemoryPlayers) save(ctx context.Context) error {
	if m.persist == nil {
		return nil
	}
	return m.persist(ctx, m.players)
}

func (m *MemoryPlayers) FetchPlayer(ctx context.Context, username string) (*Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[username]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &p, nil
}

func (m *MemoryPlayers) EnsurePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	if p, err := m.FetchPlayer(ctx, params.Username); err == nil {
		return p, nil
	}
	return m.CreatePlayer(ctx, params)
}

func (m *MemoryPlayers) UpdatePlayerPosition(ctx context.Context, username string, x, y int) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[username]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	p.X, p.Y = x, y
	p.LastSeen = m.now()
	m.players[username] = p
	if err := m.save(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MemoryPlayers) ListOnlinePlayers(ctx context.Context, since time.Time) ([]Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	online := make([]Player, 0, len(m.players))
	for _, name := range slices.Sorted(maps.Keys(m.players)) {
		if p := m.players[name]; !p.LastSeen.Before(since) {
			online = append(online, p)
		}
	}
	return online, nil
}
