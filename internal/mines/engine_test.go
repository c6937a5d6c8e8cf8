package mines

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	Log.SetLevel(logrus.WarnLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	m.Run()
}

type testStore struct {
	mu      sync.Mutex
	raw     []byte
	saves   int
	loadErr error
	saveErr error
}

func (s *testStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.raw == nil {
		return nil, ErrNoSnapshot
	}
	return DecodeSnapshot(s.raw)
}

func (s *testStore) Save(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	buf, err := snap.Bytes()
	if err != nil {
		return err
	}
	s.raw = buf
	return nil
}

func newTestEngine(t *testing.T, store Store, b *Board) *Engine {
	t.Helper()
	params := DefaultParams()
	params.Width, params.Height = b.Width, b.Height
	e, err := NewEngine(store, params, WithBoard(b), WithRand(testRand()))
	require.NoError(t, err)
	return e
}

func TestEngineRevealFloodFill(t *testing.T) {
	store := &testStore{}
	e := newTestEngine(t, store, NewBoardWithMines(5, 5, Pt(0, 0), Pt(4, 4)))
	ctx := context.Background()

	require.Zero(t, e.AdjacentMineCount(2, 2))

	res, err := e.Reveal(ctx, 2, 2, "Alex")
	require.NoError(t, err)
	assert.Equal(t, RevealSafe, res.Status)
	assert.Len(t, res.Cells, 23)
	assert.Equal(t, 23, res.Score)
	assert.Equal(t, 23, e.ScoreOf("Alex"))
	assert.Equal(t, 23, e.RevealedCount())
	assert.False(t, e.IsRevealed(0, 0))
	assert.False(t, e.IsRevealed(4, 4))
	assert.Equal(t, 1, store.saves)
}

func TestEngineRevealMineColumn(t *testing.T) {
	e := newTestEngine(t, &testStore{}, NewBoardWithMines(7, 3, Pt(3, 0), Pt(3, 1), Pt(3, 2)))

	res, err := e.Reveal(context.Background(), 0, 1, "Bob")
	require.NoError(t, err)
	assert.Len(t, res.Cells, 9)
	assert.Equal(t, 9, e.ScoreOf("Bob"))
	for x := 4; x < 7; x++ {
		for y := range 3 {
			assert.False(t, e.IsRevealed(x, y))
		}
	}
}

func TestEngineRevealNoop(t *testing.T) {
	store := &testStore{}
	e := newTestEngine(t, store, NewBoardWithMines(5, 5, Pt(0, 0), Pt(4, 4)))
	ctx := context.Background()

	_, err := e.Reveal(ctx, 2, 2, "Alex")
	require.NoError(t, err)
	before := e.Snapshot()

	res, err := e.Reveal(ctx, 2, 2, "Alex")
	require.NoError(t, err)
	assert.Equal(t, RevealNoop, res.Status)
	assert.Empty(t, res.Cells)
	assert.Equal(t, 23, res.Score)
	assert.Equal(t, before, e.Snapshot())
	assert.Equal(t, 1, store.saves)

	res, err = e.Reveal(ctx, -1, 7, "Alex")
	require.NoError(t, err)
	assert.Equal(t, RevealNoop, res.Status)
}

func TestEngineRevealMineResetsScore(t *testing.T) {
	b := NewBoardWithMines(5, 5, Pt(0, 0), Pt(4, 4))
	b.scores["Charlie"] = 35
	e := newTestEngine(t, &testStore{}, b)

	res, err := e.Reveal(context.Background(), 4, 4, "Charlie")
	require.NoError(t, err)
	assert.Equal(t, RevealMine, res.Status)
	assert.Len(t, res.Cells, 1)
	assert.True(t, res.Cells[0].Mine)
	assert.Zero(t, res.Score)
	assert.Zero(t, e.ScoreOf("Charlie"))
	assert.Equal(t, 1, e.RevealedCount())
}

func TestEngineToggleFlag(t *testing.T) {
	store := &testStore{}
	e := newTestEngine(t, store, NewBoardWithMines(5, 5, Pt(0, 0), Pt(4, 4)))
	ctx := context.Background()

	res, err := e.ToggleFlag(ctx, 0, 0, "Alex", "🚀")
	require.NoError(t, err)
	assert.True(t, res.Flagged)

	res, err = e.ToggleFlag(ctx, 0, 0, "Alex", "🚀")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Flagged)
	_, ok := e.Marker(0, 0)
	assert.False(t, ok)

	_, err = e.Reveal(ctx, 2, 2, "Alex")
	require.NoError(t, err)
	res, err = e.ToggleFlag(ctx, 2, 2, "Alex", "🚀")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 3, store.saves)
}

func TestEngineRegeneratePreservesScores(t *testing.T) {
	b := NewBoardWithMines(10, 10, Pt(0, 0), Pt(4, 4))
	b.scores["Diana"] = 19
	e := newTestEngine(t, &testStore{}, b)
	ctx := context.Background()

	_, err := e.Reveal(ctx, 9, 9, "Eve")
	require.NoError(t, err)
	_, err = e.ToggleFlag(ctx, 0, 0, "Diana", "🌈")
	require.NoError(t, err)
	scores := e.Scores()
	old := e.Generation()

	gen, err := e.Regenerate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, old, gen)
	assert.Equal(t, scores, e.Scores())
	assert.Zero(t, e.RevealedCount())
	assert.Empty(t, e.View(0, 0, 10, 10).Markers)
	assert.Equal(t, MineCountFor(10, 10, DefaultDensity), e.MineCount())
}

func TestEngineSaveFailureKeepsState(t *testing.T) {
	boom := errors.New("disk on fire")
	store := &testStore{saveErr: boom}
	e := newTestEngine(t, store, NewBoardWithMines(5, 5, Pt(0, 0), Pt(4, 4)))

	res, err := e.Reveal(context.Background(), 2, 2, "Alex")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, boom)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "reveal", perr.Op)

	assert.Equal(t, RevealSafe, res.Status)
	assert.Equal(t, 23, e.ScoreOf("Alex"))
	assert.Equal(t, 23, e.RevealedCount())
}

func TestEngineLoad(t *testing.T) {
	ctx := context.Background()
	params := DefaultParams()
	params.Width, params.Height = 12, 8
	params.Baseline = map[string]int{"Anton": 42, "Bob": 27}

	t.Run("empty store", func(t *testing.T) {
		store := &testStore{}
		e, err := NewEngine(store, params, WithRand(testRand()))
		require.NoError(t, err)

		require.NoError(t, e.Load(ctx))
		assert.Equal(t, params.Baseline, e.Scores())
		assert.Equal(t, 1, store.saves)
		assert.NotNil(t, store.raw)
	})

	t.Run("stored board", func(t *testing.T) {
		store := &testStore{}
		first := newTestEngine(t, store, NewBoardWithMines(12, 8, Pt(5, 5)))
		_, err := first.Reveal(ctx, 0, 0, "Alex")
		require.NoError(t, err)
		_, err = first.ToggleFlag(ctx, 5, 5, "Alex", "🚀")
		require.NoError(t, err)

		e, err := NewEngine(store, params, WithRand(testRand()))
		require.NoError(t, err)
		require.NoError(t, e.Load(ctx))
		assert.Equal(t, first.Snapshot(), e.Snapshot())
		assert.Equal(t, first.Generation(), e.Generation())
		assert.True(t, e.IsMine(5, 5))
		m, ok := e.Marker(5, 5)
		require.True(t, ok)
		assert.Equal(t, "Alex", m.Owner)
	})

	t.Run("malformed", func(t *testing.T) {
		store := &testStore{raw: []byte(`{"width":3,"height":3,"positions":[{"x":7,"y":1}]}`)}
		e, err := NewEngine(store, params, WithRand(testRand()))
		require.NoError(t, err)

		require.NoError(t, e.Load(ctx))
		w, h := e.Dims()
		assert.Equal(t, 12, w)
		assert.Equal(t, 8, h)
		assert.Equal(t, params.Baseline, e.Scores())
	})

	t.Run("read failure", func(t *testing.T) {
		store := &testStore{loadErr: errors.New("connection refused")}
		e, err := NewEngine(store, params, WithRand(testRand()))
		require.NoError(t, err)

		err = e.Load(ctx)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.Equal(t, MineCountFor(12, 8, DefaultDensity), e.MineCount())
		assert.Equal(t, 0, store.saves)
	})
}

func TestDecodeSnapshotValidation(t *testing.T) {
	for name, doc := range map[string]string{
		"not json":        `{"width":`,
		"zero size":       `{"width":0,"height":3}`,
		"mine outside":    `{"width":3,"height":3,"positions":[{"x":3,"y":0}]}`,
		"duplicate mine":  `{"width":3,"height":3,"positions":[{"x":1,"y":1},{"x":1,"y":1}]}`,
		"bad key":         `{"width":3,"height":3,"revealed":{"one,two":true}}`,
		"marker revealed": `{"width":3,"height":3,"revealed":{"1,1":true},"markers":{"1,1":{"username":"Bob","avatar":"🎮"}}}`,
		"board full":      `{"width":1,"height":1,"positions":[{"x":0,"y":0}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(doc))
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
		})
	}
}

func TestEngineView(t *testing.T) {
	e := newTestEngine(t, &testStore{}, NewBoardWithMines(7, 3, Pt(3, 0), Pt(3, 1), Pt(3, 2)))
	ctx := context.Background()
	_, err := e.Reveal(ctx, 0, 0, "Bob")
	require.NoError(t, err)
	_, err = e.ToggleFlag(ctx, 3, 1, "Bob", "🎮")
	require.NoError(t, err)

	v := e.View(2, -4, 10, 10)
	assert.Equal(t, 2, v.X)
	assert.Equal(t, 0, v.Y)
	assert.Equal(t, 5, v.Width)
	assert.Equal(t, 3, v.Height)
	assert.Len(t, v.Cells, 3)
	require.Len(t, v.Markers, 1)
	assert.Equal(t, Pt(3, 1), v.Markers[0].Point)
	assert.Equal(t, "Bob", v.Markers[0].Owner)
}

func TestEngineConcurrentMutations(t *testing.T) {
	e := newTestEngine(t, &testStore{}, NewBoardWithMines(20, 20))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.ToggleFlag(ctx, i, i, "Alex", "🚀")
			_ = e.Leaderboard(3)
		}()
	}
	wg.Wait()
	assert.Len(t, e.View(0, 0, 20, 20).Markers, 20)
}
