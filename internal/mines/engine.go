package mines

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Store persists board snapshots. Load returns [ErrNoSnapshot] when nothing
// has been saved yet.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}

type Params struct {
	Width, Height int
	Density       float64
	// Baseline seeds the scores of a board created without a stored
	// snapshot.
	Baseline    map[string]int
	SaveTimeout time.Duration
}

func DefaultParams() Params {
	return Params{
		Width:       30,
		Height:      30,
		Density:     DefaultDensity,
		SaveTimeout: 5 * time.Second,
	}
}

type RevealStatus int

const (
	RevealNoop RevealStatus = iota
	RevealSafe
	RevealMine
)

func (s RevealStatus) String() string {
	switch s {
	case RevealSafe:
		return "safe"
	case RevealMine:
		return "mine"
	default:
		return "noop"
	}
}

// RevealResult is the delta produced by one reveal.
type RevealResult struct {
	Status RevealStatus
	Player string
	Cells  []Cell
	Score  int
}

type Option func(*Engine)

// WithBoard starts the engine from b instead of a freshly generated board.
func WithBoard(b *Board) Option {
	return func(e *Engine) { e.board = b }
}

func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rand = r }
}

func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.log = l }
}

/*
Engine owns the authoritative board. Mutations are serialised by a writer
lock held across the change and its persistence; the board itself sits
behind a read-write lock that is released before the store is called, so
readers never wait on I/O.
*/
type Engine struct {
	store  Store
	params Params
	log    *logrus.Logger
	rand   *rand.Rand

	write sync.Mutex
	mu    sync.RWMutex
	board *Board
}

func NewEngine(store Store, params Params, opts ...Option) (*Engine, error) {
	if err := validateDims(params.Width, params.Height, params.Density); err != nil {
		return nil, err
	}
	e := &Engine{
		store:  store,
		params: params,
		log:    Log,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.board == nil {
		e.board = e.fresh()
	}
	return e, nil
}

func (e *Engine) fresh() *Board {
	scores := make(map[string]int, len(e.params.Baseline))
	for player, score := range e.params.Baseline {
		scores[player] = score
	}
	b := newBoard(e.params.Width, e.params.Height, scores)
	b.placeMines(MineCountFor(b.Width, b.Height, e.params.Density), e.rand)
	return b
}

// Load restores the board from the store. A missing or malformed snapshot
// is replaced by a fresh board which is then saved. When the store cannot
// be read at all the engine still switches to a fresh board, and the read
// failure is returned as a [PersistenceError].
func (e *Engine) Load(ctx context.Context) error {
	e.write.Lock()
	defer e.write.Unlock()

	snap, err := e.store.Load(ctx)
	if err == nil && snap == nil {
		err = ErrNoSnapshot
	}
	if err == nil {
		var b *Board
		if b, err = snap.Board(); err == nil {
			e.swap(b)
			e.log.WithFields(logrus.Fields{
				"generation": b.Generation,
				"revealed":   b.RevealedCount(),
				"players":    len(b.scores),
			}).Info("board restored")
			return nil
		}
	}

	b := e.fresh()
	e.swap(b)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		e.log.WithField("generation", b.Generation).Info("no stored board, generated a new one")
	case errors.Is(err, ErrMalformedSnapshot):
		e.log.WithError(err).Warn("stored board is unusable, generated a new one")
	default:
		e.log.WithError(err).Error("could not read stored board")
		return &PersistenceError{Op: "load", Err: err}
	}
	return e.save(ctx, "load", b.Snapshot())
}

func (e *Engine) swap(b *Board) {
	e.mu.Lock()
	e.board = b
	e.mu.Unlock()
}

func (e *Engine) save(ctx context.Context, op string, snap *Snapshot) error {
	if e.params.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.params.SaveTimeout)
		defer cancel()
	}
	if err := e.store.Save(ctx, snap); err != nil {
		e.log.WithError(err).WithField("op", op).Warn("board change not persisted")
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

// Reveal opens x:y for player. Already revealed or invalid cells are a
// no-op. The whole flood region is computed before anything is applied.
func (e *Engine) Reveal(ctx context.Context, x, y int, player string) (RevealResult, error) {
	e.write.Lock()
	defer e.write.Unlock()

	// only writers mutate the board, so reading it here under e.write is safe
	cells, mine := e.board.revealDelta(Point{x, y})
	if len(cells) == 0 {
		return RevealResult{Status: RevealNoop, Player: player, Score: e.ScoreOf(player)}, nil
	}

	e.mu.Lock()
	e.board.applyReveal(cells, mine, player)
	res := RevealResult{
		Status: RevealSafe,
		Player: player,
		Cells:  cells,
		Score:  e.board.Score(player),
	}
	if mine {
		res.Status = RevealMine
	}
	snap := e.board.Snapshot()
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"player": player,
		"x":      x,
		"y":      y,
		"status": res.Status,
		"cells":  len(cells),
		"score":  res.Score,
	}).Debug("reveal")

	return res, e.save(ctx, "reveal", snap)
}

// ToggleFlag places, removes or takes over the marker on x:y.
func (e *Engine) ToggleFlag(ctx context.Context, x, y int, player, glyph string) (FlagResult, error) {
	e.write.Lock()
	defer e.write.Unlock()

	e.mu.Lock()
	res := e.board.toggleFlag(Point{x, y}, player, glyph)
	if !res.Changed {
		e.mu.Unlock()
		return res, nil
	}
	snap := e.board.Snapshot()
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"player":  player,
		"x":       x,
		"y":       y,
		"flagged": res.Flagged,
	}).Debug("flag")

	return res, e.save(ctx, "flag", snap)
}

// Regenerate replaces the minefield with a new generation. Scores carry
// over unchanged.
func (e *Engine) Regenerate(ctx context.Context) (uuid.UUID, error) {
	e.write.Lock()
	defer e.write.Unlock()

	e.mu.Lock()
	next := e.board.regenerate(e.params.Density, e.rand)
	e.board = next
	snap := next.Snapshot()
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"generation": next.Generation,
		"mines":      next.MineCount(),
	}).Info("board regenerated")

	return next.Generation, e.save(ctx, "regenerate", snap)
}

func (e *Engine) read() (*Board, func()) {
	e.mu.RLock()
	return e.board, e.mu.RUnlock
}

func (e *Engine) Dims() (width, height int) {
	b, done := e.read()
	defer done()
	return b.Width, b.Height
}

func (e *Engine) Generation() uuid.UUID {
	b, done := e.read()
	defer done()
	return b.Generation
}

func (e *Engine) IsValidPosition(x, y int) bool {
	b, done := e.read()
	defer done()
	return b.IsValidPosition(x, y)
}

func (e *Engine) IsMine(x, y int) bool {
	b, done := e.read()
	defer done()
	return b.IsMine(x, y)
}

func (e *Engine) AdjacentMineCount(x, y int) int {
	b, done := e.read()
	defer done()
	return b.AdjacentMineCount(x, y)
}

func (e *Engine) IsRevealed(x, y int) bool {
	b, done := e.read()
	defer done()
	return b.IsRevealed(x, y)
}

func (e *Engine) Marker(x, y int) (Marker, bool) {
	b, done := e.read()
	defer done()
	return b.Marker(x, y)
}

func (e *Engine) MineCount() int {
	b, done := e.read()
	defer done()
	return b.MineCount()
}

func (e *Engine) RevealedCount() int {
	b, done := e.read()
	defer done()
	return b.RevealedCount()
}

// ScoreOf returns 0 for players that never played.
func (e *Engine) ScoreOf(player string) int {
	b, done := e.read()
	defer done()
	return b.Score(player)
}

func (e *Engine) Scores() map[string]int {
	b, done := e.read()
	defer done()
	return b.Scores()
}

func (e *Engine) Leaderboard(limit int) []Standing {
	b, done := e.read()
	defer done()
	return b.Leaderboard(limit)
}

func (e *Engine) Snapshot() *Snapshot {
	b, done := e.read()
	defer done()
	return b.Snapshot()
}

func (e *Engine) Render() string {
	b, done := e.read()
	defer done()
	return b.Render()
}

// PlacedMarker is a marker together with its cell.
type PlacedMarker struct {
	Point
	Marker
}

// View is what players can see of a rectangle of the board.
type View struct {
	Generation uuid.UUID      `json:"generation"`
	X          int            `json:"x"`
	Y          int            `json:"y"`
	Width      int            `json:"w"`
	Height     int            `json:"h"`
	Cells      []Cell         `json:"cells"`
	Markers    []PlacedMarker `json:"markers"`
}

// View lists revealed cells and markers inside the rectangle starting at
// x:y, clipped to the board.
func (e *Engine) View(x, y, w, h int) View {
	b, done := e.read()
	defer done()

	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, b.Width), min(y+h, b.Height)
	v := View{
		Generation: b.Generation,
		X:          x0,
		Y:          y0,
		Width:      max(x1-x0, 0),
		Height:     max(y1-y0, 0),
		Cells:      []Cell{},
		Markers:    []PlacedMarker{},
	}
	for cy := y0; cy < y1; cy++ {
		for cx := x0; cx < x1; cx++ {
			p := Point{cx, cy}
			if b.IsRevealed(cx, cy) {
				v.Cells = append(v.Cells, Cell{Point: p, Adjacent: b.AdjacentMineCount(cx, cy), Mine: b.IsMine(cx, cy)})
			} else if m, ok := b.markers[p]; ok {
				v.Markers = append(v.Markers, PlacedMarker{Point: p, Marker: m})
			}
		}
	}
	return v
}
