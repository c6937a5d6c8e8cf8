package agent

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/minefield/internal/mines"
)

var Log = logrus.New()

// Board is the part of the board engine the controller needs.
type Board interface {
	IsValidPosition(x, y int) bool
	Dims() (width, height int)
}

// PositionFunc returns the last known position of a player, if any.
type PositionFunc func(player string) (mines.Point, bool)

type Option func(*Controller)

// WithPositions sets where new knowledge bases take their starting
// position from.
func WithPositions(f PositionFunc) Option {
	return func(c *Controller) { c.positions = f }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rand = r }
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Controller) { c.log = l }
}

/*
Controller keeps one knowledge base per tracked player and picks moves for
them. Knowledge bases are created on first reference and live as long as
the controller. All methods are safe for concurrent use.
*/
type Controller struct {
	board     Board
	cfg       Config
	positions PositionFunc
	now       func() time.Time
	log       *logrus.Logger

	mu      sync.Mutex
	rand    *rand.Rand
	players map[string]*Knowledge
}

func New(board Board, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		board:   board,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		log:     Log,
		players: make(map[string]*Knowledge),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) knowledge(player string) *Knowledge {
	if k, ok := c.players[player]; ok {
		return k
	}
	var pos mines.Point
	if c.positions != nil {
		if p, ok := c.positions(player); ok {
			pos = p
		}
	}
	k := newKnowledge(pos)
	c.players[player] = k
	c.log.WithFields(logrus.Fields{
		"player":   player,
		"position": pos,
	}).Debug("tracking player")
	return k
}

func (c *Controller) vision(k *Knowledge) Vision {
	return Vision{Center: k.Position, Range: c.cfg.VisionRange}
}

// Vision returns the current window of player.
func (c *Controller) Vision(player string) Vision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vision(c.knowledge(player))
}

func (c *Controller) Position(player string) mines.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.knowledge(player).Position
}

// Tracked lists players with a knowledge base, sorted by name.
func (c *Controller) Tracked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	players := make([]string, 0, len(c.players))
	for p := range c.players {
		players = append(players, p)
	}
	slices.Sort(players)
	return players
}

// Reset drops every knowledge base. Positions are kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for player, k := range c.players {
		c.players[player] = newKnowledge(k.Position)
	}
}

// OnRevealed records that x:y was revealed with the given adjacent mine
// count ([Exploded] for a mine). Cells outside the player's window are
// ignored.
func (c *Controller) OnRevealed(player string, x, y, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.knowledge(player)
	k.revealedAt(c.vision(k), c.board, mines.Pt(x, y), count)
}

func (c *Controller) OnFlagged(player string, x, y int, flagging bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.knowledge(player)
	k.flaggedAt(c.vision(k), c.board, mines.Pt(x, y), flagging)
}

// OnBlocked records that another player's marker was found on x:y, or that
// it is gone. The cell is skipped as a reveal target while blocked.
func (c *Controller) OnBlocked(player string, x, y int, blocked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.knowledge(player)
	k.blockedAt(c.vision(k), c.board, mines.Pt(x, y), blocked)
}

// OnPositionChanged moves the player's window. The cached analysis is kept.
func (c *Controller) OnPositionChanged(player string, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.knowledge(player).Position = mines.Pt(x, y)
}

func (c *Controller) Analyze(player string) Analysis {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.knowledge(player)
	return k.analyze(c.vision(k), c.board)
}

// NextMove picks the next action for player, or returns nil while the
// player is still waiting out its pacing delay.
func (c *Controller) NextMove(player string) *Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.knowledge(player)
	now := c.now()
	if !k.lastAction.IsZero() && now.Sub(k.lastAction) < c.pace() {
		return nil
	}

	a := c.decide(k)
	k.lastAction = now
	c.log.WithFields(logrus.Fields{
		"player":    player,
		"action":    a.Kind,
		"x":         a.X,
		"y":         a.Y,
		"certainty": a.Certainty,
	}).Debug("next move")
	return a
}

func (c *Controller) pace() time.Duration {
	spread := c.cfg.PaceMax - c.cfg.PaceMin
	if spread <= 0 {
		return c.cfg.PaceMin
	}
	return c.cfg.PaceMin + time.Duration(c.rand.Int64N(int64(spread)))
}
