package game

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/minefield/internal/agent"
	"github.com/vancomm/minefield/internal/mines"
	"github.com/vancomm/minefield/internal/repository"
)

var Log = logrus.New()

const DefaultGlyph = "🚩"

// Registry is the player store the game keeps positions in.
type Registry interface {
	FetchPlayer(ctx context.Context, username string) (*repository.Player, error)
	EnsurePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error)
	UpdatePlayerPosition(ctx context.Context, username string, x, y int) (*repository.Player, error)
}

type Option func(*Game)

func WithBroadcaster(b Broadcaster) Option {
	return func(g *Game) { g.events = b }
}

func WithLogger(l *logrus.Logger) Option {
	return func(g *Game) { g.log = l }
}

/*
Game applies player actions to the board and feeds every outcome back into
the agent controller: all tracked players observe revealed cells, marker
owners observe their own flags, and players that move get the revealed
cells of their new window.
*/
type Game struct {
	engine  *mines.Engine
	agents  *agent.Controller
	players Registry
	events  Broadcaster
	log     *logrus.Logger
}

func New(engine *mines.Engine, agents *agent.Controller, players Registry, opts ...Option) *Game {
	g := &Game{
		engine:  engine,
		agents:  agents,
		players: players,
		events:  nopBroadcaster{},
		log:     Log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Engine() *mines.Engine {
	return g.engine
}

func (g *Game) Agents() *agent.Controller {
	return g.agents
}

func (g *Game) Grid() GridPayload {
	w, h := g.engine.Dims()
	return GridPayload{
		Generation: g.engine.Generation(),
		Width:      w,
		Height:     h,
		Mines:      g.engine.MineCount(),
		Revealed:   g.engine.RevealedCount(),
	}
}

// Join starts tracking a registered player from its stored position.
func (g *Game) Join(ctx context.Context, username string) (*repository.Player, error) {
	p, err := g.players.FetchPlayer(ctx, username)
	if err != nil {
		return nil, err
	}
	g.agents.OnPositionChanged(username, p.X, p.Y)
	g.syncVision(username)
	g.log.WithFields(logrus.Fields{
		"player": username,
		"x":      p.X,
		"y":      p.Y,
	}).Debug("player joined")
	return p, nil
}

// Reveal opens x:y for player. A [mines.PersistenceError] is returned
// together with a result that has already been applied and broadcast.
func (g *Game) Reveal(ctx context.Context, player string, x, y int) (mines.RevealResult, error) {
	res, err := g.engine.Reveal(ctx, x, y, player)
	if res.Status == mines.RevealNoop {
		return res, err
	}

	observers := g.agents.Tracked()
	for _, c := range res.Cells {
		count := c.Adjacent
		if c.Mine {
			count = agent.Exploded
		}
		for _, o := range observers {
			g.agents.OnRevealed(o, c.X, c.Y, count)
		}
	}
	g.events.Broadcast(Event{Type: EventReveal, Payload: RevealPayload{
		Player: player,
		Mine:   res.Status == mines.RevealMine,
		Cells:  res.Cells,
		Score:  res.Score,
	}})
	return res, err
}

// ToggleFlag flips the player's marker on x:y using the player's avatar.
func (g *Game) ToggleFlag(ctx context.Context, player string, x, y int) (mines.FlagResult, error) {
	res, err := g.engine.ToggleFlag(ctx, x, y, player, g.glyph(ctx, player))
	if !res.Changed {
		return res, err
	}

	if res.Previous != nil && res.Previous.Owner != player {
		g.agents.OnFlagged(res.Previous.Owner, x, y, false)
		g.agents.OnBlocked(res.Previous.Owner, x, y, true)
	}
	g.agents.OnFlagged(player, x, y, res.Flagged)
	if !res.Flagged {
		for _, o := range g.agents.Tracked() {
			g.agents.OnBlocked(o, x, y, false)
		}
	}

	payload := MarkerPayload{Point: mines.Pt(x, y), Flagged: res.Flagged, Owner: player}
	if res.Flagged {
		payload.Glyph = res.Marker.Glyph
	}
	g.events.Broadcast(Event{Type: EventMarker, Payload: payload})
	return res, err
}

// Move puts the player on x:y and refreshes what it can see.
func (g *Game) Move(ctx context.Context, player string, x, y int) error {
	if !g.engine.IsValidPosition(x, y) {
		return mines.ErrInvalidCoordinate
	}
	g.agents.OnPositionChanged(player, x, y)
	g.syncVision(player)

	p, err := g.players.UpdatePlayerPosition(ctx, player, x, y)
	if err != nil {
		return err
	}
	g.events.Broadcast(Event{Type: EventPlayer, Payload: PlayerPayload{
		Username: p.Username,
		Avatar:   p.Avatar,
		Color:    p.Color,
		X:        p.X,
		Y:        p.Y,
	}})
	return nil
}

// Regenerate starts a new board generation. Scores survive, everything the
// agents knew is dropped.
func (g *Game) Regenerate(ctx context.Context) error {
	_, err := g.engine.Regenerate(ctx)
	g.agents.Reset()
	g.events.Broadcast(Event{Type: EventReset, Payload: g.Grid()})
	return err
}

// Apply carries out an agent action. Reveal and flag actions walk the
// player to the target first. Cells already marked by someone else are never
// taken over: a deduced mine under such a marker counts as flagged for the
// player, and a reveal target under one is blocked until the marker goes.
func (g *Game) Apply(ctx context.Context, player string, a *agent.Action) error {
	if a == nil {
		return nil
	}
	if err := g.Move(ctx, player, a.X, a.Y); err != nil {
		return err
	}

	var errs []error
	switch a.Kind {
	case agent.ActionReveal:
		if m, ok := g.engine.Marker(a.X, a.Y); ok {
			if m.Owner == player {
				g.agents.OnFlagged(player, a.X, a.Y, true)
			} else {
				g.agents.OnBlocked(player, a.X, a.Y, true)
			}
			return nil
		}
		_, err := g.Reveal(ctx, player, a.X, a.Y)
		errs = append(errs, err)
	case agent.ActionFlag:
		for _, p := range append([]mines.Point{a.Point}, a.AdditionalMines...) {
			if _, ok := g.engine.Marker(p.X, p.Y); ok {
				g.agents.OnFlagged(player, p.X, p.Y, true)
				continue
			}
			_, err := g.ToggleFlag(ctx, player, p.X, p.Y)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// syncVision feeds the revealed cells and the player's own markers inside
// its window into its knowledge base.
func (g *Game) syncVision(player string) {
	v := g.agents.Vision(player)
	lo := v.Min()
	side := 2*v.Range + 1
	view := g.engine.View(lo.X, lo.Y, side, side)
	for _, c := range view.Cells {
		count := c.Adjacent
		if c.Mine {
			count = agent.Exploded
		}
		g.agents.OnRevealed(player, c.X, c.Y, count)
	}
	for _, m := range view.Markers {
		if m.Owner == player {
			g.agents.OnFlagged(player, m.X, m.Y, true)
		}
	}
}

func (g *Game) glyph(ctx context.Context, player string) string {
	p, err := g.players.FetchPlayer(ctx, player)
	if err != nil || p.Avatar == "" {
		return DefaultGlyph
	}
	return p.Avatar
}
