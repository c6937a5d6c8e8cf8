package game

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/minefield/internal/mines"
	"github.com/vancomm/minefield/internal/repository"
)

// Bot is a simulated player driven by the agent controller.
type Bot struct {
	Username string
	Avatar   string
	Color    string
	Start    mines.Point
}

func DefaultBots() []Bot {
	return []Bot{
		{Username: "Alex", Avatar: "🚀", Color: "#FF0000", Start: mines.Pt(5, 5)},
		{Username: "Bob", Avatar: "🎮", Color: "#00FF00", Start: mines.Pt(-3, 2)},
		{Username: "Charlie", Avatar: "💎", Color: "#0000FF", Start: mines.Pt(2, -4)},
		{Username: "Diana", Avatar: "🌈", Color: "#FF8000", Start: mines.Pt(-5, -5)},
		{Username: "Eve", Avatar: "⭐️", Color: "#6600FF", Start: mines.Pt(8, -2)},
	}
}

// Driver asks the agent controller for a move for every bot on a fixed
// tick and applies it through the game.
type Driver struct {
	game *Game
	bots []Bot
	tick time.Duration
	log  *logrus.Logger
}

func NewDriver(g *Game, bots []Bot, tick time.Duration) *Driver {
	return &Driver{game: g, bots: bots, tick: tick, log: g.log}
}

// Setup registers the bots, placing their start positions on the board,
// and starts tracking them.
func (d *Driver) Setup(ctx context.Context) error {
	w, h := d.game.engine.Dims()
	for _, b := range d.bots {
		start := mines.Pt(min(max(b.Start.X, 0), w-1), min(max(b.Start.Y, 0), h-1))
		_, err := d.game.players.EnsurePlayer(ctx, repository.CreatePlayerParams{
			Username: b.Username,
			Avatar:   b.Avatar,
			Color:    b.Color,
			X:        start.X,
			Y:        start.Y,
		})
		if err != nil {
			return err
		}
		p, err := d.game.Join(ctx, b.Username)
		if err != nil {
			return err
		}
		d.log.WithFields(logrus.Fields{
			"bot": p.Username,
			"x":   p.X,
			"y":   p.Y,
		}).Info("bot ready")
	}
	return nil
}

// Run ticks until ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	if len(d.bots) == 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Step(ctx)
		}
	}
}

// Step gives every bot one chance to act. Persistence failures are logged
// and play goes on with the in-memory board.
func (d *Driver) Step(ctx context.Context) {
	for _, b := range d.bots {
		a := d.game.agents.NextMove(b.Username)
		if a == nil {
			continue
		}
		err := d.game.Apply(ctx, b.Username, a)
		switch {
		case err == nil:
		case errors.Is(err, mines.ErrPersistence):
			d.log.WithError(err).WithField("bot", b.Username).Warn("bot action not persisted")
		default:
			d.log.WithError(err).WithFields(logrus.Fields{
				"bot":    b.Username,
				"action": a.String(),
			}).Error("bot action failed")
		}
	}
}
