package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vancomm/minefield/internal/game"
	"github.com/vancomm/minefield/internal/mines"
)

type command string

const (
	cmdOpen command = "o"
	cmdFlag command = "f"
	cmdMove command = "m"
	cmdGrid command = "g"
	cmdPing command = "p"
)

const (
	typeError game.EventType = "error"
	typePong  game.EventType = "pong"
)

var ErrUnknownCommand = errors.New("unknown command")

func parseXY(args []string) (x int, y int, err error) {
	if len(args) != 2 {
		err = fmt.Errorf("expected 2 arguments, got %d", len(args))
		return
	}
	if x, err = strconv.Atoi(args[0]); err != nil {
		err = fmt.Errorf("first argument must be an int")
		return
	}
	if y, err = strconv.Atoi(args[1]); err != nil {
		err = fmt.Errorf("second argument must be an int")
		return
	}
	return
}

// execute runs one command line for player. The returned event, if any, is
// a reply for the sender only; everything else reaches clients through the
// hub.
func execute(ctx context.Context, g *game.Game, player, line string) (*game.Event, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, nil
	}
	cmd, args := command(tokens[0]), tokens[1:]

	switch cmd {
	case cmdGrid:
		return &game.Event{Type: game.EventGrid, Payload: g.Grid()}, nil
	case cmdPing:
		return &game.Event{Type: typePong}, nil
	case cmdOpen, cmdFlag, cmdMove:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownCommand, tokens[0])
	}

	x, y, err := parseXY(args)
	if err != nil {
		return nil, err
	}
	if !g.Engine().IsValidPosition(x, y) {
		return nil, mines.ErrInvalidCoordinate
	}
	switch cmd {
	case cmdOpen:
		_, err = g.Reveal(ctx, player, x, y)
	case cmdFlag:
		_, err = g.ToggleFlag(ctx, player, x, y)
	case cmdMove:
		err = g.Move(ctx, player, x, y)
	}
	return nil, err
}

func errorEvent(err error) game.Event {
	return game.Event{Type: typeError, Payload: err.Error()}
}
