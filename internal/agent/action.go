package agent

import (
	"fmt"

	"github.com/vancomm/minefield/internal/mines"
)

type ActionKind int

const (
	ActionReveal ActionKind = iota
	ActionFlag
	ActionMove
)

func (k ActionKind) String() string {
	switch k {
	case ActionReveal:
		return "reveal"
	case ActionFlag:
		return "flag"
	case ActionMove:
		return "move"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Certainty of each policy tier.
const (
	CertaintyDeduced   = 1.0
	CertaintyApproach  = 0.8
	CertaintyEscape    = 0.7
	CertaintyFrontier  = 0.5
	CertaintyExplore   = 0.4
	CertaintyColdStart = 0.3
	CertaintyWander    = 0.2
)

/*
Action is one move chosen for a player. Certainty is advisory only. For flag
actions AdditionalMines lists the other cells deduced to be mines, nearest
first, so the caller may flag them in the same tick.
*/
type Action struct {
	Kind ActionKind `json:"action"`
	mines.Point
	Certainty       float64       `json:"certainty"`
	AdditionalMines []mines.Point `json:"additional_mines,omitempty"`
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s (%.1f)", a.Kind, a.Point, a.Certainty)
}
