package game

import (
	"github.com/google/uuid"
	"github.com/vancomm/minefield/internal/mines"
)

type EventType string

const (
	EventGrid   EventType = "grid"
	EventReveal EventType = "reveal"
	EventMarker EventType = "marker"
	EventPlayer EventType = "player"
	EventReset  EventType = "reset"
)

// Event is a change every connected client needs to hear about.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// Broadcaster fans events out to clients. Broadcast must not block.
type Broadcaster interface {
	Broadcast(e Event)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(Event) {}

type RevealPayload struct {
	Player string       `json:"username"`
	Mine   bool         `json:"mine"`
	Cells  []mines.Cell `json:"cells"`
	Score  int          `json:"score"`
}

type MarkerPayload struct {
	mines.Point
	Flagged bool   `json:"flagged"`
	Owner   string `json:"username"`
	Glyph   string `json:"avatar,omitempty"`
}

type PlayerPayload struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Color    string `json:"color"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// GridPayload describes the current board generation.
type GridPayload struct {
	Generation uuid.UUID `json:"generation"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Mines      int       `json:"mines"`
	Revealed   int       `json:"revealed"`
}
