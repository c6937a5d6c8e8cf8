package mines

import (
	"encoding/json"
	"maps"

	"github.com/google/uuid"
)

// Snapshot is the persisted form of a [Board].
type Snapshot struct {
	Generation uuid.UUID         `json:"generation"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Positions  []Point           `json:"positions"`
	Revealed   map[string]bool   `json:"revealed"`
	Markers    map[string]Marker `json:"markers"`
	Scores     map[string]int    `json:"scores"`
}

func (b *Board) Snapshot() *Snapshot {
	s := &Snapshot{
		Generation: b.Generation,
		Width:      b.Width,
		Height:     b.Height,
		Positions:  b.Mines(),
		Revealed:   make(map[string]bool, len(b.revealed)),
		Markers:    make(map[string]Marker, len(b.markers)),
		Scores:     maps.Clone(b.scores),
	}
	for p := range b.revealed {
		s.Revealed[p.String()] = true
	}
	for p, m := range b.markers {
		s.Markers[p.String()] = m
	}
	return s
}

func (s *Snapshot) Bytes() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses and validates a stored document. Any problem is
// reported as a [MalformedSnapshotError].
func DecodeSnapshot(buf []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, malformed("%v", err)
	}
	if _, err := s.Board(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Board rebuilds a board from the snapshot, checking its invariants.
func (s *Snapshot) Board() (*Board, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, malformed("invalid size %dx%d", s.Width, s.Height)
	}
	b := newBoard(s.Width, s.Height, maps.Clone(s.Scores))
	if s.Generation != uuid.Nil {
		b.Generation = s.Generation
	}
	if len(s.Positions) >= s.Width*s.Height {
		return nil, malformed("%d mines do not fit %dx%d", len(s.Positions), s.Width, s.Height)
	}
	for _, p := range s.Positions {
		if !b.IsValidPosition(p.X, p.Y) {
			return nil, malformed("mine %s out of bounds", p)
		}
		if _, dup := b.mines[p]; dup {
			return nil, malformed("duplicate mine %s", p)
		}
		b.mines[p] = struct{}{}
	}
	for key, revealed := range s.Revealed {
		if !revealed {
			continue
		}
		p, err := ParsePoint(key)
		if err != nil {
			return nil, malformed("revealed: %v", err)
		}
		if !b.IsValidPosition(p.X, p.Y) {
			return nil, malformed("revealed cell %s out of bounds", p)
		}
		b.revealed[p] = struct{}{}
	}
	for key, m := range s.Markers {
		p, err := ParsePoint(key)
		if err != nil {
			return nil, malformed("markers: %v", err)
		}
		if !b.IsValidPosition(p.X, p.Y) {
			return nil, malformed("marker %s out of bounds", p)
		}
		if b.IsRevealed(p.X, p.Y) {
			return nil, malformed("marker %s on a revealed cell", p)
		}
		b.markers[p] = m
	}
	return b, nil
}
