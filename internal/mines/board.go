package mines

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Marker is a flag placed on an unrevealed cell.
type Marker struct {
	Owner string `json:"username"`
	Glyph string `json:"avatar"`
}

// Cell is a revealed cell together with its surrounding mine count.
type Cell struct {
	Point
	Adjacent int  `json:"adjacent"`
	Mine     bool `json:"mine,omitempty"`
}

/*
Board is the shared minefield. Mine positions are fixed for the lifetime of
a generation; revealed cells only ever grow; a cell is never both revealed
and marked. Scores outlive generations.
*/
type Board struct {
	Width, Height int
	Generation    uuid.UUID

	mines    map[Point]struct{}
	revealed map[Point]struct{}
	markers  map[Point]Marker
	scores   map[string]int
}

func newBoard(width, height int, scores map[string]int) *Board {
	if scores == nil {
		scores = make(map[string]int)
	}
	return &Board{
		Width:      width,
		Height:     height,
		Generation: uuid.New(),
		mines:      make(map[Point]struct{}),
		revealed:   make(map[Point]struct{}),
		markers:    make(map[Point]Marker),
		scores:     scores,
	}
}

// NewBoardWithMines builds a board with a fixed mine layout. Positions
// outside the grid are dropped.
func NewBoardWithMines(width, height int, mines ...Point) *Board {
	b := newBoard(width, height, nil)
	for _, p := range mines {
		if b.IsValidPosition(p.X, p.Y) {
			b.mines[p] = struct{}{}
		}
	}
	return b
}

func (b *Board) IsValidPosition(x, y int) bool {
	return 0 <= x && x < b.Width && 0 <= y && y < b.Height
}

func (b *Board) IsMine(x, y int) bool {
	_, ok := b.mines[Point{x, y}]
	return ok
}

func (b *Board) MineCount() int {
	return len(b.mines)
}

// Mines returns mine positions in row order.
func (b *Board) Mines() []Point {
	return sortedKeys(b.mines)
}

// AdjacentMineCount counts mines among the in-bounds neighbors of x:y.
// Invalid coordinates yield 0.
func (b *Board) AdjacentMineCount(x, y int) int {
	if !b.IsValidPosition(x, y) {
		return 0
	}
	n := 0
	for _, q := range (Point{x, y}).Neighbors() {
		if b.IsValidPosition(q.X, q.Y) && b.IsMine(q.X, q.Y) {
			n++
		}
	}
	return n
}

func (b *Board) IsRevealed(x, y int) bool {
	_, ok := b.revealed[Point{x, y}]
	return ok
}

func (b *Board) RevealedCount() int {
	return len(b.revealed)
}

func (b *Board) Marker(x, y int) (Marker, bool) {
	m, ok := b.markers[Point{x, y}]
	return m, ok
}

func (b *Board) Score(player string) int {
	return b.scores[player]
}

func (b *Board) Scores() map[string]int {
	return maps.Clone(b.scores)
}

// Standing is one leaderboard row.
type Standing struct {
	Player string `json:"username"`
	Score  int    `json:"score"`
}

// Leaderboard orders players by score, highest first. limit <= 0 returns
// every player.
func (b *Board) Leaderboard(limit int) []Standing {
	standings := make([]Standing, 0, len(b.scores))
	for player, score := range b.scores {
		standings = append(standings, Standing{player, score})
	}
	slices.SortFunc(standings, func(s, t Standing) int {
		if c := cmp.Compare(t.Score, s.Score); c != 0 {
			return c
		}
		return strings.Compare(s.Player, t.Player)
	})
	if limit > 0 && len(standings) > limit {
		standings = standings[:limit]
	}
	return standings
}

// revealDelta computes the cells a reveal at p would open without touching
// the board. Safe cells flood breadth-first through zero-count cells.
func (b *Board) revealDelta(p Point) (cells []Cell, mine bool) {
	if !b.IsValidPosition(p.X, p.Y) || b.IsRevealed(p.X, p.Y) {
		return nil, false
	}
	if b.IsMine(p.X, p.Y) {
		return []Cell{{Point: p, Adjacent: b.AdjacentMineCount(p.X, p.Y), Mine: true}}, true
	}

	seen := map[Point]struct{}{p: {}}
	queue := []Point{p}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]

		n := b.AdjacentMineCount(q.X, q.Y)
		cells = append(cells, Cell{Point: q, Adjacent: n})
		if n != 0 {
			continue
		}
		for _, nb := range q.Neighbors() {
			if !b.IsValidPosition(nb.X, nb.Y) || b.IsRevealed(nb.X, nb.Y) {
				continue
			}
			if _, ok := seen[nb]; ok {
				continue
			}
			seen[nb] = struct{}{}
			queue = append(queue, nb)
		}
	}
	return cells, false
}

// applyReveal commits a delta computed by revealDelta.
func (b *Board) applyReveal(cells []Cell, mine bool, player string) {
	for _, c := range cells {
		b.revealed[c.Point] = struct{}{}
		delete(b.markers, c.Point)
	}
	if mine {
		b.scores[player] = 0
	} else {
		b.scores[player] += len(cells)
	}
}

// FlagResult describes the outcome of a flag toggle.
type FlagResult struct {
	Changed  bool
	Flagged  bool
	Marker   Marker
	Previous *Marker
}

func (b *Board) toggleFlag(p Point, player, glyph string) FlagResult {
	if !b.IsValidPosition(p.X, p.Y) || b.IsRevealed(p.X, p.Y) {
		return FlagResult{}
	}
	prev, ok := b.markers[p]
	if ok && prev.Owner == player {
		delete(b.markers, p)
		return FlagResult{Changed: true, Flagged: false, Previous: &prev}
	}
	m := Marker{Owner: player, Glyph: glyph}
	b.markers[p] = m
	res := FlagResult{Changed: true, Flagged: true, Marker: m}
	if ok {
		res.Previous = &prev
	}
	return res
}

// Render draws the board as seen by players: '#' hidden, 'F' marked,
// '*' revealed mine, '.' or a digit for revealed safe cells.
func (b *Board) Render() string {
	var s strings.Builder
	for y := range b.Height {
		for x := range b.Width {
			switch {
			case b.IsRevealed(x, y) && b.IsMine(x, y):
				s.WriteByte('*')
			case b.IsRevealed(x, y):
				if n := b.AdjacentMineCount(x, y); n > 0 {
					s.WriteString(strconv.Itoa(n))
				} else {
					s.WriteByte('.')
				}
			default:
				if _, ok := b.markers[Point{x, y}]; ok {
					s.WriteByte('F')
				} else {
					s.WriteByte('#')
				}
			}
		}
		s.WriteByte('\n')
	}
	return s.String()
}

func sortedKeys[V any](m map[Point]V) []Point {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, ComparePoints)
	return keys
}
