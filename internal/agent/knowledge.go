package agent

import (
	"maps"
	"slices"
	"time"

	"github.com/vancomm/minefield/internal/mines"
)

// Exploded is the count recorded for a revealed mine. Such cells carry no
// information about their neighbors.
const Exploded = -1

type set = map[mines.Point]struct{}

// Analysis is the outcome of one deduction pass. Safe and Mines never
// share a cell.
type Analysis struct {
	Safe  []mines.Point `json:"safe"`
	Mines []mines.Point `json:"mines"`
}

/*
Knowledge is what one player has observed of the board, kept only for cells
inside its vision window at the time of observation.
*/
type Knowledge struct {
	Position mines.Point

	knownSafe set
	flagged   set
	blocked   set // carry another player's marker
	frontier  set
	revealed  map[mines.Point]int

	analysis   *Analysis
	lastAction time.Time
}

func newKnowledge(pos mines.Point) *Knowledge {
	return &Knowledge{
		Position:  pos,
		knownSafe: make(set),
		flagged:   make(set),
		blocked:   make(set),
		frontier:  make(set),
		revealed:  make(map[mines.Point]int),
	}
}

func (k *Knowledge) isRevealed(p mines.Point) bool {
	_, ok := k.revealed[p]
	return ok
}

func (k *Knowledge) isFlagged(p mines.Point) bool {
	_, ok := k.flagged[p]
	return ok
}

func (k *Knowledge) isBlocked(p mines.Point) bool {
	_, ok := k.blocked[p]
	return ok
}

// isOpen reports cells that are neither revealed nor marked.
func (k *Knowledge) isOpen(p mines.Point) bool {
	return !k.isRevealed(p) && !k.isFlagged(p) && !k.isBlocked(p)
}

func (k *Knowledge) invalidate() {
	k.analysis = nil
}

func (k *Knowledge) revealedAt(v Vision, b Board, p mines.Point, count int) {
	if !v.Contains(p) {
		return
	}
	k.revealed[p] = count
	delete(k.frontier, p)
	delete(k.knownSafe, p)
	delete(k.flagged, p)
	delete(k.blocked, p)
	for _, q := range p.Neighbors() {
		if b.IsValidPosition(q.X, q.Y) && v.Contains(q) && k.isOpen(q) {
			k.frontier[q] = struct{}{}
		}
	}
	k.invalidate()
}

func (k *Knowledge) flaggedAt(v Vision, b Board, p mines.Point, flagging bool) {
	if !v.Contains(p) {
		return
	}
	if flagging {
		k.flagged[p] = struct{}{}
		delete(k.blocked, p)
		delete(k.frontier, p)
		delete(k.knownSafe, p)
	} else {
		delete(k.flagged, p)
		k.reopen(b, p)
	}
	k.invalidate()
}

// blockedAt records that another player's marker sits on p (or no longer
// does). Blocked cells still count as unknown in every constraint but are
// never offered as safe.
func (k *Knowledge) blockedAt(v Vision, b Board, p mines.Point, blocked bool) {
	if !v.Contains(p) {
		return
	}
	if blocked {
		if k.isRevealed(p) || k.isFlagged(p) {
			return
		}
		k.blocked[p] = struct{}{}
		delete(k.frontier, p)
		delete(k.knownSafe, p)
	} else {
		if !k.isBlocked(p) {
			return
		}
		delete(k.blocked, p)
		k.reopen(b, p)
	}
	k.invalidate()
}

func (k *Knowledge) reopen(b Board, p mines.Point) {
	if k.isOpen(p) && k.nextToRevealed(b, p) {
		k.frontier[p] = struct{}{}
	}
}

func (k *Knowledge) nextToRevealed(b Board, p mines.Point) bool {
	for _, q := range p.Neighbors() {
		if b.IsValidPosition(q.X, q.Y) && k.isRevealed(q) {
			return true
		}
	}
	return false
}

// nextToNumber reports whether p touches a revealed cell with a positive
// count inside the window.
func (k *Knowledge) nextToNumber(v Vision, b Board, p mines.Point) bool {
	for _, q := range p.Neighbors() {
		if !b.IsValidPosition(q.X, q.Y) || !v.Contains(q) {
			continue
		}
		if n, ok := k.revealed[q]; ok && n > 0 {
			return true
		}
	}
	return false
}

// analyze runs the single-constraint deductions over every revealed cell
// in the window. The result is memoized until the next update.
func (k *Knowledge) analyze(v Vision, b Board) Analysis {
	if k.analysis != nil {
		return *k.analysis
	}

	safe, mined := make(set), make(set)
	for c, n := range k.revealed {
		if n == Exploded || !v.Contains(c) {
			continue
		}
		flagged := 0
		var hidden []mines.Point
		for _, q := range c.Neighbors() {
			if !b.IsValidPosition(q.X, q.Y) || !v.Contains(q) || k.isRevealed(q) {
				continue
			}
			if k.isFlagged(q) {
				flagged++
				continue
			}
			hidden = append(hidden, q)
		}
		if flagged == n {
			for _, q := range hidden {
				safe[q] = struct{}{}
			}
		}
		if len(hidden) == n-flagged {
			for _, q := range hidden {
				mined[q] = struct{}{}
			}
		}
	}

	// clipped constraints at the window edge can disagree
	for p := range safe {
		if _, ok := mined[p]; ok {
			delete(safe, p)
			delete(mined, p)
		}
	}
	for p := range k.blocked {
		delete(safe, p)
	}
	for p := range safe {
		k.knownSafe[p] = struct{}{}
	}

	a := Analysis{Safe: sorted(safe), Mines: sorted(mined)}
	k.analysis = &a
	return a
}

func sorted(s set) []mines.Point {
	ps := slices.Collect(maps.Keys(s))
	slices.SortFunc(ps, mines.ComparePoints)
	return ps
}
