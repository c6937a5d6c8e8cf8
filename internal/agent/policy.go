package agent

import (
	"math"
	"slices"

	"github.com/vancomm/minefield/internal/mines"
	"gonum.org/v1/gonum/floats"
)

func distance(a, b mines.Point) float64 {
	return floats.Distance(
		[]float64{float64(a.X), float64(a.Y)},
		[]float64{float64(b.X), float64(b.Y)},
		2,
	)
}

// byDistance orders points by distance from origin, then row by row.
func byDistance(origin mines.Point) func(a, b mines.Point) int {
	return func(a, b mines.Point) int {
		da, db := distance(origin, a), distance(origin, b)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return mines.ComparePoints(a, b)
	}
}

// decide walks the policy tiers in priority order. It always returns an
// action; the last tier is a blind move.
func (c *Controller) decide(k *Knowledge) *Action {
	v := c.vision(k)
	a := k.analyze(v, c.board)

	if len(a.Mines) > 0 {
		targets := slices.Clone(a.Mines)
		slices.SortFunc(targets, byDistance(k.Position))
		return &Action{
			Kind:            ActionFlag,
			Point:           targets[0],
			Certainty:       CertaintyDeduced,
			AdditionalMines: targets[1:],
		}
	}

	if len(a.Safe) > 0 {
		target := slices.MinFunc(a.Safe, byDistance(k.Position))
		return &Action{Kind: ActionReveal, Point: target, Certainty: CertaintyDeduced}
	}

	if c.areaSolved(k, v) {
		if target, ok := c.nearestUnsolved(k, v); ok {
			return &Action{Kind: ActionMove, Point: target, Certainty: CertaintyApproach}
		}
		return c.leap(k, 2*float64(c.cfg.VisionRange), CertaintyEscape)
	}

	if target, ok := c.bestFrontier(k, v); ok {
		return &Action{Kind: ActionReveal, Point: target, Certainty: CertaintyFrontier}
	}

	if !c.revealedNearby(k) {
		if target, ok := c.coldStart(k); ok {
			return &Action{Kind: ActionReveal, Point: target, Certainty: CertaintyColdStart}
		}
	}

	if target, ok := c.explore(k); ok {
		return &Action{Kind: ActionMove, Point: target, Certainty: CertaintyExplore}
	}

	return c.leap(k, 1.5*float64(c.cfg.VisionRange), CertaintyWander)
}

// box calls f for every valid cell within radius r of center, column by
// column, stopping when f returns false.
func (c *Controller) box(center mines.Point, r int, f func(p mines.Point) bool) {
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			p := center.Add(dx, dy)
			if !c.board.IsValidPosition(p.X, p.Y) {
				continue
			}
			if !f(p) {
				return
			}
		}
	}
}

// areaSolved reports that some cells around the player were revealed and no
// open cell near them touches a revealed number. An area with nothing
// revealed is not solved, which leaves room for the cold start tier.
func (c *Controller) areaSolved(k *Knowledge, v Vision) bool {
	seen, pending := false, false
	c.box(k.Position, c.cfg.SolvedRadius, func(p mines.Point) bool {
		if k.isRevealed(p) {
			seen = true
			return true
		}
		if k.isFlagged(p) || k.isBlocked(p) {
			return true
		}
		pending = k.nextToNumber(v, c.board, p)
		return !pending
	})
	return seen && !pending
}

func (c *Controller) nearestUnsolved(k *Knowledge, v Vision) (mines.Point, bool) {
	var (
		best  mines.Point
		found bool
		dist  = math.Inf(1)
	)
	c.box(k.Position, c.cfg.VisionRange, func(p mines.Point) bool {
		if !k.isOpen(p) || !k.nextToNumber(v, c.board, p) {
			return true
		}
		if d := distance(k.Position, p); d < dist {
			best, dist, found = p, d, true
		}
		return true
	})
	return best, found
}

func (c *Controller) bestFrontier(k *Knowledge, v Vision) (mines.Point, bool) {
	var (
		best      mines.Point
		found     bool
		bestCount = -1
	)
	closer := byDistance(k.Position)
	for p := range k.frontier {
		if !v.Contains(p) || !k.isOpen(p) {
			continue
		}
		n := 0
		for _, q := range p.Neighbors() {
			if c.board.IsValidPosition(q.X, q.Y) && v.Contains(q) && k.isRevealed(q) {
				n++
			}
		}
		if n > bestCount || (n == bestCount && closer(p, best) < 0) {
			best, bestCount, found = p, n, true
		}
	}
	return best, found
}

func (c *Controller) revealedNearby(k *Knowledge) bool {
	seen := false
	c.box(k.Position, c.cfg.NearbyRadius, func(p mines.Point) bool {
		seen = k.isRevealed(p)
		return !seen
	})
	return seen
}

func (c *Controller) coldStart(k *Knowledge) (mines.Point, bool) {
	var candidates []mines.Point
	c.box(k.Position, c.cfg.ColdStartRadius, func(p mines.Point) bool {
		if k.isOpen(p) {
			candidates = append(candidates, p)
		}
		return true
	})
	if len(candidates) == 0 {
		return mines.Point{}, false
	}
	return candidates[c.rand.IntN(len(candidates))], true
}

// explore samples area centers across the vision range and heads for the
// one with the best mix of revealed and unexplored cells. Areas with
// nothing revealed yet are only considered some of the time.
func (c *Controller) explore(k *Knowledge) (mines.Point, bool) {
	var (
		best      mines.Point
		found     bool
		bestScore int
		r         = c.cfg.VisionRange
		stride    = c.cfg.ExploreStride
	)
	for dx := -r; dx <= r; dx += stride {
		for dy := -r; dy <= r; dy += stride {
			center := k.Position.Add(dx, dy)
			if !c.board.IsValidPosition(center.X, center.Y) {
				continue
			}
			revealed, unexplored := 0, 0
			c.box(center, c.cfg.ExploreArea, func(p mines.Point) bool {
				switch {
				case k.isRevealed(p):
					revealed++
				case k.isOpen(p):
					unexplored++
				}
				return true
			})
			if unexplored == 0 {
				continue
			}
			if revealed == 0 && c.rand.Float64() >= c.cfg.ExploreColdChance {
				continue
			}
			score := revealed + unexplored
			if revealed > 0 {
				score += c.cfg.ExploreBonus
			}
			if !found || score > bestScore {
				best, bestScore, found = center, score, true
			}
		}
	}
	return best, found
}

// leap moves dist cells away in a random direction, clamped to the board.
func (c *Controller) leap(k *Knowledge, dist float64, certainty float64) *Action {
	angle := c.rand.Float64() * 2 * math.Pi
	target := mines.Pt(
		k.Position.X+int(math.Round(math.Cos(angle)*dist)),
		k.Position.Y+int(math.Round(math.Sin(angle)*dist)),
	)
	return &Action{Kind: ActionMove, Point: c.clamp(target), Certainty: certainty}
}

func (c *Controller) clamp(p mines.Point) mines.Point {
	w, h := c.board.Dims()
	return mines.Pt(min(max(p.X, 0), w-1), min(max(p.Y, 0), h-1))
}
