package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/minefield/internal/mines"
)

func TestNextMovePacing(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestController(grid{30, 30}, DefaultConfig(), WithClock(clock.now))

	require.NotNil(t, c.NextMove("Bob"))
	assert.Nil(t, c.NextMove("Bob"))

	clock.t = clock.t.Add(900 * time.Millisecond)
	assert.Nil(t, c.NextMove("Bob"))

	// other players are paced independently
	assert.NotNil(t, c.NextMove("Eve"))

	clock.t = clock.t.Add(5 * time.Second)
	assert.NotNil(t, c.NextMove("Bob"))
}

func TestNextMoveObservationsDoNotResetPacing(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestController(grid{30, 30}, DefaultConfig(), WithClock(clock.now))

	require.NotNil(t, c.NextMove("Bob"))
	clock.t = clock.t.Add(5 * time.Second)
	c.OnRevealed("Bob", 3, 3, 0)
	assert.NotNil(t, c.NextMove("Bob"))
}

func TestNextMoveFlagsNearestMine(t *testing.T) {
	c := newTestController(grid{5, 1}, DefaultConfig())
	c.OnRevealed("Bob", 0, 0, 1)
	c.OnRevealed("Bob", 4, 0, 1)

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionFlag, a.Kind)
	assert.Equal(t, mines.Pt(1, 0), a.Point)
	assert.Equal(t, CertaintyDeduced, a.Certainty)
	assert.Equal(t, []mines.Point{mines.Pt(3, 0)}, a.AdditionalMines)
}

func TestNextMoveRevealsSafeCell(t *testing.T) {
	c := newTestController(grid{3, 3}, DefaultConfig())
	c.OnRevealed("Bob", 1, 1, 0)

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionReveal, a.Kind)
	assert.Equal(t, mines.Pt(0, 0), a.Point)
	assert.Equal(t, CertaintyDeduced, a.Certainty)
	assert.Empty(t, a.AdditionalMines)
}

func TestNextMoveApproachesUnsolvedCells(t *testing.T) {
	c := newTestController(grid{30, 30}, DefaultConfig())
	c.OnRevealed("Bob", 0, 0, Exploded)
	c.OnRevealed("Bob", 12, 0, 2)

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionMove, a.Kind)
	assert.Equal(t, mines.Pt(11, 0), a.Point)
	assert.Equal(t, CertaintyApproach, a.Certainty)
}

func TestNextMoveEscapesSolvedArea(t *testing.T) {
	c := newTestController(grid{30, 30}, DefaultConfig())
	c.OnPositionChanged("Bob", 15, 15)
	c.OnRevealed("Bob", 15, 15, Exploded)

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionMove, a.Kind)
	assert.Equal(t, CertaintyEscape, a.Certainty)
	assert.True(t, grid{30, 30}.IsValidPosition(a.X, a.Y), "target %s off the board", a.Point)
	assert.NotEqual(t, mines.Pt(15, 15), a.Point)
}

func TestNextMoveFrontier(t *testing.T) {
	c := newTestController(grid{30, 30}, DefaultConfig())
	c.OnPositionChanged("Bob", 5, 5)
	c.OnRevealed("Bob", 5, 5, 2)
	c.OnRevealed("Bob", 6, 5, 2)

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionReveal, a.Kind)
	assert.Equal(t, mines.Pt(5, 4), a.Point)
	assert.Equal(t, CertaintyFrontier, a.Certainty)
}

func TestNextMoveColdStart(t *testing.T) {
	c := newTestController(grid{30, 30}, DefaultConfig())
	c.OnPositionChanged("Bob", 10, 10)

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionReveal, a.Kind)
	assert.Equal(t, CertaintyColdStart, a.Certainty)
	assert.LessOrEqual(t, abs(a.X-10), 2)
	assert.LessOrEqual(t, abs(a.Y-10), 2)
}

// boxIn flags every cell within radius 2 so the cold start has nowhere to
// go.
func boxIn(c *Controller, player string, center mines.Point) {
	c.OnPositionChanged(player, center.X, center.Y)
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			c.OnFlagged(player, center.X+dx, center.Y+dy, true)
		}
	}
}

func TestNextMoveExplorePrefersRevealedAreas(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExploreColdChance = 0
	c := newTestController(grid{30, 30}, cfg)
	boxIn(c, "Bob", mines.Pt(10, 10))
	c.OnRevealed("Bob", 25, 25, Exploded)
	for _, q := range mines.Pt(25, 25).Neighbors() {
		c.OnFlagged("Bob", q.X, q.Y, true)
	}
	require.Empty(t, c.players["Bob"].frontier)

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionMove, a.Kind)
	assert.Equal(t, CertaintyExplore, a.Certainty)
	assert.Equal(t, mines.Pt(20, 20), a.Point)
}

func TestNextMoveExploreUnknownAreas(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExploreColdChance = 1
	c := newTestController(grid{30, 30}, cfg)
	boxIn(c, "Bob", mines.Pt(10, 10))

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionMove, a.Kind)
	assert.Equal(t, CertaintyExplore, a.Certainty)
	assert.Zero(t, (a.X-10)%cfg.ExploreStride)
	assert.Zero(t, (a.Y-10)%cfg.ExploreStride)
}

func TestNextMoveWander(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExploreColdChance = 0
	c := newTestController(grid{100, 100}, cfg)
	boxIn(c, "Bob", mines.Pt(50, 50))

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionMove, a.Kind)
	assert.Equal(t, CertaintyWander, a.Certainty)
	assert.InDelta(t, 30, distance(mines.Pt(50, 50), a.Point), 1)
}

func TestLeapIsClamped(t *testing.T) {
	c := newTestController(grid{10, 10}, DefaultConfig())
	k := newKnowledge(mines.Pt(0, 0))
	for range 50 {
		a := c.leap(k, 40, CertaintyEscape)
		assert.True(t, grid{10, 10}.IsValidPosition(a.X, a.Y), "target %s off the board", a.Point)
	}
}

func TestActionKindString(t *testing.T) {
	assert.Equal(t, "reveal", ActionReveal.String())
	assert.Equal(t, "flag", ActionFlag.String())
	assert.Equal(t, "move", ActionMove.String())
	assert.Equal(t, "flag 3,4 (1.0)", Action{Kind: ActionFlag, Point: mines.Pt(3, 4), Certainty: 1}.String())
}

func TestNextMoveSkipsBlockedCells(t *testing.T) {
	c := newTestController(grid{3, 1}, DefaultConfig())
	c.OnRevealed("Bob", 1, 0, 0)
	c.OnBlocked("Bob", 0, 0, true)
	c.OnBlocked("Bob", 2, 0, true)

	a := c.NextMove("Bob")
	require.NotNil(t, a)
	assert.Equal(t, ActionMove, a.Kind)
}
