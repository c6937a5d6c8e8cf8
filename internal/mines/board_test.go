package mines

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestGenerateMineCount(t *testing.T) {
	tests := []struct {
		w, h    int
		density float64
	}{
		{30, 30, DefaultDensity},
		{10, 10, DefaultDensity},
		{7, 3, DefaultDensity},
		{1, 1, DefaultDensity},
		{100, 40, DefaultDensity},
		{5, 5, 0.96},
		{9, 9, 0},
	}
	r := testRand()
	for _, tt := range tests {
		b, err := Generate(tt.w, tt.h, tt.density, r)
		require.NoError(t, err)

		mines := b.Mines()
		assert.Len(t, mines, MineCountFor(tt.w, tt.h, tt.density), "%dx%d", tt.w, tt.h)
		seen := make(map[Point]bool)
		for _, p := range mines {
			assert.True(t, b.IsValidPosition(p.X, p.Y), "mine %s out of bounds", p)
			assert.False(t, seen[p], "duplicate mine %s", p)
			seen[p] = true
		}
		assert.Zero(t, b.RevealedCount())
		assert.Empty(t, b.Scores())
	}
}

func TestGenerateRejectsBadParams(t *testing.T) {
	r := testRand()
	for _, tt := range []struct {
		w, h    int
		density float64
	}{
		{0, 5, 0.1},
		{5, -1, 0.1},
		{5, 5, 1},
		{5, 5, -0.1},
	} {
		_, err := Generate(tt.w, tt.h, tt.density, r)
		assert.Error(t, err)
	}
}

func TestAdjacentMineCountBruteForce(t *testing.T) {
	r := testRand()
	for range 20 {
		b, err := Generate(8, 6, 0.3, r)
		require.NoError(t, err)

		for y := range b.Height {
			for x := range b.Width {
				want := 0
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := x+dx, y+dy
						if nx < 0 || ny < 0 || nx >= b.Width || ny >= b.Height {
							continue
						}
						for _, m := range b.Mines() {
							if m.X == nx && m.Y == ny {
								want++
							}
						}
					}
				}
				assert.Equal(t, want, b.AdjacentMineCount(x, y), "cell %d,%d", x, y)
			}
		}
	}
}

func TestAdjacentMineCountInvalid(t *testing.T) {
	b := NewBoardWithMines(3, 3, Pt(0, 0))
	assert.Zero(t, b.AdjacentMineCount(-1, -1))
	assert.Zero(t, b.AdjacentMineCount(3, 0))
	assert.Equal(t, 1, b.AdjacentMineCount(1, 1))
	assert.False(t, b.IsMine(-1, 0))
}

func TestRevealDeltaFloodsZeroRegion(t *testing.T) {
	b := NewBoardWithMines(7, 3, Pt(3, 0), Pt(3, 1), Pt(3, 2))

	cells, mine := b.revealDelta(Pt(0, 1))
	require.False(t, mine)
	require.Len(t, cells, 9)
	for _, c := range cells {
		assert.LessOrEqual(t, c.X, 2, "flood crossed the mine column at %s", c.Point)
	}
	counts := map[Point]int{}
	for _, c := range cells {
		counts[c.Point] = c.Adjacent
	}
	assert.Equal(t, 2, counts[Pt(2, 0)])
	assert.Equal(t, 3, counts[Pt(2, 1)])
	assert.Equal(t, 0, counts[Pt(1, 1)])

	// nothing is applied until applyReveal
	assert.Zero(t, b.RevealedCount())
}

func TestRevealDeltaNumberedCellDoesNotFlood(t *testing.T) {
	b := NewBoardWithMines(7, 3, Pt(3, 0), Pt(3, 1), Pt(3, 2))

	cells, mine := b.revealDelta(Pt(2, 1))
	assert.False(t, mine)
	assert.Equal(t, []Cell{{Point: Pt(2, 1), Adjacent: 3}}, cells)
}

func TestRevealDeltaMine(t *testing.T) {
	b := NewBoardWithMines(5, 5, Pt(0, 0), Pt(4, 4))

	cells, mine := b.revealDelta(Pt(4, 4))
	assert.True(t, mine)
	assert.Equal(t, []Cell{{Point: Pt(4, 4), Adjacent: 0, Mine: true}}, cells)
}

func TestApplyRevealRemovesMarkers(t *testing.T) {
	b := NewBoardWithMines(5, 5, Pt(0, 0), Pt(4, 4))
	b.toggleFlag(Pt(2, 3), "Bob", "🎮")

	cells, mine := b.revealDelta(Pt(2, 2))
	b.applyReveal(cells, mine, "Alex")

	_, marked := b.Marker(2, 3)
	assert.False(t, marked)
	assert.True(t, b.IsRevealed(2, 3))
}

func TestToggleFlag(t *testing.T) {
	b := NewBoardWithMines(3, 3, Pt(0, 0))

	res := b.toggleFlag(Pt(0, 0), "Alex", "🚀")
	assert.Equal(t, FlagResult{Changed: true, Flagged: true, Marker: Marker{"Alex", "🚀"}}, res)

	res = b.toggleFlag(Pt(0, 0), "Bob", "🎮")
	assert.True(t, res.Changed)
	assert.True(t, res.Flagged)
	require.NotNil(t, res.Previous)
	assert.Equal(t, "Alex", res.Previous.Owner)
	m, ok := b.Marker(0, 0)
	require.True(t, ok)
	assert.Equal(t, Marker{"Bob", "🎮"}, m)

	res = b.toggleFlag(Pt(0, 0), "Bob", "🎮")
	assert.True(t, res.Changed)
	assert.False(t, res.Flagged)
	_, ok = b.Marker(0, 0)
	assert.False(t, ok)

	assert.False(t, b.toggleFlag(Pt(9, 9), "Bob", "🎮").Changed)
}

func TestLeaderboard(t *testing.T) {
	b := newBoard(3, 3, map[string]int{"Anton": 42, "Bob": 27, "Charlie": 35, "Diana": 19, "Eve": 27})

	assert.Equal(t, []Standing{
		{"Anton", 42},
		{"Charlie", 35},
		{"Bob", 27},
		{"Eve", 27},
	}, b.Leaderboard(4))
	assert.Len(t, b.Leaderboard(0), 5)
}

func TestRender(t *testing.T) {
	b := NewBoardWithMines(3, 2, Pt(2, 0))
	b.revealed[Pt(0, 0)] = struct{}{}
	b.revealed[Pt(1, 0)] = struct{}{}
	b.revealed[Pt(2, 0)] = struct{}{}
	b.markers[Pt(2, 1)] = Marker{"Eve", "⭐️"}

	assert.Equal(t, ".1*\n##F\n", b.Render())
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("12,7")
	require.NoError(t, err)
	assert.Equal(t, Pt(12, 7), p)
	assert.Equal(t, "12,7", p.String())

	for _, s := range []string{"", "12", "a,1", "1,b"} {
		_, err := ParsePoint(s)
		assert.Error(t, err, s)
	}
}
