package mines

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const DefaultDensity = 0.15

// MineCountFor returns floor(width*height*density).
func MineCountFor(width, height int, density float64) int {
	return int(math.Floor(float64(width*height) * density))
}

func validateDims(width, height int, density float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid board size %dx%d", width, height)
	}
	if density < 0 || density >= 1 || math.IsNaN(density) {
		return fmt.Errorf("mine density must be in [0, 1), got %v", density)
	}
	return nil
}

// Generate samples a fresh minefield. Mines are drawn uniformly at random;
// a draw that hits an existing mine is thrown away and drawn again, which
// always terminates because density < 1 leaves free cells.
func Generate(width, height int, density float64, r *rand.Rand) (*Board, error) {
	if err := validateDims(width, height, density); err != nil {
		return nil, err
	}
	b := newBoard(width, height, nil)
	b.placeMines(MineCountFor(width, height, density), r)
	return b, nil
}

func (b *Board) placeMines(count int, r *rand.Rand) {
	for len(b.mines) < count {
		p := Point{r.IntN(b.Width), r.IntN(b.Height)}
		if _, taken := b.mines[p]; taken {
			continue
		}
		b.mines[p] = struct{}{}
	}
}

// regenerate returns a new generation of the same size that keeps the
// scores of b.
func (b *Board) regenerate(density float64, r *rand.Rand) *Board {
	next := newBoard(b.Width, b.Height, b.scores)
	next.placeMines(MineCountFor(b.Width, b.Height, density), r)
	return next
}
