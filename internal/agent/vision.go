package agent

import "github.com/vancomm/minefield/internal/mines"

// Vision is the square window of cells a player keeps knowledge about,
// centered on the player's position.
type Vision struct {
	Center mines.Point `json:"center"`
	Range  int         `json:"range"`
}

func (v Vision) Contains(p mines.Point) bool {
	return abs(p.X-v.Center.X) <= v.Range && abs(p.Y-v.Center.Y) <= v.Range
}

// Min and Max are the inclusive corners of the window.
func (v Vision) Min() mines.Point {
	return v.Center.Add(-v.Range, -v.Range)
}

func (v Vision) Max() mines.Point {
	return v.Center.Add(v.Range, v.Range)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
