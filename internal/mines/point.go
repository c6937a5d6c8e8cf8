package mines

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a cell coordinate on the board.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Point implements [fmt.Stringer]. The "x,y" form doubles as the key of
// revealed cells and markers in snapshots.
func (p Point) String() string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
}

func ParsePoint(s string) (Point, error) {
	xs, ys, found := strings.Cut(s, ",")
	if !found {
		return Point{}, fmt.Errorf("point %q: missing separator", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return Point{x, y}, nil
}

func (p Point) Add(dx, dy int) Point {
	return Point{p.X + dx, p.Y + dy}
}

// Neighbors returns the 8 surrounding points without bounds clipping.
func (p Point) Neighbors() [8]Point {
	return [8]Point{
		{p.X - 1, p.Y - 1}, {p.X, p.Y - 1}, {p.X + 1, p.Y - 1},
		{p.X - 1, p.Y}, {p.X + 1, p.Y},
		{p.X - 1, p.Y + 1}, {p.X, p.Y + 1}, {p.X + 1, p.Y + 1},
	}
}

// ComparePoints orders points row by row.
func ComparePoints(a, b Point) int {
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}
