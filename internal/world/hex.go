// Package world generates the synthetic study area: a hex lattice of
// neighborhood sites with land-use pools derived from simplex noise, and the
// initial population placed on it. Uses axial coordinates (q, r).
package world

import "math"

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Cartesian converts to continuous coordinates with unit distance between
// adjacent centers.
func (h HexCoord) Cartesian() (x, y float64) {
	x = float64(h.Q) + float64(h.R)*0.5
	y = float64(h.R) * math.Sqrt(3.0) / 2.0
	return x, y
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	// Max of the three absolute differences in cube coordinates.
	return max(dq, dr, ds)
}

// Rings returns how many rings around the origin a spiral of n cells
// reaches. Ring k holds 6k cells.
func Rings(n int) int {
	k := 0
	for 1+3*k*(k+1) < n {
		k++
	}
	return k
}

// Spiral returns the first n coordinates of a spiral out from the origin:
// the origin, then ring 1, ring 2 and so on, each ring walked in a fixed
// direction order.
func Spiral(n int) []HexCoord {
	if n <= 0 {
		return nil
	}
	out := []HexCoord{{}}
	for radius := 1; len(out) < n; radius++ {
		// Start at the ring's corner in direction 4, then walk each side.
		cur := HexCoord{Q: HexNeighborDirections[4].Q * radius, R: HexNeighborDirections[4].R * radius}
		for side := 0; side < 6; side++ {
			for step := 0; step < radius; step++ {
				out = append(out, cur)
				dir := HexNeighborDirections[side]
				cur = HexCoord{Q: cur.Q + dir.Q, R: cur.R + dir.R}
			}
		}
	}
	return out[:n]
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
