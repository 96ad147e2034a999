package world

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/talgya/valleysim/internal/agents"
)

// Cell is one neighborhood site of the study area.
type Cell struct {
	Coord HexCoord `json:"coord"`
	X     float64  `json:"x"` // meters from the study-area origin
	Y     float64  `json:"y"`

	Elevation float64 `json:"elevation"` // 0.0 (valley floor) to 1.0 (ridge)
	Rainfall  float64 `json:"rainfall"`  // 0.0 (dry) to 1.0 (wet)

	Land agents.LandUse `json:"land"`
}

// Map holds the generated cells.
type Map struct {
	Cells map[HexCoord]*Cell `json:"-"`
	order []HexCoord
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{Cells: make(map[HexCoord]*Cell)}
}

// Get returns the cell at the given coordinate, or nil.
func (m *Map) Get(coord HexCoord) *Cell {
	return m.Cells[coord]
}

// Set places a cell at its coordinate. Cells keep the order they were first
// set in.
func (m *Map) Set(c *Cell) {
	if _, ok := m.Cells[c.Coord]; !ok {
		m.order = append(m.order, c.Coord)
	}
	m.Cells[c.Coord] = c
}

// Ordered returns the cells in insertion order.
func (m *Map) Ordered() []*Cell {
	out := make([]*Cell, len(m.order))
	for i, c := range m.order {
		out[i] = m.Cells[c]
	}
	return out
}

// Coords returns every coordinate sorted by (q, r).
func (m *Map) Coords() []HexCoord {
	return slices.SortedFunc(maps.Keys(m.Cells), func(a, b HexCoord) int {
		return cmp.Or(cmp.Compare(a.Q, b.Q), cmp.Compare(a.R, b.R))
	})
}

// CellCount returns the number of cells.
func (m *Map) CellCount() int {
	return len(m.Cells)
}

// TotalLand sums the land pools of every cell.
func (m *Map) TotalLand() agents.LandUse {
	var total agents.LandUse
	for _, c := range m.Cells {
		total.AgVeg += c.Land.AgVeg
		total.NonAgVeg += c.Land.NonAgVeg
		total.PrivBldg += c.Land.PrivBldg
		total.PubBldg += c.Land.PubBldg
		total.Other += c.Land.Other
	}
	return total
}

func (m *Map) String() string {
	return fmt.Sprintf("Map{cells: %d, area: %.2f}", len(m.Cells), m.TotalLand().Total())
}
