package agents

import (
	"fmt"
	"math"
)

// LandUse holds the five mutually exclusive land-area pools of a
// neighborhood.
type LandUse struct {
	AgVeg    float64 `json:"agveg" yaml:"agveg"`
	NonAgVeg float64 `json:"nonagveg" yaml:"nonagveg"`
	PrivBldg float64 `json:"privbldg" yaml:"privbldg"`
	PubBldg  float64 `json:"pubbldg" yaml:"pubbldg"`
	Other    float64 `json:"other" yaml:"other"`
}

// Total returns the summed area of all pools.
func (l LandUse) Total() float64 {
	return l.AgVeg + l.NonAgVeg + l.PrivBldg + l.PubBldg + l.Other
}

// Validate rejects negative or non-finite pools.
func (l LandUse) Validate() error {
	pools := []struct {
		name string
		v    float64
	}{
		{"agveg", l.AgVeg}, {"nonagveg", l.NonAgVeg}, {"privbldg", l.PrivBldg},
		{"pubbldg", l.PubBldg}, {"other", l.Other},
	}
	for _, p := range pools {
		if p.v < 0 || math.IsNaN(p.v) || math.IsInf(p.v, 0) {
			return newError(KindDomain, "land use", NoID, "%s area %v must be a finite non-negative number", p.name, p.v)
		}
	}
	return nil
}

// Neighborhood is a container of households with a finite land budget.
type Neighborhood struct {
	agent[*Region]
	set[*Neighborhood, *Household]

	X, Y                   float64
	Land                   LandUse
	ElectricityAvailable   bool
	YearsNonfamilyServices float64
}

func newNeighborhood(w *World, id ID, initial bool) *Neighborhood {
	n := &Neighborhood{agent: agent[*Region]{id: id, initial: initial, world: w}}
	n.set = newSet[*Neighborhood, *Household](n)
	return n
}

// Region returns the owning region.
func (n *Neighborhood) Region() *Region { return n.parent }

// Households returns the members in ascending identifier order.
func (n *Neighborhood) Households() []*Household { return n.Members() }

// SetLand replaces the land pools, as done when loading initial data.
func (n *Neighborhood) SetLand(l LandUse) error {
	if err := l.Validate(); err != nil {
		return err
	}
	n.Land = l
	return nil
}

// AddHousehold places h in the neighborhood. With consumeLand the household's
// land requirement is taken from agricultural vegetation, or failing that from
// non-agricultural vegetation, and credited to private building. If neither
// pool can cover it the call returns ErrCapacityExceeded and nothing changes.
func (n *Neighborhood) AddHousehold(h *Household, consumeLand bool) error {
	if err := n.checkAdd(h); err != nil {
		return err
	}
	if !consumeLand {
		return n.Add(h)
	}

	req := n.world.env.Hazards.HouseholdLandRequirement()
	if req < 0 || math.IsNaN(req) || math.IsInf(req, 0) {
		return newError(KindDomain, "add household", h.id, "invalid land requirement %v", req)
	}

	var pool *float64
	switch {
	case n.Land.AgVeg >= req:
		pool = &n.Land.AgVeg
	case n.Land.NonAgVeg >= req:
		pool = &n.Land.NonAgVeg
	default:
		return newError(KindCapacity, "add household", h.id,
			"neighborhood %d cannot supply %.4f (agveg %.4f, nonagveg %.4f)",
			n.id, req, n.Land.AgVeg, n.Land.NonAgVeg)
	}
	*pool -= req
	n.Land.PrivBldg += req
	return n.Add(h)
}

// TransferNonAgVegToOther moves area from non-agricultural vegetation to
// other. It reports false, changing nothing, when the pool is too small.
func (n *Neighborhood) TransferNonAgVegToOther(area float64) bool {
	if area < 0 || n.Land.NonAgVeg < area {
		return false
	}
	n.Land.NonAgVeg -= area
	n.Land.Other += area
	return true
}

// NumPersons counts persons across the neighborhood's households.
func (n *Neighborhood) NumPersons() int {
	total := 0
	for _, h := range n.members {
		total += h.Len()
	}
	return total
}

func (n *Neighborhood) String() string {
	return fmt.Sprintf("Neighborhood(NID: %d, %d household(s))", n.id, n.Len())
}
