package agents

import "fmt"

// Probabilities for the household attributes drawn at creation.
const (
	probNonWoodFuel  = 0.93
	probOwnHousePlot = 0.829
	probOwnAnyLand   = 0.61
	probRentedOut    = 0.11
)

// Household is a container of persons living together.
type Household struct {
	agent[*Neighborhood]
	set[*Household, *Person]

	UsesNonWoodFuel bool
	OwnsHousePlot   bool
	OwnsAnyLand     bool
	RentedOutLand   bool
}

func newHousehold(w *World, id ID, initial bool) *Household {
	h := &Household{
		agent:           agent[*Neighborhood]{id: id, initial: initial, world: w},
		UsesNonWoodFuel: w.env.Rand.Bool(probNonWoodFuel),
		OwnsHousePlot:   w.env.Rand.Bool(probOwnHousePlot),
		OwnsAnyLand:     w.env.Rand.Bool(probOwnAnyLand),
		RentedOutLand:   w.env.Rand.Bool(probRentedOut),
	}
	h.set = newSet[*Household, *Person](h)
	return h
}

// Neighborhood returns the neighborhood the household is placed in.
func (h *Household) Neighborhood() *Neighborhood { return h.parent }

// Persons returns the members in ascending identifier order.
func (h *Household) Persons() []*Person { return h.Members() }

func (h *Household) String() string {
	return fmt.Sprintf("Household(HID: %d, %d person(s))", h.id, h.Len())
}
