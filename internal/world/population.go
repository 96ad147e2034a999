package world

import (
	"fmt"
	"math"
	"slices"

	"github.com/talgya/valleysim/internal/agents"
	"github.com/talgya/valleysim/internal/config"
)

// Age bounds, in years, for the adults of a generated household.
const (
	minAdultAge     = 18
	maxAdultAge     = 70
	minMotherAge    = 16
	maxChildAge     = 25
	householdSizeSD = 1.5
)

// Build generates the study area sized by sizes and populates w over it. Sites are
// split evenly between regions in spiral order.
func Build(w *agents.World, sizes config.Init, seed int64, t0 float64) (*Map, error) {
	m, err := Generate(GenConfig{
		Seed:    seed,
		Cells:   sizes.Regions * sizes.NeighborhoodsPerRegion,
		Spacing: sizes.Spacing,
		Area:    sizes.NeighborhoodArea,
	})
	if err != nil {
		return nil, err
	}
	if err := Populate(w, m, sizes, t0); err != nil {
		return nil, err
	}
	return m, nil
}

// Populate creates the initial regions, neighborhoods, households and persons
// of w on the sites of m. Every agent is created as initial, and households
// are placed without consuming land since the cell pools already account for
// existing buildings. All draws come from the world's random stream.
func Populate(w *agents.World, m *Map, sizes config.Init, t0 float64) error {
	cells := m.Ordered()
	if want := sizes.Regions * sizes.NeighborhoodsPerRegion; len(cells) < want {
		return fmt.Errorf("populate: map has %d sites, need %d", len(cells), want)
	}

	rng := w.Env().Rand
	for ri := 0; ri < sizes.Regions; ri++ {
		r, err := w.NewRegion(agents.AsInitial())
		if err != nil {
			return fmt.Errorf("populate: %w", err)
		}
		start := ri * sizes.NeighborhoodsPerRegion
		for _, c := range cells[start : start+sizes.NeighborhoodsPerRegion] {
			n, err := newNeighborhood(w, c)
			if err != nil {
				return fmt.Errorf("populate: %w", err)
			}
			if err := r.Add(n); err != nil {
				return fmt.Errorf("populate: %w", err)
			}
			for range sizes.HouseholdsPerNeighborhood {
				size := max(1, int(math.Round(rng.Normal(sizes.MeanHouseholdSize, householdSizeSD))))
				if err := populateHousehold(w, n, size, t0); err != nil {
					return fmt.Errorf("populate neighborhood %d: %w", n.ID(), err)
				}
			}
		}
		w.Logger().Info("region populated",
			"region", r.ID(),
			"neighborhoods", r.NumNeighborhoods(),
			"households", r.NumHouseholds(),
			"persons", r.NumPersons(),
		)
	}
	return nil
}

func newNeighborhood(w *agents.World, c *Cell) (*agents.Neighborhood, error) {
	n, err := w.NewNeighborhood(agents.AsInitial())
	if err != nil {
		return nil, err
	}
	if err := n.SetLand(c.Land); err != nil {
		return nil, err
	}
	n.X, n.Y = c.X, c.Y
	n.ElectricityAvailable = c.Elevation < 0.6
	n.YearsNonfamilyServices = math.Round(10 * (1 - c.Elevation) * c.Rainfall)
	return n, nil
}

// populateHousehold places a household of size persons in n. A single person
// lives alone; larger households are a married couple with their children.
func populateHousehold(w *agents.World, n *agents.Neighborhood, size int, t0 float64) error {
	h, err := w.NewHousehold(agents.AsInitial())
	if err != nil {
		return err
	}
	if err := n.AddHousehold(h, false); err != nil {
		return err
	}
	rng := w.Env().Rand

	if size == 1 {
		years := clampAge(rng.Normal(40, 15), minAdultAge, maxAdultAge)
		_, err := newResident(w, h, agents.SexUnspecified, years, t0)
		return err
	}

	headYears := clampAge(rng.Normal(30, 12), minAdultAge, maxAdultAge)
	wifeYears := clampAge(rng.Normal(float64(headYears-3), 2), minMotherAge, maxAdultAge)
	head, err := newResident(w, h, agents.SexMale, headYears, t0)
	if err != nil {
		return err
	}
	wife, err := newResident(w, h, agents.SexFemale, wifeYears, t0)
	if err != nil {
		return err
	}
	married := t0 - rng.Float()*float64(wifeYears-minMotherAge)
	if err := head.Marry(wife, married); err != nil {
		return err
	}

	// Children born since the marriage, oldest first so that identifiers
	// follow birth order.
	span := min(int((t0-married)*12), maxChildAge*12)
	ages := make([]int, size-2)
	for i := range ages {
		ages[i] = rng.Intn(span + 1)
	}
	slices.SortFunc(ages, func(a, b int) int { return b - a })
	for _, months := range ages {
		child, err := w.NewPerson(agents.PersonAttrs{
			Birthdate: t0 - float64(months)/12,
			Age:       months,
			Mother:    wife,
			Father:    head,
		}, agents.AsInitial())
		if err != nil {
			return err
		}
		if err := h.Add(child); err != nil {
			return err
		}
		bt := child.Birthdate
		wife.LastBirthTime = &bt
	}
	return nil
}

func newResident(w *agents.World, h *agents.Household, sex agents.Sex, years int, t0 float64) (*agents.Person, error) {
	months := years*12 + w.Env().Rand.Intn(12)
	p, err := w.NewPerson(agents.PersonAttrs{
		Sex:       sex,
		Birthdate: t0 - float64(months)/12,
		Age:       months,
	}, agents.AsInitial())
	if err != nil {
		return nil, err
	}
	if err := h.Add(p); err != nil {
		return nil, err
	}
	return p, nil
}

func clampAge(v float64, lo, hi int) int {
	return max(lo, min(hi, int(math.Round(v))))
}
