package agents

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/valleysim/internal/entropy"
	"github.com/talgya/valleysim/internal/timeline"
)

// stubHazards returns fixed values for every person.
type stubHazards struct {
	birth, death, marriage, migration float64
	firstBirth, interval              float64
	desired                           int
	duration                          float64
	land                              float64
}

func (s *stubHazards) Birth(*Person) float64             { return s.birth }
func (s *stubHazards) Death(*Person) float64             { return s.death }
func (s *stubHazards) Marriage(*Person) float64          { return s.marriage }
func (s *stubHazards) Migration(*Person) float64         { return s.migration }
func (s *stubHazards) FirstBirthTiming(*Person) float64  { return s.firstBirth }
func (s *stubHazards) BirthInterval(*Person) float64     { return s.interval }
func (s *stubHazards) DesiredChildren(*Person) int       { return s.desired }
func (s *stubHazards) MigrationDuration(*Person) float64 { return s.duration }
func (s *stubHazards) HouseholdLandRequirement() float64 { return s.land }

func defaultRules() Rules {
	return Rules{
		TimestepMonths:    1,
		MaxBirthAgeMonths: 45 * 12,
	}
}

func newTestWorld(t *testing.T, hz *stubHazards, rules Rules) *World {
	t.Helper()
	w, err := NewWorld(Env{Rand: entropy.New(1), Hazards: hz, Rules: rules})
	require.NoError(t, err)
	return w
}

func addNeighborhood(t *testing.T, w *World, r *Region, land LandUse) *Neighborhood {
	t.Helper()
	n, err := w.NewNeighborhood()
	require.NoError(t, err)
	require.NoError(t, n.SetLand(land))
	require.NoError(t, r.Add(n))
	return n
}

func addHousehold(t *testing.T, w *World, n *Neighborhood) *Household {
	t.Helper()
	h, err := w.NewHousehold()
	require.NoError(t, err)
	require.NoError(t, n.AddHousehold(h, false))
	return h
}

func addPerson(t *testing.T, w *World, h *Household, sex Sex, ageMonths int) *Person {
	t.Helper()
	p, err := w.NewPerson(PersonAttrs{Sex: sex, Age: ageMonths, Birthdate: 2000 - float64(ageMonths)/12})
	require.NoError(t, err)
	if h != nil {
		require.NoError(t, h.Add(p))
	}
	return p
}

func at(step int) timeline.Instant {
	return timeline.Instant{Step: step, YearMonth: timeline.YearMonth{Year: 2000, Month: 1}.AddMonths(step - 1)}
}

// checkInvariants asserts the hierarchy-wide properties that must hold after
// every operation.
func checkInvariants(t *testing.T, w *World) {
	t.Helper()
	for _, r := range w.Regions() {
		require.Equal(t, w, r.Parent())
		for _, n := range r.Neighborhoods() {
			require.Equal(t, r, n.Parent())
			require.NoError(t, n.Land.Validate(), "neighborhood %d", n.ID())
			for _, h := range n.Households() {
				require.Equal(t, n, h.Parent())
				for _, p := range h.Persons() {
					require.Equal(t, h, p.Parent())
					require.True(t, p.Alive)
					require.False(t, r.Away().Contains(p))
					if s := p.Spouse(); s != nil {
						require.Equal(t, p.ID(), s.SpouseID(), "spouse of %d", p.ID())
					}
				}
			}
		}
	}
	for _, p := range w.persons {
		if !p.Alive {
			require.Nil(t, p.Household())
			require.NotNil(t, p.Deathdate)
			require.False(t, p.IsMarried())
		}
	}
}
