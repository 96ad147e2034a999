package census

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/valleysim/internal/agents"
	"github.com/talgya/valleysim/internal/entropy"
	"github.com/talgya/valleysim/internal/timeline"
)

type quietHazards struct{}

func (quietHazards) Birth(*agents.Person) float64             { return 0 }
func (quietHazards) Death(*agents.Person) float64             { return 0 }
func (quietHazards) Marriage(*agents.Person) float64          { return 0 }
func (quietHazards) Migration(*agents.Person) float64         { return 0 }
func (quietHazards) FirstBirthTiming(*agents.Person) float64  { return 6 }
func (quietHazards) BirthInterval(*agents.Person) float64     { return 12 }
func (quietHazards) DesiredChildren(*agents.Person) int       { return 2 }
func (quietHazards) MigrationDuration(*agents.Person) float64 { return 1 }
func (quietHazards) HouseholdLandRequirement() float64        { return 1 }

// family builds one neighborhood holding a married couple and their child.
func family(t *testing.T) (*agents.World, *agents.Region) {
	t.Helper()
	w, err := agents.NewWorld(agents.Env{
		Rand:    entropy.New(1),
		Hazards: quietHazards{},
		Rules:   agents.Rules{TimestepMonths: 1, MaxBirthAgeMonths: 540},
	})
	require.NoError(t, err)
	r, err := w.NewRegion()
	require.NoError(t, err)
	n, err := w.NewNeighborhood()
	require.NoError(t, err)
	n.X, n.Y = 10, 20
	require.NoError(t, n.SetLand(agents.LandUse{AgVeg: 6, NonAgVeg: 2, PrivBldg: 2}))
	require.NoError(t, r.Add(n))
	h, err := w.NewHousehold()
	require.NoError(t, err)
	require.NoError(t, n.AddHousehold(h, false))

	man, err := w.NewPerson(agents.PersonAttrs{Sex: agents.SexMale, Age: 360})
	require.NoError(t, err)
	woman, err := w.NewPerson(agents.PersonAttrs{Sex: agents.SexFemale, Age: 340})
	require.NoError(t, err)
	require.NoError(t, h.Add(man))
	require.NoError(t, h.Add(woman))
	require.NoError(t, man.Marry(woman, 1990))
	child, err := woman.GiveBirth(1992, man)
	require.NoError(t, err)
	require.NoError(t, h.Add(child))
	return w, r
}

func TestPersons(t *testing.T) {
	w, _ := family(t)
	recs := Persons(w, 7)
	require.Len(t, recs, 3)

	man, woman, child := recs[0], recs[1], recs[2]
	assert.Equal(t, 7, man.Step)
	assert.Equal(t, "male", man.Sex)
	require.NotNil(t, man.SpouseID)
	assert.Equal(t, woman.PersonID, *man.SpouseID)
	assert.Nil(t, man.MotherID)
	assert.Nil(t, man.DesiredChildren)

	require.NotNil(t, woman.DesiredChildren)
	assert.Equal(t, 2, *woman.DesiredChildren)
	assert.Equal(t, 6.0, woman.FirstBirthTiming)

	assert.Nil(t, child.SpouseID)
	require.NotNil(t, child.MotherID)
	assert.Equal(t, woman.PersonID, *child.MotherID)
	assert.Equal(t, man.PersonID, *child.FatherID)
	assert.Equal(t, man.HouseholdID, child.HouseholdID)
}

func TestNeighborhoodsAndSummarize(t *testing.T) {
	_, r := family(t)
	now := timeline.Instant{Step: 1, YearMonth: timeline.YearMonth{Year: 2000, Month: 3}}
	res, err := r.Step(now)
	require.NoError(t, err)

	recs := Neighborhoods(res)
	require.Len(t, recs, 1)
	n := recs[0]
	assert.Equal(t, 1, n.Step)
	assert.Equal(t, 3, n.Population)
	assert.Equal(t, 1, n.Households)
	assert.Equal(t, 1, n.Marriages)
	assert.Equal(t, 10.0, n.TotalArea)
	assert.InDelta(t, 0.6, n.PercAgVeg, 1e-12)
	assert.InDelta(t, 0.8, n.PercVeg, 1e-12)
	assert.InDelta(t, 0.2, n.PercBldg, 1e-12)

	sum := Summarize(r, res, now)
	assert.Equal(t, "03/2000", sum.Date)
	assert.Equal(t, 3, sum.Population)
	assert.Equal(t, 1, sum.Households)
	assert.Zero(t, sum.Births)
	assert.Zero(t, sum.Away)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter(t *testing.T) {
	w, r := family(t)
	now := timeline.Instant{Step: 1, YearMonth: timeline.YearMonth{Year: 2000, Month: 1}}
	res, err := r.Step(now)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	out, err := NewWriter(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, out.Dir())
	require.NoError(t, out.WritePersons(Persons(w, 1)))
	require.NoError(t, out.WriteNeighborhoods(Neighborhoods(res)))
	require.NoError(t, out.WriteStep(Summarize(r, res, now)))
	require.NoError(t, out.Close())

	persons := readCSV(t, filepath.Join(dir, PersonsFile))
	require.Len(t, persons, 4)
	assert.Equal(t, personHeader, persons[0])
	assert.Equal(t, "male", persons[1][5])
	assert.Equal(t, "", persons[1][8], "no mother recorded")
	assert.Equal(t, "361", persons[1][6])

	nbhs := readCSV(t, filepath.Join(dir, NeighborhoodsFile))
	require.Len(t, nbhs, 2)
	assert.Equal(t, "10", nbhs[1][3])
	assert.Equal(t, "0.6", nbhs[1][15])

	steps := readCSV(t, filepath.Join(dir, StepsFile))
	require.Len(t, steps, 2)
	assert.Equal(t, []string{"1", "01/2000", "0", "0", "0", "0", "0", "0", "0", "0", "3", "1", "0"}, steps[1])
}

func TestTake(t *testing.T) {
	w, _ := family(t)
	now := timeline.Instant{Step: 2, YearMonth: timeline.YearMonth{Year: 2000, Month: 2}}
	results, err := w.Step(now)
	require.NoError(t, err)

	snap := Take(w, results, now)
	assert.Equal(t, 2, snap.Step)
	assert.Equal(t, "02/2000", snap.Date)
	require.Len(t, snap.Steps, 1)
	assert.Equal(t, 3, snap.Steps[0].Population)
	assert.Len(t, snap.Neighborhoods, 1)
	assert.Len(t, snap.Persons, 3)

	dir := t.TempDir()
	out, err := NewWriter(dir)
	require.NoError(t, err)
	require.NoError(t, out.Record(snap))
	require.NoError(t, out.Close())
	assert.Len(t, readCSV(t, filepath.Join(dir, PersonsFile)), 4)
}
