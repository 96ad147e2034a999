// Package census flattens the population hierarchy into per-timestep output
// records and writes them as CSV.
package census

import (
	"github.com/talgya/valleysim/internal/agents"
	"github.com/talgya/valleysim/internal/timeline"
)

// PersonRecord is one resident at the end of a timestep.
type PersonRecord struct {
	Step             int        `db:"step"`
	PersonID         agents.ID  `db:"person_id"`
	HouseholdID      agents.ID  `db:"household_id"`
	NeighborhoodID   agents.ID  `db:"neighborhood_id"`
	RegionID         agents.ID  `db:"region_id"`
	Sex              string     `db:"sex"`
	Age              int        `db:"age"`
	SpouseID         *agents.ID `db:"spouse_id"`
	MotherID         *agents.ID `db:"mother_id"`
	FatherID         *agents.ID `db:"father_id"`
	DesiredChildren  *int       `db:"desired_children"`
	FirstBirthTiming float64    `db:"first_birth_timing"`
}

// NeighborhoodRecord is one neighborhood at the end of a timestep.
type NeighborhoodRecord struct {
	Step           int       `db:"step"`
	NeighborhoodID agents.ID `db:"neighborhood_id"`
	RegionID       agents.ID `db:"region_id"`
	X              float64   `db:"x"`
	Y              float64   `db:"y"`
	Population     int       `db:"population"`
	Households     int       `db:"households"`
	Marriages      int       `db:"marriages"`
	NonWoodFuel    int       `db:"non_wood_fuel"`
	AgVeg          float64   `db:"agveg"`
	NonAgVeg       float64   `db:"nonagveg"`
	PrivBldg       float64   `db:"privbldg"`
	PubBldg        float64   `db:"pubbldg"`
	Other          float64   `db:"other"`
	TotalArea      float64   `db:"total_area"`
	PercAgVeg      float64   `db:"perc_agveg"`
	PercVeg        float64   `db:"perc_veg"`
	PercBldg       float64   `db:"perc_bldg"`
}

// StepRecord summarizes one region's timestep.
type StepRecord struct {
	Step          int       `db:"step"`
	Date          string    `db:"date"` // MM/YYYY
	RegionID      agents.ID `db:"region_id"`
	Births        int       `db:"births"`
	Deaths        int       `db:"deaths"`
	Marriages     int       `db:"marriages"`
	OutMigrations int       `db:"out_migrations"`
	Returned      int       `db:"returned"`
	InMigrants    int       `db:"in_migrants"`
	Unplaced      int       `db:"unplaced"`
	Population    int       `db:"population"`
	Households    int       `db:"households"`
	Away          int       `db:"away"`
}

// Snapshot is everything recorded for one timestep.
type Snapshot struct {
	Step          int
	Date          string
	Steps         []StepRecord // one per region
	Neighborhoods []NeighborhoodRecord
	Persons       []PersonRecord
}

func optionalID(id agents.ID) *agents.ID {
	if id == agents.NoID {
		return nil
	}
	return &id
}

// Persons returns a record for every resident of the world, in hierarchy
// order. Persons away from their household are not included.
func Persons(w *agents.World, step int) []PersonRecord {
	var out []PersonRecord
	for _, r := range w.Regions() {
		for _, n := range r.Neighborhoods() {
			for _, h := range n.Households() {
				for _, p := range h.Persons() {
					rec := PersonRecord{
						Step:             step,
						PersonID:         p.ID(),
						HouseholdID:      h.ID(),
						NeighborhoodID:   n.ID(),
						RegionID:         r.ID(),
						Sex:              p.Sex.String(),
						Age:              p.Age,
						SpouseID:         optionalID(p.SpouseID()),
						MotherID:         optionalID(p.MotherID()),
						FatherID:         optionalID(p.FatherID()),
						FirstBirthTiming: p.FirstBirthTiming,
					}
					if p.DesiredChildren != nil {
						d := *p.DesiredChildren
						rec.DesiredChildren = &d
					}
					out = append(out, rec)
				}
			}
		}
	}
	return out
}

// Neighborhoods converts the aggregation stage of a region step.
func Neighborhoods(res *agents.StepResult) []NeighborhoodRecord {
	out := make([]NeighborhoodRecord, 0, len(res.Stats))
	for _, st := range res.Stats {
		out = append(out, NeighborhoodRecord{
			Step:           res.Step,
			NeighborhoodID: st.NeighborhoodID,
			RegionID:       st.RegionID,
			X:              st.X,
			Y:              st.Y,
			Population:     st.Population,
			Households:     st.Households,
			Marriages:      st.Marriages,
			NonWoodFuel:    st.NonWoodFuel,
			AgVeg:          st.Land.AgVeg,
			NonAgVeg:       st.Land.NonAgVeg,
			PrivBldg:       st.Land.PrivBldg,
			PubBldg:        st.Land.PubBldg,
			Other:          st.Land.Other,
			TotalArea:      st.TotalArea(),
			PercAgVeg:      st.PercentAgricultural(),
			PercVeg:        st.PercentVegetated(),
			PercBldg:       st.PercentBuilt(),
		})
	}
	return out
}

// Summarize builds the step record for one region result.
func Summarize(r *agents.Region, res *agents.StepResult, now timeline.Instant) StepRecord {
	rec := StepRecord{
		Step:          res.Step,
		Date:          now.String(),
		RegionID:      res.RegionID,
		Births:        agents.Total(res.Births),
		Deaths:        agents.Total(res.Deaths),
		Marriages:     agents.Total(res.Marriages),
		OutMigrations: agents.Total(res.OutMigrations),
		InMigrants:    res.InMigrants,
		Unplaced:      res.Unplaced,
	}
	for _, ps := range res.Returned {
		rec.Returned += len(ps)
	}
	for _, st := range res.Stats {
		rec.Population += st.Population
		rec.Households += st.Households
	}
	if r != nil {
		rec.Away = r.Away().Len()
	}
	return rec
}

// Take builds the snapshot of a world timestep from its region results.
func Take(w *agents.World, results []*agents.StepResult, now timeline.Instant) Snapshot {
	snap := Snapshot{Step: now.Step, Date: now.String()}
	for _, res := range results {
		r, _ := w.Get(res.RegionID)
		snap.Steps = append(snap.Steps, Summarize(r, res, now))
		snap.Neighborhoods = append(snap.Neighborhoods, Neighborhoods(res)...)
	}
	snap.Persons = Persons(w, now.Step)
	return snap
}
