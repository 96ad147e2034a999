package agents

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/valleysim/internal/timeline"
)

// Region is a set of neighborhoods sharing land-use data and demographic
// parameters. It runs the per-timestep event steps and holds the migrants who
// are temporarily away.
type Region struct {
	agent[*World]
	set[*Region, *Neighborhood]

	away *ReleaseStore
}

func newRegion(w *World, id ID, initial bool) *Region {
	r := &Region{
		agent: agent[*World]{id: id, initial: initial, world: w},
		away:  NewReleaseStore(),
	}
	r.set = newSet[*Region, *Neighborhood](r)
	return r
}

// Neighborhoods returns the members in ascending identifier order.
func (r *Region) Neighborhoods() []*Neighborhood { return r.Members() }

// Away returns the store of persons temporarily out of the region.
func (r *Region) Away() *ReleaseStore { return r.away }

// Households returns every household, neighborhood by neighborhood.
func (r *Region) Households() []*Household {
	var out []*Household
	for _, n := range r.Members() {
		out = append(out, n.Members()...)
	}
	return out
}

// Persons returns every person living in a household of the region,
// household by household.
func (r *Region) Persons() []*Person {
	var out []*Person
	for _, h := range r.Households() {
		out = append(out, h.Members()...)
	}
	return out
}

// NumNeighborhoods returns the number of neighborhoods.
func (r *Region) NumNeighborhoods() int { return r.Len() }

// NumHouseholds returns the number of households.
func (r *Region) NumHouseholds() int {
	total := 0
	for _, n := range r.members {
		total += n.Len()
	}
	return total
}

// NumPersons returns the number of persons living in households.
func (r *Region) NumPersons() int {
	total := 0
	for _, n := range r.members {
		total += n.NumPersons()
	}
	return total
}

// NumMarriages counts married couples with at least one partner resident.
func (r *Region) NumMarriages() int {
	counted := make(map[ID]bool)
	n := 0
	for _, p := range r.Persons() {
		if !p.IsMarried() || counted[p.id] {
			continue
		}
		counted[p.id] = true
		counted[p.spouse] = true
		n++
	}
	return n
}

// StepResult holds the counts produced by one region timestep. Per-
// neighborhood maps are keyed by neighborhood identifier.
type StepResult struct {
	RegionID ID
	Step     int

	Births        map[ID]int
	Deaths        map[ID]int
	Marriages     map[ID]int
	OutMigrations map[ID]int
	Returned      map[ID][]*Person // by origin household
	InMigrants    int
	Unplaced      int // couples for which no neighborhood had land

	Stats []NeighborhoodStats
}

func newStepResult(r *Region, step int) *StepResult {
	return &StepResult{
		RegionID:      r.id,
		Step:          step,
		Births:        make(map[ID]int),
		Deaths:        make(map[ID]int),
		Marriages:     make(map[ID]int),
		OutMigrations: make(map[ID]int),
	}
}

// Total sums a per-neighborhood count map.
func Total(m map[ID]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// Step runs births, deaths, marriages, migrations, aging and aggregation in
// that order. Any fatal error aborts the remaining stages.
func (r *Region) Step(now timeline.Instant) (*StepResult, error) {
	res := newStepResult(r, now.Step)
	t := now.Time()

	if err := r.births(t, res); err != nil {
		return res, fmt.Errorf("births: %w", err)
	}
	if err := r.deaths(t, res); err != nil {
		return res, fmt.Errorf("deaths: %w", err)
	}
	if err := r.marriages(t, res); err != nil {
		return res, fmt.Errorf("marriages: %w", err)
	}
	if err := r.migrations(now, res); err != nil {
		return res, fmt.Errorf("migrations: %w", err)
	}
	r.incrementAge()
	res.Stats = r.Aggregate()
	return res, nil
}

// births lets each eligible woman draw against the birth hazard. Babies join
// the mother's household.
func (r *Region) births(t float64, res *StepResult) error {
	env := &r.world.env
	for _, n := range r.Members() {
		for _, h := range n.Members() {
			for _, p := range h.Members() {
				if !p.IsEligibleForBirth(t) {
					continue
				}
				if env.Rand.Float() >= env.Hazards.Birth(p) {
					continue
				}
				baby, err := p.GiveBirth(t, p.Spouse())
				if err != nil {
					return err
				}
				if err := h.Add(baby); err != nil {
					return err
				}
				res.Births[n.id]++
				if env.Rules.LandFeedback {
					n.TransferNonAgVegToOther(env.Rules.LandFeedbackArea)
				}
			}
		}
	}
	return nil
}

// deaths lets every resident draw against the death hazard, then every
// migrant away in ascending identifier order. A migrant's death counts
// toward the neighborhood of the household they left.
func (r *Region) deaths(t float64, res *StepResult) error {
	env := &r.world.env
	for _, n := range r.Members() {
		for _, h := range n.Members() {
			for _, p := range h.Members() {
				if env.Rand.Float() >= env.Hazards.Death(p) {
					continue
				}
				if _, err := p.Kill(t); err != nil {
					return err
				}
				res.Deaths[n.id]++
			}
		}
	}

	for _, p := range r.away.Persons() {
		if env.Rand.Float() >= env.Hazards.Death(p) {
			continue
		}
		nid := NoID
		if origin, ok := r.away.Origin(p); ok && origin.Neighborhood() != nil {
			nid = origin.Neighborhood().id
		}
		if _, err := p.Kill(t); err != nil {
			return err
		}
		res.Deaths[nid]++
	}
	return nil
}

// marriages collects unmarried persons who pass the marriage draw, adds
// in-migrant partners for a share of them, then pairs males with females by
// position.
func (r *Region) marriages(t float64, res *StepResult) error {
	env := &r.world.env
	var males, females []*Person
	for _, p := range r.Persons() {
		if p.IsMarried() {
			continue
		}
		if env.Rand.Float() >= env.Hazards.Marriage(p) {
			continue
		}
		if p.Sex == SexMale {
			males = append(males, p)
		} else {
			females = append(females, p)
		}
	}

	// A nil entry stands for an in-migrant partner. It is only created once
	// paired, so unmatched candidates never consume an identifier.
	localMales, localFemales := males, females
	for range localMales {
		if env.Rand.Bool(env.Rules.InMigrantMarriageShare) {
			females = append(females, nil)
		}
	}
	for range localFemales {
		if env.Rand.Bool(env.Rules.InMigrantMarriageShare) {
			males = append(males, nil)
		}
	}

	pairs := min(len(males), len(females))
	for i := 0; i < pairs; i++ {
		male, female := males[i], females[i]
		if male == nil && female == nil {
			continue
		}
		var err error
		if male == nil {
			male, err = r.inMigrant(SexMale, female, t)
		} else if female == nil {
			female, err = r.inMigrant(SexFemale, male, t)
		}
		if err != nil {
			return err
		}
		if err := male.Marry(female, t); err != nil {
			return err
		}
		nid, err := r.settleCouple(male, female, res)
		if err != nil {
			return err
		}
		if nid != NoID {
			res.Marriages[nid]++
		}
	}
	return nil
}

// inMigrant creates a partner from outside the study area, the same age as
// the local person it is matched with. It belongs to no household yet.
func (r *Region) inMigrant(sex Sex, partner *Person, t float64) (*Person, error) {
	return r.world.NewPerson(PersonAttrs{
		Sex:       sex,
		Age:       partner.Age,
		Birthdate: t - float64(partner.Age)/12,
	})
}

// settleCouple decides where a new couple lives and moves them there. It
// returns the neighborhood counted for the marriage.
func (r *Region) settleCouple(male, female *Person, res *StepResult) (ID, error) {
	env := &r.world.env
	moveOut := male.Household() == nil || env.Rand.Bool(env.Rules.MoveOutProbability)
	if moveOut {
		home, err := r.placeNewHousehold()
		switch {
		case err == nil:
			for _, p := range []*Person{male, female} {
				if err := moveTo(p, home); err != nil {
					return NoID, err
				}
			}
			return home.Neighborhood().id, nil
		case errors.Is(err, ErrCapacityExceeded):
			res.Unplaced++
			env.logger().Warn("no neighborhood can place new household",
				"region", r.id, "male", male.id, "female", female.id)
		default:
			return NoID, err
		}
	}

	// Stay in an existing household: the male's if he has one, otherwise the
	// female's (only when placement failed for an in-migrant husband).
	switch {
	case male.Household() != nil:
		home := male.Household()
		if err := moveTo(female, home); err != nil {
			return NoID, err
		}
		return home.Neighborhood().id, nil
	case female.Household() != nil:
		home := female.Household()
		if err := moveTo(male, home); err != nil {
			return NoID, err
		}
		return home.Neighborhood().id, nil
	}
	return NoID, newError(KindMembership, "settle couple", male.id, "neither partner has a household")
}

// placeNewHousehold creates a household and tries neighborhoods in random
// order until one has land for it. The created household is only kept when
// placement succeeds.
func (r *Region) placeNewHousehold() (*Household, error) {
	candidates := r.Members()
	if len(candidates) == 0 {
		return nil, newError(KindCapacity, "place household", r.id, "region has no neighborhoods")
	}
	home, err := r.world.NewHousehold()
	if err != nil {
		return nil, err
	}
	for len(candidates) > 0 {
		i := r.world.env.Rand.Intn(len(candidates))
		n := candidates[i]
		err := n.AddHousehold(home, true)
		if err == nil {
			return home, nil
		}
		if !errors.Is(err, ErrCapacityExceeded) {
			return nil, err
		}
		candidates = append(candidates[:i], candidates[i+1:]...)
	}
	return nil, newError(KindCapacity, "place household", r.id, "every neighborhood is out of land")
}

// moveTo moves p from its current household, if any, into home.
func moveTo(p *Person, home *Household) error {
	cur := p.Household()
	if cur == home {
		return nil
	}
	if cur != nil {
		if err := cur.Remove(p); err != nil {
			return err
		}
	}
	return home.Add(p)
}

// migrations sends persons who pass the migration draw away until their
// return step, brings back those due now, and draws the in-migration count.
func (r *Region) migrations(now timeline.Instant, res *StepResult) error {
	env := &r.world.env
	for _, n := range r.Members() {
		for _, h := range n.Members() {
			for _, p := range h.Members() {
				if env.Rand.Float() >= env.Hazards.Migration(p) {
					continue
				}
				months := env.Hazards.MigrationDuration(p)
				due := now.Step + timeline.StepsFor(months, env.Rules.TimestepMonths)
				if err := r.away.Defer(p, due); err != nil {
					return err
				}
				res.OutMigrations[n.id]++
			}
		}
	}

	returned, err := r.away.Release(now.Step)
	if err != nil {
		return err
	}
	res.Returned = returned

	in := env.Rand.Normal(env.Rules.InMigrationMean, env.Rules.InMigrationSD)
	res.InMigrants = int(math.Round(math.Max(0, in)))
	return nil
}

// incrementAge ages every living resident and every migrant away by one
// timestep.
func (r *Region) incrementAge() {
	step := r.world.env.Rules.TimestepMonths
	for _, p := range r.Persons() {
		if p.Alive {
			p.Age += step
		}
	}
	for _, p := range r.away.Persons() {
		if p.Alive {
			p.Age += step
		}
	}
}

func (r *Region) String() string {
	return fmt.Sprintf("Region(RID: %d, %d neighborhood(s), %d household(s), %d person(s))",
		r.id, r.Len(), r.NumHouseholds(), r.NumPersons())
}
