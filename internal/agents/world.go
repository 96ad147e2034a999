package agents

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/valleysim/internal/timeline"
)

// World is the top-level registry of regions. It owns the identifier
// allocators, acts as the factory for every agent type, and keeps an index of
// all persons ever created so relationships can be resolved by identifier.
type World struct {
	set[*World, *Region]

	env Env

	personIDs       *IDAllocator
	householdIDs    *IDAllocator
	neighborhoodIDs *IDAllocator
	regionIDs       *IDAllocator

	persons map[ID]*Person
}

// NewWorld creates an empty world bound to a simulation context.
func NewWorld(env Env) (*World, error) {
	if env.Rand == nil || env.Hazards == nil {
		return nil, errors.New("new world: env needs both Rand and Hazards")
	}
	if env.Rules.TimestepMonths <= 0 {
		return nil, newError(KindDomain, "new world", NoID, "timestep must be positive, got %d", env.Rules.TimestepMonths)
	}
	w := &World{
		env:             env,
		personIDs:       NewIDAllocator(),
		householdIDs:    NewIDAllocator(),
		neighborhoodIDs: NewIDAllocator(),
		regionIDs:       NewIDAllocator(),
		persons:         make(map[ID]*Person),
	}
	w.set = newSet[*World, *Region](w)
	return w, nil
}

// Env returns the simulation context.
func (w *World) Env() Env { return w.env }

// Logger returns the run logger, or the default logger when none is set.
func (w *World) Logger() *slog.Logger { return w.env.logger() }

// Option configures a factory call.
type Option func(*options)

type options struct {
	id      ID
	hasID   bool
	initial bool
}

// WithID uses an externally supplied identifier instead of allocating one.
func WithID(id ID) Option {
	return func(o *options) { o.id, o.hasID = id, true }
}

// AsInitial flags the agent as loaded at initialization.
func AsInitial() Option {
	return func(o *options) { o.initial = true }
}

func claim(alloc *IDAllocator, opts []Option) (ID, bool, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasID {
		return alloc.Next(), o.initial, nil
	}
	if err := alloc.Use(o.id); err != nil {
		return NoID, false, err
	}
	return o.id, o.initial, nil
}

// PersonAttrs are the demographic attributes of a new person.
type PersonAttrs struct {
	Sex       Sex // SexUnspecified draws one with even odds
	Birthdate float64
	Age       int // months
	Mother    *Person
	Father    *Person
}

// NewPerson creates a living person not yet placed in any household. The new
// person is appended to the child lists of any parents given.
func (w *World) NewPerson(attrs PersonAttrs, opts ...Option) (*Person, error) {
	sex := attrs.Sex
	if sex == SexUnspecified {
		sex = SexMale
		if w.env.Rand.Bool(0.5) {
			sex = SexFemale
		}
	}
	if !sex.valid() {
		return nil, newError(KindDomain, "new person", NoID, "%v is not a valid sex", sex)
	}
	if attrs.Age < 0 {
		return nil, newError(KindDomain, "new person", NoID, "age %d is negative", attrs.Age)
	}

	id, initial, err := claim(w.personIDs, opts)
	if err != nil {
		return nil, fmt.Errorf("new person: %w", err)
	}
	p := &Person{
		agent:     agent[*Household]{id: id, initial: initial, world: w},
		Sex:       sex,
		Birthdate: attrs.Birthdate,
		Age:       attrs.Age,
		Alive:     true,
		mother:    NoID,
		father:    NoID,
		spouse:    NoID,
	}
	if m := attrs.Mother; m != nil {
		p.mother = m.id
		m.children = append(m.children, id)
	}
	if f := attrs.Father; f != nil {
		p.father = f.id
		f.children = append(f.children, id)
	}
	w.persons[id] = p
	return p, nil
}

// NewHousehold creates a household not yet placed in any neighborhood.
func (w *World) NewHousehold(opts ...Option) (*Household, error) {
	id, initial, err := claim(w.householdIDs, opts)
	if err != nil {
		return nil, fmt.Errorf("new household: %w", err)
	}
	return newHousehold(w, id, initial), nil
}

// NewNeighborhood creates a neighborhood not yet placed in any region.
func (w *World) NewNeighborhood(opts ...Option) (*Neighborhood, error) {
	id, initial, err := claim(w.neighborhoodIDs, opts)
	if err != nil {
		return nil, fmt.Errorf("new neighborhood: %w", err)
	}
	return newNeighborhood(w, id, initial), nil
}

// NewRegion creates a region and registers it with the world.
func (w *World) NewRegion(opts ...Option) (*Region, error) {
	id, initial, err := claim(w.regionIDs, opts)
	if err != nil {
		return nil, fmt.Errorf("new region: %w", err)
	}
	r := newRegion(w, id, initial)
	if err := w.Add(r); err != nil {
		return nil, fmt.Errorf("new region: %w", err)
	}
	return r, nil
}

// Person looks up any person ever created, living or dead. It returns nil for
// NoID or an unknown identifier.
func (w *World) Person(id ID) *Person {
	if id == NoID {
		return nil
	}
	return w.persons[id]
}

// storeHolding returns the region store p is away in, or nil.
func (w *World) storeHolding(p *Person) *ReleaseStore {
	for _, r := range w.members {
		if r.away.Contains(p) {
			return r.away
		}
	}
	return nil
}

// Regions returns the regions in ascending identifier order.
func (w *World) Regions() []*Region { return w.Members() }

// AllPersons walks region → neighborhood → household → person, each level in
// ascending identifier order. Persons away in a release store are not
// included.
func (w *World) AllPersons() []*Person {
	var out []*Person
	for _, r := range w.Members() {
		out = append(out, r.Persons()...)
	}
	return out
}

// Step runs one timestep for every region in ascending identifier order. A
// fatal error stops the step and is returned with the results gathered so
// far.
func (w *World) Step(now timeline.Instant) ([]*StepResult, error) {
	var results []*StepResult
	for _, r := range w.Members() {
		res, err := r.Step(now)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("region %d step %d: %w", r.id, now.Step, err)
		}
	}
	return results, nil
}
