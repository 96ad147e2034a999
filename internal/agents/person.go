package agents

import "fmt"

// Sex represents biological sex for demographic simulation.
type Sex uint8

const (
	SexUnspecified Sex = 0 // factories draw one at random
	SexMale        Sex = 1
	SexFemale      Sex = 2
)

// String returns the lowercase name used in output records.
func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	default:
		return fmt.Sprintf("Sex(%d)", uint8(s))
	}
}

// ParseSex converts "male"/"female" to a Sex.
func ParseSex(s string) (Sex, error) {
	switch s {
	case "male":
		return SexMale, nil
	case "female":
		return SexFemale, nil
	}
	return SexUnspecified, newError(KindDomain, "parse sex", NoID, "%q is not a valid sex", s)
}

func (s Sex) valid() bool { return s == SexMale || s == SexFemale }

// Person is a single individual. Relationships to other persons are held as
// identifiers and resolved through the World, so the household is the only
// owner of a Person.
type Person struct {
	agent[*Household]

	Sex       Sex
	Birthdate float64  // decimal year; negative ages for initial agents
	Deathdate *float64 // set by Kill
	Age       int      // months
	Alive     bool

	mother   ID
	father   ID
	spouse   ID
	children []ID

	// DesiredChildren is nil until drawn; -1 means no preference.
	DesiredChildren  *int
	LastBirthTime    *float64
	MarriageTime     *float64
	FirstBirthTiming float64 // months after marriage
	BirthInterval    float64 // months between births
}

// Household returns the household the person lives in, or nil while away or
// after death.
func (p *Person) Household() *Household { return p.parent }

// MotherID returns the mother's identifier or NoID.
func (p *Person) MotherID() ID { return p.mother }

// FatherID returns the father's identifier or NoID.
func (p *Person) FatherID() ID { return p.father }

// SpouseID returns the spouse's identifier or NoID.
func (p *Person) SpouseID() ID { return p.spouse }

// Mother resolves the mother through the World.
func (p *Person) Mother() *Person { return p.world.Person(p.mother) }

// Father resolves the father through the World.
func (p *Person) Father() *Person { return p.world.Person(p.father) }

// Spouse resolves the spouse through the World.
func (p *Person) Spouse() *Person { return p.world.Person(p.spouse) }

// Children returns a copy of the child identifiers in birth order.
func (p *Person) Children() []ID {
	out := make([]ID, len(p.children))
	copy(out, p.children)
	return out
}

// NumChildren returns how many children the person has had.
func (p *Person) NumChildren() int { return len(p.children) }

// IsMarried reports whether the person has a spouse.
func (p *Person) IsMarried() bool { return p.spouse != NoID }

// Marry links p and other as spouses at time now. The female partner draws her
// first-birth timing and, if not yet set, her desired family size.
func (p *Person) Marry(other *Person, now float64) error {
	switch {
	case other == nil:
		return newError(KindRelationship, "marry", p.id, "no partner given")
	case other.id == p.id:
		return newError(KindRelationship, "marry", p.id, "cannot marry self")
	case !p.Alive || !other.Alive:
		return newError(KindRelationship, "marry", p.id, "both partners must be alive (partner %d)", other.id)
	case p.IsMarried() || other.IsMarried():
		return newError(KindRelationship, "marry", p.id, "partner %d or self already married", other.id)
	}

	p.spouse = other.id
	other.spouse = p.id
	for _, q := range []*Person{p, other} {
		t := now
		q.MarriageTime = &t
	}

	for _, q := range []*Person{p, other} {
		if q.Sex != SexFemale {
			continue
		}
		hz := p.world.env.Hazards
		q.FirstBirthTiming = hz.FirstBirthTiming(q)
		q.BirthInterval = q.drawBirthInterval()
		if q.DesiredChildren == nil {
			n := hz.DesiredChildren(q)
			q.DesiredChildren = &n
		}
	}
	return nil
}

// Divorce clears the spouse link on both sides.
func (p *Person) Divorce() error {
	if !p.IsMarried() {
		return newError(KindRelationship, "divorce", p.id, "not married")
	}
	if s := p.Spouse(); s != nil && s.spouse == p.id {
		s.spouse = NoID
	}
	p.spouse = NoID
	return nil
}

// IsEligibleForBirth reports whether p may draw against the birth hazard at
// time now. It reads state only.
func (p *Person) IsEligibleForBirth(now float64) bool {
	if !p.Alive || p.Sex != SexFemale || !p.IsMarried() {
		return false
	}
	if p.Age > p.world.env.Rules.MaxBirthAgeMonths {
		return false
	}
	if p.DesiredChildren != nil && *p.DesiredChildren != -1 && len(p.children) >= *p.DesiredChildren {
		return false
	}
	if p.MarriageTime == nil || now-*p.MarriageTime < p.FirstBirthTiming/12 {
		return false
	}
	if p.LastBirthTime != nil && now-*p.LastBirthTime < p.BirthInterval/12 {
		return false
	}
	return true
}

// GiveBirth creates a child of p and father born at time now. The child is not
// placed in any household; the caller adds it.
func (p *Person) GiveBirth(now float64, father *Person) (*Person, error) {
	switch {
	case p.Sex != SexFemale:
		return nil, newError(KindRelationship, "give birth", p.id, "only females give birth")
	case father == nil || p.spouse != father.id:
		return nil, newError(KindRelationship, "give birth", p.id, "father is not the spouse")
	case father.id == p.id:
		return nil, newError(KindRelationship, "give birth", p.id, "father cannot be the mother")
	}

	baby, err := p.world.NewPerson(PersonAttrs{Birthdate: now, Mother: p, Father: father})
	if err != nil {
		return nil, fmt.Errorf("give birth: %w", err)
	}
	t := now
	p.LastBirthTime = &t
	p.BirthInterval = p.drawBirthInterval()
	return baby, nil
}

// Kill marks p dead at time now, divorcing first if married, and removes it
// from its household. A person who dies while away is dropped from the
// region store holding them instead. The (possibly now empty) household is
// returned; it is nil for a person who was away.
func (p *Person) Kill(now float64) (*Household, error) {
	if !p.Alive {
		return nil, newError(KindRelationship, "kill", p.id, "already dead")
	}
	if p.IsMarried() {
		if err := p.Divorce(); err != nil {
			return nil, err
		}
	}
	hh := p.parent
	if hh != nil {
		if err := hh.Remove(p); err != nil {
			return nil, fmt.Errorf("kill: %w", err)
		}
	} else if store := p.world.storeHolding(p); store != nil {
		if err := store.Drop(p); err != nil {
			return nil, fmt.Errorf("kill: %w", err)
		}
	}
	p.Alive = false
	t := now
	p.Deathdate = &t
	return hh, nil
}

func (p *Person) drawBirthInterval() float64 {
	iv := p.world.env.Hazards.BirthInterval(p)
	if floor := p.world.env.Rules.MinBirthIntervalMonths; iv < floor {
		iv = floor
	}
	return iv
}

func (p *Person) String() string {
	return fmt.Sprintf("Person(PID: %d, %s, %d months)", p.id, p.Sex, p.Age)
}
