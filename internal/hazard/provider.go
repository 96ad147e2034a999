package hazard

import (
	"fmt"
	"math"

	"github.com/talgya/valleysim/internal/agents"
)

// SexBands holds separate age-band tables for males and females.
type SexBands struct {
	Male   []Band `yaml:"male,omitempty" json:"male,omitempty"`
	Female []Band `yaml:"female,omitempty" json:"female,omitempty"`
}

// Config is the hazard section of a run configuration. Distribution values
// for timings and durations are in months.
type Config struct {
	Unit Unit `yaml:"unit" json:"unit"`

	Birth     []Band   `yaml:"birth" json:"birth"` // females only
	Death     SexBands `yaml:"death" json:"death"`
	Marriage  SexBands `yaml:"marriage" json:"marriage"`
	Migration SexBands `yaml:"migration" json:"migration"`

	FirstBirthTiming  Dist `yaml:"first_birth_timing" json:"first_birth_timing"`
	BirthInterval     Dist `yaml:"birth_interval" json:"birth_interval"`
	DesiredChildren   Dist `yaml:"desired_children,omitempty" json:"desired_children,omitempty"`
	MigrationDuration Dist `yaml:"migration_duration" json:"migration_duration"`

	LandRequirement Coefficient `yaml:"household_land_requirement" json:"household_land_requirement"`
}

// Validate checks every table and distribution without building them.
func (c Config) Validate() error {
	if _, err := c.Unit.Months(); err != nil {
		return err
	}
	tables := []struct {
		name  string
		bands []Band
	}{
		{"birth", c.Birth},
		{"death.male", c.Death.Male},
		{"death.female", c.Death.Female},
		{"marriage.male", c.Marriage.Male},
		{"marriage.female", c.Marriage.Female},
		{"migration.male", c.Migration.Male},
		{"migration.female", c.Migration.Female},
	}
	for _, t := range tables {
		if err := ValidateBands(t.bands); err != nil {
			return fmt.Errorf("hazard %s: %w", t.name, err)
		}
	}
	dists := []struct {
		name     string
		d        Dist
		optional bool
	}{
		{"first_birth_timing", c.FirstBirthTiming, false},
		{"birth_interval", c.BirthInterval, false},
		{"desired_children", c.DesiredChildren, true},
		{"migration_duration", c.MigrationDuration, false},
	}
	for _, d := range dists {
		if d.optional && d.d.Empty() {
			continue
		}
		if err := d.d.Validate(); err != nil {
			return fmt.Errorf("distribution %s: %w", d.name, err)
		}
	}
	if c.LandRequirement.Estimate < 0 || c.LandRequirement.StdErr < 0 {
		return fmt.Errorf("household land requirement must be non-negative")
	}
	return nil
}

type sexTables struct {
	male, female *Table
}

func newSexTables(unit Unit, b SexBands, timestep int) (sexTables, error) {
	m, err := NewTable(unit, b.Male, timestep)
	if err != nil {
		return sexTables{}, fmt.Errorf("male: %w", err)
	}
	f, err := NewTable(unit, b.Female, timestep)
	if err != nil {
		return sexTables{}, fmt.Errorf("female: %w", err)
	}
	return sexTables{male: m, female: f}, nil
}

func (s sexTables) probability(p *agents.Person) float64 {
	if p.Sex == agents.SexFemale {
		return s.female.Probability(p.Age)
	}
	return s.male.Probability(p.Age)
}

// Provider implements agents.Hazards from configured tables.
type Provider struct {
	rand Random
	cfg  Config

	birth     *Table
	death     sexTables
	marriage  sexTables
	migration sexTables
}

var _ agents.Hazards = (*Provider)(nil)

// New builds a provider for the given model timestep. Draws come from r,
// which must be the run's single stream.
func New(cfg Config, timestepMonths int, r Random) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Provider{rand: r, cfg: cfg}

	var err error
	if p.birth, err = NewTable(cfg.Unit, cfg.Birth, timestepMonths); err != nil {
		return nil, fmt.Errorf("birth hazard: %w", err)
	}
	if p.death, err = newSexTables(cfg.Unit, cfg.Death, timestepMonths); err != nil {
		return nil, fmt.Errorf("death hazard: %w", err)
	}
	if p.marriage, err = newSexTables(cfg.Unit, cfg.Marriage, timestepMonths); err != nil {
		return nil, fmt.Errorf("marriage hazard: %w", err)
	}
	if p.migration, err = newSexTables(cfg.Unit, cfg.Migration, timestepMonths); err != nil {
		return nil, fmt.Errorf("migration hazard: %w", err)
	}
	return p, nil
}

// Birth is zero for males.
func (h *Provider) Birth(p *agents.Person) float64 {
	if p.Sex != agents.SexFemale {
		return 0
	}
	return h.birth.Probability(p.Age)
}

func (h *Provider) Death(p *agents.Person) float64 { return h.death.probability(p) }

func (h *Provider) Marriage(p *agents.Person) float64 { return h.marriage.probability(p) }

func (h *Provider) Migration(p *agents.Person) float64 { return h.migration.probability(p) }

func (h *Provider) FirstBirthTiming(*agents.Person) float64 {
	return h.cfg.FirstBirthTiming.Draw(h.rand)
}

func (h *Provider) BirthInterval(*agents.Person) float64 {
	return h.cfg.BirthInterval.Draw(h.rand)
}

// DesiredChildren draws a family size, or -1 when no distribution is
// configured.
func (h *Provider) DesiredChildren(*agents.Person) int {
	if h.cfg.DesiredChildren.Empty() {
		return -1
	}
	return int(math.Floor(h.cfg.DesiredChildren.Draw(h.rand)))
}

func (h *Provider) MigrationDuration(*agents.Person) float64 {
	return h.cfg.MigrationDuration.Draw(h.rand)
}

// HouseholdLandRequirement draws the area a new household takes, never
// negative.
func (h *Provider) HouseholdLandRequirement() float64 {
	return math.Max(0, h.cfg.LandRequirement.Draw(h.rand))
}
