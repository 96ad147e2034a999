// Package config holds the run configuration: model rules, hazard tables,
// initialization sizes and output locations. Files are YAML, checked against
// an embedded JSON Schema before decoding and semantically afterwards.
package config

import (
	"errors"
	"fmt"

	"github.com/talgya/valleysim/internal/agents"
	"github.com/talgya/valleysim/internal/hazard"
	"github.com/talgya/valleysim/internal/timeline"
)

// Config is a complete run configuration.
type Config struct {
	// Seed for the run's random stream. Zero picks a random seed, which is
	// recorded with the run.
	Seed    int64         `yaml:"seed" json:"seed"`
	Model   Model         `yaml:"model" json:"model"`
	Hazards hazard.Config `yaml:"hazards" json:"hazards"`
	Init    Init          `yaml:"init" json:"init"`
	Output  Output        `yaml:"output" json:"output"`
}

// Model holds the clock and the demographic rules.
type Model struct {
	TimestepMonths int                `yaml:"timestep_months" json:"timestep_months"`
	Start          timeline.YearMonth `yaml:"start" json:"start"`
	End            timeline.YearMonth `yaml:"end" json:"end"`

	MaxBirthAgeYears       int     `yaml:"max_birth_age_years" json:"max_birth_age_years"`
	MinBirthIntervalMonths float64 `yaml:"min_birth_interval_months" json:"min_birth_interval_months"`
	MoveOutProbability     float64 `yaml:"move_out_probability" json:"move_out_probability"`
	InMigrantMarriageShare float64 `yaml:"in_migrant_marriage_share" json:"in_migrant_marriage_share"`

	InMigration  InMigration  `yaml:"in_migration" json:"in_migration"`
	LandFeedback LandFeedback `yaml:"land_feedback" json:"land_feedback"`
}

// InMigration parameterizes the per-timestep in-migrant count.
type InMigration struct {
	Mean float64 `yaml:"mean" json:"mean"`
	SD   float64 `yaml:"sd" json:"sd"`
}

// LandFeedback moves Area from non-agricultural vegetation to other land on
// every birth when enabled.
type LandFeedback struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Area    float64 `yaml:"area" json:"area"`
}

// Init sizes the synthetic study area built at startup.
type Init struct {
	Regions                   int     `yaml:"regions" json:"regions"`
	NeighborhoodsPerRegion    int     `yaml:"neighborhoods_per_region" json:"neighborhoods_per_region"`
	HouseholdsPerNeighborhood int     `yaml:"households_per_neighborhood" json:"households_per_neighborhood"`
	MeanHouseholdSize         float64 `yaml:"mean_household_size" json:"mean_household_size"`
	NeighborhoodArea          float64 `yaml:"neighborhood_area" json:"neighborhood_area"`
	Spacing                   float64 `yaml:"spacing" json:"spacing"` // meters between neighborhood centers
}

// Output says where results go. Empty paths disable that output.
type Output struct {
	CSVDir   string `yaml:"csv_dir" json:"csv_dir"`
	Database string `yaml:"database" json:"database"`
	Trace    bool   `yaml:"trace" json:"trace"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Rules converts the model section to the rules the event steps consult.
func (m Model) Rules() agents.Rules {
	return agents.Rules{
		TimestepMonths:         m.TimestepMonths,
		MaxBirthAgeMonths:      m.MaxBirthAgeYears * 12,
		MinBirthIntervalMonths: m.MinBirthIntervalMonths,
		MoveOutProbability:     m.MoveOutProbability,
		InMigrantMarriageShare: m.InMigrantMarriageShare,
		InMigrationMean:        m.InMigration.Mean,
		InMigrationSD:          m.InMigration.SD,
		LandFeedback:           m.LandFeedback.Enabled,
		LandFeedbackArea:       m.LandFeedback.Area,
	}
}

// Clock builds the model clock.
func (m Model) Clock() (*timeline.Clock, error) {
	return timeline.NewClock(m.Start, m.End, m.TimestepMonths)
}

// Validate runs the checks a schema cannot express. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Seed < 0 {
		add("seed must not be negative, got %d", c.Seed)
	}

	m := c.Model
	if m.TimestepMonths <= 0 {
		add("model.timestep_months must be positive, got %d", m.TimestepMonths)
	}
	if !m.Start.Valid() || !m.End.Valid() {
		add("model start and end months must be 1-12")
	} else if !m.Start.Before(m.End) {
		add("model.start %v must be before model.end %v", m.Start, m.End)
	}
	if m.MaxBirthAgeYears <= 0 {
		add("model.max_birth_age_years must be positive")
	}
	if m.MinBirthIntervalMonths < 0 {
		add("model.min_birth_interval_months must not be negative")
	}
	if p := m.MoveOutProbability; p < 0 || p > 1 {
		add("model.move_out_probability %v is outside [0, 1]", p)
	}
	if p := m.InMigrantMarriageShare; p < 0 || p > 1 {
		add("model.in_migrant_marriage_share %v is outside [0, 1]", p)
	}
	if m.InMigration.SD < 0 {
		add("model.in_migration.sd must not be negative")
	}
	if m.LandFeedback.Area < 0 {
		add("model.land_feedback.area must not be negative")
	}

	if err := c.Hazards.Validate(); err != nil {
		add("hazards: %w", err)
	}

	in := c.Init
	if in.Regions <= 0 || in.NeighborhoodsPerRegion <= 0 {
		add("init needs at least one region and one neighborhood per region")
	}
	if in.HouseholdsPerNeighborhood < 0 || in.MeanHouseholdSize < 0 {
		add("init household sizes must not be negative")
	}
	if in.NeighborhoodArea < 0 || in.Spacing < 0 {
		add("init areas must not be negative")
	}

	switch c.Output.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		add("output.log_level %q is not one of debug, info, warn, error", c.Output.LogLevel)
	}
	return errors.Join(errs...)
}
