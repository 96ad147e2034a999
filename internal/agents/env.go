package agents

import "log/slog"

// Random is the single seeded draw stream shared by a run.
type Random interface {
	Float() float64
	Bool(p float64) bool
	Normal(mean, sd float64) float64
	Intn(n int) int
}

// Hazards supplies event probabilities and per-person draws. Probabilities
// are per model timestep.
type Hazards interface {
	Birth(p *Person) float64
	Death(p *Person) float64
	Marriage(p *Person) float64
	Migration(p *Person) float64
	FirstBirthTiming(p *Person) float64  // months
	BirthInterval(p *Person) float64     // months
	DesiredChildren(p *Person) int       // -1 = no preference
	MigrationDuration(p *Person) float64 // months away
	HouseholdLandRequirement() float64
}

// Rules are the run parameters the event steps consult.
type Rules struct {
	TimestepMonths         int
	MaxBirthAgeMonths      int
	MinBirthIntervalMonths float64
	MoveOutProbability     float64
	InMigrantMarriageShare float64
	InMigrationMean        float64
	InMigrationSD          float64
	LandFeedback           bool
	LandFeedbackArea       float64
}

// Env is the simulation context handed to the World: the draw stream, the
// hazard functions and the rules. Nothing in this package reads global
// random state.
type Env struct {
	Rand    Random
	Hazards Hazards
	Rules   Rules
	Logger  *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
