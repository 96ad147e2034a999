// Package timeline provides the monthly model clock.
package timeline

import "fmt"

// YearMonth is a calendar month.
type YearMonth struct {
	Year  int `yaml:"year" json:"year"`
	Month int `yaml:"month" json:"month"` // 1–12
}

// Valid reports whether the month is in 1–12.
func (ym YearMonth) Valid() bool { return ym.Month >= 1 && ym.Month <= 12 }

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	return ym.index() < other.index()
}

// AddMonths returns ym shifted by n months (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	return fromIndex(ym.index() + n)
}

// Float returns the decimal year, e.g. 1997.0 for January 1997.
func (ym YearMonth) Float() float64 {
	return float64(ym.Year) + float64(ym.Month-1)/12
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%02d/%d", ym.Month, ym.Year)
}

// months since year 0, January = 0.
func (ym YearMonth) index() int { return ym.Year*12 + ym.Month - 1 }

func fromIndex(i int) YearMonth {
	y := i / 12
	m := i % 12
	if m < 0 {
		m += 12
		y--
	}
	return YearMonth{Year: y, Month: m + 1}
}

// Instant is the clock position handed to each timestep.
type Instant struct {
	Step int // 1 for the first timestep
	YearMonth
}

// Time returns the decimal year used for birth, death and marriage times.
func (i Instant) Time() float64 { return i.Float() }

// Clock steps from a start month to an end month in fixed increments.
type Clock struct {
	start    YearMonth
	end      YearMonth
	timestep int
	cur      YearMonth
	step     int
}

// NewClock creates a clock positioned at start. The run covers months in
// [start, end).
func NewClock(start, end YearMonth, timestepMonths int) (*Clock, error) {
	if !start.Valid() || !end.Valid() {
		return nil, fmt.Errorf("new clock: month out of range (start %v, end %v)", start, end)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("new clock: start %v is not before end %v", start, end)
	}
	if timestepMonths <= 0 {
		return nil, fmt.Errorf("new clock: timestep must be positive, got %d", timestepMonths)
	}
	return &Clock{start: start, end: end, timestep: timestepMonths, cur: start, step: 1}, nil
}

// Now returns the current position.
func (c *Clock) Now() Instant { return Instant{Step: c.step, YearMonth: c.cur} }

// Advance moves the clock forward one timestep.
func (c *Clock) Advance() {
	c.cur = c.cur.AddMonths(c.timestep)
	c.step++
}

// InBounds reports whether the current month is before the end month.
func (c *Clock) InBounds() bool { return c.cur.Before(c.end) }

// IsLast reports whether the next Advance leaves the run bounds.
func (c *Clock) IsLast() bool {
	return !c.cur.AddMonths(c.timestep).Before(c.end)
}

// T0 returns the month one timestep before the start, used to date the
// initial population.
func (c *Clock) T0() YearMonth { return c.start.AddMonths(-c.timestep) }

// TimestepMonths returns the increment size.
func (c *Clock) TimestepMonths() int { return c.timestep }

// Steps returns the total number of timesteps the clock will run.
func (c *Clock) Steps() int {
	span := c.end.index() - c.start.index()
	return (span + c.timestep - 1) / c.timestep
}

// StepsFor converts a duration in months to a whole number of timesteps,
// rounding up and never less than one.
func (c *Clock) StepsFor(months float64) int {
	return StepsFor(months, c.timestep)
}

// StepsFor converts months to timesteps of the given size, rounding up, with
// a minimum of one.
func StepsFor(months float64, timestepMonths int) int {
	n := int(months) / timestepMonths
	if float64(n*timestepMonths) < months {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (c *Clock) String() string {
	return fmt.Sprintf("%d-%d", c.cur.Year, c.cur.Month)
}
