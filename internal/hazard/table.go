// Package hazard turns configured age-band tables and binned distributions
// into the per-person probabilities and draws the event steps consume.
package hazard

import (
	"fmt"
	"math"
	"slices"
)

// Unit is the time unit a hazard table is written in.
type Unit string

const (
	Months  Unit = "months"
	Years   Unit = "years"
	Decades Unit = "decades"
)

// Months returns the length of one unit in months.
func (u Unit) Months() (int, error) {
	switch u {
	case Months:
		return 1, nil
	case Years:
		return 12, nil
	case Decades:
		return 120, nil
	}
	return 0, fmt.Errorf("unknown hazard time unit %q", u)
}

// Band assigns a probability per unit of time to ages in [Lower, Upper),
// measured in the table's unit.
type Band struct {
	Lower       int     `yaml:"lower" json:"lower"`
	Upper       int     `yaml:"upper" json:"upper"`
	Probability float64 `yaml:"p" json:"p"`
}

// Table maps an age to a per-timestep probability.
type Table struct {
	unitMonths int
	byIndex    map[int]float64
}

// NewTable expands bands into one probability per unit and converts each to
// the model timestep, assuming the hazard is uniform across the unit.
func NewTable(unit Unit, bands []Band, timestepMonths int) (*Table, error) {
	unitMonths, err := unit.Months()
	if err != nil {
		return nil, err
	}
	if timestepMonths <= 0 {
		return nil, fmt.Errorf("timestep must be positive, got %d", timestepMonths)
	}
	if err := ValidateBands(bands); err != nil {
		return nil, err
	}

	exp := float64(timestepMonths) / float64(unitMonths)
	t := &Table{unitMonths: unitMonths, byIndex: make(map[int]float64)}
	for _, b := range bands {
		p := 1 - math.Pow(1-b.Probability, exp)
		for i := b.Lower; i < b.Upper; i++ {
			t.byIndex[i] = p
		}
	}
	return t, nil
}

// ValidateBands checks each band is a non-empty, non-negative interval with a
// probability on the unit interval, and that no two bands overlap.
func ValidateBands(bands []Band) error {
	sorted := slices.Clone(bands)
	slices.SortFunc(sorted, func(a, b Band) int { return a.Lower - b.Lower })
	for i, b := range sorted {
		if b.Lower < 0 {
			return fmt.Errorf("band [%d, %d): lower limit is negative", b.Lower, b.Upper)
		}
		if b.Lower >= b.Upper {
			return fmt.Errorf("band [%d, %d): lower limit must be below upper limit", b.Lower, b.Upper)
		}
		if b.Probability < 0 || b.Probability > 1 || math.IsNaN(b.Probability) {
			return fmt.Errorf("band [%d, %d): probability %v is outside [0, 1]", b.Lower, b.Upper, b.Probability)
		}
		if i > 0 && sorted[i-1].Upper > b.Lower {
			prev := sorted[i-1]
			return fmt.Errorf("bands [%d, %d) and [%d, %d) overlap", prev.Lower, prev.Upper, b.Lower, b.Upper)
		}
	}
	return nil
}

// Index converts an age in months to the table index by rounding to the
// nearest unit.
func (t *Table) Index(ageMonths int) int {
	return int(math.Round(float64(ageMonths) / float64(t.unitMonths)))
}

// Probability returns the per-timestep probability for an age in months.
// Ages no band covers have probability zero.
func (t *Table) Probability(ageMonths int) float64 {
	if t == nil {
		return 0
	}
	return t.byIndex[t.Index(ageMonths)]
}
