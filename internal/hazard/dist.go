package hazard

import (
	"fmt"
	"math"
)

// Random is the part of the run's draw stream the distributions need.
type Random interface {
	Float() float64
	Normal(mean, sd float64) float64
}

// Dist is a manually specified binned distribution. Bins holds one more
// limit than Probs has weights; weights need not sum to one.
type Dist struct {
	Bins  []float64 `yaml:"bins" json:"bins"`
	Probs []float64 `yaml:"probs" json:"probs"`
}

// Empty reports whether no distribution was configured.
func (d Dist) Empty() bool { return len(d.Bins) == 0 && len(d.Probs) == 0 }

// Validate checks the shape of the distribution.
func (d Dist) Validate() error {
	if len(d.Probs) == 0 {
		return fmt.Errorf("distribution has no bins")
	}
	if len(d.Bins) != len(d.Probs)+1 {
		return fmt.Errorf("distribution needs %d bin limits for %d weights, got %d",
			len(d.Probs)+1, len(d.Probs), len(d.Bins))
	}
	for i := 1; i < len(d.Bins); i++ {
		if d.Bins[i] < d.Bins[i-1] {
			return fmt.Errorf("bin limits must be ascending (%v after %v)", d.Bins[i], d.Bins[i-1])
		}
	}
	sum := 0.0
	for _, p := range d.Probs {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("bin weight %v is negative", p)
		}
		sum += p
	}
	if sum <= 0 {
		return fmt.Errorf("bin weights sum to zero")
	}
	return nil
}

// Draw picks a bin by weight and returns a value uniformly distributed
// inside it.
func (d Dist) Draw(r Random) float64 {
	total := 0.0
	for _, p := range d.Probs {
		total += p
	}
	num := r.Float() * total

	n := 0
	cum := 0.0
	for _, p := range d.Probs[:len(d.Probs)-1] {
		cum += p
		if num < cum {
			break
		}
		n++
	}
	lo, hi := d.Bins[n], d.Bins[n+1]
	return lo + r.Float()*(hi-lo)
}

// Coefficient is a regression estimate with its standard error.
type Coefficient struct {
	Estimate float64 `yaml:"estimate" json:"estimate"`
	StdErr   float64 `yaml:"stderr" json:"stderr"`
}

// Draw returns the estimate perturbed by its standard error.
func (c Coefficient) Draw(r Random) float64 {
	if c.StdErr == 0 {
		return c.Estimate
	}
	return c.Estimate + r.Normal(0, 1)*c.StdErr
}
