// Study-area generation using layered simplex noise.
// Generates elevation and rainfall fields over a hex spiral of neighborhood
// sites, raises elevation toward the valley rim, then derives each site's
// land-use pools from them.
package world

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/valleysim/internal/agents"
)

// GenConfig holds study-area generation parameters.
type GenConfig struct {
	Seed    int64   // noise seed
	Cells   int     // number of neighborhood sites
	Spacing float64 // meters between adjacent site centers
	Area    float64 // total land area of each site
}

// Generate creates a map of Cells sites laid out in a spiral from the origin.
// The same config always yields the same map.
func Generate(cfg GenConfig) (*Map, error) {
	if cfg.Cells <= 0 {
		return nil, fmt.Errorf("generate: cell count %d must be positive", cfg.Cells)
	}
	if cfg.Area <= 0 || math.IsNaN(cfg.Area) || math.IsInf(cfg.Area, 0) {
		return nil, fmt.Errorf("generate: site area %v must be a positive number", cfg.Area)
	}
	if cfg.Spacing < 0 {
		return nil, fmt.Errorf("generate: spacing %v must not be negative", cfg.Spacing)
	}

	// Two noise generators for independent layers.
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	m := NewMap()
	rings := Rings(cfg.Cells)
	for _, coord := range Spiral(cfg.Cells) {
		x, y := coord.Cartesian()

		// Multi-octave noise for smooth variation between neighbors.
		elev := clamp01(octaveNoise(elevNoise, x, y, 4, 0.15, 0.5))
		rain := clamp01(octaveNoise(rainNoise, x, y, 3, 0.10, 0.5))

		// Valley shaping: the floor is at the center and ground rises
		// toward the outer ring.
		elev = 0.6*elev + 0.4*rimHeight(coord, rings)

		m.Set(&Cell{
			Coord:     coord,
			X:         x * cfg.Spacing,
			Y:         y * cfg.Spacing,
			Elevation: elev,
			Rainfall:  rain,
			Land:      deriveLand(elev, rain, cfg.Area),
		})
	}
	return m, nil
}

// deriveLand splits area across the five pools. Low, wet sites are mostly
// farmland; high sites carry more natural vegetation and other land.
func deriveLand(elev, rain, area float64) agents.LandUse {
	w := agents.LandUse{
		AgVeg:    0.2 + 0.6*(1-elev)*rain,
		NonAgVeg: 0.1 + 0.5*elev,
		PrivBldg: 0.04 + 0.04*(1-elev),
		PubBldg:  0.01,
		Other:    0.05 + 0.1*elev,
	}
	scale := area / w.Total()
	return agents.LandUse{
		AgVeg:    w.AgVeg * scale,
		NonAgVeg: w.NonAgVeg * scale,
		PrivBldg: w.PrivBldg * scale,
		PubBldg:  w.PubBldg * scale,
		Other:    w.Other * scale,
	}
}

// octaveNoise samples multi-octave simplex noise, normalized to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// rimHeight is 0 at the valley center and 1 on the outermost ring.
func rimHeight(c HexCoord, rings int) float64 {
	if rings == 0 {
		return 0
	}
	return float64(Distance(HexCoord{}, c)) / float64(rings)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
