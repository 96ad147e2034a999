package config

import (
	"github.com/talgya/valleysim/internal/hazard"
	"github.com/talgya/valleysim/internal/timeline"
)

// Default returns a runnable configuration: a ten-year monthly run over a
// small synthetic valley.
func Default() *Config {
	return &Config{
		Seed: 0,
		Model: Model{
			TimestepMonths:         1,
			Start:                  timeline.YearMonth{Year: 1997, Month: 1},
			End:                    timeline.YearMonth{Year: 2007, Month: 1},
			MaxBirthAgeYears:       45,
			MinBirthIntervalMonths: 9,
			MoveOutProbability:     0.1,
			InMigrantMarriageShare: 0.05,
			InMigration:            InMigration{Mean: 2, SD: 1},
			LandFeedback:           LandFeedback{Enabled: false, Area: 0.001},
		},
		Hazards: defaultHazards(),
		Init: Init{
			Regions:                   1,
			NeighborhoodsPerRegion:    25,
			HouseholdsPerNeighborhood: 12,
			MeanHouseholdSize:         5,
			NeighborhoodArea:          20,
			Spacing:                   500,
		},
		Output: Output{
			CSVDir:   "results",
			Database: "data/valleysim.db",
			LogLevel: "info",
		},
	}
}

func defaultHazards() hazard.Config {
	return hazard.Config{
		Unit: hazard.Years,
		Birth: []hazard.Band{
			{Lower: 15, Upper: 20, Probability: 0.15},
			{Lower: 20, Upper: 25, Probability: 0.25},
			{Lower: 25, Upper: 30, Probability: 0.20},
			{Lower: 30, Upper: 35, Probability: 0.12},
			{Lower: 35, Upper: 40, Probability: 0.06},
			{Lower: 40, Upper: 45, Probability: 0.02},
		},
		Death: hazard.SexBands{
			Male: []hazard.Band{
				{Lower: 0, Upper: 5, Probability: 0.020},
				{Lower: 5, Upper: 15, Probability: 0.002},
				{Lower: 15, Upper: 40, Probability: 0.004},
				{Lower: 40, Upper: 60, Probability: 0.010},
				{Lower: 60, Upper: 75, Probability: 0.040},
				{Lower: 75, Upper: 120, Probability: 0.120},
			},
			Female: []hazard.Band{
				{Lower: 0, Upper: 5, Probability: 0.018},
				{Lower: 5, Upper: 15, Probability: 0.002},
				{Lower: 15, Upper: 40, Probability: 0.004},
				{Lower: 40, Upper: 60, Probability: 0.008},
				{Lower: 60, Upper: 75, Probability: 0.030},
				{Lower: 75, Upper: 120, Probability: 0.110},
			},
		},
		Marriage: hazard.SexBands{
			Male: []hazard.Band{
				{Lower: 18, Upper: 22, Probability: 0.15},
				{Lower: 22, Upper: 28, Probability: 0.25},
				{Lower: 28, Upper: 35, Probability: 0.10},
				{Lower: 35, Upper: 50, Probability: 0.03},
			},
			Female: []hazard.Band{
				{Lower: 15, Upper: 18, Probability: 0.10},
				{Lower: 18, Upper: 25, Probability: 0.25},
				{Lower: 25, Upper: 35, Probability: 0.08},
			},
		},
		Migration: hazard.SexBands{
			Male: []hazard.Band{
				{Lower: 15, Upper: 35, Probability: 0.05},
				{Lower: 35, Upper: 60, Probability: 0.02},
			},
			Female: []hazard.Band{
				{Lower: 15, Upper: 35, Probability: 0.02},
				{Lower: 35, Upper: 60, Probability: 0.01},
			},
		},
		FirstBirthTiming: hazard.Dist{
			Bins:  []float64{0, 6, 12, 24, 48},
			Probs: []float64{0.20, 0.35, 0.30, 0.15},
		},
		BirthInterval: hazard.Dist{
			Bins:  []float64{9, 18, 24, 36, 60},
			Probs: []float64{0.25, 0.35, 0.25, 0.15},
		},
		DesiredChildren: hazard.Dist{
			Bins:  []float64{1, 2, 3, 4, 6},
			Probs: []float64{0.15, 0.40, 0.30, 0.15},
		},
		MigrationDuration: hazard.Dist{
			Bins:  []float64{1, 6, 12, 24, 60},
			Probs: []float64{0.40, 0.30, 0.20, 0.10},
		},
		LandRequirement: hazard.Coefficient{Estimate: 0.025, StdErr: 0.005},
	}
}
