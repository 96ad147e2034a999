// Simulation ties the world, the clock and the output recorders together and
// runs them each timestep.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/talgya/valleysim/internal/agents"
	"github.com/talgya/valleysim/internal/census"
	"github.com/talgya/valleysim/internal/telemetry"
	"github.com/talgya/valleysim/internal/timeline"
)

// Event is a notable occurrence in a run.
type Event struct {
	Step        int    `db:"step" json:"step"`
	Date        string `db:"date" json:"date"`
	Description string `db:"description" json:"description"`
	Category    string `db:"category" json:"category"` // "land", "summary"
}

// Recorder receives the records of every timestep.
type Recorder interface {
	Record(snap census.Snapshot) error
}

// EventRecorder is implemented by recorders that also store events.
type EventRecorder interface {
	RecordEvents(events []Event) error
}

// SimStats tracks aggregate counts. Totals run from the start; the year
// fields reset at each year end.
type SimStats struct {
	Population int `json:"population"`
	Households int `json:"households"`
	Away       int `json:"away"`

	Births        int `json:"births"`
	Deaths        int `json:"deaths"`
	Marriages     int `json:"marriages"`
	OutMigrations int `json:"out_migrations"`
	Returned      int `json:"returned"`
	InMigrants    int `json:"in_migrants"`
	Unplaced      int `json:"unplaced"`

	YearBirths     int `json:"year_births"`
	YearDeaths     int `json:"year_deaths"`
	YearMarriages  int `json:"year_marriages"`
	YearPopulation int `json:"year_start_population"`
}

// Simulation holds the world state and wires systems together.
type Simulation struct {
	World  *agents.World
	Clock  *timeline.Clock
	Events []Event // pending, flushed to event recorders at each year end
	Stats  SimStats

	recorders []Recorder
	tracer    trace.Tracer
}

// NewSimulation creates a Simulation over a populated world.
func NewSimulation(w *agents.World, clock *timeline.Clock) *Simulation {
	s := &Simulation{
		World:  w,
		Clock:  clock,
		tracer: telemetry.Tracer("valleysim/engine"),
	}
	s.updateStats()
	s.Stats.YearPopulation = s.Stats.Population
	return s
}

// AddRecorder registers an output. Recorders are called in the order added.
func (s *Simulation) AddRecorder(r Recorder) {
	s.recorders = append(s.recorders, r)
}

// Run records the initial state and steps the clock to the end.
func (s *Simulation) Run(ctx context.Context) error {
	if err := s.RecordInitial(); err != nil {
		return err
	}
	e := NewEngine(s.Clock)
	e.OnStep = s.Step
	e.OnYear = s.EndYear
	runErr := e.Run(ctx)
	if err := s.flushEvents(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// RecordInitial writes the population as loaded, as step 0 dated one
// timestep before the start.
func (s *Simulation) RecordInitial() error {
	t0 := timeline.Instant{Step: 0, YearMonth: s.Clock.T0()}
	var results []*agents.StepResult
	for _, r := range s.World.Regions() {
		results = append(results, &agents.StepResult{
			RegionID: r.ID(),
			Step:     0,
			Stats:    r.Aggregate(),
		})
	}
	return s.record(census.Take(s.World, results, t0))
}

// Step runs one timestep of every region, then records and reports it.
func (s *Simulation) Step(ctx context.Context, now timeline.Instant) error {
	_, span := s.tracer.Start(ctx, "timestep", trace.WithAttributes(
		attribute.Int("step", now.Step),
		attribute.String("date", now.String()),
	))
	defer span.End()

	results, err := s.World.Step(now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "world step failed")
		return fmt.Errorf("step %d (%s): %w", now.Step, now, err)
	}

	var births, deaths, marriages, out, returned, in, unplaced int
	for _, res := range results {
		births += agents.Total(res.Births)
		deaths += agents.Total(res.Deaths)
		marriages += agents.Total(res.Marriages)
		out += agents.Total(res.OutMigrations)
		for _, ps := range res.Returned {
			returned += len(ps)
		}
		in += res.InMigrants
		unplaced += res.Unplaced
		if res.Unplaced > 0 {
			s.Events = append(s.Events, Event{
				Step:        now.Step,
				Date:        now.String(),
				Description: fmt.Sprintf("%d new household(s) found no land in region %d", res.Unplaced, res.RegionID),
				Category:    "land",
			})
		}
	}

	s.Stats.Births += births
	s.Stats.Deaths += deaths
	s.Stats.Marriages += marriages
	s.Stats.OutMigrations += out
	s.Stats.Returned += returned
	s.Stats.InMigrants += in
	s.Stats.Unplaced += unplaced
	s.Stats.YearBirths += births
	s.Stats.YearDeaths += deaths
	s.Stats.YearMarriages += marriages
	s.updateStats()

	span.SetAttributes(
		attribute.Int("population", s.Stats.Population),
		attribute.Int("births", births),
		attribute.Int("deaths", deaths),
		attribute.Int("marriages", marriages),
	)

	slog.Info("monthly report",
		"step", now.Step,
		"date", now.String(),
		"population", s.Stats.Population,
		"households", s.Stats.Households,
		"births", births,
		"deaths", deaths,
		"marriages", marriages,
		"out_migrations", out,
		"returned", returned,
		"in_migrants", in,
		"away", s.Stats.Away,
	)

	if err := s.record(census.Take(s.World, results, now)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recording failed")
		return err
	}
	return nil
}

// EndYear logs the yearly summary and flushes pending events.
func (s *Simulation) EndYear(ctx context.Context, now timeline.Instant) error {
	growth := 0.0
	if s.Stats.YearPopulation > 0 {
		growth = 100 * float64(s.Stats.Population-s.Stats.YearPopulation) / float64(s.Stats.YearPopulation)
	}

	var land agents.LandUse
	for _, r := range s.World.Regions() {
		for _, n := range r.Neighborhoods() {
			land.AgVeg += n.Land.AgVeg
			land.NonAgVeg += n.Land.NonAgVeg
			land.PrivBldg += n.Land.PrivBldg
		}
	}

	slog.Info("yearly summary",
		"year", now.Year,
		"population", humanize.Comma(int64(s.Stats.Population)),
		"households", humanize.Comma(int64(s.Stats.Households)),
		"births", humanize.Comma(int64(s.Stats.YearBirths)),
		"deaths", humanize.Comma(int64(s.Stats.YearDeaths)),
		"marriages", humanize.Comma(int64(s.Stats.YearMarriages)),
		"growth", fmt.Sprintf("%.2f%%", growth),
		"agveg", fmt.Sprintf("%.3f", land.AgVeg),
		"nonagveg", fmt.Sprintf("%.3f", land.NonAgVeg),
		"privbldg", fmt.Sprintf("%.3f", land.PrivBldg),
	)

	s.Events = append(s.Events, Event{
		Step: now.Step,
		Date: now.String(),
		Description: fmt.Sprintf("%d: population %s, %s births, %s deaths",
			now.Year,
			humanize.Comma(int64(s.Stats.Population)),
			humanize.Comma(int64(s.Stats.YearBirths)),
			humanize.Comma(int64(s.Stats.YearDeaths)),
		),
		Category: "summary",
	})

	s.Stats.YearBirths, s.Stats.YearDeaths, s.Stats.YearMarriages = 0, 0, 0
	s.Stats.YearPopulation = s.Stats.Population
	return s.flushEvents()
}

func (s *Simulation) record(snap census.Snapshot) error {
	for _, r := range s.recorders {
		if err := r.Record(snap); err != nil {
			return fmt.Errorf("record step %d: %w", snap.Step, err)
		}
	}
	return nil
}

func (s *Simulation) flushEvents() error {
	if len(s.Events) == 0 {
		return nil
	}
	for _, r := range s.recorders {
		er, ok := r.(EventRecorder)
		if !ok {
			continue
		}
		if err := er.RecordEvents(s.Events); err != nil {
			return fmt.Errorf("record events: %w", err)
		}
	}
	s.Events = s.Events[:0]
	return nil
}

func (s *Simulation) updateStats() {
	s.Stats.Population, s.Stats.Households, s.Stats.Away = 0, 0, 0
	for _, r := range s.World.Regions() {
		s.Stats.Population += r.NumPersons()
		s.Stats.Households += r.NumHouseholds()
		s.Stats.Away += r.Away().Len()
	}
}
