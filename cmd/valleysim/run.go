package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/talgya/valleysim/internal/agents"
	"github.com/talgya/valleysim/internal/census"
	"github.com/talgya/valleysim/internal/config"
	"github.com/talgya/valleysim/internal/engine"
	"github.com/talgya/valleysim/internal/entropy"
	"github.com/talgya/valleysim/internal/hazard"
	"github.com/talgya/valleysim/internal/persistence"
	"github.com/talgya/valleysim/internal/telemetry"
	"github.com/talgya/valleysim/internal/world"
)

type runOptions struct {
	configPath string
	dbPath     string
	csvDir     string
	trace      bool
	traceSet   bool
	seed       int64
	seedSet    bool
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func (o runOptions) apply(cfg *config.Config) {
	if o.dbPath != "" {
		cfg.Output.Database = o.dbPath
	}
	if o.csvDir != "" {
		cfg.Output.CSVDir = o.csvDir
	}
	if o.traceSet {
		cfg.Output.Trace = o.trace
	}
	if o.seedSet {
		cfg.Seed = o.seed
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
}

func runSimulation(ctx context.Context, opts runOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration after flag overrides: %w", err)
	}
	setupLogging(cfg.Output.LogLevel)

	if cfg.Seed == 0 {
		cfg.Seed = entropy.RandomSeed()
	}
	slog.Info("valleysim / demographic micro-simulation",
		"version", version,
		"seed", cfg.Seed,
		"start", cfg.Model.Start.String(),
		"end", cfg.Model.End.String(),
		"timestep_months", cfg.Model.TimestepMonths,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock, err := cfg.Model.Clock()
	if err != nil {
		return err
	}

	// ── Database ──────────────────────────────────────────────────────
	var dbRec *persistence.Recorder
	runID := ""
	if path := cfg.Output.Database; path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating database dir: %w", err)
			}
		}
		db, err := persistence.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		cfgYAML, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		run, err := db.BeginRun(cfg.Seed, string(cfgYAML))
		if err != nil {
			return err
		}
		runID = run.ID
		dbRec = db.Recorder(run)
		slog.Info("database opened", "path", path, "run", run.ID)
	}

	// ── Tracing ───────────────────────────────────────────────────────
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceVersion: version,
		RunID:          runID,
		Enabled:        cfg.Output.Trace,
		Writer:         os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("trace shutdown failed", "error", err)
		}
	}()

	// ── World ─────────────────────────────────────────────────────────
	src := entropy.New(cfg.Seed)
	hz, err := hazard.New(cfg.Hazards, cfg.Model.TimestepMonths, src)
	if err != nil {
		return err
	}
	w, err := agents.NewWorld(agents.Env{
		Rand:    src,
		Hazards: hz,
		Rules:   cfg.Model.Rules(),
		Logger:  slog.Default(),
	})
	if err != nil {
		return err
	}
	studyArea, err := world.Build(w, cfg.Init, cfg.Seed, clock.T0().Float())
	if err != nil {
		return fmt.Errorf("building study area: %w", err)
	}
	slog.Info("study area generated",
		"neighborhoods", studyArea.CellCount(),
		"area", fmt.Sprintf("%.1f", studyArea.TotalLand().Total()),
		"persons", humanize.Comma(int64(len(w.AllPersons()))),
	)

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(w, clock)
	if dir := cfg.Output.CSVDir; dir != "" {
		csvw, err := census.NewWriter(dir)
		if err != nil {
			return err
		}
		defer func() {
			if err := csvw.Close(); err != nil {
				slog.Error("closing CSV output failed", "error", err)
			}
		}()
		sim.AddRecorder(csvw)
		slog.Info("writing CSV output", "dir", dir)
	}
	if dbRec != nil {
		sim.AddRecorder(dbRec)
	}

	started := time.Now()
	runErr := sim.Run(ctx)
	steps := clock.Now().Step - 1

	status := persistence.StatusFinished
	if runErr != nil {
		status = persistence.StatusFailed
	}
	if dbRec != nil {
		if err := dbRec.Finish(status, steps); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		slog.Warn("run interrupted", "steps", steps)
		return runErr
	case runErr != nil:
		if agents.IsFatal(runErr) {
			slog.Error("run aborted on invariant violation", "error", runErr)
		}
		return runErr
	}

	fmt.Printf("\nRun complete: %d timesteps in %s. Population %s in %s households (%s births, %s deaths).\n",
		steps,
		time.Since(started).Round(time.Millisecond),
		humanize.Comma(int64(sim.Stats.Population)),
		humanize.Comma(int64(sim.Stats.Households)),
		humanize.Comma(int64(sim.Stats.Births)),
		humanize.Comma(int64(sim.Stats.Deaths)),
	)
	return nil
}

func runValidate(out io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		var se *config.SchemaError
		if errors.As(err, &se) {
			fmt.Fprintf(out, "%s: schema violation\n%v\n", path, se.Err)
		} else {
			fmt.Fprintf(out, "%s: %v\n", path, err)
		}
		return err
	}
	clock, err := cfg.Model.Clock()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: ok (%d timesteps, %d regions of %d neighborhoods)\n",
		path, clock.Steps(), cfg.Init.Regions, cfg.Init.NeighborhoodsPerRegion)
	return nil
}

func runDefaults(out io.Writer, path string) error {
	cfg := config.Default()
	if path != "" {
		if err := config.Write(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
		return nil
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
