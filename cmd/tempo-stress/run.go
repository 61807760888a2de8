package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/plus3/tempo/config"
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/fsm"
	"github.com/plus3/tempo/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// tally counts engine activity for the report and forwards it to the
// metrics.
type tally struct {
	metrics *telemetry.Metrics

	Stepped     int64
	Finished    int64
	Cancelled   int64
	Transitions int64
}

func (t *tally) TaskStepped() {
	t.Stepped++
	t.metrics.TaskStepped()
}

func (t *tally) TaskFinished() {
	t.Finished++
	t.metrics.TaskFinished()
}

func (t *tally) TaskCancelled() {
	t.Cancelled++
	t.metrics.TaskCancelled()
}

func (t *tally) StateChanged(from, to int) {
	t.Transitions++
	t.metrics.StateChanged(from, to)
}

func newRunCommand(load func() (config.Config, error)) *cobra.Command {
	var (
		entities int
		duration time.Duration
		metrics  bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the stress test",
		Example: `  # Run with the defaults
  tempo-stress run

  # 50k entities for 30 simulated seconds, exposing /metrics
  tempo-stress run --entities 50000 --duration 30s --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("entities") {
				cfg.Simulation.Entities = entities
			}
			if flags.Changed("duration") {
				cfg.Simulation.Duration = duration
			}
			if flags.Changed("metrics") {
				cfg.Metrics.Enabled = metrics
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().IntVarP(&entities, "entities", "n", 0, "number of behavior entities")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "simulated run time")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "serve Prometheus metrics while running")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	return cmd
}

func run(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	logger, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ecs.SetLogger(logger.Named("ecs"))
	coroutine.SetLogger(logger.Named("coroutine"))
	fsm.SetLogger(logger.Named("fsm"))

	metrics, err := telemetry.NewMetrics(cfg.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	serveErr := make(chan error, 1)
	if cfg.Metrics.Enabled {
		go func() { serveErr <- metrics.Serve(ctx, cfg.Metrics.Listen) }()
		logger.Info("serving metrics", zap.String("addr", "http://"+cfg.Metrics.Listen+"/metrics"))
	} else {
		close(serveErr)
	}

	activity := &tally{metrics: metrics}
	logger.Info("populating world", zap.Int("entities", cfg.Simulation.Entities))
	sim := newSimulation(cfg.Simulation, activity)

	report := &Report{
		Simulation: cfg.Simulation,
		TickTime:   Stats{Samples: make([]time.Duration, 0, cfg.Simulation.Ticks())},
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running", zap.Duration("duration", cfg.Simulation.Duration), zap.Int("ticks", cfg.Simulation.Ticks()))
	interval := cfg.Simulation.TickInterval()
	dt := interval.Seconds()
	var pace <-chan time.Time
	if cfg.Simulation.Realtime {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		pace = ticker.C
	}

	start := time.Now()
Loop:
	for report.Ticks < cfg.Simulation.Ticks() {
		if pace != nil {
			select {
			case <-ctx.Done():
				break Loop
			case <-pace:
			}
		} else if ctx.Err() != nil {
			break
		}

		tickStart := time.Now()
		sim.tick(dt)
		elapsed := time.Since(tickStart)

		report.TickTime.Samples = append(report.TickTime.Samples, elapsed)
		report.Ticks++
		metrics.ObserveFrame(elapsed)
		if report.Ticks%cfg.Simulation.TickRate == 0 {
			stats := sim.storage.CollectStats()
			metrics.SetPopulation(stats.TotalEntityCount, sim.registry.Len())
			logger.Debug("progress",
				zap.Int("tick", report.Ticks),
				zap.Int("entities", stats.TotalEntityCount),
				zap.Int("coroutines", sim.registry.Len()),
			)
		}
	}

	report.WallTime = time.Since(start)
	report.SimulatedTime = time.Duration(report.Ticks) * interval
	report.TickTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	stats := sim.storage.CollectStats()
	report.Entities = stats.TotalEntityCount
	report.Archetypes = stats.ArchetypeCount
	report.Coroutines = sim.registry.Len()
	report.Activity = *activity

	if err := report.Generate(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	cancel()
	if err := <-serveErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if report.Ticks < cfg.Simulation.Ticks() {
		logger.Warn("interrupted", zap.Int("ticks", report.Ticks))
	}
	return nil
}
