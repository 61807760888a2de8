package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/plus3/tempo/config"
	"github.com/plus3/tempo/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsFinalize(t *testing.T) {
	s := Stats{}
	for i := 100; i >= 1; i-- {
		s.Samples = append(s.Samples, time.Duration(i)*time.Millisecond)
	}
	s.Finalize()

	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 100*time.Millisecond, s.Max)
	assert.Equal(t, 50500*time.Microsecond, s.Avg)
	assert.Equal(t, 50*time.Millisecond, s.P50)
	assert.Equal(t, 99*time.Millisecond, s.P99)
	assert.Equal(t, 100*time.Millisecond, s.Samples[0], "samples keep their order")

	empty := Stats{}
	empty.Finalize()
	assert.Zero(t, empty.Max)
}

func smallConfig() config.SimulationConfig {
	cfg := config.Default().Simulation
	cfg.Entities = 200
	cfg.Duration = 5 * time.Second
	return cfg
}

func TestSimulationExercisesBehaviors(t *testing.T) {
	cfg := smallConfig()
	activity := &tally{}
	sim := newSimulation(cfg, activity)

	sparksSeen := 0
	sparks := ecs.NewView[struct{ *Spark }](sim.storage)
	for range cfg.Ticks() {
		sim.tick(cfg.TickInterval().Seconds())
		for range sparks.Iter() {
			sparksSeen++
		}
	}

	assert.Positive(t, sparksSeen)
	assert.Positive(t, activity.Stepped)
	assert.Positive(t, activity.Finished)
	assert.Positive(t, activity.Transitions)
	assert.Equal(t, uint64(cfg.Ticks()), sim.scheduler.Frame())

	// Each agent machine and each live spark coroutine is tracked.
	stats := sim.storage.CollectStats()
	assert.GreaterOrEqual(t, stats.TotalEntityCount, cfg.Entities)
	assert.GreaterOrEqual(t, sim.registry.Len(), cfg.Entities-cfg.Entities/20)
}

func TestSimulationIsDeterministic(t *testing.T) {
	positions := func() []Position {
		sim := newSimulation(smallConfig(), &tally{})
		for range 120 {
			sim.tick(1.0 / 60)
		}
		var out []Position
		for p := range ecs.NewView[struct {
			*Position
			*Energy
		}](sim.storage).Values() {
			out = append(out, *p.Position)
		}
		return out
	}
	assert.Equal(t, positions(), positions())
}

func TestRunWritesReport(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation = smallConfig()
	cfg.Simulation.Duration = time.Second
	cfg.Logging.Output = t.TempDir() + "/run.log"

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, run(context.Background(), cfg, cmd))
	assert.Contains(t, out.String(), "tempo stress report")
	assert.Contains(t, out.String(), "Transitions")
}

func TestConfigCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "tick_rate: 60")
}
