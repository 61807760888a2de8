package main

import (
	"testing"

	"github.com/plus3/tempo/behavior"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onlyGuard(t *testing.T, w *world) (*guard, *fsm.StateMachine) {
	t.Helper()
	view := ecs.NewView[struct {
		ecs.EntityId
		*fsm.StateMachine
	}](w.storage)
	for item := range view.Values() {
		return w.guards.Get(item.EntityId), item.StateMachine
	}
	require.FailNow(t, "no guard")
	return nil, nil
}

func TestGuardNoticesAndLosesCursor(t *testing.T) {
	w := newWorld(1, 7, behavior.Options{}, nil)
	step := func(n int) {
		for range n {
			w.scheduler.Once(1.0 / 60)
		}
	}

	step(1)
	g, m := onlyGuard(t, w)
	assert.Equal(t, statePatrol, m.State())

	cursor := w.cursor.Get()
	*cursor = Cursor{X: g.Position.X + 50, Y: g.Position.Y, Present: true}
	step(1)
	assert.Equal(t, stateAlert, m.State())
	assert.Zero(t, g.Velocity.X)

	// The alert delay is 0.75s; the chase starts once it has run out.
	step(60)
	assert.Equal(t, stateChase, m.State())
	assert.Positive(t, g.Velocity.X)

	step(30)
	assert.NotEmpty(t, collectSparks(w))

	cursor.Present = false
	step(1)
	assert.Equal(t, statePatrol, m.State())
}

func TestSparksExpire(t *testing.T) {
	w := newWorld(0, 1, behavior.Options{}, nil)
	w.trail = append(w.trail, Position{X: 1, Y: 1})
	w.scheduler.Once(1.0 / 60)
	require.Len(t, collectSparks(w), 1)

	for range sparkFrames + 5 {
		w.scheduler.Once(1.0 / 60)
	}
	assert.Empty(t, collectSparks(w))
}

func TestBeaconPulses(t *testing.T) {
	w := newWorld(0, 1, behavior.Options{}, nil)
	view := ecs.NewView[struct{ *Beacon }](w.storage)
	radii := map[float64]bool{}
	hues := map[int]bool{}
	for range 120 {
		w.scheduler.Once(1.0 / 60)
		for b := range view.Values() {
			radii[b.Beacon.Radius] = true
			hues[b.Beacon.Hue] = true
		}
	}
	assert.Greater(t, len(radii), 5)
	assert.Greater(t, len(hues), 1)
}

func collectSparks(w *world) []Spark {
	var out []Spark
	for s := range ecs.NewView[struct{ *Spark }](w.storage).Values() {
		out = append(out, *s.Spark)
	}
	return out
}
