package behavior_test

import (
	"testing"

	"github.com/plus3/tempo/behavior"
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Position struct {
	X, Y float64
}

type counters struct {
	stepped, finished, cancelled int
	transitions                  [][2]int
}

func (c *counters) TaskStepped()              { c.stepped++ }
func (c *counters) TaskFinished()             { c.finished++ }
func (c *counters) TaskCancelled()            { c.cancelled++ }
func (c *counters) StateChanged(from, to int) { c.transitions = append(c.transitions, [2]int{from, to}) }

type world struct {
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	registry  *coroutine.Registry
	counters  *counters
}

func newWorld() *world {
	components := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](components)
	behavior.RegisterComponents(components)

	w := &world{
		storage:  ecs.NewStorage(components),
		registry: coroutine.NewRegistry(),
		counters: &counters{},
	}
	w.scheduler = ecs.NewScheduler(w.storage)
	behavior.AddSystems(w.scheduler, behavior.Options{
		Registry:      w.registry,
		Observer:      w.counters,
		StateObserver: w.counters,
	})
	return w
}

func (w *world) tick(n int) {
	for range n {
		w.scheduler.Once(1.0 / 60)
	}
}

func TestCoroutineSystemRunsCoroutines(t *testing.T) {
	w := newWorld()
	steps := 0
	id := w.storage.Spawn(Position{}, *coroutine.NewCoroutine(coroutine.Func(func() coroutine.Marker {
		steps++
		return coroutine.Continue()
	}), false))

	w.tick(3)
	assert.Equal(t, 3, steps)
	assert.Equal(t, 3, w.counters.stepped)
	assert.Equal(t, 1, w.registry.Len())
	assert.NotNil(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, id))
}

func TestCoroutineSystemRemovesCompletedCoroutines(t *testing.T) {
	w := newWorld()
	walker := w.storage.Spawn(Position{X: 1}, *coroutine.NewCoroutine(coroutine.DelayFrames(1), true))
	lone := w.storage.Spawn(*coroutine.NewCoroutine(coroutine.Do(func() {}), true))
	kept := w.storage.Spawn(Position{X: 2}, *coroutine.NewCoroutine(coroutine.Do(func() {}), false))

	w.tick(1)
	assert.Equal(t, 2, w.storage.CollectStats().TotalEntityCount, "entity left without components was not deleted")
	assert.Nil(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, lone))
	require.NotNil(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, kept))
	assert.True(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, kept).Finished)

	w.tick(2)
	assert.Nil(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, walker))
	assert.Equal(t, 3, w.counters.finished)

	positions := ecs.NewQuery[struct{ *Position }](w.storage)
	positions.Execute()
	var xs []float64
	for p := range positions.Values() {
		xs = append(xs, p.X)
	}
	assert.ElementsMatch(t, []float64{1, 2}, xs)

	// Released slots are forgotten on the following tick.
	w.tick(1)
	assert.Equal(t, 1, w.registry.Len())
}

func TestRegistryPausesComponents(t *testing.T) {
	w := newWorld()
	steps := 0
	w.storage.Spawn(*coroutine.NewCoroutine(coroutine.Func(func() coroutine.Marker {
		steps++
		return coroutine.Continue()
	}), false))

	w.tick(1)
	w.registry.PauseAll()
	w.tick(5)
	assert.Equal(t, 1, steps)

	w.registry.ResumeAll()
	w.tick(1)
	assert.Equal(t, 2, steps)
}

func TestPausedSchedulerStopsScaledWaits(t *testing.T) {
	w := newWorld()
	scaled := coroutine.NewCoroutine(coroutine.Delay(0.05), false)
	raw := coroutine.NewCoroutine(coroutine.Delay(0.05), false)
	raw.UseRawDeltaTime = true
	scaledId := w.storage.Spawn(*scaled)
	rawId := w.storage.Spawn(Position{}, *raw)

	w.scheduler.SetPaused(true)
	w.tick(10)
	assert.False(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, scaledId).Finished)
	assert.True(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, rawId).Finished)

	w.scheduler.SetPaused(false)
	w.tick(10)
	assert.True(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, scaledId).Finished)
}

func TestHolderSystem(t *testing.T) {
	w := newWorld()
	var h coroutine.Holder
	steps := 0
	for range 3 {
		h.StartTask(coroutine.Func(func() coroutine.Marker {
			steps++
			return coroutine.Continue()
		}))
	}
	id := w.storage.Spawn(h)

	w.tick(2)
	assert.Equal(t, 6, steps)

	stored := ecs.ReadComponent[coroutine.Holder](w.storage, id)
	require.NotNil(t, stored)
	stored.EndTask(0)
	w.tick(1)
	assert.Equal(t, 8, steps)
	assert.Equal(t, 1, w.counters.cancelled)
}

func TestStateMachineSystem(t *testing.T) {
	const (
		idle = iota
		busy
	)
	w := newWorld()
	id := w.storage.Spawn(Position{}, *fsm.New(2))
	m := ecs.ReadComponent[fsm.StateMachine](w.storage, id)
	require.NotNil(t, m)

	counter := 0
	completedAt := uint64(0)
	frame := uint64(0)
	m.SetCallbacks(idle, func() int {
		if counter == 0 {
			return busy
		}
		return idle
	}, nil, nil, nil)
	m.SetCallbacks(busy, nil, func() coroutine.Task {
		steps := 0
		return coroutine.Func(func() coroutine.Marker {
			steps++
			if steps <= 3 {
				return coroutine.Continue()
			}
			counter++
			completedAt = frame
			return coroutine.Done()
		})
	}, nil, nil)

	for range 5 {
		frame++
		w.tick(1)
	}

	assert.Equal(t, [][2]int{{fsm.NoState, idle}, {idle, busy}}, w.counters.transitions)
	assert.Equal(t, uint64(4), completedAt)
	assert.Equal(t, uint64(5), w.scheduler.Frame())
}

func TestPausedSchedulerStopsFrameWaits(t *testing.T) {
	w := newWorld()
	id := w.storage.Spawn(*coroutine.NewCoroutine(coroutine.DelayFrames(3), false))

	w.scheduler.SetPaused(true)
	w.tick(10)
	assert.False(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, id).Finished)

	w.scheduler.SetPaused(false)
	w.tick(5)
	assert.True(t, ecs.ReadComponent[coroutine.Coroutine](w.storage, id).Finished)
}

func TestRegistryPauseSurvivesArchetypeMove(t *testing.T) {
	w := newWorld()
	steps := 0
	id := w.storage.Spawn(*coroutine.NewCoroutine(coroutine.Func(func() coroutine.Marker {
		steps++
		return coroutine.Continue()
	}), false))

	w.tick(1)
	w.registry.PauseAll()
	w.storage.AddComponent(id, Position{})
	w.tick(2)
	assert.Equal(t, 1, steps)
	assert.Equal(t, 1, w.registry.Len())

	w.registry.ResumeAll()
	w.tick(3)
	assert.Equal(t, 4, steps)
}

func TestRegistryPauseHoldsStateMachines(t *testing.T) {
	w := newWorld()
	m := fsm.New(2)
	var updates, steps int
	m.SetCallbacks(0, func() int {
		updates++
		return 1
	}, nil, nil, nil)
	m.SetCallbacks(1, nil, func() coroutine.Task {
		return coroutine.Func(func() coroutine.Marker {
			steps++
			return coroutine.Continue()
		})
	}, nil, nil)
	id := w.storage.Spawn(*m)

	w.tick(1)
	require.Equal(t, 1, updates)
	require.Equal(t, 1, steps)
	w.registry.PauseAll()
	w.tick(3)
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, steps)

	w.registry.ResumeAll()
	w.tick(2)
	assert.Equal(t, 3, steps)
	assert.Equal(t, 1, ecs.ReadComponent[fsm.StateMachine](w.storage, id).State())
}
