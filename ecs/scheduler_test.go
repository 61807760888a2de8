package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/tempo/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moveSystem struct {
	Movers ecs.Query[struct {
		*Position
		*Velocity
	}]
	runs int
}

func (s *moveSystem) Execute(frame *ecs.UpdateFrame) {
	s.runs++
	for m := range s.Movers.Values() {
		m.Position.X += m.Velocity.DX * float32(frame.DeltaTime)
		m.Position.Y += m.Velocity.DY * float32(frame.DeltaTime)
	}
}

type healthTotal struct {
	Living ecs.Query[struct{ *Health }]
	total  int
	order  *[]string
}

func (s *healthTotal) Execute(*ecs.UpdateFrame) {
	if s.order != nil {
		*s.order = append(*s.order, "health")
	}
	s.total = 0
	for h := range s.Living.Values() {
		s.total += h.Health.Current
	}
}

type orderProbe struct {
	name  string
	order *[]string
}

func (s *orderProbe) Execute(*ecs.UpdateFrame) {
	*s.order = append(*s.order, s.name)
}

func TestSchedulerRunsSystemsInRegistrationOrder(t *testing.T) {
	scheduler := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
	var order []string
	scheduler.Register(&orderProbe{name: "a", order: &order})
	scheduler.Register(&healthTotal{order: &order})
	scheduler.Register(&orderProbe{name: "b", order: &order})

	scheduler.Once(0.1)
	scheduler.Once(0.1)

	assert.Equal(t, []string{"a", "health", "b", "a", "health", "b"}, order)
}

func TestSchedulerMovesWithDeltaTime(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{}, Velocity{DX: 10, DY: 20})
	scheduler := ecs.NewScheduler(storage)
	move := &moveSystem{}
	scheduler.Register(move)

	scheduler.Once(0.5)
	scheduler.SetPaused(true)
	scheduler.Once(0.5)

	assert.Equal(t, 2, move.runs)
	assert.Equal(t, Position{X: 5, Y: 10}, *ecs.ReadComponent[Position](storage, id))
}

func TestSchedulerQueriesSeeDirectSpawns(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	storage.Spawn(Health{Current: 50, Max: 100})
	storage.Spawn(Health{Current: 75, Max: 100})

	scheduler := ecs.NewScheduler(storage)
	health := &healthTotal{}
	scheduler.Register(health)

	scheduler.Once(1)
	assert.Equal(t, 125, health.total)

	storage.Spawn(Health{Current: 25, Max: 100})
	scheduler.Once(1)
	assert.Equal(t, 150, health.total)
}

func TestSchedulerRunTicksUntilCancelled(t *testing.T) {
	scheduler := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
	move := &moveSystem{}
	scheduler.Register(move)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := scheduler.Run(ctx, time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, move.runs)
	assert.Equal(t, uint64(move.runs), scheduler.Frame())
}

type frameRecorder struct {
	frames []ecs.UpdateFrame
}

func (s *frameRecorder) Execute(frame *ecs.UpdateFrame) {
	s.frames = append(s.frames, *frame)
}

func TestSchedulerTime(t *testing.T) {
	storage := ecs.NewStorage(ecs.NewComponentRegistry())
	scheduler := ecs.NewScheduler(storage)
	rec := &frameRecorder{}
	scheduler.Register(rec)

	scheduler.Once(0.5)
	scheduler.SetTimeScale(2)
	scheduler.Once(0.5)
	scheduler.SetPaused(true)
	scheduler.Once(0.5)
	scheduler.SetPaused(false)
	scheduler.SetTimeScale(-1)
	scheduler.Once(0.5)

	require.Len(t, rec.frames, 4)
	assert.Equal(t, []float64{0.5, 1, 0, 0}, []float64{
		rec.frames[0].DeltaTime, rec.frames[1].DeltaTime, rec.frames[2].DeltaTime, rec.frames[3].DeltaTime,
	})
	for i, f := range rec.frames {
		assert.Equal(t, 0.5, f.RawDeltaTime)
		assert.Equal(t, uint64(i+1), f.Frame)
		assert.Equal(t, f.DeltaTime, f.Delta())
		assert.Equal(t, f.RawDeltaTime, f.RawDelta())
	}
	assert.Equal(t, uint64(4), scheduler.Frame())
	assert.Zero(t, scheduler.TimeScale())
	assert.False(t, scheduler.Paused())
}

type spawnOnce struct {
	done bool
}

func (s *spawnOnce) Execute(frame *ecs.UpdateFrame) {
	if !s.done {
		s.done = true
		frame.Commands.Spawn(Position{X: 1})
	}
}

type positionCounter struct {
	Entities ecs.Query[struct {
		ecs.EntityId
		*Position
	}]
	seen []int
}

func (s *positionCounter) Execute(*ecs.UpdateFrame) {
	n := 0
	for e := range s.Entities.Values() {
		if e.EntityId != 0 {
			n++
		}
	}
	s.seen = append(s.seen, n)
}

func TestSchedulerExecutesQueries(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	storage := ecs.NewStorage(registry)
	scheduler := ecs.NewScheduler(storage)
	counter := &positionCounter{}
	scheduler.Register(&spawnOnce{})
	scheduler.Register(counter)

	scheduler.Once(0.1)
	scheduler.Once(0.1)

	// Spawns become visible once commands are flushed at the end of a tick.
	assert.Equal(t, []int{0, 1}, counter.seen)
}

func TestSchedulerRunReturnsContextError(t *testing.T) {
	scheduler := ecs.NewScheduler(ecs.NewStorage(ecs.NewComponentRegistry()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, scheduler.Run(ctx, time.Millisecond), context.Canceled)
}
