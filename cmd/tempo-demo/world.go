package main

import (
	"math"
	"math/rand/v2"

	"github.com/plus3/tempo/behavior"
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/fsm"
)

const (
	worldWidth  = 1280
	worldHeight = 720

	patrolSpeed = 60
	chaseSpeed  = 140
	noticeRange = 140
	loseRange   = 260
	sparkFrames = 40
)

const (
	statePatrol = iota
	stateAlert
	stateChase
	guardStates
)

type Position struct{ X, Y float64 }

type Velocity struct{ X, Y float64 }

// Guard walks a loop of waypoints until the cursor comes close.
type Guard struct {
	Waypoints []Position
	Next      int
}

// Spark is a fading trail mark left by chasing guards.
type Spark struct{ Born uint64 }

// Beacon pulses and cycles its hue from holder tasks.
type Beacon struct {
	Radius float64
	Hue    int
}

// Cursor is the singleton tracking the pointer in world coordinates.
type Cursor struct {
	X, Y    float64
	Present bool
}

type guard struct {
	*Position
	*Velocity
	*Guard
}

type world struct {
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	registry  *coroutine.Registry
	cursor    *ecs.Singleton[Cursor]
	guards    *ecs.View[guard]
	rng       *rand.Rand

	// trail holds spark positions requested by chase tasks this frame.
	trail []Position
}

func newWorld(guards int, seed int64, opts behavior.Options, register func(*ecs.ComponentRegistry)) *world {
	components := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](components)
	ecs.RegisterComponent[Velocity](components)
	ecs.RegisterComponent[Guard](components)
	ecs.RegisterComponent[Spark](components)
	ecs.RegisterComponent[Beacon](components)
	ecs.RegisterComponent[Cursor](components)
	behavior.RegisterComponents(components)
	if register != nil {
		register(components)
	}

	if opts.Registry == nil {
		opts.Registry = coroutine.NewRegistry()
	}
	w := &world{
		storage:  ecs.NewStorage(components),
		registry: opts.Registry,
		rng:      rand.New(rand.NewPCG(uint64(seed), 0x5eed)),
	}
	w.cursor = ecs.NewSingleton[Cursor](w.storage)
	w.guards = ecs.NewView[guard](w.storage)

	w.scheduler = ecs.NewScheduler(w.storage)
	behavior.AddSystems(w.scheduler, opts)
	w.scheduler.Register(&MovementSystem{})
	w.scheduler.Register(&TrailSystem{world: w})

	for range guards {
		w.spawnGuard()
	}
	w.spawnBeacon(worldWidth/2, worldHeight/2)
	return w
}

func (w *world) spawnGuard() {
	cx, cy := w.rng.Float64()*worldWidth, w.rng.Float64()*worldHeight
	waypoints := make([]Position, 3+w.rng.IntN(3))
	for i := range waypoints {
		waypoints[i] = Position{
			X: clamp(cx+w.rng.NormFloat64()*120, 0, worldWidth),
			Y: clamp(cy+w.rng.NormFloat64()*120, 0, worldHeight),
		}
	}

	id := w.storage.Spawn(
		Position{X: cx, Y: cy},
		Velocity{},
		Guard{Waypoints: waypoints},
		*fsm.New(guardStates),
	)
	ref := w.storage.CreateEntityRef(id)
	m := ecs.ReadComponent[fsm.StateMachine](w.storage, id)
	m.Name = "guard"

	self := func() *guard { return w.guards.GetRef(ref) }
	cursorDistance := func() float64 {
		c, g := w.cursor.Get(), self()
		if !c.Present {
			return math.Inf(1)
		}
		return math.Hypot(c.X-g.Position.X, c.Y-g.Position.Y)
	}

	m.SetCallbacks(statePatrol,
		func() int {
			if cursorDistance() < noticeRange {
				return stateAlert
			}
			return statePatrol
		},
		func() coroutine.Task {
			return coroutine.FromSeq(func(yield func(coroutine.Marker) bool) {
				for {
					g := self()
					target := g.Waypoints[g.Next]
					steer(g.Position, g.Velocity, target, patrolSpeed)
					if math.Hypot(target.X-g.Position.X, target.Y-g.Position.Y) < 4 {
						g.Next = (g.Next + 1) % len(g.Waypoints)
						g.Velocity.X, g.Velocity.Y = 0, 0
						if !yield(coroutine.WaitSeconds(0.5 + w.rng.Float64())) {
							return
						}
						continue
					}
					if !yield(coroutine.Continue()) {
						return
					}
				}
			})
		},
		nil, nil,
	)

	m.SetCallbacks(stateAlert,
		func() int {
			if !m.Coroutine().Finished {
				return stateAlert
			}
			if cursorDistance() < noticeRange {
				return stateChase
			}
			return statePatrol
		},
		func() coroutine.Task { return coroutine.Delay(0.75) },
		func() {
			g := self()
			g.Velocity.X, g.Velocity.Y = 0, 0
		},
		nil,
	)

	m.SetCallbacks(stateChase,
		func() int {
			if cursorDistance() > loseRange {
				return statePatrol
			}
			c, g := w.cursor.Get(), self()
			steer(g.Position, g.Velocity, Position{X: c.X, Y: c.Y}, chaseSpeed)
			return stateChase
		},
		func() coroutine.Task {
			return coroutine.Repeat(-1, func() coroutine.Task {
				return coroutine.Sequence(
					coroutine.Delay(0.15),
					coroutine.Do(func() { w.trail = append(w.trail, *self().Position) }),
				)
			})
		},
		nil,
		func() {
			g := self()
			g.Velocity.X, g.Velocity.Y = 0, 0
		},
	)
}

func (w *world) spawnBeacon(x, y float64) {
	var ref *ecs.EntityRef
	beacon := func() *Beacon { return ecs.ReadComponent[Beacon](w.storage, ref.Id) }

	// Holder tasks have no wait timers, so pauses are counted in steps.
	var h coroutine.Holder
	h.StartTask(coroutine.Repeat(-1, func() coroutine.Task {
		return coroutine.FromSeq(func(yield func(coroutine.Marker) bool) {
			for r := 10.0; r <= 40; r += 2 {
				beacon().Radius = r
				if !yield(coroutine.Continue()) {
					return
				}
			}
			yield(coroutine.Await(steps(30)))
		})
	}))
	h.StartTask(coroutine.Repeat(-1, func() coroutine.Task {
		return coroutine.Sequence(
			coroutine.Do(func() {
				b := beacon()
				b.Hue = (b.Hue + 1) % len(palette)
			}),
			steps(30),
		)
	}))

	id := w.storage.Spawn(Position{X: x, Y: y}, Beacon{Radius: 10}, h)
	ref = w.storage.CreateEntityRef(id)
}

// steps returns a task that completes on its nth step.
func steps(n int) coroutine.Task {
	return coroutine.Until(func() bool {
		n--
		return n <= 0
	})
}

func steer(p *Position, v *Velocity, target Position, speed float64) {
	dx, dy := target.X-p.X, target.Y-p.Y
	d := math.Hypot(dx, dy)
	if d < 1 {
		v.X, v.Y = 0, 0
		return
	}
	v.X, v.Y = dx/d*speed, dy/d*speed
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

type MovementSystem struct {
	Movers ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	dt := frame.Delta()
	for m := range s.Movers.Values() {
		m.Position.X = clamp(m.Position.X+m.Velocity.X*dt, 0, worldWidth)
		m.Position.Y = clamp(m.Position.Y+m.Velocity.Y*dt, 0, worldHeight)
	}
}

// TrailSystem turns trail requests into sparks and deletes sparks whose
// coroutine has finished and been removed.
type TrailSystem struct {
	world *world

	Sparks ecs.Query[struct {
		ecs.EntityId
		*Spark
		Co *coroutine.Coroutine `ecs:"optional"`
	}]
}

func (s *TrailSystem) Execute(frame *ecs.UpdateFrame) {
	for spark := range s.Sparks.Values() {
		if spark.Co == nil {
			frame.Commands.Delete(spark.EntityId)
		}
	}
	for _, p := range s.world.trail {
		frame.Commands.Spawn(p, Spark{Born: frame.Frame}, *coroutine.NewCoroutine(coroutine.DelayFrames(sparkFrames), true))
	}
	s.world.trail = s.world.trail[:0]
}
