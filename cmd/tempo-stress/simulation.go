package main

import (
	"math"
	"math/rand/v2"

	"github.com/plus3/tempo/behavior"
	"github.com/plus3/tempo/config"
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/fsm"
)

type Position struct{ X, Y float64 }

type Velocity struct{ X, Y float64 }

type Energy struct{ Value float64 }

// Spark is a short-lived entity whose coroutine removes itself when done.
type Spark struct{ Born uint64 }

const (
	stateWander = iota
	stateRest
	stateDash
	agentStates
)

const (
	maxEnergy  = 100
	tiredBelow = 20
	walkSpeed  = 2
	dashSpeed  = 8
)

// MovementSystem integrates velocities and drains energy in proportion to
// speed.
type MovementSystem struct {
	Movers ecs.Query[struct {
		*Position
		*Velocity
		Energy *Energy `ecs:"optional"`
	}]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	dt := frame.Delta()
	for m := range s.Movers.Values() {
		m.Position.X += m.Velocity.X * dt
		m.Position.Y += m.Velocity.Y * dt
		if m.Energy != nil {
			speed := math.Hypot(m.Velocity.X, m.Velocity.Y)
			m.Energy.Value = max(m.Energy.Value-speed*dt, 0)
		}
	}
}

// SparkSystem spawns the sparks requested by emitters and deletes sparks
// whose coroutine has already been removed.
type SparkSystem struct {
	sim *simulation

	Sparks ecs.Query[struct {
		ecs.EntityId
		*Spark
		Co *coroutine.Coroutine `ecs:"optional"`
	}]
}

func (s *SparkSystem) Execute(frame *ecs.UpdateFrame) {
	for spark := range s.Sparks.Values() {
		if spark.Co == nil {
			frame.Commands.Delete(spark.EntityId)
		}
	}
	for ; s.sim.sparkRequests > 0; s.sim.sparkRequests-- {
		frames := 1 + s.sim.rng.IntN(30)
		frame.Commands.Spawn(
			Spark{Born: frame.Frame},
			Position{X: s.sim.rng.Float64() * 100, Y: s.sim.rng.Float64() * 100},
			*coroutine.NewCoroutine(coroutine.DelayFrames(frames), true),
		)
	}
}

// observer receives both coroutine and state machine activity.
type observer interface {
	coroutine.Observer
	fsm.Observer
}

type agent struct {
	*Energy
	*Velocity
}

type simulation struct {
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	registry  *coroutine.Registry
	rng       *rand.Rand
	agents    *ecs.View[agent]

	// sparkRequests is incremented by emitter tasks and drained by SparkSystem.
	sparkRequests int
}

func newSimulation(cfg config.SimulationConfig, observer observer) *simulation {
	components := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](components)
	ecs.RegisterComponent[Velocity](components)
	ecs.RegisterComponent[Energy](components)
	ecs.RegisterComponent[Spark](components)
	behavior.RegisterComponents(components)

	sim := &simulation{
		storage:  ecs.NewStorage(components),
		registry: coroutine.NewRegistry(),
		rng:      rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15)),
	}
	sim.agents = ecs.NewView[agent](sim.storage)

	sim.scheduler = ecs.NewScheduler(sim.storage)
	sim.scheduler.SetTimeScale(cfg.TimeScale)
	sim.scheduler.Register(&MovementSystem{})
	behavior.AddSystems(sim.scheduler, behavior.Options{
		Registry:      sim.registry,
		Observer:      observer,
		StateObserver: observer,
	})
	sim.scheduler.Register(&SparkSystem{sim: sim})

	emitters := max(cfg.Entities/20, 1)
	for i := range cfg.Entities {
		if i < emitters {
			sim.spawnEmitter()
		} else {
			sim.spawnAgent()
		}
	}
	return sim
}

func (sim *simulation) spawnEmitter() {
	var h coroutine.Holder
	for range 1 + sim.rng.IntN(3) {
		period := 5 + sim.rng.IntN(60)
		h.StartTask(coroutine.Repeat(-1, func() coroutine.Task {
			return coroutine.Sequence(
				coroutine.DelayFrames(period),
				coroutine.Do(func() { sim.sparkRequests++ }),
			)
		}))
	}
	sim.storage.Spawn(Position{}, h)
}

func (sim *simulation) spawnAgent() {
	id := sim.storage.Spawn(
		Position{X: sim.rng.Float64() * 100, Y: sim.rng.Float64() * 100},
		Velocity{},
		Energy{Value: sim.rng.Float64() * maxEnergy},
		*fsm.New(agentStates),
	)
	ref := sim.storage.CreateEntityRef(id)
	machine := ecs.ReadComponent[fsm.StateMachine](sim.storage, id)
	machine.Name = "agent"

	rng := sim.rng
	heading := func(speed float64) {
		a := sim.agents.GetRef(ref)
		angle := rng.Float64() * 2 * math.Pi
		a.Velocity.X, a.Velocity.Y = math.Cos(angle)*speed, math.Sin(angle)*speed
	}

	machine.SetCallbacks(stateWander,
		func() int {
			a := sim.agents.GetRef(ref)
			switch {
			case a.Energy.Value < tiredBelow:
				return stateRest
			case rng.IntN(500) == 0:
				return stateDash
			}
			return stateWander
		},
		func() coroutine.Task {
			return coroutine.Repeat(-1, func() coroutine.Task {
				return coroutine.Sequence(
					coroutine.Do(func() { heading(walkSpeed) }),
					coroutine.Delay(0.5+rng.Float64()*1.5),
				)
			})
		},
		nil, nil,
	)

	machine.SetCallbacks(stateRest,
		func() int {
			if sim.agents.GetRef(ref).Energy.Value >= maxEnergy {
				return stateWander
			}
			return stateRest
		},
		func() coroutine.Task {
			return coroutine.FromSeq(func(yield func(coroutine.Marker) bool) {
				for {
					a := sim.agents.GetRef(ref)
					a.Energy.Value = min(a.Energy.Value+10, maxEnergy)
					if !yield(coroutine.WaitSeconds(0.25)) {
						return
					}
				}
			})
		},
		func() {
			a := sim.agents.GetRef(ref)
			a.Velocity.X, a.Velocity.Y = 0, 0
		},
		nil,
	)

	machine.SetCallbacks(stateDash,
		func() int {
			if machine.Coroutine().Finished {
				return stateWander
			}
			return stateDash
		},
		func() coroutine.Task {
			return coroutine.Sequence(
				coroutine.Do(func() { heading(dashSpeed) }),
				coroutine.Delay(0.5),
			)
		},
		nil,
		func() { heading(walkSpeed) },
	)
}

// tick advances the world by dt seconds of real time.
func (sim *simulation) tick(dt float64) {
	sim.scheduler.Once(dt)
}
