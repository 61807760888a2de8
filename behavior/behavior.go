// Package behavior runs coroutines, holders and state machines stored as ECS
// components.
//
// Components are updated once per scheduler tick, in the order the systems
// were added. A coroutine component with RemoveOnComplete set is removed from
// its entity through the frame's command buffer once its task completes.
package behavior

import (
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/fsm"
)

// RegisterComponents registers the component types the systems in this
// package query.
func RegisterComponents(r *ecs.ComponentRegistry) {
	ecs.RegisterComponent[coroutine.Coroutine](r)
	ecs.RegisterComponent[coroutine.Holder](r)
	ecs.RegisterComponent[fsm.StateMachine](r)
}

// Options configures the systems added by AddSystems.
type Options struct {
	// Registry, if set, tracks every coroutine component and the coroutine of
	// every state machine component.
	Registry *coroutine.Registry
	// Observer is installed on coroutines and holders that have none.
	Observer coroutine.Observer
	// StateObserver is installed on state machines that have none.
	StateObserver fsm.Observer
}

// AddSystems registers a StateMachineSystem, a CoroutineSystem and a
// HolderSystem, in that order.
func AddSystems(s *ecs.Scheduler, opts Options) {
	s.Register(&StateMachineSystem{
		Registry:          opts.Registry,
		Observer:          opts.StateObserver,
		CoroutineObserver: opts.Observer,
	})
	s.Register(&CoroutineSystem{
		Registry: opts.Registry,
		Observer: opts.Observer,
	})
	s.Register(&HolderSystem{
		Observer: opts.Observer,
	})
}
