package behavior

import (
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/fsm"
)

// StateMachineSystem updates every state machine component once per frame.
// A machine that has not entered any state yet is started in state 0 first.
type StateMachineSystem struct {
	Machines ecs.Query[struct{ *fsm.StateMachine }]

	Registry          *coroutine.Registry
	Observer          fsm.Observer
	CoroutineObserver coroutine.Observer
}

// Execute implements ecs.System.
func (s *StateMachineSystem) Execute(frame *ecs.UpdateFrame) {
	for e := range s.Machines.Values() {
		m := e.StateMachine
		co := m.Coroutine()
		if m.Observer == nil && s.Observer != nil {
			m.Observer = s.Observer
		}
		if co.Observer == nil && s.CoroutineObserver != nil {
			co.Observer = s.CoroutineObserver
		}
		if s.Registry != nil {
			s.Registry.Add(co)
		}

		if m.State() == fsm.NoState {
			m.Start(0)
		}
		m.Update(frame)
	}
}
