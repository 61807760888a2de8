// Package fsm provides a finite state machine for components whose behavior
// changes with a discrete state, such as an enemy that patrols, chases and
// attacks.
//
// Each state may have an enter, update and leave callback, and a factory for
// a [coroutine.Task] that drives the state while it is current. The machine
// embeds a single [coroutine.Coroutine]; entering a state restarts it with a
// fresh task from the new state's factory, leaving a state tears it down.
package fsm

import (
	"fmt"

	"github.com/plus3/tempo/coroutine"
	"go.uber.org/zap"
)

// NoState is the state of a machine that has not entered any state yet.
const NoState = -1

// Observer is notified of every state transition.
type Observer interface {
	StateChanged(from, to int)
}

type callbacks struct {
	update    func() int
	coroutine func() coroutine.Task
	enter     func()
	leave     func()
}

// StateMachine holds the current state out of a fixed number of states and
// runs their callbacks. It is not safe for concurrent use.
type StateMachine struct {
	// ChangedStates reports whether a transition happened since the start of
	// the last Update.
	ChangedStates bool

	// Locked makes SetState ignore transition requests.
	Locked bool

	// Log makes every transition emit a debug line to the package logger.
	Log bool

	// Name identifies the machine in log output.
	Name string

	// Observer, if set, is notified of transitions.
	Observer Observer

	state    int
	previous int
	states   []callbacks
	co       coroutine.Coroutine

	// transitions counts transitions so that a transition started from an
	// enter or leave callback can supersede the one that triggered it.
	transitions uint64
}

// New returns a machine with states 0 to maxStates-1, none of which has been
// entered yet. It panics if maxStates is not positive.
func New(maxStates int) *StateMachine {
	if maxStates <= 0 {
		panic(fmt.Sprintf("fsm: max states must be positive, got %d", maxStates))
	}
	return &StateMachine{
		state:    NoState,
		previous: NoState,
		states:   make([]callbacks, maxStates),
	}
}

func (m *StateMachine) check(state int) {
	if state < 0 || state >= len(m.states) {
		panic(fmt.Sprintf("fsm: state %d out of range [0, %d)", state, len(m.states)))
	}
}

// SetCallbacks sets the callbacks of state. Any of them may be nil.
//
// onUpdate runs every Update while state is current and returns the state to
// move to, usually state itself. coroutineFactory provides the task that
// drives state from the moment it is entered.
func (m *StateMachine) SetCallbacks(state int, onUpdate func() int, coroutineFactory func() coroutine.Task, onEnter, onLeave func()) {
	m.check(state)
	m.states[state] = callbacks{
		update:    onUpdate,
		coroutine: coroutineFactory,
		enter:     onEnter,
		leave:     onLeave,
	}
}

// MaxStates returns the number of states the machine was created with.
func (m *StateMachine) MaxStates() int {
	return len(m.states)
}

// State returns the current state, or NoState.
func (m *StateMachine) State() int {
	return m.state
}

// PreviousState returns the state that was current before the last
// transition, or NoState.
func (m *StateMachine) PreviousState() int {
	return m.previous
}

// Coroutine returns the embedded coroutine that runs the current state's task.
func (m *StateMachine) Coroutine() *coroutine.Coroutine {
	return &m.co
}

// SetState moves the machine to state. Moving to the current state, or any
// move while the machine is Locked, does nothing.
//
// A transition runs the old state's leave callback, switches states, runs
// the new state's enter callback, then starts the new state's task or
// cancels the running one if the new state has none. It panics if state is
// out of range.
func (m *StateMachine) SetState(state int) {
	m.check(state)
	if m.Locked || state == m.state {
		return
	}
	m.transition(state, true)
}

// ForceState moves the machine to state even if it is Locked, and re-enters
// state if it is already current.
func (m *StateMachine) ForceState(state int) {
	m.check(state)
	m.transition(state, true)
}

// Start enters state without leaving the current one. It is meant for
// entering the first state of a new machine.
func (m *StateMachine) Start(state int) {
	m.check(state)
	m.transition(state, false)
}

func (m *StateMachine) transition(to int, leave bool) {
	m.transitions++
	id := m.transitions

	from := m.state
	if leave && from != NoState {
		if cb := m.states[from].leave; cb != nil {
			cb()
			if m.transitions != id {
				return
			}
		}
	}

	m.previous = from
	m.state = to
	m.ChangedStates = true

	if m.Log {
		Logger().Debug("state changed",
			zap.String("machine", m.Name),
			zap.Int("from", from),
			zap.Int("to", to),
		)
	}
	if m.Observer != nil {
		m.Observer.StateChanged(from, to)
	}

	cbs := m.states[to]
	if cbs.enter != nil {
		cbs.enter()
		if m.transitions != id {
			return
		}
	}

	if cbs.coroutine != nil {
		m.co.Replace(cbs.coroutine())
	} else {
		m.co.Cancel()
	}
}

// Update runs the current state's update callback, applies the state it
// returns, then steps the state's task once. Nothing runs while the
// machine's coroutine is paused by a coroutine.Registry.
func (m *StateMachine) Update(frame coroutine.Frame) {
	m.ChangedStates = false
	if m.co.Paused() {
		return
	}

	if m.state != NoState {
		if cb := m.states[m.state].update; cb != nil {
			m.SetState(cb())
		}
	}

	if m.co.Active {
		m.co.Update(frame)
	}
}
