package behavior

import (
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
)

// CoroutineSystem updates every coroutine component once per frame.
type CoroutineSystem struct {
	Entities ecs.Query[struct {
		ecs.EntityId
		*coroutine.Coroutine
	}]

	Registry *coroutine.Registry
	Observer coroutine.Observer

	current  ecs.EntityId
	removals []ecs.EntityId
}

// Execute implements ecs.System.
func (s *CoroutineSystem) Execute(frame *ecs.UpdateFrame) {
	for e := range s.Entities.Values() {
		c := e.Coroutine
		if s.Registry != nil {
			s.Registry.Add(c)
		}
		if c.Observer == nil && s.Observer != nil {
			c.Observer = s.Observer
		}
		c.Attach(s)

		s.current = e.EntityId
		c.Update(frame)
	}
	s.current = 0

	for _, id := range s.removals {
		ecs.Remove[coroutine.Coroutine](frame.Commands, id)
	}
	clear(s.removals)
	s.removals = s.removals[:0]

	if s.Registry != nil {
		s.Registry.Prune()
	}
}

// RemoveCoroutine implements coroutine.Owner. The component is removed when
// the frame's commands are flushed.
func (s *CoroutineSystem) RemoveCoroutine(*coroutine.Coroutine) {
	if s.current != 0 {
		s.removals = append(s.removals, s.current)
	}
}
