package coroutine

import (
	"slices"

	"github.com/kamstrup/intmap"
)

// TaskID identifies a task started on a [Holder]. IDs are assigned in
// increasing order and never reused by the same Holder.
type TaskID int

// taskStack is one task started on a Holder, with the nested tasks it awaits.
type taskStack struct {
	tasks []Task
	// ending is set once the stack is queued for removal; it is not stepped again.
	ending bool
}

func (s *taskStack) stop() {
	for i := len(s.tasks) - 1; i >= 0; i-- {
		stop(s.tasks[i])
	}
	clear(s.tasks)
	s.tasks = s.tasks[:0]
}

// A Holder runs many tasks side by side within a single owner.
//
// Every Update steps each live task exactly once, in the order the tasks were
// started. Holders have no wait timers: [WaitFrames] and [WaitSeconds]
// markers resume on the next update like [Continue]. Nested tasks are
// supported.
//
// The zero Holder is ready to use.
type Holder struct {
	// Observer, if set, is notified of steps, completion and cancellation.
	Observer Observer

	tasks     *intmap.Map[TaskID, *taskStack]
	order     []TaskID
	nextID    TaskID
	iterating bool
	removals  []TaskID
}

// NewHolder returns an empty Holder with room for capacity tasks.
func NewHolder(capacity int) *Holder {
	return &Holder{
		tasks: intmap.New[TaskID, *taskStack](capacity),
		order: make([]TaskID, 0, capacity),
	}
}

// StartTask starts t and returns its id. t takes its first step on the next
// Update pass that begins after this call, even when StartTask is called from
// within a running pass.
func (h *Holder) StartTask(t Task) TaskID {
	must(t)
	if h.tasks == nil {
		h.tasks = intmap.New[TaskID, *taskStack](8)
	}
	id := h.nextID
	h.nextID++
	h.tasks.Put(id, &taskStack{tasks: []Task{t}})
	h.order = append(h.order, id)
	return id
}

// EndTask cancels the task with the given id. During an Update pass the
// task is removed once the pass completes, but it is not stepped again.
// Unknown or already removed ids are ignored.
func (h *Holder) EndTask(id TaskID) {
	if h.tasks == nil {
		return
	}
	s, ok := h.tasks.Get(id)
	if !ok || s.ending {
		return
	}
	if h.Observer != nil {
		h.Observer.TaskCancelled()
	}
	if h.iterating {
		h.queueRemoval(id, s)
		return
	}
	s.stop()
	h.tasks.Del(id)
	if i := slices.Index(h.order, id); i >= 0 {
		h.order = slices.Delete(h.order, i, i+1)
	}
}

func (h *Holder) queueRemoval(id TaskID, s *taskStack) {
	s.ending = true
	h.removals = append(h.removals, id)
}

// Update steps every live task once, in start order.
func (h *Holder) Update() {
	if len(h.order) == 0 {
		return
	}

	h.iterating = true
	// A panicking step still leaves the holder usable if the host recovers.
	defer func() {
		h.iterating = false
		h.flush()
	}()

	// Tasks started during the pass are appended past live and wait for the
	// next pass.
	live := len(h.order)
	for i := 0; i < live; i++ {
		id := h.order[i]
		s, ok := h.tasks.Get(id)
		if !ok || s.ending {
			continue
		}

		m := s.tasks[len(s.tasks)-1].Step()
		if s.ending {
			// Ended from within its own step.
			continue
		}

		switch m.kind {
		case KindNested:
			s.tasks = append(s.tasks, m.task)
		case KindDone:
			n := len(s.tasks) - 1
			s.tasks[n] = nil
			s.tasks = s.tasks[:n]
			if n == 0 {
				h.queueRemoval(id, s)
				if h.Observer != nil {
					h.Observer.TaskFinished()
				}
			}
		}

		if h.Observer != nil {
			h.Observer.TaskStepped()
		}
	}
}

func (h *Holder) flush() {
	if len(h.removals) == 0 {
		return
	}
	for _, id := range h.removals {
		if s, ok := h.tasks.Get(id); ok {
			s.stop()
			h.tasks.Del(id)
		}
	}
	clear(h.removals)
	h.removals = h.removals[:0]
	h.order = slices.DeleteFunc(h.order, func(id TaskID) bool {
		return !h.tasks.Has(id)
	})
}

// Has reports whether the task with the given id is still tracked.
func (h *Holder) Has(id TaskID) bool {
	return h.tasks != nil && h.tasks.Has(id)
}

// Len returns the number of tracked tasks.
func (h *Holder) Len() int {
	return len(h.order)
}

// IDs returns the ids of the tracked tasks in start order.
func (h *Holder) IDs() []TaskID {
	return slices.Clone(h.order)
}

// Clear ends every tracked task.
func (h *Holder) Clear() {
	for _, id := range slices.Clone(h.order) {
		h.EndTask(id)
	}
}
