package coroutine

// A Coroutine runs a single [Task], including any nested tasks it awaits,
// advancing at most one step per [Coroutine.Update].
//
// The zero Coroutine is inactive and ready for [Coroutine.Start].
// A Coroutine is meant to be owned by exactly one component and updated from
// that component's frame tick; it is not safe for concurrent use.
type Coroutine struct {
	// Active reports whether Update advances the coroutine. It is set by
	// Start and Replace and cleared on completion or cancellation.
	Active bool

	// Finished reports whether the last started task has completed or was
	// cancelled.
	Finished bool

	// RemoveOnComplete makes the coroutine ask its [Owner] to remove it
	// when its task completes.
	RemoveOnComplete bool

	// UseRawDeltaTime makes WaitSeconds markers count unscaled frame time.
	UseRawDeltaTime bool

	// Observer, if set, is notified of steps, completion and cancellation.
	Observer Observer

	stack      []Task
	waitTimer  float64
	waitFrames int

	// stepping is set while the top task's Step runs. interrupted is set
	// when the stack is dropped or replaced during that step, in which case
	// the marker the step returns belongs to a dead stack and is ignored.
	stepping    bool
	interrupted bool
	orphans     []Task

	owner    Owner
	registry *Registry

	// paused is set by a Registry pause. wake records whether the
	// coroutine becomes active again when the pause is lifted.
	paused bool
	wake   bool
}

// NewCoroutine returns a coroutine already running t.
func NewCoroutine(t Task, removeOnComplete bool) *Coroutine {
	c := &Coroutine{RemoveOnComplete: removeOnComplete}
	c.Start(t)
	return c
}

// Attach sets the owner c asks for removal once its task completes.
func (c *Coroutine) Attach(o Owner) {
	c.owner = o
}

// Start discards whatever c was running and starts t from its first step on
// the next Update.
func (c *Coroutine) Start(t Task) {
	c.reset(must(t), false)
}

// Replace cancels the running task, if any, and starts t in its place.
// Unlike calling Cancel then Start, c never passes through an inactive state.
//
// On a coroutine paused by a [Registry], Start and Replace install the task
// but leave c inactive until the pause is lifted.
func (c *Coroutine) Replace(t Task) {
	c.reset(must(t), true)
}

func (c *Coroutine) reset(t Task, notify bool) {
	if notify && len(c.stack) > 0 && c.Observer != nil {
		c.Observer.TaskCancelled()
	}
	c.drop()
	c.stack = append(c.stack, t)
	c.waitTimer = 0
	c.waitFrames = 0
	c.Finished = false
	if c.paused {
		c.wake = true
	} else {
		c.Active = true
	}
}

// Cancel stops c immediately. No step of the cancelled task runs afterwards,
// and if Cancel is called from within the task's own step, the marker that
// step returns is ignored.
func (c *Coroutine) Cancel() {
	if len(c.stack) > 0 && c.Observer != nil {
		c.Observer.TaskCancelled()
	}
	c.drop()
	c.waitTimer = 0
	c.waitFrames = 0
	c.Active = false
	c.wake = false
	c.Finished = true
}

func (c *Coroutine) pause() {
	if c.paused {
		return
	}
	c.paused = true
	c.wake = c.Active
	c.Active = false
}

// resume lifts a pause and reports whether c became active.
func (c *Coroutine) resume() bool {
	if !c.paused {
		return false
	}
	c.paused = false
	c.Active = c.wake && c.Running()
	c.wake = false
	return c.Active
}

// Paused reports whether c is held by a [Registry] pause.
func (c *Coroutine) Paused() bool {
	return c.paused
}

// drop empties the stack. Tasks dropped while a step is in flight are
// stopped once that step has returned.
func (c *Coroutine) drop() {
	if c.stepping {
		c.interrupted = true
		c.orphans = append(c.orphans, c.stack...)
	} else {
		for i := len(c.stack) - 1; i >= 0; i-- {
			stop(c.stack[i])
		}
	}
	clear(c.stack)
	c.stack = c.stack[:0]
}

// Update advances c by one frame.
//
// While a wait is pending, Update only counts it down. Frame waits count
// updates whose delta (scaled, or raw with UseRawDeltaTime) is positive. Otherwise it steps the
// task on top of the stack once and applies the returned marker.
func (c *Coroutine) Update(frame Frame) {
	if !c.Active {
		return
	}

	if c.waitFrames > 0 {
		// Frames where no time passes, such as while the game is paused,
		// do not count.
		if c.delta(frame) > 0 {
			c.waitFrames--
		}
		return
	}

	if c.waitTimer > 0 {
		c.waitTimer -= c.delta(frame)
		return
	}

	if len(c.stack) == 0 {
		return
	}

	m := c.step(c.stack[len(c.stack)-1])
	if c.interrupted {
		c.interrupted = false
		return
	}

	switch m.kind {
	case KindWaitFrames:
		c.waitFrames = m.frames
	case KindWaitSeconds:
		c.waitTimer = m.seconds
	case KindNested:
		c.stack = append(c.stack, m.task)
	case KindDone:
		if c.pop() {
			c.Finished = true
			c.Active = false
		}
	}

	if c.Observer != nil {
		c.Observer.TaskStepped()
	}
	if m.kind == KindDone && c.Finished {
		c.complete()
	}
}

func (c *Coroutine) delta(frame Frame) float64 {
	if c.UseRawDeltaTime {
		return frame.RawDelta()
	}
	return frame.Delta()
}

func (c *Coroutine) step(t Task) Marker {
	c.stepping = true
	c.interrupted = false
	defer func() {
		c.stepping = false
		if len(c.orphans) > 0 {
			orphans := c.orphans
			c.orphans = nil
			for i := len(orphans) - 1; i >= 0; i-- {
				stop(orphans[i])
			}
		}
	}()
	return t.Step()
}

// pop removes the completed top task and reports whether the stack emptied.
func (c *Coroutine) pop() bool {
	n := len(c.stack) - 1
	c.stack[n] = nil
	c.stack = c.stack[:n]
	return n == 0
}

func (c *Coroutine) complete() {
	if c.Observer != nil {
		c.Observer.TaskFinished()
	}
	if c.RemoveOnComplete && c.owner != nil {
		c.owner.RemoveCoroutine(c)
	}
}

// Running reports whether c has a task that has neither completed nor been
// cancelled.
func (c *Coroutine) Running() bool {
	return len(c.stack) > 0
}

// Depth returns the number of tasks on the stack: zero when idle, one while
// the started task runs, more while it awaits nested tasks.
func (c *Coroutine) Depth() int {
	return len(c.stack)
}

// WaitRemaining returns the pending wait as seconds and frames.
func (c *Coroutine) WaitRemaining() (seconds float64, frames int) {
	return max(c.waitTimer, 0), c.waitFrames
}
