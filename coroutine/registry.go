package coroutine

import "go.uber.org/zap"

// A Registry tracks the live coroutines of one subsystem so they can be
// paused, resumed or cancelled together.
//
// Coroutines are tracked by address. Hosts that keep coroutines in movable
// storage re-add them every frame and call [Registry.Prune] afterwards. The
// pause state travels with the coroutine value, so a coroutine copied to a
// new address while paused is still resumed.
type Registry struct {
	entries map[*Coroutine]struct{}
	// pausing is set between PauseAll and the next ResumeAll or CancelAll.
	pausing bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[*Coroutine]struct{}),
	}
}

// Add starts tracking c. Adding a tracked coroutine is a no-op.
func (r *Registry) Add(c *Coroutine) {
	if c.registry == r {
		if _, ok := r.entries[c]; ok {
			return
		}
		// A copy made while paused, seen again after the pause ended.
		if c.paused && !r.pausing {
			c.resume()
		}
	}
	c.registry = r
	r.entries[c] = struct{}{}
}

// Remove stops tracking c and lifts a pause applied by r. Unknown
// coroutines are ignored.
func (r *Registry) Remove(c *Coroutine) {
	if _, ok := r.entries[c]; !ok {
		return
	}
	if c.registry == r {
		c.registry = nil
		c.resume()
	}
	delete(r.entries, c)
}

// Prune forgets every tracked address that no longer holds a coroutine added
// to r, such as a component slot that was released and zeroed.
func (r *Registry) Prune() int {
	n := 0
	for c := range r.entries {
		if c.registry != r {
			delete(r.entries, c)
			n++
		}
	}
	return n
}

// PauseAll suspends every tracked coroutine until ResumeAll. A paused
// coroutine does not step, and a task started on it with Start or Replace
// waits for the resume. Only coroutines that were active, or were given a
// task while paused, are reactivated by ResumeAll.
func (r *Registry) PauseAll() {
	r.pausing = true
	n := 0
	for c := range r.entries {
		if c.registry == r && !c.paused {
			c.pause()
			n++
		}
	}
	Logger().Debug("paused coroutines", zap.Int("count", n), zap.Int("tracked", len(r.entries)))
}

// ResumeAll lifts the pause of every tracked coroutine.
func (r *Registry) ResumeAll() {
	r.pausing = false
	n := 0
	for c := range r.entries {
		if c.registry == r && c.resume() {
			n++
		}
	}
	Logger().Debug("resumed coroutines", zap.Int("count", n))
}

// CancelAll cancels every tracked coroutine that is still running and ends
// any pause.
func (r *Registry) CancelAll() {
	r.pausing = false
	n := 0
	for c := range r.entries {
		if c.registry != r {
			continue
		}
		if c.Running() {
			c.Cancel()
			n++
		}
		c.resume()
	}
	Logger().Debug("cancelled coroutines", zap.Int("count", n))
}

// Len returns the number of tracked coroutines.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Clear forgets every tracked coroutine, lifting any pause.
func (r *Registry) Clear() {
	for c := range r.entries {
		if c.registry == r {
			c.registry = nil
			c.resume()
		}
	}
	clear(r.entries)
	r.pausing = false
}
