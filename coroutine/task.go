package coroutine

import "iter"

// A Task is a resumable unit of sequential logic.
//
// Step runs the task up to its next suspension point and returns a [Marker]
// describing how to resume it. Once Step returns [Done], the engine drops the
// task and never steps it again.
//
// Tasks are single-use: most carry their progress in closure state, so a task
// that has completed (or been cancelled) must not be started again. Use a
// factory function when the same behavior has to run repeatedly.
type Task interface {
	Step() Marker
}

// Func adapts an ordinary function into a [Task].
type Func func() Marker

// Step implements the [Task] interface.
func (f Func) Step() Marker { return f() }

// Stopper is implemented by tasks that hold resources which must be released
// when the task is dropped before completing, for instance when its engine
// is cancelled.
type Stopper interface {
	Stop()
}

func must(t Task) Task {
	if t == nil {
		panic("coroutine: nil Task")
	}
	return t
}

func stop(t Task) {
	if s, ok := t.(Stopper); ok {
		s.Stop()
	}
}

type seqTask struct {
	seq  iter.Seq[Marker]
	next func() (Marker, bool)
	halt func()
}

// FromSeq returns a [Task] that pulls one marker from seq per step, which lets
// a task be written as a generator:
//
//	coroutine.FromSeq(func(yield func(coroutine.Marker) bool) {
//		sprite.Flash()
//		if !yield(coroutine.WaitSeconds(0.5)) {
//			return
//		}
//		sprite.Hide()
//	})
//
// The task completes when seq returns or yields [Done]. If the task is dropped
// early, seq's yield returns false so that it can clean up and return.
func FromSeq(seq iter.Seq[Marker]) Task {
	if seq == nil {
		panic("coroutine: nil sequence")
	}
	return &seqTask{seq: seq}
}

func (t *seqTask) Step() Marker {
	if t.next == nil {
		t.next, t.halt = iter.Pull(t.seq)
	}
	m, ok := t.next()
	if !ok {
		t.halt()
		return Done()
	}
	if m.kind == KindDone {
		t.halt()
	}
	return m
}

// Stop implements the [Stopper] interface.
func (t *seqTask) Stop() {
	if t.halt != nil {
		t.halt()
	}
}

// Do returns a [Task] that calls f once and completes in the same step.
func Do(f func()) Task {
	return Func(func() Marker {
		f()
		return Done()
	})
}

// Delay returns a [Task] that waits for t seconds of frame time, then completes.
func Delay(t float64) Task {
	waited := false
	return Func(func() Marker {
		if waited {
			return Done()
		}
		waited = true
		return WaitSeconds(t)
	})
}

// DelayFrames returns a [Task] that skips n updates, then completes.
func DelayFrames(n int) Task {
	waited := false
	return Func(func() Marker {
		if waited {
			return Done()
		}
		waited = true
		return WaitFrames(n)
	})
}

// Until returns a [Task] that checks cond once per step and completes in the
// first step where cond reports true.
func Until(cond func() bool) Task {
	return Func(func() Marker {
		if cond() {
			return Done()
		}
		return Continue()
	})
}

// Sequence returns a [Task] that awaits each of the given tasks in order.
func Sequence(tasks ...Task) Task {
	for _, t := range tasks {
		must(t)
	}
	i := 0
	return Func(func() Marker {
		if i == len(tasks) {
			return Done()
		}
		t := tasks[i]
		i++
		return Await(t)
	})
}

// Repeat returns a [Task] that awaits a fresh task from factory n times.
// A negative n repeats forever.
func Repeat(n int, factory func() Task) Task {
	i := 0
	return Func(func() Marker {
		if n >= 0 && i >= n {
			return Done()
		}
		i++
		return Await(factory())
	})
}
