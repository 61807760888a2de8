package coroutine

import "strconv"

// Kind identifies what a [Marker] asks the engine to do.
type Kind uint8

const (
	KindContinue Kind = iota
	KindWaitFrames
	KindWaitSeconds
	KindNested
	KindDone
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindWaitFrames:
		return "wait-frames"
	case KindWaitSeconds:
		return "wait-seconds"
	case KindNested:
		return "nested"
	case KindDone:
		return "done"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Marker is the value a [Task] step produces to tell the engine how and when
// to resume it. The zero Marker is [Continue].
//
// Markers are created with [Continue], [WaitFrames], [WaitSeconds], [Await]
// and [Done].
type Marker struct {
	kind    Kind
	frames  int     // used by KindWaitFrames only
	seconds float64 // used by KindWaitSeconds only
	task    Task    // used by KindNested only
}

// Continue returns a Marker that resumes the task on the next update.
func Continue() Marker {
	return Marker{}
}

// WaitFrames returns a Marker that skips the next n updates in which time
// passes before resuming.
// A non-positive n behaves like [Continue].
func WaitFrames(n int) Marker {
	if n <= 0 {
		return Continue()
	}
	return Marker{kind: KindWaitFrames, frames: n}
}

// WaitSeconds returns a Marker that resumes the task once at least t seconds
// of frame time have elapsed. A non-positive t behaves like [Continue].
func WaitSeconds(t float64) Marker {
	if t <= 0 {
		return Continue()
	}
	return Marker{kind: KindWaitSeconds, seconds: t}
}

// Await returns a Marker that suspends the task until t completes.
// t starts running on the next update.
func Await(t Task) Marker {
	return Marker{kind: KindNested, task: must(t)}
}

// Done returns a Marker that completes the task.
func Done() Marker {
	return Marker{kind: KindDone}
}

// Kind returns what m asks for.
func (m Marker) Kind() Kind {
	return m.kind
}

// Frames returns the number of updates a [KindWaitFrames] marker skips.
func (m Marker) Frames() int {
	return m.frames
}

// Seconds returns the duration a [KindWaitSeconds] marker waits for.
func (m Marker) Seconds() float64 {
	return m.seconds
}

// Task returns the nested task of a [KindNested] marker.
func (m Marker) Task() Task {
	return m.task
}

// String returns a compact description of m, useful in logs and test output.
func (m Marker) String() string {
	switch m.kind {
	case KindWaitFrames:
		return "wait-frames(" + strconv.Itoa(m.frames) + ")"
	case KindWaitSeconds:
		return "wait-seconds(" + strconv.FormatFloat(m.seconds, 'g', -1, 64) + ")"
	default:
		return m.kind.String()
	}
}
