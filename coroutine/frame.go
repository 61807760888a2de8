package coroutine

// Frame is the per-frame timing a host hands to Update.
type Frame interface {
	// Delta returns the scaled (game time) seconds elapsed since the last frame.
	Delta() float64
	// RawDelta returns the unscaled (real time) seconds elapsed since the last frame.
	RawDelta() float64
}

// Tick is a plain [Frame] value for hosts that do not carry their own frame type.
type Tick struct {
	Scaled float64
	Raw    float64
}

// FixedTick returns a Tick whose scaled and raw deltas are both dt.
func FixedTick(dt float64) Tick {
	return Tick{Scaled: dt, Raw: dt}
}

func (t Tick) Delta() float64    { return t.Scaled }
func (t Tick) RawDelta() float64 { return t.Raw }

// Owner is the collection a [Coroutine] belongs to. A coroutine with
// RemoveOnComplete set asks its owner to remove it once its task completes.
type Owner interface {
	RemoveCoroutine(c *Coroutine)
}

// Observer receives engine activity. Implementations must not call back into
// the engine that reports to them.
type Observer interface {
	// TaskStepped is called after a task step whose marker was applied.
	TaskStepped()
	// TaskFinished is called when a task stack empties by completion.
	TaskFinished()
	// TaskCancelled is called when a live task stack is dropped early.
	TaskCancelled()
}
