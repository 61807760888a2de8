package ecs

// UpdateFrame is what every system receives on each scheduler tick.
type UpdateFrame struct {
	// DeltaTime is the scaled time since the previous frame, in seconds.
	// It is zero while the scheduler is paused.
	DeltaTime float64
	// RawDeltaTime is the unscaled time since the previous frame, in seconds.
	RawDeltaTime float64
	// Frame counts scheduler ticks, starting at 1.
	Frame    uint64
	Commands *Commands
	Storage  *Storage
}

// Delta returns DeltaTime.
func (f *UpdateFrame) Delta() float64 { return f.DeltaTime }

// RawDelta returns RawDeltaTime.
func (f *UpdateFrame) RawDelta() float64 { return f.RawDeltaTime }
