package ecs

// System is one step of a frame. The Scheduler calls Execute once per tick,
// in registration order, after refreshing the system's Query fields.
// Structural changes must go through frame.Commands.
type System interface {
	Execute(frame *UpdateFrame)
}
