// Package coroutine implements cooperative, frame-ticked coroutines for
// components that need behavior spanning several frames.
//
// A [Task] is a resumable computation. Each call to its Step method runs the
// task up to its next suspension point and returns a [Marker] telling the
// engine when to resume it:
//
//   - [Continue] resumes on the next update;
//   - [WaitFrames] skips a number of updates in which time passes;
//   - [WaitSeconds] resumes once enough frame time has elapsed;
//   - [Await] pushes a nested task that runs to completion first;
//   - [Done] completes the task.
//
// A [Coroutine] runs one task (and the nested tasks it awaits) and advances
// at most one step per update. A [Holder] runs many tasks side by side, keyed
// by [TaskID], stepping every live task once per update in start order.
//
// Nothing here blocks or locks. Progress only happens inside the host's
// per-frame Update calls, on the host's goroutine.
package coroutine
