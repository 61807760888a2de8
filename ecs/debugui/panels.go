package debugui

import "github.com/plus3/tempo/ecs"

// PanelSystem queues the built-in debug windows for rendering. Like
// [ImguiSystem], the windows draw from deferred commands once every system
// of the frame has run.
type PanelSystem struct {
	// Scheduler, if set, adds per-system timings to the performance window.
	Scheduler *ecs.Scheduler

	Browsers ecs.Query[struct{ *BehaviorBrowserComponent }]
	Stats    ecs.Query[struct{ *PerformanceStatsComponent }]
}

func (p *PanelSystem) Execute(frame *ecs.UpdateFrame) {
	storage := frame.Storage
	for item := range p.Browsers.Values() {
		browser := item.BehaviorBrowserComponent
		frame.Commands.Defer(func() { browser.Render(storage) })
	}
	for item := range p.Stats.Values() {
		stats := item.PerformanceStatsComponent
		stats.Record(frame.RawDeltaTime)
		frame.Commands.Defer(func() { stats.Render(storage, p.Scheduler) })
	}
}
