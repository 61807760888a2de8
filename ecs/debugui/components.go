package debugui

import "github.com/plus3/tempo/ecs"

// BehaviorBrowserComponent holds the state of the behavior browser window.
type BehaviorBrowserComponent struct {
	rows        []BehaviorInfo
	selected    ecs.EntityId
	filterText  string
	sortColumn  int
	sortDesc    bool
	rowsPerPage int
	currentPage int
}

// PerformanceStatsComponent holds the frame time history of the
// performance window.
type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}
