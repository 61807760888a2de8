package debugui

import "github.com/plus3/tempo/ecs"

// SpawnDebugUI adds the built-in debug windows to storage.
func SpawnDebugUI(storage *ecs.Storage) {
	storage.Spawn(NewBehaviorBrowserComponent(100))
	storage.Spawn(NewPerformanceStatsComponent(120))
}

func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[ImguiInputState](registry)
	ecs.RegisterComponent[BehaviorBrowserComponent](registry)
	ecs.RegisterComponent[PerformanceStatsComponent](registry)
}
