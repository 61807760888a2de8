package debugui_test

import (
	"testing"

	"github.com/plus3/tempo/behavior"
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/ecs/debugui"
	"github.com/plus3/tempo/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectBehaviors(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	behavior.RegisterComponents(registry)
	storage := ecs.NewStorage(registry)

	waiting := storage.Spawn(*coroutine.NewCoroutine(coroutine.DelayFrames(3), false))
	var h coroutine.Holder
	h.StartTask(coroutine.Until(func() bool { return false }))
	h.StartTask(coroutine.Until(func() bool { return false }))
	holder := storage.Spawn(h)
	m := fsm.New(2)
	m.Name = "guard"
	machine := storage.Spawn(*m)

	c := ecs.ReadComponent[coroutine.Coroutine](storage, waiting)
	c.Update(coroutine.FixedTick(0.1))

	rows := debugui.CollectBehaviors(storage)
	require.Len(t, rows, 3)
	byID := map[ecs.EntityId]debugui.BehaviorInfo{}
	for _, r := range rows {
		byID[r.ID] = r
	}

	assert.Equal(t, debugui.BehaviorInfo{
		ID: waiting, Kind: "coroutine", State: "running", Depth: 1, Wait: "3f", Active: true,
	}, byID[waiting])
	assert.Equal(t, "holder", byID[holder].Kind)
	assert.Equal(t, 2, byID[holder].Depth)
	assert.Equal(t, "fsm", byID[machine].Kind)
	assert.Equal(t, "guard", byID[machine].Name)
	assert.Equal(t, "- -> -", byID[machine].State)

	assert.Len(t, debugui.FilterBehaviors(rows, "GUARD"), 1)
	assert.Len(t, debugui.FilterBehaviors(rows, "nothing matches"), 0)
	assert.Len(t, debugui.FilterBehaviors(rows, ""), 3)
}

func TestPerformanceStatsAverage(t *testing.T) {
	ps := debugui.NewPerformanceStatsComponent(4)
	for range 6 {
		ps.Record(0.010)
	}
	assert.InDelta(t, 10.0, ps.AverageMillis(), 1e-4)
}
