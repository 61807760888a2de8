package ecs_test

import (
	"slices"
	"testing"

	"github.com/plus3/tempo/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movers = struct {
	*Position
	*Velocity
}

func TestQueryReadBeforeExecutePanics(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	query := ecs.NewQuery[movers](storage)

	assert.Panics(t, func() { query.Len() })
	assert.Panics(t, func() {
		for range query.Iter() {
		}
	})
	assert.Panics(t, func() {
		for range query.Values() {
		}
	})

	query.Execute()
	assert.Equal(t, 0, query.Len())
}

func TestQuerySnapshot(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	storage.Spawn(Position{X: 1}, Velocity{DX: 1})
	storage.Spawn(Position{X: 2}, Velocity{DX: 2}, Health{Current: 5})
	storage.Spawn(Position{X: 3})

	query := ecs.NewQuery[movers](storage)
	query.Execute()
	require.Equal(t, 2, query.Len())

	// Spawned after Execute, so invisible until the next one.
	storage.Spawn(Position{X: 4}, Velocity{DX: 4})
	assert.Equal(t, 2, query.Len())

	query.Execute()
	assert.Equal(t, 3, query.Len())

	var xs []float32
	for item := range query.Values() {
		require.NotNil(t, item.Velocity)
		xs = append(xs, item.Position.X)
	}
	slices.Sort(xs)
	assert.Equal(t, []float32{1, 2, 4}, xs)
}

func TestQueryPointersWriteThrough(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{}, Velocity{DX: 2, DY: 3})

	query := ecs.NewQuery[movers](storage)
	query.Execute()
	for _, item := range query.Iter() {
		item.Position.X += item.Velocity.DX
		item.Position.Y += item.Velocity.DY
	}

	pos := ecs.ReadComponent[Position](storage, id)
	assert.Equal(t, Position{X: 2, Y: 3}, *pos)
}

func TestQueryOrderIsRepeatable(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	for i := range 4 {
		storage.Spawn(Position{X: float32(i)}, Velocity{})
		storage.Spawn(Position{X: float32(i)}, Velocity{}, Name{Value: "n"})
		storage.Spawn(Position{X: float32(i)}, Velocity{}, Score(i))
	}

	query := ecs.NewQuery[movers](storage)
	collect := func() []ecs.EntityId {
		query.Execute()
		var ids []ecs.EntityId
		for id := range query.Iter() {
			ids = append(ids, id)
		}
		return ids
	}

	first := collect()
	require.Len(t, first, 12)
	assert.Equal(t, first, collect())

	// Archetypes are visited in id order.
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].ArchetypeId(), first[i].ArchetypeId())
	}
}

func TestQueryIterStopsEarly(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	for range 5 {
		storage.Spawn(Position{}, Velocity{})
	}

	query := ecs.NewQuery[movers](storage)
	query.Execute()

	n := 0
	for range query.Iter() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestQueryWithEntityId(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	ids := map[ecs.EntityId]bool{
		storage.Spawn(Position{}, Velocity{}): true,
		storage.Spawn(Position{}):             true,
	}
	storage.Spawn(Velocity{})

	query := ecs.NewQuery[struct {
		ecs.EntityId
		*Position
		Velocity *Velocity `ecs:"optional"`
	}](storage)
	query.Execute()

	seen := map[ecs.EntityId]bool{}
	for id, item := range query.Iter() {
		assert.Equal(t, id, item.EntityId)
		seen[item.EntityId] = true
	}
	assert.Equal(t, ids, seen)
}
