package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/tempo/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRef(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{X: 1, Y: 2})
	ref := storage.CreateEntityRef(id)
	require.NotNil(t, ref)
	assert.Same(t, ref, storage.CreateEntityRef(id))

	resolved, ok := storage.ResolveEntityRef(ref)
	require.True(t, ok)
	assert.Equal(t, id, resolved)

	assert.True(t, storage.InvalidateEntityRef(ref))
	assert.False(t, storage.InvalidateEntityRef(ref))
	_, ok = storage.ResolveEntityRef(ref)
	assert.False(t, ok)

	_, ok = storage.ResolveEntityRef(nil)
	assert.False(t, ok)
	assert.False(t, storage.InvalidateEntityRef(nil))
	assert.Nil(t, storage.CreateEntityRef(ecs.NewEntityId(1, 0)))
}

func TestEntityRefFollowsEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{X: 3})
	ref := storage.CreateEntityRef(id)

	withHealth := storage.AddComponent(id, Health{Current: 1})
	resolved, ok := storage.ResolveEntityRef(ref)
	require.True(t, ok)
	assert.Equal(t, withHealth, resolved)

	back := storage.RemoveComponent(withHealth, reflect.TypeFor[Health]())
	resolved, ok = storage.ResolveEntityRef(ref)
	require.True(t, ok)
	assert.Equal(t, back, resolved)
	assert.Equal(t, float32(3), ecs.ReadComponent[Position](storage, resolved).X)

	storage.Delete(back)
	_, ok = storage.ResolveEntityRef(ref)
	assert.False(t, ok)
}

func TestEntityRefsAreIndependent(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	ids := []ecs.EntityId{
		storage.Spawn(Position{X: 1}),
		storage.Spawn(Position{X: 2}),
		storage.Spawn(Position{X: 3}),
	}
	refs := make([]*ecs.EntityRef, len(ids))
	for i, id := range ids {
		refs[i] = storage.CreateEntityRef(id)
	}

	storage.InvalidateEntityRef(refs[1])

	for i, ref := range refs {
		resolved, ok := storage.ResolveEntityRef(ref)
		if i == 1 {
			assert.False(t, ok)
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, ids[i], resolved)
	}
}
