package ecs

import (
	"iter"
	"reflect"
	"slices"
	"strings"
	"weak"

	"github.com/kamstrup/intmap"
)

// sortTypes orders component types by name, the canonical archetype order.
func sortTypes(types []reflect.Type) {
	slices.SortFunc(types, func(a, b reflect.Type) int {
		return strings.Compare(a.String(), b.String())
	})
}

// Archetype stores every entity that has exactly one set of component types,
// one storage per type. An entity's index is the same in all storages.
type Archetype struct {
	id       uint32
	types    []reflect.Type
	storages []iComponentStorage
	// refs tracks the EntityRefs handed out for entities of this archetype,
	// so they can follow moves and observe deletion.
	refs *intmap.Map[EntityId, weak.Pointer[EntityRef]]
}

// NewArchetype creates an archetype for the given sorted component types.
// It panics if a type is not registered.
func NewArchetype(id uint32, types []reflect.Type, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:       id,
		types:    types,
		storages: make([]iComponentStorage, len(types)),
		refs:     intmap.New[EntityId, weak.Pointer[EntityRef]](64),
	}
	for i, typ := range types {
		factory := registry.getFactory(typ)
		if factory == nil {
			panic("component type " + typ.String() + " not registered")
		}
		a.storages[i] = factory()
	}
	return a
}

// Spawn appends one entity made of components, one per archetype type in
// any order, and returns its index.
func (a *Archetype) Spawn(components []any) uint32 {
	index := -1
	for _, comp := range components {
		compType := reflect.TypeOf(comp)
		if compType.Kind() == reflect.Ptr {
			compType = compType.Elem()
		}
		i := a.indexOf(compType)
		if i < 0 {
			panic("component type " + compType.String() + " is not part of archetype")
		}
		index = a.storages[i].Append(comp)
	}
	return uint32(index)
}

func (a *Archetype) indexOf(compType reflect.Type) int {
	return slices.Index(a.types, compType)
}

// Len returns the number of live entities.
func (a *Archetype) Len() int {
	if len(a.storages) == 0 {
		return 0
	}
	return a.storages[0].Len()
}

// GetComponent returns a pointer to the compType component of the entity at
// entityIndex, or nil.
func (a *Archetype) GetComponent(entityIndex uint32, compType reflect.Type) any {
	if i := a.indexOf(compType); i >= 0 {
		return a.storages[i].Get(int(entityIndex))
	}
	return nil
}

// Delete frees the slot at entityIndex and invalidates its EntityRef.
// Other indices are unaffected.
func (a *Archetype) Delete(entityIndex uint32) {
	id := NewEntityId(a.id, entityIndex)
	if wp, ok := a.refs.Get(id); ok {
		if ref := wp.Value(); ref != nil {
			ref.Id = 0
			ref.Archetype = nil
		}
		a.refs.Del(id)
	}
	for _, s := range a.storages {
		s.Delete(int(entityIndex))
	}
}

// HasComponent reports whether compType is one of the archetype's types.
func (a *Archetype) HasComponent(compType reflect.Type) bool {
	return a.indexOf(compType) >= 0
}

func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the component types in canonical order.
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Compact packs live entities to the front of every storage. Live EntityRefs
// are moved to the new indices and dead ones are dropped. Entity ids and
// component pointers taken before Compact are invalid afterwards.
func (a *Archetype) Compact() {
	if len(a.storages) == 0 {
		return
	}
	moved := a.storages[0].Compact()
	for _, s := range a.storages[1:] {
		s.Compact()
	}

	refs := intmap.New[EntityId, weak.Pointer[EntityRef]](max(a.refs.Len(), 8))
	for from, to := range moved {
		wp, ok := a.refs.Get(NewEntityId(a.id, uint32(from)))
		if !ok {
			continue
		}
		if ref := wp.Value(); ref != nil {
			ref.Id = NewEntityId(a.id, uint32(to))
			refs.Put(ref.Id, wp)
		}
	}
	a.refs = refs
}

// Iter yields the id of every live entity in index order.
func (a *Archetype) Iter() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		if len(a.storages) == 0 {
			return
		}
		for index := range a.storages[0].Iter() {
			if !yield(NewEntityId(a.id, uint32(index))) {
				return
			}
		}
	}
}
