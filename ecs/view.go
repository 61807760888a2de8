package ecs

import (
	"cmp"
	"iter"
	"reflect"
	"slices"
	"unsafe"
)

// viewField is one component pointer field of a view struct.
type viewField struct {
	typ      reflect.Type
	offset   uintptr
	optional bool
}

// View binds a struct type to the entities whose components fill it.
//
// Every field of T is either a pointer to a component type or an EntityId.
// Embedded pointer fields are required. Named pointer fields are required
// unless tagged `ecs:"optional"`, in which case they are nil for entities
// lacking the component. At most one EntityId field, embedded or named,
// receives the id of the entity.
//
// Fields point straight into archetype storage, so writes through them
// update the entity in place.
type View[T any] struct {
	storage *Storage
	fields  []viewField

	hasId    bool
	idOffset uintptr
}

var entityIdType = reflect.TypeFor[EntityId]()

// NewView returns a View of T over storage. It panics if T is not a struct,
// or has a field that is neither a pointer nor an EntityId, an unknown ecs
// tag, or more than one EntityId field.
func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("ecs: View type parameter must be a struct")
	}

	v := &View[T]{
		storage: storage,
		fields:  make([]viewField, 0, structType.NumField()),
	}
	for i := range structType.NumField() {
		field := structType.Field(i)

		if field.Type == entityIdType {
			if v.hasId {
				panic("ecs: View struct has more than one EntityId field")
			}
			v.hasId, v.idOffset = true, field.Offset
			continue
		}
		if field.Type.Kind() != reflect.Ptr {
			panic("ecs: View struct fields must be pointer types or EntityId")
		}

		optional := false
		if tag := field.Tag.Get("ecs"); tag != "" && !field.Anonymous {
			if tag != "optional" {
				panic("ecs: invalid ecs tag value " + `"` + tag + `"` + `, only "optional" is supported`)
			}
			optional = true
		}
		v.fields = append(v.fields, viewField{
			typ:      field.Type.Elem(),
			offset:   field.Offset,
			optional: optional,
		})
	}
	return v
}

func (v *View[T]) setId(structPtr unsafe.Pointer, id EntityId) {
	if v.hasId {
		*(*EntityId)(unsafe.Add(structPtr, v.idOffset)) = id
	}
}

// bind points field f of the struct at structPtr to component, which is a
// pointer held in an interface, or clears it when component is nil. It
// reports false if a required component is missing.
func (f *viewField) bind(structPtr unsafe.Pointer, component any) bool {
	slot := (*unsafe.Pointer)(unsafe.Add(structPtr, f.offset))
	if component == nil {
		*slot = nil
		return f.optional
	}
	*slot = (*iface)(unsafe.Pointer(&component)).data
	return true
}

// Fill points the fields of *ptr at the components of entity id. It reports
// false if the entity is unknown or lacks a required component.
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	archetype, ok := v.storage.archetypes[id.ArchetypeId()]
	if !ok {
		return false
	}

	structPtr := unsafe.Pointer(ptr)
	v.setId(structPtr, id)
	for i := range v.fields {
		f := &v.fields[i]
		if !f.bind(structPtr, archetype.GetComponent(id.Index(), f.typ)) {
			return false
		}
	}
	return true
}

// Get returns the view of entity id, or nil if it does not match.
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// GetRef is Get for the entity ref points at. It returns nil for an
// invalidated ref.
func (v *View[T]) GetRef(ref *EntityRef) *T {
	id, ok := v.storage.ResolveEntityRef(ref)
	if !ok {
		return nil
	}
	return v.Get(id)
}

func (v *View[T]) matchesArchetype(archetype *Archetype) bool {
	for _, f := range v.fields {
		if !f.optional && !archetype.HasComponent(f.typ) {
			return false
		}
	}
	return true
}

// buildStorageIndices maps each field to its storage in archetype, -1 when
// the archetype lacks the component.
func (v *View[T]) buildStorageIndices(archetype *Archetype) []int {
	indices := make([]int, len(v.fields))
	for i, f := range v.fields {
		indices[i] = archetype.indexOf(f.typ)
	}
	return indices
}

func (v *View[T]) populateResult(resultPtr unsafe.Pointer, archetype *Archetype, entityIndex int, storageIndices []int) bool {
	v.setId(resultPtr, NewEntityId(archetype.id, uint32(entityIndex)))
	for i, storageIdx := range storageIndices {
		var component any
		if storageIdx >= 0 {
			component = archetype.storages[storageIdx].Get(entityIndex)
		}
		if !v.fields[i].bind(resultPtr, component) {
			return false
		}
	}
	return true
}

// matching returns the archetypes that satisfy v, in id order.
func (v *View[T]) matching() []*Archetype {
	var out []*Archetype
	for _, a := range v.storage.archetypes {
		if len(a.storages) > 0 && v.matchesArchetype(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b *Archetype) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// Iter yields the id and view of every matching entity. Archetypes are
// visited in id order. Unlike a Query, Iter reads live storage, so it must
// not be used while entities are being added or removed.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		var result T
		resultPtr := unsafe.Pointer(&result)
		for _, archetype := range v.matching() {
			indices := v.buildStorageIndices(archetype)
			for entityIndex := range archetype.storages[0].Iter() {
				if !v.populateResult(resultPtr, archetype, entityIndex, indices) {
					continue
				}
				if !yield(NewEntityId(archetype.id, uint32(entityIndex)), result) {
					return
				}
			}
		}
	}
}

// Values is Iter without the ids.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates an entity from the components data points at. Nil optional
// fields are skipped; a nil required field panics.
func (v *View[T]) Spawn(data T) EntityId {
	structPtr := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.fields))
	for _, f := range v.fields {
		componentPtr := *(*unsafe.Pointer)(unsafe.Add(structPtr, f.offset))
		if componentPtr == nil {
			if !f.optional {
				panic("ecs: required component " + f.typ.String() + " is nil in View.Spawn")
			}
			continue
		}
		components = append(components, reflect.NewAt(f.typ, componentPtr).Elem().Interface())
	}
	return v.storage.Spawn(components...)
}
