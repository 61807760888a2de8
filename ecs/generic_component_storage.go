package ecs

import (
	"iter"
	"reflect"
)

// ComponentRegistry manages component type registration for an ECS instance.
// Each Storage instance has its own ComponentRegistry, allowing multiple
// independent ECS systems to coexist without interference.
type ComponentRegistry struct {
	factories map[reflect.Type]func() iComponentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() iComponentStorage),
	}
}

// RegisterComponent registers a new component type with the given registry.
// This must be called for each component type before it can be used.
func RegisterComponent[T any](r *ComponentRegistry) {
	r.factories[reflect.TypeFor[T]()] = func() iComponentStorage {
		return &genericComponentStorage[T]{}
	}
}

// Registered reports whether t has been registered with r.
func (r *ComponentRegistry) Registered(t reflect.Type) bool {
	_, ok := r.factories[t]
	return ok
}

// getFactory returns the factory function for a given component type.
// Returns nil if the type is not registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	return r.factories[t]
}

const genericBlockSize = 64

type block[T any] struct {
	items  [genericBlockSize]T
	filled [genericBlockSize]bool
}

// genericComponentStorage stores components of type T in fixed-size blocks
// that are allocated once and never moved, so a pointer returned by Get stays
// valid until the slot is deleted or the storage is compacted.
type genericComponentStorage[T any] struct {
	blocks    []*block[T]
	freeSlots []int
	nextIndex int
	count     int
}

func locate(index int) (blockIdx, slotIdx int) {
	return index / genericBlockSize, index % genericBlockSize
}

func (cs *genericComponentStorage[T]) slot(index int) (*block[T], int) {
	if index < 0 {
		return nil, 0
	}
	b, s := locate(index)
	if b >= len(cs.blocks) {
		return nil, 0
	}
	return cs.blocks[b], s
}

// Append adds a component to storage and returns its index.
// It returns -1 if item is neither a T nor a *T.
func (cs *genericComponentStorage[T]) Append(item any) int {
	var value T
	switch v := item.(type) {
	case *T:
		value = *v
	case T:
		value = v
	default:
		return -1
	}

	var index int
	if n := len(cs.freeSlots); n > 0 {
		index = cs.freeSlots[n-1]
		cs.freeSlots = cs.freeSlots[:n-1]
	} else {
		index = cs.nextIndex
		cs.nextIndex++
		if b, _ := locate(index); b >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new(block[T]))
		}
	}

	b, s := cs.slot(index)
	b.items[s] = value
	b.filled[s] = true
	cs.count++
	return index
}

// Get returns a pointer to the component at the given index, or nil.
func (cs *genericComponentStorage[T]) Get(index int) any {
	b, s := cs.slot(index)
	if b == nil || !b.filled[s] {
		return nil
	}
	return &b.items[s]
}

// Delete zeroes a component slot and makes it available for reuse.
func (cs *genericComponentStorage[T]) Delete(index int) {
	b, s := cs.slot(index)
	if b == nil || !b.filled[s] {
		return
	}
	var zero T
	b.items[s] = zero
	b.filled[s] = false
	cs.freeSlots = append(cs.freeSlots, index)
	cs.count--
}

// Has checks if a component exists at the given index.
func (cs *genericComponentStorage[T]) Has(index int) bool {
	b, s := cs.slot(index)
	return b != nil && b.filled[s]
}

// Len returns the number of stored components.
func (cs *genericComponentStorage[T]) Len() int {
	return cs.count
}

// Compact moves all components to the front of the storage, removing empty
// slots. It returns a mapping from old to new indices. Slots that were moved
// out of are zeroed, so pointers obtained before compaction no longer see
// live data.
func (cs *genericComponentStorage[T]) Compact() map[int]int {
	indexMap := make(map[int]int, cs.count)
	if cs.count == 0 {
		for _, b := range cs.blocks {
			*b = block[T]{}
		}
		if len(cs.blocks) > 1 {
			cs.blocks = cs.blocks[:1]
		}
		cs.freeSlots = nil
		cs.nextIndex = 0
		return indexMap
	}

	old := cs.blocks
	cs.blocks = make([]*block[T], (cs.count+genericBlockSize-1)/genericBlockSize)
	for i := range cs.blocks {
		cs.blocks[i] = new(block[T])
	}

	write := 0
	for read := 0; read < cs.nextIndex; read++ {
		rb, rs := locate(read)
		src := old[rb]
		if !src.filled[rs] {
			continue
		}
		wb, ws := locate(write)
		cs.blocks[wb].items[ws] = src.items[rs]
		cs.blocks[wb].filled[ws] = true
		indexMap[read] = write
		write++
	}
	for _, b := range old {
		*b = block[T]{}
	}

	cs.freeSlots = nil
	cs.nextIndex = write
	return indexMap
}

// Iter yields the indices of all stored components in ascending order.
func (cs *genericComponentStorage[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < cs.nextIndex; i++ {
			b, s := locate(i)
			if cs.blocks[b].filled[s] && !yield(i) {
				return
			}
		}
	}
}
