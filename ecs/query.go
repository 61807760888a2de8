package ecs

import (
	"iter"
	"slices"
	"unsafe"
)

// Query is a View that snapshots its matches once per frame.
//
// Execute collects the matching entities and their component pointers; Iter,
// Values and Len then read that snapshot, so structural changes made after
// Execute are not seen until the next Execute. The Scheduler executes every
// Query field of a system right before the system runs. Matching archetypes
// are visited in id order.
type Query[T any] struct {
	view    *View[T]
	storage *Storage

	archetypes     []*Archetype
	archetypeCount int

	ids      []EntityId
	items    []T
	executed bool
}

func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init binds q to storage and drops any snapshot. The Scheduler calls it
// when a system with a Query field is registered.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
	q.storage = storage
	q.archetypes = nil
	q.archetypeCount = -1
	q.executed = false
}

// Execute takes a fresh snapshot of the matching entities.
func (q *Query[T]) Execute() {
	if n := len(q.storage.archetypes); n != q.archetypeCount {
		q.archetypeCount = n
		q.archetypes = q.view.matching()
	}

	clear(q.items)
	q.ids = q.ids[:0]
	q.items = q.items[:0]

	var item T
	ptr := unsafe.Pointer(&item)
	for _, a := range q.archetypes {
		indices := q.view.buildStorageIndices(a)
		for index := range a.storages[0].Iter() {
			if !q.view.populateResult(ptr, a, index, indices) {
				continue
			}
			q.ids = append(q.ids, NewEntityId(a.id, uint32(index)))
			q.items = append(q.items, item)
		}
	}
	q.executed = true
}

func (q *Query[T]) mustBeExecuted() {
	if !q.executed {
		panic("ecs: Query read before Execute")
	}
}

// Iter yields the id and components of every entity in the snapshot.
// It panics if Execute has never been called.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	q.mustBeExecuted()
	return func(yield func(EntityId, T) bool) {
		for i, id := range q.ids {
			if !yield(id, q.items[i]) {
				return
			}
		}
	}
}

// Values yields the components of every entity in the snapshot.
// It panics if Execute has never been called.
func (q *Query[T]) Values() iter.Seq[T] {
	q.mustBeExecuted()
	return slices.Values(q.items)
}

// Len returns the number of entities in the snapshot.
func (q *Query[T]) Len() int {
	q.mustBeExecuted()
	return len(q.ids)
}
