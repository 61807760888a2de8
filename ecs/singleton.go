package ecs

import "reflect"

// Singleton is a typed handle to a storage singleton: a single component
// value owned by the storage rather than by an entity, such as clocks,
// input state or configuration.
//
// A Singleton field of a system is bound by the Scheduler when the system
// is registered. The pointer returned by Get stays valid for the lifetime
// of the storage unless the singleton is removed, since AddSingleton
// replaces values in place.
type Singleton[T any] struct {
	storage *Storage
	value   *T
}

// NewSingleton returns a handle to the T singleton of storage, adding it
// first if it does not exist. The added value is initializer[0] if given,
// the zero T otherwise. An existing singleton is left untouched.
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	if storage.getSingletonEntry(reflect.TypeFor[T]()) == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		storage.AddSingleton(value)
	}
	s := &Singleton[T]{}
	s.Init(storage)
	return s
}

// Init binds s to storage.
func (s *Singleton[T]) Init(storage *Storage) {
	s.storage = storage
	s.value = nil
	s.resolve()
}

func (s *Singleton[T]) resolve() {
	if s.value != nil || s.storage == nil {
		return
	}
	if entry := s.storage.getSingletonEntry(reflect.TypeFor[T]()); entry != nil {
		s.value = (*T)(entry.dataPtr)
	}
}

// Get returns the singleton value, or nil if storage has none.
func (s *Singleton[T]) Get() *T {
	s.resolve()
	return s.value
}

// Set stores v as the singleton value, adding the singleton if needed.
func (s *Singleton[T]) Set(v T) {
	if p := s.Get(); p != nil {
		*p = v
		return
	}
	s.storage.AddSingleton(v)
	s.resolve()
}

// Exists reports whether storage holds a T singleton.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
