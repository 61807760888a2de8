package ecs_test

import (
	"testing"

	"github.com/plus3/tempo/ecs"
)

func BenchmarkSpawn(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	b.ReportAllocs()
	for b.Loop() {
		storage.Spawn(Position{X: 1}, Velocity{DX: 1})
	}
}

func BenchmarkQueryIter(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	for i := range 10_000 {
		if i%2 == 0 {
			storage.Spawn(Position{}, Velocity{DX: 1})
		} else {
			storage.Spawn(Position{})
		}
	}
	query := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](storage)
	query.Execute()

	b.ResetTimer()
	for b.Loop() {
		for item := range query.Values() {
			item.Position.X += item.Velocity.DX
		}
	}
}

func BenchmarkSpawnDelete(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	b.ReportAllocs()
	for b.Loop() {
		id := storage.Spawn(Position{}, Health{Current: 1})
		storage.Delete(id)
	}
}
