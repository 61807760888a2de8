package ecs_test

import "github.com/plus3/tempo/ecs"

// Components shared by the package tests.
type (
	Position  struct{ X, Y float32 }
	Velocity  struct{ DX, DY float32 }
	Name      struct{ Value string }
	Score     int32
	Inventory struct{ Items []string }

	Health struct {
		Current int
		Max     int
	}
)

func newTestRegistry() *ecs.ComponentRegistry {
	r := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](r)
	ecs.RegisterComponent[Velocity](r)
	ecs.RegisterComponent[Name](r)
	ecs.RegisterComponent[Health](r)
	ecs.RegisterComponent[Score](r)
	ecs.RegisterComponent[Inventory](r)
	return r
}
