package behavior

import (
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
)

// HolderSystem updates every holder component once per frame.
type HolderSystem struct {
	Holders ecs.Query[struct{ *coroutine.Holder }]

	Observer coroutine.Observer
}

// Execute implements ecs.System.
func (s *HolderSystem) Execute(*ecs.UpdateFrame) {
	for e := range s.Holders.Values() {
		if e.Holder.Observer == nil && s.Observer != nil {
			e.Holder.Observer = s.Observer
		}
		e.Holder.Update()
	}
}
