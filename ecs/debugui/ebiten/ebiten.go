// Package ebiten connects the debug windows to an Ebiten game loop.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/tempo/ecs"
)

// ImguiBackend is stored as a singleton so systems and the game loop share
// one Dear ImGui context.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// Overlay wraps one scheduler tick in an ImGui frame and draws the result
// over the game.
type Overlay struct {
	backend *ecs.Singleton[ImguiBackend]
}

// NewOverlay creates the Ebiten ImGui backend and stores it in storage.
func NewOverlay(storage *ecs.Storage, title string, width, height int) *Overlay {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	return &Overlay{
		backend: ecs.NewSingleton[ImguiBackend](storage, ImguiBackend{EbitenBackend: backend}),
	}
}

// Tick runs fn between the ImGui frame begin and end calls.
func (o *Overlay) Tick(fn func()) {
	b := o.backend.Get()
	b.BeginFrame()
	fn()
	b.EndFrame()
}

func (o *Overlay) Draw(screen *ebiten.Image) {
	o.backend.Get().Draw(screen)
}

func (o *Overlay) Layout(width, height int) {
	o.backend.Get().Layout(width, height)
}
