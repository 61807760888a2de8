package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/ecs/debugui"
	debugui_ebiten "github.com/plus3/tempo/ecs/debugui/ebiten"
	"github.com/plus3/tempo/fsm"
	"go.uber.org/zap"
)

var palette = []color.RGBA{
	{255, 179, 186, 255},
	{179, 229, 252, 255},
	{255, 223, 186, 255},
	{186, 255, 201, 255},
	{217, 186, 255, 255},
}

var stateColors = [guardStates]color.RGBA{
	statePatrol: {120, 170, 255, 255},
	stateAlert:  {255, 210, 90, 255},
	stateChase:  {255, 90, 90, 255},
}

// Game implements ebiten.Game on top of a world.
type Game struct {
	world   *world
	overlay *debugui_ebiten.Overlay
	logger  *zap.Logger

	frozen bool
	imgui  *ecs.Singleton[debugui.ImguiInputState]

	machines *ecs.View[struct {
		*Position
		*fsm.StateMachine
	}]
	sparks *ecs.View[struct {
		*Position
		*Spark
	}]
	beacons *ecs.View[struct {
		*Position
		*Beacon
	}]
}

func newGame(w *world, overlay *debugui_ebiten.Overlay, logger *zap.Logger) *Game {
	g := &Game{
		world:   w,
		overlay: overlay,
		logger:  logger,
	}
	g.machines = ecs.NewView[struct {
		*Position
		*fsm.StateMachine
	}](w.storage)
	g.sparks = ecs.NewView[struct {
		*Position
		*Spark
	}](w.storage)
	g.beacons = ecs.NewView[struct {
		*Position
		*Beacon
	}](w.storage)
	if overlay != nil {
		g.imgui = ecs.NewSingleton[debugui.ImguiInputState](w.storage)
	}
	return g
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleKeys()

	cursor := g.world.cursor.Get()
	mx, my := ebiten.CursorPosition()
	cursor.X, cursor.Y = float64(mx), float64(my)
	cursor.Present = !(g.imgui != nil && g.imgui.Get().WantCaptureMouse) &&
		mx >= 0 && my >= 0 && mx < worldWidth && my < worldHeight

	dt := 1.0 / float64(ebiten.TPS())
	if g.overlay != nil {
		g.overlay.Tick(func() { g.world.scheduler.Once(dt) })
	} else {
		g.world.scheduler.Once(dt)
	}
	return nil
}

func (g *Game) handleKeys() {
	s := g.world.scheduler
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		s.SetPaused(!s.Paused())
		g.logger.Info("pause toggled", zap.Bool("paused", s.Paused()))
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		s.SetTimeScale(min(s.TimeScale()*2, 8))
		g.logger.Info("time scale", zap.Float64("scale", s.TimeScale()))
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		s.SetTimeScale(max(s.TimeScale()/2, 0.125))
		g.logger.Info("time scale", zap.Float64("scale", s.TimeScale()))
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		// Freezing stops coroutines but leaves movement and state updates running.
		if g.frozen {
			g.world.registry.ResumeAll()
		} else {
			g.world.registry.PauseAll()
		}
		g.frozen = !g.frozen
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.world.registry.CancelAll()
		g.logger.Info("cancelled all coroutines", zap.Int("count", g.world.registry.Len()))
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{24, 26, 32, 255})

	for b := range g.beacons.Values() {
		c := palette[b.Beacon.Hue%len(palette)]
		vector.StrokeCircle(screen, float32(b.Position.X), float32(b.Position.Y), float32(b.Beacon.Radius), 3, c, true)
	}

	frame := g.world.scheduler.Frame()
	for s := range g.sparks.Values() {
		age := float64(frame-s.Spark.Born) / sparkFrames
		alpha := uint8(255 * max(1-age, 0))
		vector.DrawFilledCircle(screen, float32(s.Position.X), float32(s.Position.Y), 3, color.RGBA{alpha, alpha / 3, alpha / 3, alpha}, true)
	}

	for m := range g.machines.Values() {
		c := color.RGBA{200, 200, 200, 255}
		if st := m.StateMachine.State(); st != fsm.NoState {
			c = stateColors[st]
		}
		vector.DrawFilledCircle(screen, float32(m.Position.X), float32(m.Position.Y), 7, c, true)
		if m.StateMachine.State() == stateChase || m.StateMachine.State() == stateAlert {
			vector.StrokeCircle(screen, float32(m.Position.X), float32(m.Position.Y), noticeRange, 1, color.RGBA{c.R, c.G, c.B, 60}, true)
		}
	}

	s := g.world.scheduler
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"frame %d  scale x%.3g  paused %t  frozen %t  coroutines %d  fps %.0f\n"+
			"[P] pause  [+/-] time scale  [space] freeze coroutines  [C] cancel all  [Q] quit",
		s.Frame(), s.TimeScale(), s.Paused(), g.frozen, g.world.registry.Len(), ebiten.ActualFPS(),
	))

	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.overlay != nil {
		g.overlay.Layout(worldWidth, worldHeight)
	}
	return worldWidth, worldHeight
}

var _ coroutine.Observer = (*logObserver)(nil)

// logObserver logs state changes at debug level.
type logObserver struct {
	logger *zap.Logger
}

func (o *logObserver) TaskStepped()   {}
func (o *logObserver) TaskFinished()  { o.logger.Debug("task finished") }
func (o *logObserver) TaskCancelled() { o.logger.Debug("task cancelled") }

func (o *logObserver) StateChanged(from, to int) {
	o.logger.Debug("guard state changed", zap.Int("from", from), zap.Int("to", to))
}
