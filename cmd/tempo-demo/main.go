// Command tempo-demo opens a window with guards whose behavior is driven by
// state machines and coroutines. Guards patrol, notice the cursor, and chase
// it while leaving a fading trail.
package main

import (
	"fmt"
	"os"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/tempo/behavior"
	"github.com/plus3/tempo/config"
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/ecs/debugui"
	debugui_ebiten "github.com/plus3/tempo/ecs/debugui/ebiten"
	"github.com/plus3/tempo/fsm"
	"github.com/plus3/tempo/telemetry"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		guards     int
		debugUI    bool
	)

	cmd := &cobra.Command{
		Use:          "tempo-demo",
		Short:        "Watch state machines and coroutines drive a crowd of guards",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("guards") {
				guards = min(cfg.Simulation.Entities, 200)
			}
			return play(cfg, guards, debugUI)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (YAML)")
	cmd.Flags().IntVarP(&guards, "guards", "n", 40, "number of guards")
	cmd.Flags().BoolVar(&debugUI, "debug-ui", false, "show the ImGui behavior browser and performance windows")
	return cmd
}

func play(cfg config.Config, guards int, debugUI bool) error {
	logger, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ecs.SetLogger(logger.Named("ecs"))
	coroutine.SetLogger(logger.Named("coroutine"))
	fsm.SetLogger(logger.Named("fsm"))

	var register func(*ecs.ComponentRegistry)
	if debugUI {
		register = func(r *ecs.ComponentRegistry) {
			ecs.RegisterComponent[debugui_ebiten.ImguiBackend](r)
			debugui.RegisterDebugUIComponents(r)
		}
	}

	observer := &logObserver{logger: logger.Named("demo")}
	w := newWorld(guards, cfg.Simulation.Seed, behavior.Options{
		Observer:      observer,
		StateObserver: observer,
	}, register)
	w.scheduler.SetTimeScale(cfg.Simulation.TimeScale)

	ebiten.SetWindowSize(worldWidth, worldHeight)
	ebiten.SetWindowTitle("tempo demo")
	ebiten.SetTPS(cfg.Simulation.TickRate)

	var overlay *debugui_ebiten.Overlay
	if debugUI {
		overlay = debugui_ebiten.NewOverlay(w.storage, "tempo demo", worldWidth, worldHeight)
		imgui.CurrentIO().SetIniFilename("")
		debugui.SpawnDebugUI(w.storage)
		w.scheduler.Register(&debugui.ImguiSystem{})
		w.scheduler.Register(&debugui.PanelSystem{Scheduler: w.scheduler})
	}

	if err := ebiten.RunGame(newGame(w, overlay, logger)); err != nil {
		return fmt.Errorf("game loop: %w", err)
	}
	return nil
}
