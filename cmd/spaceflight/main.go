// spaceflight flies a glTF ship through a procedurally generated starfield.
//
// Controls (defaults, see config):
//
//	W/S/A/D     - Thrust forward/back, strafe left/right
//	Z/C         - Move up/down
//	Q/E         - Roll left/right
//	Shift       - Boost
//	X           - Reset camera
//	V           - Toggle free camera
//	L           - Toggle camera light
//	P           - Toggle debug markers
//	Click       - Lock pointer
//	Esc         - Release pointer
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spaceflight/config"
	"spaceflight/core"
	"spaceflight/internal/opengl"
	"spaceflight/scene"
	"spaceflight/session"
)

var (
	configPath  string
	skyboxRes   int
	progressive bool
	generator   string
	width       int
	height      int
	logLevel    string
)

func main() {
	cmd := &cobra.Command{
		Use:   "spaceflight [model.gltf|model.obj]",
		Short: "Interactive spaceflight demo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			return run(cfg, newLogger(logLevel))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML settings file")
	cmd.Flags().IntVar(&skyboxRes, "skybox-res", 0, "Skybox face resolution")
	cmd.Flags().BoolVar(&progressive, "progressive", true, "Regenerate one skybox face per frame")
	cmd.Flags().StringVar(&generator, "generator", "", "Skybox generator (gpu|cpu)")
	cmd.Flags().IntVar(&width, "width", 0, "Window width")
	cmd.Flags().IntVar(&height, "height", 0, "Window height")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")

	infoCmd := &cobra.Command{
		Use:   "info <model.gltf|model.obj>",
		Short: "Display model information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0], newLogger(logLevel))
		},
	}
	cmd.AddCommand(infoCmd)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings reads the config file and applies the flags that were set.
func loadSettings(cmd *cobra.Command, args []string) (config.Settings, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if len(args) == 1 {
		cfg.Assets.Model = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("skybox-res") {
		cfg.Skybox.Resolution = skyboxRes
	}
	if flags.Changed("progressive") {
		if progressive {
			cfg.Skybox.Policy = "progressive"
		} else {
			cfg.Skybox.Policy = "instant"
		}
	}
	if flags.Changed("generator") {
		cfg.Skybox.Generator = generator
	}
	if flags.Changed("width") {
		cfg.Window.Width = width
	}
	if flags.Changed("height") {
		cfg.Window.Height = height
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func run(cfg config.Settings, logger *slog.Logger) error {
	window, err := core.NewWindow(core.WindowConfig{
		Width:            cfg.Window.Width,
		Height:           cfg.Window.Height,
		Title:            cfg.Window.Title,
		Resizable:        true,
		VSync:            cfg.Window.VSync,
		FullscreenOnLock: cfg.Window.Fullscreen,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	opts := opengl.DefaultOptions()
	opts.ShadowSize = cfg.Shadow.Resolution
	opts.NoiseScale = cfg.Skybox.NoiseScale
	opts.Parallax = cfg.Skybox.Parallax
	device, err := opengl.NewDevice(opts, logger)
	if err != nil {
		return err
	}
	defer device.Destroy()

	s := session.New(cfg, device, nil, logger)
	if err := s.Start(window); err != nil {
		return err
	}
	if _, err := s.OnInitialize(); err != nil {
		return err
	}

	lastTitle := 0.0
	for !window.ShouldClose() {
		window.PollEvents()

		now := window.Time()
		w, h := window.GetFramebufferSize()
		s.OnRender(session.FrameState{Tick: now * 60, Width: w, Height: h})
		window.SwapBuffers()

		if now-lastTitle > 0.5 {
			lastTitle = now
			st := s.Stats()
			window.SetTitle(fmt.Sprintf("%s | %d meshes, %d tris | speed %.3f",
				cfg.Window.Title, st.Meshes, st.Triangles, s.Rig().Ship.Speed()))
		}
	}
	return nil
}

func runInfo(path string, logger *slog.Logger) error {
	sc, err := scene.LoadModel(path, logger)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	drawables := sc.Drawables()
	tris := 0
	names := make([]string, 0, len(drawables))
	for _, d := range drawables {
		tris += d.Mesh.IndexCount() / 3
		names = append(names, d.Mesh.Name)
	}

	fmt.Printf("Model:     %s\n", path)
	fmt.Printf("Meshes:    %d\n", len(drawables))
	fmt.Printf("Triangles: %d\n", tris)
	fmt.Printf("Names:     %s\n", strings.Join(names, ", "))
	return nil
}
