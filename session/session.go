// Package session assembles input, the camera rig, the skybox pipeline and
// the frame orchestrator from a configuration, and exposes the three calls
// a host loop makes: Start, OnInitialize and OnRender.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"spaceflight/config"
	"spaceflight/input"
	"spaceflight/renderer"
	"spaceflight/rig"
	"spaceflight/scene"
	"spaceflight/skybox"
)

var ErrNotStarted = errors.New("session: not started")

// Device is the renderer device plus the resources a session allocates
// before the first frame.
type Device interface {
	renderer.Device
	skybox.FaceUploader
	NewCubemap(size int) (skybox.Cubemap, error)
	DeleteCubemap(cube skybox.Cubemap)
	SetEnvironment(diffuse skybox.Cubemap, brdf *scene.Texture) error
}

// Surface is the input source. It resolves key names to its own key codes
// and forwards events to a sink.
type Surface interface {
	AttachInput(sink input.Sink)
	Bindings(controls map[string]string) (input.Bindings, error)
}

// FrameState describes one refresh. Tick counts 60 Hz intervals.
type FrameState struct {
	Tick   float64
	Width  int
	Height int
}

// Resources are the GPU objects created by OnInitialize.
type Resources struct {
	Current skybox.Cubemap
	Next    skybox.Cubemap
	Diffuse skybox.Cubemap
	BRDF    *scene.Texture
}

type Session struct {
	cfg    config.Settings
	device Device
	target skybox.Target
	logger *slog.Logger

	// Loader may be given a different LoadFunc before Start.
	Loader *scene.Loader

	input *input.State
	rig   *rig.Rig
	sky   *skybox.Pipeline
	orch  *renderer.Orchestrator
}

// New creates a session. A nil target selects one from
// cfg.Skybox.Generator: "gpu" renders faces on device, "cpu" generates them
// with a noise field and uploads them through device.
func New(cfg config.Settings, device Device, target skybox.Target, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:    cfg,
		device: device,
		target: target,
		logger: logger,
		Loader: scene.NewLoader(logger),
		rig: rig.New(rig.ParseDiscipline(cfg.Camera.Discipline),
			mgl32.Vec3(cfg.Camera.ShipDelta)),
	}
}

func (s *Session) Input() *input.State   { return s.input }
func (s *Session) Rig() *rig.Rig         { return s.rig }
func (s *Session) Sky() *skybox.Pipeline { return s.sky }

// Stats reports the draws of the last frame.
func (s *Session) Stats() renderer.Stats {
	if s.orch == nil {
		return renderer.Stats{}
	}
	return s.orch.Stats()
}

// Start binds the controls to surface and begins loading the model in the
// background.
func (s *Session) Start(surface Surface) error {
	bindings, err := surface.Bindings(s.cfg.Controls)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	s.input = input.NewState(bindings)
	surface.AttachInput(s.input)

	s.Loader.Start(s.cfg.Assets.Model)
	s.logger.Info("session started",
		"model", s.cfg.Assets.Model,
		"discipline", s.rig.Camera.Discipline,
		"generator", s.cfg.Skybox.Generator,
		"policy", s.cfg.Skybox.Policy)
	return nil
}

// OnInitialize allocates the sky cubemaps, the diffuse environment and the
// BRDF table, and builds the frame orchestrator. Call it once, after Start,
// on the render thread. On error the cubemaps it created are deleted.
func (s *Session) OnInitialize() (_ *Resources, err error) {
	if s.input == nil {
		return nil, ErrNotStarted
	}
	sc := s.cfg.Skybox

	policy, err := skybox.ParsePolicy(sc.Policy)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	res := &Resources{}
	defer func() {
		if err == nil {
			return
		}
		for _, cube := range []skybox.Cubemap{res.Current, res.Next, res.Diffuse} {
			if cube != 0 {
				s.device.DeleteCubemap(cube)
			}
		}
	}()
	if res.Current, err = s.device.NewCubemap(sc.Resolution); err != nil {
		return nil, fmt.Errorf("session: sky cubemap: %w", err)
	}
	if res.Next, err = s.device.NewCubemap(sc.Resolution); err != nil {
		return nil, fmt.Errorf("session: sky cubemap: %w", err)
	}

	field := skybox.NewNoiseField(sc.Seed, sc.NoiseScale, sc.Parallax)
	if res.Diffuse, err = s.diffuseEnvironment(field); err != nil {
		return nil, err
	}
	res.BRDF = s.loadBRDF()
	if err = s.device.SetEnvironment(res.Diffuse, res.BRDF); err != nil {
		return nil, fmt.Errorf("session: environment: %w", err)
	}

	target, err := s.skyTarget(field)
	if err != nil {
		return nil, err
	}
	s.sky = skybox.NewPipeline(target, res.Current, res.Next, sc.BaseThreshold, policy)

	s.orch = renderer.NewOrchestrator(renderer.Parts{
		Device: s.device,
		Rig:    s.rig,
		Input:  s.input,
		Mapper: input.NewMapper(MapperParams(s.cfg)),
		Sky:    s.sky,
		Scenes: s.Loader,
	}, RenderOptions(s.cfg), s.logger)
	return res, nil
}

// OnRender draws one frame. It reports false until OnInitialize succeeded.
func (s *Session) OnRender(fs FrameState) bool {
	if s.orch == nil {
		return false
	}
	s.orch.Render(renderer.FrameInfo{
		Tick:   fs.Tick,
		Width:  fs.Width,
		Height: fs.Height,
	})
	return true
}

// diffuseEnvironment fills a small cubemap with the sky as seen from the
// origin; it stands in for a blurred irradiance map.
func (s *Session) diffuseEnvironment(field *skybox.NoiseField) (skybox.Cubemap, error) {
	size := s.cfg.Skybox.DiffuseSize
	cube, err := s.device.NewCubemap(size)
	if err != nil {
		return 0, fmt.Errorf("session: diffuse cubemap: %w", err)
	}
	faces, err := skybox.GenerateCubemap(context.Background(), field, size, mgl32.Vec3{})
	if err == nil {
		for f, rgb := range faces {
			if err = s.device.UploadFace(cube, skybox.Face(f), size, rgb); err != nil {
				break
			}
		}
	}
	if err != nil {
		s.device.DeleteCubemap(cube)
		return 0, fmt.Errorf("session: diffuse environment: %w", err)
	}
	return cube, nil
}

// loadBRDF reads the lookup table, falling back to a constant scale of one
// with no bias.
func (s *Session) loadBRDF() *scene.Texture {
	tex, err := scene.LoadTexture(s.cfg.Assets.BRDFLUT)
	if err != nil {
		s.logger.Warn("brdf lut unavailable, using flat fallback", "err", err)
		return scene.NewSolidTexture("brdf-fallback", 255, 0, 0, 255)
	}
	return tex
}

func (s *Session) skyTarget(field *skybox.NoiseField) (skybox.Target, error) {
	if s.target != nil {
		return s.target, nil
	}
	switch s.cfg.Skybox.Generator {
	case "cpu":
		return &skybox.CPUTarget{Field: field, Size: s.cfg.Skybox.Resolution, Uploader: s.device}, nil
	case "gpu", "":
		t, ok := s.device.(skybox.Target)
		if !ok {
			return nil, errors.New("session: device cannot render skybox faces")
		}
		return t, nil
	default:
		return nil, fmt.Errorf("session: unknown skybox generator %q", s.cfg.Skybox.Generator)
	}
}

// MapperParams converts the camera and ship settings into mapper rates.
func MapperParams(cfg config.Settings) input.Params {
	p := input.DefaultParams()
	p.BaseRate = cfg.Camera.BaseRate
	p.BoostFactor = cfg.Camera.BoostFactor
	p.RotationRate = cfg.Camera.RotationRate
	p.PointerSensitivity = cfg.Camera.PointerSensitivity
	p.ThrustGain = cfg.Ship.ThrustGain
	p.ThrustDecay = cfg.Ship.ThrustDecay
	p.MaxShipVelocity = cfg.Ship.MaxVelocity
	return p
}

// RenderOptions converts the camera, shadow and lighting settings into
// orchestrator options.
func RenderOptions(cfg config.Settings) renderer.Options {
	h := cfg.Shadow.HalfExtent
	return renderer.Options{
		FOV:              cfg.Camera.FOV,
		Near:             cfg.Camera.Near,
		Far:              cfg.Camera.Far,
		ShadowProjection: mgl32.Ortho(-h, h, -h, h, 0, cfg.Shadow.Far),
		EngineOffset:     mgl32.Vec3(cfg.Ship.EngineOffset),
		EngineColor:      mgl32.Vec3(cfg.Lighting.EngineColor),
		AmbientColor:     mgl32.Vec3(cfg.Lighting.AmbientColor),
		Attenuation:      cfg.Lighting.Attenuation,
		BaseThreshold:    cfg.Skybox.BaseThreshold,
		Receivers:        cfg.Shadow.Receivers,
	}
}
