// Package renderer drives one frame of the demo: input and ship motion,
// skybox regeneration, the shadow pass, the PBR pass, debug markers and the
// sky, in that order.
package renderer

import (
	"log/slog"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"spaceflight/input"
	smath "spaceflight/math"
	"spaceflight/rig"
	"spaceflight/scene"
	"spaceflight/skybox"
)

// SceneSource yields the loaded scene, or nil while it is still loading or
// after the load failed.
type SceneSource interface {
	Scene() *scene.Scene
}

type Options struct {
	// FOV is the vertical field of view in degrees.
	FOV  float32
	Near float32
	Far  float32

	ShadowProjection mgl32.Mat4
	// EngineOffset places the engine light in ship space.
	EngineOffset mgl32.Vec3
	EngineColor  mgl32.Vec3
	AmbientColor mgl32.Vec3
	Attenuation  float32

	// BaseThreshold is the smallest skybox regeneration distance. It grows
	// with the square of the ship speed.
	BaseThreshold float32

	// Receivers names the meshes or nodes drawn with shadow sampling.
	// Empty means all of them.
	Receivers []string
}

func DefaultOptions() Options {
	return Options{
		FOV:              45,
		Near:             0.1,
		Far:              500,
		ShadowProjection: mgl32.Ortho(-4, 4, -4, 4, 0, 64),
		EngineOffset:     mgl32.Vec3{0, 0.28, 6.7},
		EngineColor:      mgl32.Vec3{0.2, 0.5, 0.8},
		AmbientColor:     mgl32.Vec3{0.2, 0.5, 0.8},
		Attenuation:      0.01,
		BaseThreshold:    10,
	}
}

// Parts are the collaborators an Orchestrator drives.
type Parts struct {
	Device Device
	Rig    *rig.Rig
	Input  *input.State
	Mapper *input.Mapper
	Sky    *skybox.Pipeline
	Scenes SceneSource
}

// FrameInfo is the host's description of the frame being drawn. Tick counts
// 60 Hz refresh intervals since start.
type FrameInfo struct {
	Tick   float64
	Width  int
	Height int
}

// Stats counts the draws of the last frame.
type Stats struct {
	Meshes    int
	Shadowed  int
	Triangles int
	SkyDrawn  bool
}

type Orchestrator struct {
	Parts
	opts   Options
	logger *slog.Logger

	receivers map[string]bool
	cube      *scene.Mesh
	pyramid   *scene.Mesh

	lastTick float64
	started  bool
	stats    Stats
}

func NewOrchestrator(parts Parts, opts Options, logger *slog.Logger) *Orchestrator {
	receivers := make(map[string]bool, len(opts.Receivers))
	for _, name := range opts.Receivers {
		receivers[name] = true
	}
	return &Orchestrator{
		Parts:     parts,
		opts:      opts,
		logger:    logger,
		receivers: receivers,
		cube:      scene.CreateCube(1),
		pyramid:   scene.CreatePyramid(1, 1),
	}
}

// Stats returns the counters of the most recent Render.
func (o *Orchestrator) Stats() Stats { return o.stats }

// Projection is the perspective matrix for a width×height surface.
func (o *Orchestrator) Projection(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return mgl32.Perspective(mgl32.DegToRad(o.opts.FOV), aspect, o.opts.Near, o.opts.Far)
}

// PipelineFor picks the program a drawable is drawn with.
func (o *Orchestrator) PipelineFor(d scene.Drawable) Pipeline {
	if len(o.receivers) == 0 || o.receivers[d.Mesh.Name] || (d.Node != nil && o.receivers[d.Node.Name]) {
		return PipelinePBRShadowed
	}
	return PipelinePBR
}

// Render draws one frame.
func (o *Orchestrator) Render(f FrameInfo) {
	o.stats = Stats{}
	ticks := o.elapsed(f.Tick)

	o.Mapper.Update(o.Input, o.Rig, ticks)
	o.Mapper.Integrate(o.Rig.Ship, ticks, o.Input.ThrustHeld())
	v := o.Rig.Ship.Velocity
	o.Sky.SetThreshold(math32.Max(o.opts.BaseThreshold, v.Dot(v)*100))

	view := o.Rig.View(o.Input.Triggers.FreeCamera, o.Input.ConsumeTransition())
	viewPos := o.Rig.Camera.Position
	projection := o.Projection(f.Width, f.Height)

	skyErr := o.Sky.Update(viewPos)
	if skyErr != nil {
		o.logger.Warn("skybox regeneration failed", "err", skyErr)
	}

	o.Device.BeginFrame(f.Width, f.Height)

	shipWorld := o.Rig.Ship.World
	engineWorld := shipWorld.Mul4(mgl32.Translate3D(o.opts.EngineOffset[0], o.opts.EngineOffset[1], o.opts.EngineOffset[2]))
	engineLight := smath.Translation(engineWorld)
	lightVP := o.opts.ShadowProjection.Mul4(smath.InvertRigid(engineWorld)).Mul4(shipWorld)

	if sc := o.Scenes.Scene(); sc != nil {
		drawables := sc.Drawables()
		o.shadowPass(drawables, lightVP)
		o.mainPass(drawables, view, projection, lightVP, o.lighting(viewPos, engineLight))
	}

	if o.Input.Triggers.DebugObjects {
		o.drawMarkers(f.Tick, view, projection, engineLight)
	}

	if skyErr == nil {
		o.Device.DrawSkybox(view, projection, o.environment())
		o.stats.SkyDrawn = true
	}
}

// elapsed returns the ticks since the previous frame; the first frame is 0.
// The difference is taken in float64 so long sessions keep sub-tick deltas.
func (o *Orchestrator) elapsed(tick float64) float32 {
	if !o.started {
		o.started = true
		o.lastTick = tick
	}
	dt := tick - o.lastTick
	o.lastTick = tick
	if dt < 0 {
		return 0
	}
	return float32(dt)
}

func (o *Orchestrator) environment() Environment {
	return Environment{
		Current: o.Sky.Current(),
		Next:    o.Sky.Next(),
		Blend:   o.Sky.Blend(),
	}
}

// lighting puts the engine glow first; it is the light the shadow map is
// rendered from.
func (o *Orchestrator) lighting(viewPos, engineLight mgl32.Vec3) Lighting {
	lights := []PointLight{{
		Position:  engineLight,
		Color:     o.opts.EngineColor,
		Intensity: o.Rig.Ship.Thrust,
	}}
	if o.Input.Triggers.CameraLight {
		lights = append(lights, PointLight{
			Position:  viewPos,
			Color:     mgl32.Vec3{1, 0, 0},
			Intensity: 1,
		})
	}
	return Lighting{
		ViewPosition: viewPos,
		PointLights:  lights,
		Ambient:      o.opts.AmbientColor,
		Attenuation:  o.opts.Attenuation,
		Environment:  o.environment(),
	}
}

func (o *Orchestrator) shadowPass(drawables []scene.Drawable, lightVP mgl32.Mat4) {
	o.Device.BeginShadowPass()
	for _, d := range drawables {
		o.Device.DrawShadow(d.Mesh, lightVP.Mul4(d.World))
	}
	o.Device.EndShadowPass()
}

func (o *Orchestrator) mainPass(drawables []scene.Drawable, view, projection, lightVP mgl32.Mat4, l Lighting) {
	shipWorld := o.Rig.Ship.World
	vp := projection.Mul4(view)
	biased := smath.ShadowBias.Mul4(lightVP)

	o.Device.BeginMainPass(l)
	for _, d := range drawables {
		model := shipWorld.Mul4(d.World)
		p := o.PipelineFor(d)
		o.Device.DrawMesh(p, DrawCall{
			Mesh:       d.Mesh,
			MVP:        vp.Mul4(model),
			Model:      model,
			LightSpace: biased.Mul4(d.World),
		})

		o.stats.Meshes++
		if p == PipelinePBRShadowed {
			o.stats.Shadowed++
		}
		o.stats.Triangles += d.Mesh.IndexCount() / 3
	}
}

// drawMarkers draws two spinning reference shapes ahead of the origin, the
// ship's front/up/right axes as small cubes and the engine light position.
func (o *Orchestrator) drawMarkers(tick float64, view, projection mgl32.Mat4, engineLight mgl32.Vec3) {
	vp := projection.Mul4(view)
	phi := float32(math.Mod(tick*0.01, 2*math.Pi))

	o.Device.DrawDebug(o.pyramid, vp.
		Mul4(mgl32.Translate3D(-1.5, 0, -8)).
		Mul4(mgl32.HomogRotate3DY(phi)))
	o.Device.DrawDebug(o.cube, vp.
		Mul4(mgl32.Translate3D(1.5, 0, -8)).
		Mul4(mgl32.HomogRotate3DX(phi)).
		Mul4(mgl32.HomogRotate3DY(phi)).
		Mul4(mgl32.HomogRotate3DZ(phi)))

	ship := o.Rig.Ship
	small := mgl32.Scale3D(0.3, 0.3, 0.3)
	for _, axis := range []mgl32.Vec3{ship.Front, ship.Up, ship.Right} {
		offset := axis.Mul(3)
		o.Device.DrawDebug(o.cube, vp.
			Mul4(mgl32.Translate3D(offset[0], offset[1], offset[2])).
			Mul4(ship.World).
			Mul4(small))
	}

	o.Device.DrawDebug(o.pyramid, vp.
		Mul4(mgl32.Translate3D(engineLight[0], engineLight[1], engineLight[2])).
		Mul4(small))
}
