package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"spaceflight/scene"
	"spaceflight/skybox"
)

// Pipeline selects the program a mesh is drawn with.
type Pipeline int

const (
	PipelinePBR Pipeline = iota
	PipelinePBRShadowed
)

func (p Pipeline) String() string {
	if p == PipelinePBRShadowed {
		return "pbr-shadowed"
	}
	return "pbr"
}

type PointLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// Environment is the specular sky pair and the crossfade between them.
type Environment struct {
	Current skybox.Cubemap
	Next    skybox.Cubemap
	Blend   float32
}

// Lighting is the per-frame state shared by every main-pass draw.
type Lighting struct {
	ViewPosition mgl32.Vec3
	PointLights  []PointLight
	Ambient      mgl32.Vec3
	// Attenuation is the quadratic falloff coefficient of every point light.
	Attenuation float32
	Environment Environment
}

// DrawCall carries the matrices of one main-pass mesh draw. LightSpace
// already includes the shadow bias.
type DrawCall struct {
	Mesh       *scene.Mesh
	MVP        mgl32.Mat4
	Model      mgl32.Mat4
	LightSpace mgl32.Mat4
}

// Device is the rendering resource layer the orchestrator drives. All
// methods run on the render thread.
type Device interface {
	// BeginFrame binds the default framebuffer, sets the viewport and clears.
	BeginFrame(width, height int)

	BeginShadowPass()
	DrawShadow(mesh *scene.Mesh, lightSpace mgl32.Mat4)
	EndShadowPass()

	BeginMainPass(l Lighting)
	DrawMesh(p Pipeline, call DrawCall)

	// DrawDebug draws mesh with its vertex colours and no lighting.
	DrawDebug(mesh *scene.Mesh, mvp mgl32.Mat4)

	DrawSkybox(view, projection mgl32.Mat4, env Environment)
}
