// Package opengl is the OpenGL 4.1 core implementation of renderer.Device
// and of the skybox face target.
package opengl

import (
	"fmt"
	"log/slog"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"spaceflight/renderer"
	"spaceflight/scene"
	"spaceflight/skybox"
)

const maxPointLights = 4

// Texture units shared by both PBR programs.
const (
	unitBaseColor uint32 = iota
	unitShadow
	unitNormal
	unitMetallicRoughness
	unitEmissive
	unitOcclusion
	unitDiffuseEnv
	unitSpecular
	unitSpecularNext
	unitBRDF
)

type Options struct {
	ShadowSize int

	// Noise parameters of the GPU sky generator.
	NoiseScale float32
	Parallax   float32
	StarScale  float32

	// IBLScale weights the diffuse (x) and specular (y) environment terms.
	IBLScale mgl32.Vec2
}

func DefaultOptions() Options {
	return Options{
		ShadowSize: 1024,
		NoiseScale: 4,
		Parallax:   0.002,
		StarScale:  16,
		IBLScale:   mgl32.Vec2{1, 5},
	}
}

// GPUMesh holds the buffer objects of an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	Count      int32
	HasIndices bool
}

func (g *GPUMesh) draw() {
	gl.BindVertexArray(g.VAO)
	if g.HasIndices {
		gl.DrawElements(gl.TRIANGLES, g.Count, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, g.Count)
	}
	gl.BindVertexArray(0)
}

// Device owns every GL object of the demo. Create it after the window's
// context is current and use it only from that thread.
type Device struct {
	opts   Options
	logger *slog.Logger

	pbr         *program
	pbrShadowed *program
	depth       *program
	unlit       *program

	shadow *ShadowMap
	sky    *skyResources

	diffuseEnv skybox.Cubemap
	brdfLUT    *scene.Texture

	viewportW int32
	viewportH int32

	defaultMaterial *scene.Material
	gpuMeshes       map[*scene.Mesh]*GPUMesh
	textures        []*scene.Texture
	failed          map[*scene.Texture]bool
}

var _ renderer.Device = (*Device)(nil)
var _ skybox.Target = (*Device)(nil)
var _ skybox.FaceUploader = (*Device)(nil)

// NewDevice loads the GL entry points and builds programs and targets.
func NewDevice(opts Options, logger *slog.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("opengl ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	d := &Device{
		opts:            opts,
		logger:          logger,
		defaultMaterial: scene.DefaultMaterial(),
		gpuMeshes:       make(map[*scene.Mesh]*GPUMesh),
		failed:          make(map[*scene.Texture]bool),
	}

	var err error
	if d.pbr, err = newProgram(pbrVertSrc, pbrFragSrc); err != nil {
		return nil, fmt.Errorf("pbr shader: %w", err)
	}
	if d.pbrShadowed, err = newProgram(pbrVertSrc, pbrShadowedFragSrc); err != nil {
		d.Destroy()
		return nil, fmt.Errorf("pbr shadowed shader: %w", err)
	}
	if d.depth, err = newProgram(depthVertSrc, depthFragSrc); err != nil {
		d.Destroy()
		return nil, fmt.Errorf("depth shader: %w", err)
	}
	if d.unlit, err = newProgram(unlitVertSrc, unlitFragSrc); err != nil {
		d.Destroy()
		return nil, fmt.Errorf("unlit shader: %w", err)
	}
	if d.shadow, err = NewShadowMap(opts.ShadowSize); err != nil {
		d.Destroy()
		return nil, err
	}
	if d.sky, err = newSkyResources(); err != nil {
		d.Destroy()
		return nil, err
	}

	for _, p := range []*program{d.pbr, d.pbrShadowed} {
		p.use()
		p.setInt("baseColorTex", int32(unitBaseColor))
		p.setInt("shadowMap", int32(unitShadow))
		p.setInt("normalTex", int32(unitNormal))
		p.setInt("metallicRoughnessTex", int32(unitMetallicRoughness))
		p.setInt("emissiveTex", int32(unitEmissive))
		p.setInt("occlusionTex", int32(unitOcclusion))
		p.setInt("diffuseEnv", int32(unitDiffuseEnv))
		p.setInt("specularEnv", int32(unitSpecular))
		p.setInt("specularEnvNext", int32(unitSpecularNext))
		p.setInt("brdfLUT", int32(unitBRDF))
		p.setFloat("shadowTexel", d.shadow.Texel())
		gl.Uniform2f(p.loc("iblScale"), opts.IBLScale[0], opts.IBLScale[1])
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	return d, nil
}

// SetEnvironment installs the diffuse irradiance cubemap and the BRDF
// lookup table used by the image-based lighting terms.
func (d *Device) SetEnvironment(diffuse skybox.Cubemap, brdf *scene.Texture) error {
	if brdf.GLID == 0 {
		if err := UploadTexture(brdf); err != nil {
			return fmt.Errorf("brdf lut: %w", err)
		}
	}
	gl.BindTexture(gl.TEXTURE_2D, brdf.GLID)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	d.diffuseEnv = diffuse
	d.brdfLUT = brdf
	return nil
}

func (d *Device) BeginFrame(width, height int) {
	d.viewportW = int32(width)
	d.viewportH = int32(height)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, d.viewportW, d.viewportH)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// BeginMainPass uploads the frame's lights to both PBR programs and binds
// the shadow map and environment textures.
func (d *Device) BeginMainPass(l renderer.Lighting) {
	n := len(l.PointLights)
	if n > maxPointLights {
		n = maxPointLights
	}
	for _, p := range []*program{d.pbr, d.pbrShadowed} {
		p.use()
		p.setVec3("cameraPos", l.ViewPosition)
		p.setVec3("ambientColor", l.Ambient)
		p.setFloat("attenuation", l.Attenuation)
		p.setFloat("skyInterpolation", l.Environment.Blend)
		p.setInt("pointLightCount", int32(n))
		for i := 0; i < n; i++ {
			pl := l.PointLights[i]
			p.setVec3(fmt.Sprintf("pointLightPos[%d]", i), pl.Position)
			p.setVec3(fmt.Sprintf("pointLightColor[%d]", i), pl.Color)
			p.setFloat(fmt.Sprintf("pointLightIntensity[%d]", i), pl.Intensity)
		}
	}

	gl.ActiveTexture(gl.TEXTURE0 + unitShadow)
	gl.BindTexture(gl.TEXTURE_2D, d.shadow.DepthTex)
	gl.ActiveTexture(gl.TEXTURE0 + unitDiffuseEnv)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(d.diffuseEnv))
	gl.ActiveTexture(gl.TEXTURE0 + unitSpecular)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(l.Environment.Current))
	gl.ActiveTexture(gl.TEXTURE0 + unitSpecularNext)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(l.Environment.Next))
	gl.ActiveTexture(gl.TEXTURE0 + unitBRDF)
	if d.brdfLUT != nil {
		gl.BindTexture(gl.TEXTURE_2D, d.brdfLUT.GLID)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
}

func (d *Device) DrawMesh(pipeline renderer.Pipeline, call renderer.DrawCall) {
	gpu := d.ensureUploaded(call.Mesh)
	if gpu == nil {
		return
	}

	p := d.pbr
	if pipeline == renderer.PipelinePBRShadowed {
		p = d.pbrShadowed
	}
	p.use()
	p.setMat4("mvp", call.MVP)
	p.setMat4("model", call.Model)
	p.setMat4("lightSpace", call.LightSpace)

	mat := call.Mesh.Material
	if mat == nil {
		mat = d.defaultMaterial
	}
	d.applyMaterial(p, mat)
	gpu.draw()
}

func (d *Device) DrawDebug(mesh *scene.Mesh, mvp mgl32.Mat4) {
	gpu := d.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	d.unlit.use()
	d.unlit.setMat4("mvp", mvp)
	gpu.draw()
}

// applyMaterial sets material uniforms and binds its textures. p must be
// in use.
func (d *Device) applyMaterial(p *program, mat *scene.Material) {
	p.setVec4("matBaseColor", mat.BaseColor.Vec4())
	p.setFloat("matMetallic", mat.Metallic)
	p.setFloat("matRoughness", mat.Roughness)
	p.setVec3("matEmissive", mat.Emissive.Vec3())
	p.setFloat("matNormalScale", mat.NormalScale)
	p.setFloat("matOcclusionStrength", mat.OcclusionStrength)

	p.setBool("hasBaseColorTex", d.bindTexture(unitBaseColor, mat.BaseColorTexture))
	p.setBool("hasNormalTex", d.bindTexture(unitNormal, mat.NormalTexture))
	p.setBool("hasMetallicRoughnessTex", d.bindTexture(unitMetallicRoughness, mat.MetallicRoughnessTexture))
	p.setBool("hasEmissiveTex", d.bindTexture(unitEmissive, mat.EmissiveTexture))
	p.setBool("hasOcclusionTex", d.bindTexture(unitOcclusion, mat.OcclusionTexture))
}

// ensureUploaded uploads vertex and index data on first use.
func (d *Device) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := d.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(scene.Vertex{}))
	gpu := &GPUMesh{
		Count:      int32(mesh.IndexCount()),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	var v scene.Vertex
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{4, unsafe.Offsetof(v.Color)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.offset)))
	}

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	}
	gl.BindVertexArray(0)

	d.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	return gpu
}

// ReleaseMesh frees the buffers of mesh, if it was uploaded.
func (d *Device) ReleaseMesh(mesh *scene.Mesh) {
	gpu, ok := d.gpuMeshes[mesh]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.VAO)
	gl.DeleteBuffers(1, &gpu.VBO)
	if gpu.EBO != 0 {
		gl.DeleteBuffers(1, &gpu.EBO)
	}
	delete(d.gpuMeshes, mesh)
	mesh.GPUData = nil
}

// Destroy frees every GL object the device created.
func (d *Device) Destroy() {
	for mesh := range d.gpuMeshes {
		d.ReleaseMesh(mesh)
	}
	if d.shadow != nil {
		d.shadow.Destroy()
	}
	if d.sky != nil {
		d.sky.destroy()
	}
	for _, tex := range d.textures {
		DeleteTexture(tex)
	}
	DeleteTexture(d.brdfLUT)
	d.pbr.destroy()
	d.pbrShadowed.destroy()
	d.depth.destroy()
	d.unlit.destroy()
}
