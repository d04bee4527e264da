package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	smath "spaceflight/math"
	"spaceflight/renderer"
	"spaceflight/skybox"
)

// 36 positions for a unit cube, drawn from the inside with culling off.
var skyboxVerts = []float32{
	// -Z
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	// +Z
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	// -X
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	// +X
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	// -Y
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	// +Y
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

// skyResources owns the sky cube, the face render target and the noise
// program used to fill cubemap faces.
type skyResources struct {
	vao, vbo uint32
	prog     *program

	faceFBO  uint32
	faceVAO  uint32
	faceProg *program

	cubemaps map[skybox.Cubemap]int32 // handle → face size
}

func newSkyResources() (*skyResources, error) {
	prog, err := newProgram(skyVertSrc, skyFragSrc)
	if err != nil {
		return nil, fmt.Errorf("skybox shader: %w", err)
	}
	faceProg, err := newProgram(faceVertSrc, faceFragSrc)
	if err != nil {
		prog.destroy()
		return nil, fmt.Errorf("skybox face shader: %w", err)
	}

	s := &skyResources{
		prog:     prog,
		faceProg: faceProg,
		cubemaps: make(map[skybox.Cubemap]int32),
	}

	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)
	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(skyboxVerts)*4, gl.Ptr(skyboxVerts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	gl.GenVertexArrays(1, &s.faceVAO)
	gl.GenFramebuffers(1, &s.faceFBO)

	prog.use()
	prog.setInt("current", 0)
	prog.setInt("next", 1)
	return s, nil
}

func (s *skyResources) destroy() {
	for cube := range s.cubemaps {
		id := uint32(cube)
		gl.DeleteTextures(1, &id)
	}
	gl.DeleteVertexArrays(1, &s.vao)
	gl.DeleteBuffers(1, &s.vbo)
	gl.DeleteVertexArrays(1, &s.faceVAO)
	gl.DeleteFramebuffers(1, &s.faceFBO)
	s.prog.destroy()
	s.faceProg.destroy()
}

// NewCubemap allocates an RGB8 cubemap with size×size faces.
func (d *Device) NewCubemap(size int) (skybox.Cubemap, error) {
	if size <= 0 {
		return 0, fmt.Errorf("cubemap size %d", size)
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
	for f := 0; f < skybox.FaceCount; f++ {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(f), 0, gl.RGB8,
			int32(size), int32(size), 0, gl.RGB, gl.UNSIGNED_BYTE, nil)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	cube := skybox.Cubemap(id)
	d.sky.cubemaps[cube] = int32(size)
	return cube, nil
}

// DeleteCubemap frees a cubemap created by NewCubemap. Unknown handles are
// ignored.
func (d *Device) DeleteCubemap(cube skybox.Cubemap) {
	if _, ok := d.sky.cubemaps[cube]; !ok {
		return
	}
	id := uint32(cube)
	gl.DeleteTextures(1, &id)
	delete(d.sky.cubemaps, cube)
}

// RenderFace fills one face of cube with the noise shader as seen from
// position. It implements skybox.Target.
func (d *Device) RenderFace(cube skybox.Cubemap, face skybox.Face, position mgl32.Vec3) error {
	size, ok := d.sky.cubemaps[cube]
	if !ok {
		return fmt.Errorf("render face %v: unknown cubemap %d", face, cube)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, d.sky.faceFBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
		gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), uint32(cube), 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fmt.Errorf("render face %v: status=0x%X: %w", face, status, skybox.ErrIncompleteTarget)
	}

	gl.Viewport(0, 0, size, size)
	gl.Disable(gl.DEPTH_TEST)

	axes := skybox.Faces[face]
	p := d.sky.faceProg
	p.use()
	p.setVec3("faceMajor", axes.Major)
	p.setVec3("faceU", axes.U)
	p.setVec3("faceV", axes.V)
	p.setVec3("viewerPos", position)
	p.setFloat("noiseScale", d.opts.NoiseScale)
	p.setFloat("parallax", d.opts.Parallax)
	p.setFloat("starScale", d.opts.StarScale)

	gl.BindVertexArray(d.sky.faceVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
		gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), 0, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, d.viewportW, d.viewportH)
	return nil
}

// UploadFace replaces one face of cube with RGB8 pixels. It implements
// skybox.FaceUploader.
func (d *Device) UploadFace(cube skybox.Cubemap, face skybox.Face, size int, rgb []byte) error {
	if len(rgb) < size*size*3 {
		return fmt.Errorf("upload face %v: %d bytes for %d×%d", face, len(rgb), size, size)
	}
	if _, ok := d.sky.cubemaps[cube]; !ok {
		return fmt.Errorf("upload face %v: unknown cubemap %d", face, cube)
	}

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(cube))
	gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), 0, gl.RGB8,
		int32(size), int32(size), 0, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(rgb))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)

	d.sky.cubemaps[cube] = int32(size)
	return nil
}

// DrawSkybox draws the crossfaded sky pair behind everything else.
func (d *Device) DrawSkybox(view, projection mgl32.Mat4, env renderer.Environment) {
	skyVP := projection.Mul4(smath.RemoveTranslation(view))

	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(false)

	d.sky.prog.use()
	d.sky.prog.setMat4("skyVP", skyVP)
	d.sky.prog.setFloat("blend", env.Blend)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(env.Current))
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(env.Next))

	gl.BindVertexArray(d.sky.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.DepthFunc(gl.LESS)
}
