package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// program is a linked shader program with a lazily filled uniform cache.
type program struct {
	id   uint32
	locs map[string]int32
}

func newProgram(vertSrc, fragSrc string) (*program, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return nil, fmt.Errorf("fragment: %w", err)
	}

	id := gl.CreateProgram()
	gl.AttachShader(id, vert)
	gl.AttachShader(id, frag)
	gl.LinkProgram(id)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(id, logLen, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("link failed: %v", log)
	}

	return &program{id: id, locs: make(map[string]int32)}, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

func (p *program) use() { gl.UseProgram(p.id) }

// loc returns the location of uniform name, -1 when the linker dropped it.
func (p *program) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locs[name] = l
	return l
}

func (p *program) setMat4(name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(p.loc(name), 1, false, &m[0])
}

func (p *program) setVec3(name string, v mgl32.Vec3) {
	gl.Uniform3f(p.loc(name), v[0], v[1], v[2])
}

func (p *program) setVec4(name string, v mgl32.Vec4) {
	gl.Uniform4f(p.loc(name), v[0], v[1], v[2], v[3])
}

func (p *program) setFloat(name string, v float32) {
	gl.Uniform1f(p.loc(name), v)
}

func (p *program) setInt(name string, v int32) {
	gl.Uniform1i(p.loc(name), v)
}

func (p *program) setBool(name string, v bool) {
	if v {
		gl.Uniform1i(p.loc(name), 1)
	} else {
		gl.Uniform1i(p.loc(name), 0)
	}
}

func (p *program) destroy() {
	if p != nil && p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}
