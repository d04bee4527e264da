package scene

import "github.com/go-gl/mathgl/mgl32"

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorRed   = Color{1, 0, 0, 1}
)

func (c Color) Vec3() mgl32.Vec3 { return mgl32.Vec3{c.R, c.G, c.B} }
func (c Color) Vec4() mgl32.Vec4 { return mgl32.Vec4{c.R, c.G, c.B, c.A} }

// Vertex is the interleaved layout uploaded to the GPU.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Color    Color
}

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	// Override replaces T·R·S when a glTF node carries a full matrix.
	Override *mgl32.Mat4
}

func NewTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix returns T·R·S, or Override when set.
func (t Transform) Matrix() mgl32.Mat4 {
	if t.Override != nil {
		return *t.Override
	}
	translation := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	scale := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return translation.Mul4(t.Rotation.Mat4()).Mul4(scale)
}
