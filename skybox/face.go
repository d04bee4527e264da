package skybox

import "github.com/go-gl/mathgl/mgl32"

// Face indexes a cubemap face in GL order: +X, -X, +Y, -Y, +Z, -Z.
type Face int

const (
	PositiveX Face = iota
	NegativeX
	PositiveY
	NegativeY
	PositiveZ
	NegativeZ

	FaceCount = 6
)

// FaceAxes describes how texel coordinates map to directions on one face:
// dir = Major + s·U + t·V for s, t in [-1, 1], with t growing down the
// image.
type FaceAxes struct {
	Major, U, V mgl32.Vec3
}

var Faces = [FaceCount]FaceAxes{
	PositiveX: {Major: mgl32.Vec3{1, 0, 0}, U: mgl32.Vec3{0, 0, -1}, V: mgl32.Vec3{0, -1, 0}},
	NegativeX: {Major: mgl32.Vec3{-1, 0, 0}, U: mgl32.Vec3{0, 0, 1}, V: mgl32.Vec3{0, -1, 0}},
	PositiveY: {Major: mgl32.Vec3{0, 1, 0}, U: mgl32.Vec3{1, 0, 0}, V: mgl32.Vec3{0, 0, 1}},
	NegativeY: {Major: mgl32.Vec3{0, -1, 0}, U: mgl32.Vec3{1, 0, 0}, V: mgl32.Vec3{0, 0, -1}},
	PositiveZ: {Major: mgl32.Vec3{0, 0, 1}, U: mgl32.Vec3{1, 0, 0}, V: mgl32.Vec3{0, -1, 0}},
	NegativeZ: {Major: mgl32.Vec3{0, 0, -1}, U: mgl32.Vec3{-1, 0, 0}, V: mgl32.Vec3{0, -1, 0}},
}

func (f Face) String() string {
	return [...]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}[f]
}

// Direction returns the unnormalized direction through texel (s, t).
func (f Face) Direction(s, t float32) mgl32.Vec3 {
	a := Faces[f]
	return a.Major.Add(a.U.Mul(s)).Add(a.V.Mul(t))
}
