package rig

import "github.com/go-gl/mathgl/mgl32"

// Ship is a frame with momentum. Its World matrix is the model transform of
// the ship mesh.
type Ship struct {
	Frame

	Velocity mgl32.Vec3
	// Thrust stays within [-1, 1].
	Thrust float32
}

func NewShip(position mgl32.Vec3) *Ship {
	s := &Ship{}
	s.Frame = *NewFrame(position, Relative)
	return s
}

// Speed is |Velocity|.
func (s *Ship) Speed() float32 {
	return s.Velocity.Len()
}
