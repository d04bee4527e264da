package rig

import (
	"github.com/go-gl/mathgl/mgl32"

	smath "spaceflight/math"
)

// Rig couples the free camera with the ship it chases.
type Rig struct {
	Camera *Frame
	Ship   *Ship

	// ShipDelta is the camera-space offset of the chase eye from the ship.
	ShipDelta mgl32.Vec3
}

func New(discipline Discipline, shipDelta mgl32.Vec3) *Rig {
	return &Rig{
		Camera:    NewFrame(mgl32.Vec3{}, discipline),
		Ship:      NewShip(mgl32.Vec3{}),
		ShipDelta: shipDelta,
	}
}

// ComposeChaseView returns T(shipDelta)·R_camᵗ·R_shipᵗ·T(-shipPosition): the
// ship's inverse frame, turned by the camera orientation and pushed back by
// the chase offset.
func ComposeChaseView(camera, ship *Frame, shipDelta mgl32.Vec3) mgl32.Mat4 {
	camRot := smath.RemoveTranslation(camera.View)
	shipRot := smath.RemoveTranslation(ship.World).Transpose()
	p := ship.Position

	return mgl32.Translate3D(shipDelta[0], shipDelta[1], shipDelta[2]).
		Mul4(camRot).
		Mul4(shipRot).
		Mul4(mgl32.Translate3D(-p[0], -p[1], -p[2]))
}

// RecoverFreeCamera reads a camera position and basis back out of a view
// matrix. Feeding the result to Frame.SetBasis reproduces view exactly.
func RecoverFreeCamera(view mgl32.Mat4) (position, front, up mgl32.Vec3) {
	inv := smath.InvertRigid(view)
	position = inv.Col(3).Vec3()
	up = inv.Col(1).Vec3()
	front = inv.Col(2).Vec3().Mul(-1)
	return position, front, up
}

// EyePosition is the world-space position of the viewer of view.
func EyePosition(view mgl32.Mat4) mgl32.Vec3 {
	return smath.Translation(smath.InvertRigid(view))
}

// View resolves the matrix shown this frame. In chase mode the camera is
// moved to the chase eye so lighting and the skybox follow it. When
// transition is set the chase view is converted into the free camera once,
// so the switch does not pop.
func (r *Rig) View(freeCamera, transition bool) mgl32.Mat4 {
	if freeCamera && !transition {
		return r.Camera.View
	}

	view := ComposeChaseView(r.Camera, &r.Ship.Frame, r.ShipDelta)
	if !transition {
		r.Camera.Position = EyePosition(view)
		r.Camera.Update()
		return view
	}

	position, front, up := RecoverFreeCamera(view)
	r.Camera.SetBasis(position, front, up)
	return r.Camera.View
}
