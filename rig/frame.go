// Package rig holds the camera and ship frames and the matrix algebra that
// composes them into the view shown on screen.
package rig

import (
	"github.com/go-gl/mathgl/mgl32"

	smath "spaceflight/math"
)

// Discipline selects how Rotate interprets its angles.
type Discipline int

const (
	// Relative rotates about the frame's current local axes with quaternions.
	Relative Discipline = iota
	// Absolute accumulates Euler angles and rebuilds the basis as Ry·Rx·Rz.
	Absolute
)

func (d Discipline) String() string {
	if d == Absolute {
		return "absolute"
	}
	return "relative"
}

// ParseDiscipline maps a config value to a Discipline. Unknown values fall
// back to Relative.
func ParseDiscipline(s string) Discipline {
	if s == "absolute" {
		return Absolute
	}
	return Relative
}

// Frame is a position with an orthonormal basis. View and World are derived
// from the basis by Update and must not be edited directly.
type Frame struct {
	Position mgl32.Vec3
	Front    mgl32.Vec3
	Up       mgl32.Vec3
	Right    mgl32.Vec3

	View  mgl32.Mat4
	World mgl32.Mat4

	Discipline Discipline

	// Accumulated Euler angles, only meaningful for the Absolute discipline.
	Pitch, Yaw, Roll float32
}

// NewFrame creates a frame at position looking down -Z with +Y up.
func NewFrame(position mgl32.Vec3, discipline Discipline) *Frame {
	f := &Frame{
		Position:   position,
		Front:      smath.Vec3Forward,
		Up:         smath.Vec3Up,
		Discipline: discipline,
	}
	f.Update()
	return f
}

// Update re-derives Right and both matrices from Position, Front and Up.
func (f *Frame) Update() {
	f.Right = f.Front.Cross(f.Up)
	f.View = ComputeViewMatrix(f)
	f.World = mgl32.Translate3D(f.Position[0], f.Position[1], f.Position[2]).
		Mul4(smath.BasisMatrix(f.Right, f.Up, f.Front))
}

// ComputeViewMatrix returns Rᵗ·T(-position) where R has columns
// (right, up, -front).
func ComputeViewMatrix(f *Frame) mgl32.Mat4 {
	right := f.Front.Cross(f.Up)
	rt := smath.BasisMatrix(right, f.Up, f.Front).Transpose()
	return rt.Mul4(mgl32.Translate3D(-f.Position[0], -f.Position[1], -f.Position[2]))
}

// Translate moves the frame by a world-space delta.
func (f *Frame) Translate(delta mgl32.Vec3) {
	f.Position = f.Position.Add(delta)
	f.Update()
}

// Rotate turns the frame by yaw about Up, pitch about Right and roll about
// Front, using the frame's discipline.
func (f *Frame) Rotate(yaw, pitch, roll float32) {
	if f.Discipline == Absolute {
		// Roll about the local front is a negative turn about local +Z.
		ApplyAbsoluteAngles(f, pitch, yaw, -roll)
		return
	}
	ApplyRelativeRotation(f, yaw, pitch, roll)
}

// SetBasis places the frame at position with the given front and up. For
// the Absolute discipline the Euler angles are re-extracted so later
// rotations continue from the new basis.
func (f *Frame) SetBasis(position, front, up mgl32.Vec3) {
	f.Position = position
	f.Front = front
	f.Up = up
	f.orthonormalize()
	f.syncAngles()
	f.Update()
}

// ApplyRelativeRotation rotates Front and Up by
// q(up,yaw)·q(right,pitch)·q(front,roll). The axes are captured before any
// of the three rotations is applied.
func ApplyRelativeRotation(f *Frame, yaw, pitch, roll float32) {
	q := smath.ComposeYawPitchRoll(f.Up, f.Right, f.Front, yaw, pitch, roll)
	applyQuaternion(f, q)
	f.Update()
}

// ApplyAbsoluteAngles adds the deltas to the accumulated Euler angles and
// rebuilds the basis from Ry(yaw)·Rx(pitch)·Rz(roll).
func ApplyAbsoluteAngles(f *Frame, dPitch, dYaw, dRoll float32) {
	f.Pitch += dPitch
	f.Yaw += dYaw
	f.Roll += dRoll

	r := smath.EulerYXZ(f.Pitch, f.Yaw, f.Roll)
	f.Front = smath.TransformDirection(r, smath.Vec3Forward)
	f.Up = smath.TransformDirection(r, smath.Vec3Up)
	f.Update()
}

// ResetUp rotates the frame part of the way toward world up. ratio is
// clamped to [0,1]; 1 snaps Up onto +Y in one call.
func ResetUp(f *Frame, ratio float32) {
	target := mgl32.QuatBetweenVectors(smath.SafeNormalize(f.Up), smath.Vec3Up)
	q := mgl32.QuatSlerp(mgl32.QuatIdent(), target, smath.Clamp(ratio, 0, 1))
	applyQuaternion(f, q.Normalize())
	f.syncAngles()
	f.Update()
}

func applyQuaternion(f *Frame, q mgl32.Quat) {
	f.Front = smath.RotateVector(q, f.Front)
	f.Up = smath.RotateVector(q, f.Up)
	f.orthonormalize()
}

// orthonormalize removes drift accumulated by repeated rotation.
func (f *Frame) orthonormalize() {
	f.Front = smath.SafeNormalize(f.Front)
	right := smath.SafeNormalize(f.Front.Cross(f.Up))
	f.Up = smath.SafeNormalize(right.Cross(f.Front))
}

func (f *Frame) syncAngles() {
	if f.Discipline != Absolute {
		return
	}
	f.Pitch, f.Yaw, f.Roll = smath.AnglesFromBasis(f.Front, f.Up, f.Front.Cross(f.Up))
}
