package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// QuaternionFromAxisAngle builds a rotation of angle radians about axis.
// The axis is normalized first; a zero axis yields identity.
func QuaternionFromAxisAngle(axis mgl32.Vec3, angle float32) mgl32.Quat {
	l := axis.Len()
	if l == 0 {
		return mgl32.QuatIdent()
	}
	s, c := math32.Sincos(angle / 2)
	return mgl32.Quat{W: c, V: axis.Mul(s / l)}
}

// RotateVector applies q to v with the closed form
// v(s²-u·u) + 2u(u·v) + 2s(u×v).
func RotateVector(q mgl32.Quat, v mgl32.Vec3) mgl32.Vec3 {
	u, s := q.V, q.W
	return v.Mul(s*s - u.Dot(u)).
		Add(u.Mul(2 * u.Dot(v))).
		Add(u.Cross(v).Mul(2 * s))
}

// ComposeYawPitchRoll returns q(up,yaw)·q(right,pitch)·q(front,roll) for the
// given axes.
func ComposeYawPitchRoll(up, right, front mgl32.Vec3, yaw, pitch, roll float32) mgl32.Quat {
	qYaw := QuaternionFromAxisAngle(up, yaw)
	qPitch := QuaternionFromAxisAngle(right, pitch)
	qRoll := QuaternionFromAxisAngle(front, roll)
	return qYaw.Mul(qPitch).Mul(qRoll).Normalize()
}
