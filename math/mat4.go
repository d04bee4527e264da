package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowBias remaps clip space [-1,1] to texture space [0,1].
var ShadowBias = mgl32.Mat4{
	0.5, 0, 0, 0,
	0, 0.5, 0, 0,
	0, 0, 0.5, 0,
	0.5, 0.5, 0.5, 1,
}

// BasisMatrix packs right, up and -front into the columns of a rotation.
func BasisMatrix(right, up, front mgl32.Vec3) mgl32.Mat4 {
	back := front.Mul(-1)
	return mgl32.Mat4FromCols(
		right.Vec4(0),
		up.Vec4(0),
		back.Vec4(0),
		mgl32.Vec4{0, 0, 0, 1},
	)
}

func RemoveTranslation(m mgl32.Mat4) mgl32.Mat4 {
	m[12], m[13], m[14] = 0, 0, 0
	return m
}

func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}

// InvertRigid inverts a rotation+translation matrix as [Rᵗ | -Rᵗt].
func InvertRigid(m mgl32.Mat4) mgl32.Mat4 {
	rt := RemoveTranslation(m).Transpose()
	t := rt.Mul4x1(Translation(m).Vec4(0)).Vec3()
	rt[12], rt[13], rt[14] = -t[0], -t[1], -t[2]
	return rt
}

// EulerYXZ rebuilds the rotation Ry(yaw)·Rx(pitch)·Rz(roll).
func EulerYXZ(pitch, yaw, roll float32) mgl32.Mat4 {
	return mgl32.HomogRotate3DY(yaw).
		Mul4(mgl32.HomogRotate3DX(pitch)).
		Mul4(mgl32.HomogRotate3DZ(roll))
}

// AnglesFromBasis extracts the YXZ Euler angles that EulerYXZ maps onto the
// frame with the given front, up and right vectors.
func AnglesFromBasis(front, up, right mgl32.Vec3) (pitch, yaw, roll float32) {
	pitch = math32.Asin(Clamp(front[1], -1, 1))
	yaw = math32.Atan2(-front[0], -front[2])
	roll = math32.Atan2(right[1], up[1])
	return pitch, yaw, roll
}

func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

func MatApproxEqual(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
