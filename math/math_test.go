package math

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestClampAndSmoothstep(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp: expected 1, got %v", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp: expected 0, got %v", got)
	}

	if got := Smoothstep(0.9, 0.95, 0.5); got != 0 {
		t.Errorf("Smoothstep below edge: expected 0, got %v", got)
	}
	if got := Smoothstep(0.9, 0.95, 1); got != 1 {
		t.Errorf("Smoothstep above edge: expected 1, got %v", got)
	}
	if got := Smoothstep(0, 1, 0.5); math.Abs(float64(got-0.5)) > 0.0001 {
		t.Errorf("Smoothstep midpoint: expected 0.5, got %v", got)
	}
}

func TestClampLength(t *testing.T) {
	v := mgl32.Vec3{3, 4, 0}
	clamped := ClampLength(v, 1)

	if math.Abs(float64(clamped.Len()-1)) > 0.0001 {
		t.Errorf("ClampLength: expected length 1, got %v", clamped.Len())
	}
	// Direction must survive the rescale
	if !clamped.ApproxEqualThreshold(mgl32.Vec3{0.6, 0.8, 0}, 0.0001) {
		t.Errorf("ClampLength: expected (0.6,0.8,0), got %v", clamped)
	}

	if got := ClampLength(Vec3Zero, 1); got != Vec3Zero {
		t.Errorf("ClampLength: expected zero vector untouched, got %v", got)
	}
}

func TestQuaternionRotation(t *testing.T) {
	// 90 degree rotation around Y axis
	q := QuaternionFromAxisAngle(Vec3Up, float32(math.Pi/2))

	result := RotateVector(q, Vec3Right)
	if !result.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 0.001) {
		t.Errorf("Quaternion rotation: expected approximately (0,0,-1), got %v", result)
	}

	// Closed form agrees with mgl32
	axis := mgl32.Vec3{1, 2, 3}.Normalize()
	q = QuaternionFromAxisAngle(axis, 1.3)
	v := mgl32.Vec3{-2, 0.5, 4}
	if got, want := RotateVector(q, v), q.Rotate(v); !got.ApproxEqualThreshold(want, 0.0001) {
		t.Errorf("RotateVector: expected %v, got %v", want, got)
	}
}

func TestInvertRigid(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		axis := mgl32.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5}
		q := QuaternionFromAxisAngle(axis, rng.Float32()*6)
		m := mgl32.Translate3D(rng.Float32()*10, rng.Float32()*10, rng.Float32()*10).Mul4(q.Mat4())

		got := InvertRigid(m)
		if !MatApproxEqual(got, m.Inv(), 0.001) {
			t.Fatalf("InvertRigid: expected %v, got %v", m.Inv(), got)
		}
		if !MatApproxEqual(got.Mul4(m), mgl32.Ident4(), 0.001) {
			t.Fatalf("InvertRigid: inverse times matrix is not identity")
		}
	}
}

func TestAnglesFromBasis(t *testing.T) {
	pitch, yaw, roll := float32(0.3), float32(-1.1), float32(0.7)
	r := EulerYXZ(pitch, yaw, roll)

	front := TransformDirection(r, Vec3Forward)
	up := TransformDirection(r, Vec3Up)
	right := front.Cross(up)

	p, y, rl := AnglesFromBasis(front, up, right)
	tolerance := 0.0001
	if math.Abs(float64(p-pitch)) > tolerance ||
		math.Abs(float64(y-yaw)) > tolerance ||
		math.Abs(float64(rl-roll)) > tolerance {
		t.Errorf("AnglesFromBasis: expected (%v,%v,%v), got (%v,%v,%v)", pitch, yaw, roll, p, y, rl)
	}
}

func TestShadowBias(t *testing.T) {
	corner := TransformPoint(ShadowBias, mgl32.Vec3{-1, -1, -1})
	if !corner.ApproxEqualThreshold(Vec3Zero, 0.0001) {
		t.Errorf("ShadowBias: expected (0,0,0), got %v", corner)
	}
	corner = TransformPoint(ShadowBias, mgl32.Vec3{1, 1, 1})
	if !corner.ApproxEqualThreshold(Vec3One, 0.0001) {
		t.Errorf("ShadowBias: expected (1,1,1), got %v", corner)
	}
}

func TestBasisMatrix(t *testing.T) {
	m := BasisMatrix(Vec3Right, Vec3Up, Vec3Forward)
	if !MatApproxEqual(m, mgl32.Ident4(), 0) {
		t.Errorf("BasisMatrix: expected identity for the canonical frame, got %v", m)
	}
}

func BenchmarkRotateVector(b *testing.B) {
	q := QuaternionFromAxisAngle(mgl32.Vec3{1, 1, 0}, 0.5)
	v := mgl32.Vec3{1, 2, 3}

	for i := 0; i < b.N; i++ {
		_ = RotateVector(q, v)
	}
}

func BenchmarkInvertRigid(b *testing.B) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(0.4))

	for i := 0; i < b.N; i++ {
		_ = InvertRigid(m)
	}
}
