package math

import "github.com/go-gl/mathgl/mgl32"

var (
	Vec3Zero  = mgl32.Vec3{0, 0, 0}
	Vec3One   = mgl32.Vec3{1, 1, 1}
	Vec3Up    = mgl32.Vec3{0, 1, 0}
	Vec3Right = mgl32.Vec3{1, 0, 0}
	// Vec3Forward is the view direction of an unrotated frame.
	Vec3Forward = mgl32.Vec3{0, 0, -1}
)

// SafeNormalize returns v scaled to unit length, or v unchanged when it has
// no length to speak of.
func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return v
	}
	return v.Mul(1 / l)
}

// ClampLength rescales v uniformly so that |v| <= max.
func ClampLength(v mgl32.Vec3, max float32) mgl32.Vec3 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}

func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Smoothstep(edge0, edge1, x float32) float32 {
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func Mix(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

func Sign(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
