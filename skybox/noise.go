package skybox

import (
	"context"
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	smath "spaceflight/math"
)

const (
	noiseAlpha   = 2.
	noiseBeta    = 2.
	noiseOctaves = 5
)

var (
	voidColor   = mgl32.Vec3{0.01, 0.01, 0.04}
	nebulaColor = mgl32.Vec3{0.25, 0.12, 0.45}
	glowColor   = mgl32.Vec3{0.45, 0.6, 0.9}
	starColor   = mgl32.Vec3{1, 1, 1}
)

// NoiseField is the CPU version of the space sky: five octaves of Perlin
// noise over the view direction, shifted by the viewer position.
type NoiseField struct {
	noise *perlin.Perlin

	// Scale multiplies the direction before sampling.
	Scale float32
	// Parallax multiplies the viewer position before it is added.
	Parallax float32
	// StarScale is the frequency of the star layer relative to Scale.
	StarScale float32
}

func NewNoiseField(seed int64, scale, parallax float32) *NoiseField {
	return &NoiseField{
		noise:     perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
		Scale:     scale,
		Parallax:  parallax,
		StarScale: 16,
	}
}

// Value returns the noise at p remapped to roughly [0, 1].
func (n *NoiseField) Value(p mgl32.Vec3) float32 {
	v := n.noise.Noise3D(float64(p[0]), float64(p[1]), float64(p[2]))
	return smath.Clamp(float32(0.5+0.5*v), 0, 1)
}

// Color shades direction dir for a viewer at position.
func (n *NoiseField) Color(dir, position mgl32.Vec3) mgl32.Vec3 {
	d := smath.SafeNormalize(dir)
	offset := position.Mul(n.Parallax)

	p := d.Mul(n.Scale).Add(offset)
	v := n.Value(p)

	c := smath.Mix(voidColor, nebulaColor, smath.Smoothstep(0.35, 0.75, v))
	c = smath.Mix(c, glowColor, smath.Smoothstep(0.7, 0.95, v)*0.5)

	s := n.Value(d.Mul(n.Scale * n.StarScale).Add(offset))
	star := smath.Smoothstep(0.9, 0.95, s) * s
	return smath.Mix(c, starColor, smath.Clamp(star, 0, 1))
}

// GenerateFace renders one size×size RGB8 face, rows top to bottom.
func GenerateFace(field *NoiseField, face Face, size int, position mgl32.Vec3) []byte {
	pixels := make([]byte, size*size*3)
	i := 0
	for row := 0; row < size; row++ {
		t := (float32(row)+0.5)/float32(size)*2 - 1
		for col := 0; col < size; col++ {
			s := (float32(col)+0.5)/float32(size)*2 - 1
			c := field.Color(face.Direction(s, t), position)
			pixels[i] = toByte(c[0])
			pixels[i+1] = toByte(c[1])
			pixels[i+2] = toByte(c[2])
			i += 3
		}
	}
	return pixels
}

// GenerateCubemap renders all six faces concurrently.
func GenerateCubemap(ctx context.Context, field *NoiseField, size int, position mgl32.Vec3) ([FaceCount][]byte, error) {
	var faces [FaceCount][]byte
	g, ctx := errgroup.WithContext(ctx)
	for f := Face(0); f < FaceCount; f++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			faces[f] = GenerateFace(field, f, size, position)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return faces, fmt.Errorf("skybox: generate cubemap: %w", err)
	}
	return faces, nil
}

func toByte(v float32) byte {
	return byte(smath.Clamp(v, 0, 1)*255 + 0.5)
}

// FaceUploader receives CPU-generated face pixels.
type FaceUploader interface {
	UploadFace(cube Cubemap, face Face, size int, rgb []byte) error
}

// CPUTarget renders faces with a NoiseField and hands them to an uploader.
type CPUTarget struct {
	Field    *NoiseField
	Size     int
	Uploader FaceUploader
}

func (t *CPUTarget) RenderFace(cube Cubemap, face Face, position mgl32.Vec3) error {
	return t.Uploader.UploadFace(cube, face, t.Size, GenerateFace(t.Field, face, t.Size, position))
}
