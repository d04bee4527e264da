package scene

import "github.com/go-gl/mathgl/mgl32"

// Face colours of the debug cube, in +Z, -Z, +Y, -Y, +X, -X order.
var cubeFaceColors = [6]Color{
	{1, 0, 0, 1},
	{1, 1, 0, 1},
	{0, 1, 0, 1},
	{1, 0.5, 0.5, 1},
	{1, 0, 1, 1},
	{0, 0, 1, 1},
}

var cubeFaceNormals = [6]mgl32.Vec3{
	{0, 0, 1}, {0, 0, -1},
	{0, 1, 0}, {0, -1, 0},
	{1, 0, 0}, {-1, 0, 0},
}

// CreateCube builds a cube of the given edge length with one colour per face.
func CreateCube(size float32) *Mesh {
	h := size / 2
	var vertices []Vertex
	var indices []uint32

	for f, n := range cubeFaceNormals {
		// Two axes spanning the face, chosen so that u × v = n.
		u := mgl32.Vec3{n[1], n[2], n[0]}
		v := n.Cross(u)
		base := uint32(len(vertices))
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := n.Add(u.Mul(c[0])).Add(v.Mul(c[1])).Mul(h)
			vertices = append(vertices, Vertex{
				Position: p,
				Normal:   n,
				UV:       mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2},
				Color:    cubeFaceColors[f],
			})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return NewMesh("Cube", vertices, indices)
}

// CreatePyramid builds a square-based pyramid centred on the origin.
func CreatePyramid(width, height float32) *Mesh {
	w, h := width/2, height/2
	tip := mgl32.Vec3{0, h, 0}
	corners := [4]mgl32.Vec3{{-w, -h, w}, {w, -h, w}, {w, -h, -w}, {-w, -h, -w}}
	sideColors := [4]Color{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}, {1, 1, 0, 1}}

	var vertices []Vertex
	var indices []uint32

	for i := range corners {
		a, b := corners[i], corners[(i+1)%4]
		n := b.Sub(a).Cross(tip.Sub(a)).Normalize()
		base := uint32(len(vertices))
		for _, p := range []mgl32.Vec3{a, b, tip} {
			vertices = append(vertices, Vertex{Position: p, Normal: n, Color: sideColors[i]})
		}
		indices = append(indices, base, base+1, base+2)
	}

	down := mgl32.Vec3{0, -1, 0}
	base := uint32(len(vertices))
	for _, p := range corners {
		vertices = append(vertices, Vertex{Position: p, Normal: down, Color: Color{1, 0.5, 0.2, 1}})
	}
	indices = append(indices, base, base+2, base+1, base, base+3, base+2)

	return NewMesh("Pyramid", vertices, indices)
}
