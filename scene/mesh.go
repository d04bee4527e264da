package scene

// Mesh holds CPU-side vertex and index data for one primitive.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Material *Material

	// GPUData is owned by the rendering backend.
	GPUData interface{}
}

func NewMesh(name string, vertices []Vertex, indices []uint32) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
}

// IndexCount is the number of indices to draw, or the vertex count for
// unindexed meshes.
func (m *Mesh) IndexCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices)
	}
	return len(m.Vertices)
}
