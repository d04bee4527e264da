package scene

import "github.com/go-gl/mathgl/mgl32"

// Scene is a loaded model: a node graph plus the textures it references.
type Scene struct {
	Root     *Node
	Textures []*Texture
}

func NewScene() *Scene {
	return &Scene{Root: NewNode("Root")}
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

// Drawable is a mesh with the world matrix of the node that carries it.
type Drawable struct {
	Node  *Node
	Mesh  *Mesh
	World mgl32.Mat4
}

// Drawables lists every visible node with a mesh, in traversal order.
func (s *Scene) Drawables() []Drawable {
	var out []Drawable
	s.Root.Traverse(func(n *Node) {
		if n.Visible && n.Mesh != nil {
			out = append(out, Drawable{Node: n, Mesh: n.Mesh, World: n.WorldMatrix()})
		}
	})
	return out
}
