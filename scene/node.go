package scene

import "github.com/go-gl/mathgl/mgl32"

// Node is an element of the scene graph. A node with a Mesh is drawn with
// its world matrix.
type Node struct {
	Name      string
	Transform Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Visible   bool

	worldMatrixDirty bool
	worldMatrix      mgl32.Mat4
}

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        NewTransform(),
		Visible:          true,
		worldMatrixDirty: true,
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	child.MarkWorldMatrixDirty()
	n.Children = append(n.Children, child)
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

// WorldMatrix is the product of the local matrices from the root down.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	if n.worldMatrixDirty {
		local := n.Transform.Matrix()
		if n.Parent != nil {
			n.worldMatrix = n.Parent.WorldMatrix().Mul4(local)
		} else {
			n.worldMatrix = local
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) SetPosition(pos mgl32.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot mgl32.Quat) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetScale(scale mgl32.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

// Traverse visits n and its descendants depth first.
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}
