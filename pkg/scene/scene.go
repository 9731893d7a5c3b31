package scene

import "github.com/skillbreak/kiticon/pkg/geom"

// Scene is a node graph with a root.
type Scene struct {
	Root *Node
}

// New returns a scene with an empty root node.
func New() *Scene {
	return &Scene{Root: NewNode("root")}
}

// Clone returns a deep copy of the scene. See [Node.Clone].
func (s *Scene) Clone() *Scene {
	return &Scene{Root: s.Root.Clone()}
}

// PlacedLight is a light with its world position.
type PlacedLight struct {
	Light
	Position geom.Vec3
}

// Lights returns every light in the graph in depth-first order.
func (s *Scene) Lights() []PlacedLight {
	var out []PlacedLight
	s.Root.Walk(func(n *Node) bool {
		if n.Light != nil {
			out = append(out, PlacedLight{Light: *n.Light, Position: n.WorldMatrix().Position()})
		}
		return true
	})
	return out
}

// Camera returns the first node carrying a camera, or nil.
func (s *Scene) Camera() *Node {
	var cam *Node
	s.Root.Walk(func(n *Node) bool {
		if cam != nil {
			return false
		}
		if n.Camera != nil {
			cam = n
			return false
		}
		return true
	})
	return cam
}

// Drawable is a geometry node with its world transform.
type Drawable struct {
	Node  *Node
	World geom.Mat4
}

// Drawables returns every node with a non-empty mesh in depth-first order.
func (s *Scene) Drawables() []Drawable {
	var out []Drawable
	var visit func(n *Node, parent geom.Mat4)
	visit = func(n *Node, parent geom.Mat4) {
		world := parent.Mul(n.LocalMatrix())
		if !n.Mesh.IsEmpty() {
			out = append(out, Drawable{Node: n, World: world})
		}
		for _, c := range n.children {
			visit(c, world)
		}
	}
	visit(s.Root, geom.Identity())
	return out
}
