// Package scene is the small scene graph the icon renderer draws: nodes with
// a transform, optional geometry, a light or a camera, and category masks
// that decide which lights affect which geometry.
//
// The graph is deliberately plain. Nodes are mutable and not safe for
// concurrent use; a renderer that works on another goroutine takes a
// [Node.Clone] first. Clones share meshes and textures, which are never
// mutated after they are built.
package scene

import (
	"image"
	"image/color"

	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/mesh"
)

// Category bits. A light affects a node when their masks share a bit.
const (
	CategoryLayers uint32 = 1
	CategoryModel  uint32 = 1 << 1
)

// Lighting selects the shading model of a material.
type Lighting int

const (
	// LightingBlinn shades with the diffuse term of the scene lights.
	LightingBlinn Lighting = iota
	// LightingConstant ignores lights and shows the material color as is.
	LightingConstant
)

// Material describes how one mesh element is drawn. Texture, when set,
// replaces Diffuse and is sampled with the element's UVs.
type Material struct {
	Diffuse     color.NRGBA
	Texture     image.Image
	Lighting    Lighting
	DoubleSided bool
}

// Light is an omni light. Intensity is in lumen-like units where 1000 is
// full strength.
type Light struct {
	Color        color.NRGBA
	Intensity    float32
	CategoryMask uint32
}

// Camera is an orthographic camera looking down its local -z axis.
// OrthographicScale is half the visible height in world units.
type Camera struct {
	OrthographicScale float32
	ZNear             float32
	ZFar              float32
}

// DefaultCamera returns a camera with scale 1 and a 1..100 depth range.
func DefaultCamera() Camera {
	return Camera{OrthographicScale: 1, ZNear: 1, ZFar: 100}
}

// Node is a scene graph node.
type Node struct {
	Name     string
	Position geom.Vec3
	Euler    geom.Vec3 // radians, see geom.Euler
	Scale    geom.Vec3

	Mesh      *mesh.Mesh
	Materials []Material // matched to mesh elements, reused cyclically
	Light     *Light
	Camera    *Camera

	CategoryMask uint32

	parent   *Node
	children []*Node
}

// NewNode returns an empty node with unit scale in the layer category.
func NewNode(name string) *Node {
	return &Node{
		Name:         name,
		Scale:        geom.Splat(1),
		CategoryMask: CategoryLayers,
	}
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// AddChild appends c to n's children, detaching it from any previous parent.
func (n *Node) AddChild(c *Node) {
	if c.parent != nil {
		c.RemoveFromParent()
	}
	c.parent = n
	n.children = append(n.children, c)
}

// RemoveFromParent detaches n from its parent. It is a no-op for a root.
func (n *Node) RemoveFromParent() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// ChildNamed returns the first descendant called name in depth-first order,
// or nil. Only direct children are searched unless recursive is set.
func (n *Node) ChildNamed(name string, recursive bool) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	if !recursive {
		return nil
	}
	for _, c := range n.children {
		if found := c.ChildNamed(name, true); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	// Copy so fn may detach children while walking.
	for _, c := range append([]*Node(nil), n.children...) {
		c.Walk(fn)
	}
}

// LocalMatrix returns the node transform relative to its parent.
func (n *Node) LocalMatrix() geom.Mat4 {
	return geom.Compose(n.Position, n.Euler, n.Scale)
}

// WorldMatrix returns the node transform relative to the graph root.
func (n *Node) WorldMatrix() geom.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// BoundingBox returns the bounds of all geometry in the subtree, expressed
// in n's local space (n's own transform is not applied).
func (n *Node) BoundingBox() geom.Box3 {
	b := geom.EmptyBox()
	if !n.Mesh.IsEmpty() {
		b = n.Mesh.Bounds()
	}
	for _, c := range n.children {
		cb := c.BoundingBox()
		if cb.IsEmpty() {
			continue
		}
		b = b.Union(cb.Transform(c.LocalMatrix()))
	}
	return b
}

// Clone returns a deep copy of the subtree rooted at n. The copy has no
// parent. Meshes and textures are shared; materials, lights and cameras
// are copied.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:         n.Name,
		Position:     n.Position,
		Euler:        n.Euler,
		Scale:        n.Scale,
		Mesh:         n.Mesh,
		CategoryMask: n.CategoryMask,
	}
	if n.Materials != nil {
		c.Materials = append([]Material(nil), n.Materials...)
	}
	if n.Light != nil {
		l := *n.Light
		c.Light = &l
	}
	if n.Camera != nil {
		cam := *n.Camera
		c.Camera = &cam
	}
	for _, child := range n.children {
		c.AddChild(child.Clone())
	}
	return c
}

// MaterialFor returns the material drawing mesh element i.
func (n *Node) MaterialFor(i int) (Material, bool) {
	if len(n.Materials) == 0 {
		return Material{}, false
	}
	return n.Materials[i%len(n.Materials)], true
}
