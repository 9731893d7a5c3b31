// Package mesh holds indexed triangle meshes and the operations the scene
// needs on them: extruding a 2D outline, baking a transform and merging
// meshes into one.
//
// A mesh is split into elements. Each element is a triangle list drawn with
// one material; a node's materials are matched to elements by index and
// reused cyclically when there are fewer materials than elements.
//
// Meshes are treated as immutable once built: transforms return new meshes,
// so a mesh may be shared by several scene graph clones.
package mesh

import "github.com/skillbreak/kiticon/pkg/geom"

// Vertex is a mesh vertex.
type Vertex struct {
	Position geom.Vec3
	Normal   geom.Vec3
	UV       geom.Vec2
}

// Element is a triangle list drawn with a single material.
type Element struct {
	Indices []uint32 // three per triangle
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices []Vertex
	Elements []Element
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles across all elements.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, e := range m.Elements {
		n += len(e.Indices) / 3
	}
	return n
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return m == nil || m.TriangleCount() == 0
}

// Bounds returns the bounding box of all referenced vertices.
func (m *Mesh) Bounds() geom.Box3 {
	b := geom.EmptyBox()
	if m == nil {
		return b
	}
	for _, e := range m.Elements {
		for _, i := range e.Indices {
			b.ExpandByPoint(m.Vertices[i].Position)
		}
	}
	return b
}

// Transform returns a copy of m with positions transformed by t and normals
// by its normal matrix. Index slices are shared with m.
func (m *Mesh) Transform(t geom.Mat4) *Mesh {
	nm := t.NormalMatrix()
	out := &Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Elements: m.Elements,
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = Vertex{
			Position: t.MulPoint(v.Position),
			Normal:   nm.MulDir(v.Normal).Normal(),
			UV:       v.UV,
		}
	}
	return out
}

// Merge concatenates meshes into one. Elements are kept separate and
// appended in order.
func Merge(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, e := range m.Elements {
			idx := make([]uint32, len(e.Indices))
			for i, v := range e.Indices {
				idx[i] = v + base
			}
			out.Elements = append(out.Elements, Element{Indices: idx})
		}
	}
	return out
}

// SingleElement returns a copy of m whose elements are joined into one, so
// the whole mesh draws with one material.
func (m *Mesh) SingleElement() *Mesh {
	var idx []uint32
	for _, e := range m.Elements {
		idx = append(idx, e.Indices...)
	}
	return &Mesh{Vertices: m.Vertices, Elements: []Element{{Indices: idx}}}
}
