package mesh

import (
	"math"
	"testing"

	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/shape"
)

func roundedSquare(t *testing.T) *shape.Path {
	t.Helper()
	p, err := shape.RoundedRectangle(1, 1, 0.22)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtrudeBounds(t *testing.T) {
	m := Extrude(roundedSquare(t), 1.0/6)
	b := m.Bounds()
	want := geom.Box3{Min: geom.V3(0, 0, -1.0/12), Max: geom.V3(1, 1, 1.0/12)}
	if !b.Min.ApproxEqual(want.Min, 1e-6) || !b.Max.ApproxEqual(want.Max, 1e-6) {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
	if len(m.Elements) != 3 {
		t.Fatalf("elements = %d, want 3", len(m.Elements))
	}
}

func TestExtrudeTriangleCount(t *testing.T) {
	p := roundedSquare(t)
	n := p.Len()
	m := Extrude(p, 0.2)

	caps := n - 2
	if got := len(m.Elements[ElementFront].Indices) / 3; got != caps {
		t.Errorf("front triangles = %d, want %d", got, caps)
	}
	if got := len(m.Elements[ElementBack].Indices) / 3; got != caps {
		t.Errorf("back triangles = %d, want %d", got, caps)
	}
	if got := len(m.Elements[ElementSides].Indices) / 3; got != 2*n {
		t.Errorf("side triangles = %d, want %d", got, 2*n)
	}
}

// Every triangle's winding must agree with its stored normal so back-face
// culling keeps outward faces.
func TestExtrudeWindingMatchesNormals(t *testing.T) {
	m := Extrude(roundedSquare(t), 0.2)
	for ei, e := range m.Elements {
		for i := 0; i < len(e.Indices); i += 3 {
			a := m.Vertices[e.Indices[i]]
			b := m.Vertices[e.Indices[i+1]]
			c := m.Vertices[e.Indices[i+2]]
			face := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
			if face.Length() == 0 {
				t.Fatalf("element %d triangle %d is degenerate", ei, i/3)
			}
			if face.Dot(a.Normal) <= 0 {
				t.Fatalf("element %d triangle %d winds against its normal", ei, i/3)
			}
		}
	}
}

func TestExtrudeCapUVs(t *testing.T) {
	m := Extrude(roundedSquare(t), 0.2)
	for _, i := range m.Elements[ElementFront].Indices {
		v := m.Vertices[i]
		if math.Abs(float64(v.UV.X-v.Position.X)) > 1e-6 || math.Abs(float64(v.UV.Y-v.Position.Y)) > 1e-6 {
			t.Fatalf("cap UV %v does not match unit outline position %v", v.UV, v.Position)
		}
	}
}

func TestTransformAndMerge(t *testing.T) {
	m := Extrude(roundedSquare(t), 0.2)
	moved := m.Transform(geom.Translation(geom.V3(2, 0, 0)))
	if got := moved.Bounds().Min.X; math.Abs(float64(got-2)) > 1e-6 {
		t.Errorf("moved min x = %v, want 2", got)
	}
	if m.Bounds().Min.X != 0 {
		t.Error("Transform must not modify the source mesh")
	}

	merged := Merge(m, nil, moved)
	if merged.VertexCount() != 2*m.VertexCount() {
		t.Errorf("merged vertices = %d, want %d", merged.VertexCount(), 2*m.VertexCount())
	}
	if merged.TriangleCount() != 2*m.TriangleCount() {
		t.Errorf("merged triangles = %d, want %d", merged.TriangleCount(), 2*m.TriangleCount())
	}
	b := merged.Bounds()
	if b.Min.X != 0 || math.Abs(float64(b.Max.X-3)) > 1e-6 {
		t.Errorf("merged bounds = %+v", b)
	}

	single := merged.SingleElement()
	if len(single.Elements) != 1 || single.TriangleCount() != merged.TriangleCount() {
		t.Errorf("SingleElement = %d elements, %d triangles", len(single.Elements), single.TriangleCount())
	}
}

func TestIsEmpty(t *testing.T) {
	var nilMesh *Mesh
	if !nilMesh.IsEmpty() {
		t.Error("nil mesh should be empty")
	}
	if !(&Mesh{}).IsEmpty() {
		t.Error("zero mesh should be empty")
	}
}
