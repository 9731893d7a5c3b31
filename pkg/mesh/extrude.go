package mesh

import (
	"github.com/chewxy/math32"

	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/shape"
)

// Element order produced by Extrude.
const (
	ElementFront = iota // cap at +depth/2, facing +z
	ElementBack         // cap at -depth/2, facing -z
	ElementSides
)

// smoothCos is the cosine of the largest angle between neighbouring side
// faces that is still shaded as one curved surface.
var smoothCos = math32.Cos(30 * math32.Pi / 180)

// Extrude sweeps the outline p along z from -depth/2 to +depth/2. The outline
// must be convex and counter-clockwise, which holds for every outline built
// by package shape.
//
// Caps map the outline bounds onto the unit UV square: the min corner gets
// UV (0, 0). Sides wrap u along the perimeter and v along the depth.
func Extrude(p *shape.Path, depth float32) *Mesh {
	pts := p.Points()
	n := len(pts)
	m := &Mesh{Elements: make([]Element, 3)}
	if n < 3 {
		return m
	}

	minX, minY, maxX, maxY := p.Bounds()
	w, h := float32(maxX-minX), float32(maxY-minY)
	half := depth / 2

	outline := make([]geom.Vec2, n)
	for i, pt := range pts {
		outline[i] = geom.V2(float32(pt.X), float32(pt.Y))
	}
	capUV := func(v geom.Vec2) geom.Vec2 {
		return geom.V2((v.X-float32(minX))/w, (v.Y-float32(minY))/h)
	}

	// Caps, fanned from the first vertex.
	for _, face := range []struct {
		element int
		z       float32
		normal  geom.Vec3
	}{
		{ElementFront, half, geom.V3(0, 0, 1)},
		{ElementBack, -half, geom.V3(0, 0, -1)},
	} {
		base := uint32(len(m.Vertices))
		for _, v := range outline {
			m.Vertices = append(m.Vertices, Vertex{
				Position: geom.V3(v.X, v.Y, face.z),
				Normal:   face.normal,
				UV:       capUV(v),
			})
		}
		idx := make([]uint32, 0, 3*(n-2))
		for i := 1; i < n-1; i++ {
			a, b := base+uint32(i), base+uint32(i+1)
			if face.element == ElementBack {
				a, b = b, a
			}
			idx = append(idx, base, a, b)
		}
		m.Elements[face.element].Indices = idx
	}

	// Sides: one quad per edge. Shared vertices between nearly parallel
	// edges get averaged normals so flattened arcs shade smoothly.
	edgeNormals := make([]geom.Vec3, n)
	var perimeter float32
	lengths := make([]float32, n)
	for i := 0; i < n; i++ {
		d := outline[(i+1)%n].Sub(outline[i])
		edgeNormals[i] = geom.V3(d.Y, -d.X, 0).Normal()
		lengths[i] = math32.Sqrt(d.X*d.X + d.Y*d.Y)
		perimeter += lengths[i]
	}
	vertexNormal := func(edge, vertex int) geom.Vec3 {
		other := edge - 1
		if vertex != edge {
			other = edge + 1
		}
		other = (other + n) % n
		if edgeNormals[edge].Dot(edgeNormals[other]) >= smoothCos {
			return edgeNormals[edge].Add(edgeNormals[other]).Normal()
		}
		return edgeNormals[edge]
	}

	var side []uint32
	var run float32
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a, b := outline[i], outline[j]
		na, nb := vertexNormal(i, i), vertexNormal(i, j)
		u0, u1 := run/perimeter, (run+lengths[i])/perimeter
		run += lengths[i]

		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			Vertex{Position: geom.V3(a.X, a.Y, -half), Normal: na, UV: geom.V2(u0, 0)},
			Vertex{Position: geom.V3(b.X, b.Y, -half), Normal: nb, UV: geom.V2(u1, 0)},
			Vertex{Position: geom.V3(b.X, b.Y, half), Normal: nb, UV: geom.V2(u1, 1)},
			Vertex{Position: geom.V3(a.X, a.Y, half), Normal: na, UV: geom.V2(u0, 1)},
		)
		side = append(side, base, base+1, base+2, base, base+2, base+3)
	}
	m.Elements[ElementSides].Indices = side
	return m
}
