// Package shape builds flattened 2D outlines used as cross-sections for
// extruded geometry.
//
// Curves are flattened on construction: a Path is always a closed polygon.
// Arcs are subdivided until the chord deviates from the true curve by at most
// [Flatness] units, which is fine enough for extrusion without visible
// faceting at icon sizes.
package shape

import (
	"math"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

// Flatness is the maximum distance between a flattened arc and the true curve.
const Flatness = 1.0 / 1000

// Point is a 2D point.
type Point struct {
	X, Y float64
}

// Path is a closed polygonal outline. The last point connects back to the
// first; the first point is never repeated at the end.
type Path struct {
	points []Point
}

// Points returns the outline vertices in order.
func (p *Path) Points() []Point {
	return p.points
}

// Len returns the number of vertices.
func (p *Path) Len() int {
	return len(p.points)
}

// Closed reports whether the outline forms a polygon. Paths built by this
// package are closed whenever they have at least three vertices.
func (p *Path) Closed() bool {
	return len(p.points) >= 3
}

// Bounds returns the axis-aligned bounds as (minX, minY, maxX, maxY).
func (p *Path) Bounds() (minX, minY, maxX, maxY float64) {
	if len(p.points) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, pt := range p.points {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return minX, minY, maxX, maxY
}

// Area returns the signed area (shoelace). Counter-clockwise outlines are
// positive.
func (p *Path) Area() float64 {
	var a float64
	n := len(p.points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += p.points[i].X*p.points[j].Y - p.points[j].X*p.points[i].Y
	}
	return a / 2
}

// IsSimple reports whether no two non-adjacent edges intersect.
func (p *Path) IsSimple() bool {
	n := len(p.points)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := p.points[i], p.points[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := p.points[j], p.points[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

// Builder accumulates a flattened outline.
type Builder struct {
	points []Point
}

// LineTo appends a vertex, skipping exact duplicates of the previous one.
func (b *Builder) LineTo(x, y float64) *Builder {
	pt := Point{x, y}
	if n := len(b.points); n > 0 && b.points[n-1] == pt {
		return b
	}
	b.points = append(b.points, pt)
	return b
}

// Arc appends a flattened circular arc around (cx, cy) from angle a0 to a1
// (radians, counter-clockwise when a1 > a0). Both endpoints are emitted; end
// points that fall on a quarter turn are snapped so they lie exactly on the
// axis-aligned extremes.
func (b *Builder) Arc(cx, cy, r, a0, a1 float64) *Builder {
	sweep := a1 - a0
	n := arcSegments(r, math.Abs(sweep))
	for i := 0; i <= n; i++ {
		a := a0 + sweep*float64(i)/float64(n)
		c, s := snapCos(a), snapSin(a)
		b.LineTo(cx+r*c, cy+r*s)
	}
	return b
}

// Close finishes the outline. A trailing vertex equal to the first is dropped.
func (b *Builder) Close() *Path {
	pts := b.points
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	b.points = nil
	return &Path{points: pts}
}

// RoundedRectangle returns the outline of a width x height rectangle with its
// minimum corner at the origin and circular corners of radius cornerRadius.
// A radius <= 0 yields a plain rectangle; radii larger than half the shorter
// side are clamped to it.
func RoundedRectangle(width, height, cornerRadius float64) (*Path, error) {
	if !(width > 0) || !(height > 0) {
		return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "rounded rectangle needs a positive size, got %gx%g", width, height)
	}

	r := math.Min(cornerRadius, math.Min(width, height)/2)
	b := &Builder{}
	if r <= 0 || math.IsNaN(r) {
		return b.LineTo(0, 0).LineTo(width, 0).LineTo(width, height).LineTo(0, height).Close(), nil
	}

	b.Arc(width-r, r, r, -math.Pi/2, 0)
	b.Arc(width-r, height-r, r, 0, math.Pi/2)
	b.Arc(r, height-r, r, math.Pi/2, math.Pi)
	b.Arc(r, r, r, math.Pi, 3*math.Pi/2)
	return b.Close(), nil
}

// arcSegments returns how many chords approximate an arc of radius r
// spanning sweep radians within Flatness.
func arcSegments(r, sweep float64) int {
	if r <= Flatness {
		return 1
	}
	step := 2 * math.Acos(1-Flatness/r)
	n := int(math.Ceil(sweep / step))
	if n < 1 {
		n = 1
	}
	return n
}

func snapCos(a float64) float64 {
	if q, ok := quarterTurn(a); ok {
		return [4]float64{1, 0, -1, 0}[q]
	}
	return math.Cos(a)
}

func snapSin(a float64) float64 {
	if q, ok := quarterTurn(a); ok {
		return [4]float64{0, 1, 0, -1}[q]
	}
	return math.Sin(a)
}

// quarterTurn reports whether a is a multiple of pi/2 and which one (mod 4).
func quarterTurn(a float64) (int, bool) {
	k := a / (math.Pi / 2)
	r := math.Round(k)
	if math.Abs(k-r) > 1e-12 {
		return 0, false
	}
	q := int(r) % 4
	if q < 0 {
		q += 4
	}
	return q, true
}

func segmentsIntersect(p1, p2, p3, p4 Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(p3, p4, p1)) ||
		(d2 == 0 && onSegment(p3, p4, p2)) ||
		(d3 == 0 && onSegment(p1, p2, p3)) ||
		(d4 == 0 && onSegment(p1, p2, p4))
}

func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}
