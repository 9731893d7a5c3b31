// Package raster draws a [scene.Scene] into an image on the CPU.
//
// It is a small triangle rasterizer tailored to the icon scenes: an
// orthographic camera, omni lights with category masks, unlit or diffuse
// materials and optional textures. Each pixel is covered by 1, 2 or 4
// samples that are shaded once after depth testing and averaged.
//
// Rows are split into bands rendered concurrently. Every band processes the
// same triangle list in the same order, so the output does not depend on
// the number of bands.
package raster

import (
	"context"
	"image"
	"image/color"
	"math"
	"runtime"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/scene"
)

// Options configures a render.
type Options struct {
	Width, Height int

	// Samples per pixel: 1, 2 or 4.
	Samples int

	// Background fills uncovered samples. A zero alpha leaves them
	// transparent; any other alpha is drawn opaque.
	Background color.NRGBA

	// Bands is the number of row bands rendered concurrently. Zero uses
	// GOMAXPROCS.
	Bands int
}

// Sample positions inside a pixel. The 4x pattern is a rotated grid.
var samplePatterns = map[int][]geom.Vec2{
	1: {{X: 0.5, Y: 0.5}},
	2: {{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.75}},
	4: {{X: 0.375, Y: 0.125}, {X: 0.875, Y: 0.375}, {X: 0.125, Y: 0.625}, {X: 0.625, Y: 0.875}},
}

// Render draws s as seen from its first camera.
func Render(ctx context.Context, s *scene.Scene, opts Options) (*image.NRGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "invalid render size %dx%d", opts.Width, opts.Height)
	}
	pattern, ok := samplePatterns[opts.Samples]
	if !ok {
		return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "unsupported sample count %d", opts.Samples)
	}
	cam := s.Camera()
	if cam == nil {
		return nil, kerrors.New(kerrors.ErrCodeCompositingFailure, "scene has no camera")
	}
	viewProj, err := viewProjection(cam, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}

	f := &frame{
		width:   opts.Width,
		height:  opts.Height,
		pattern: pattern,
		bg:      opts.Background,
		bgLin:   linear(opts.Background),
	}
	f.setup(s, viewProj)

	img := image.NewNRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	bands := opts.Bands
	if bands <= 0 {
		bands = runtime.GOMAXPROCS(0)
	}
	bands = min(bands, opts.Height)
	rows := (opts.Height + bands - 1) / bands

	g, ctx := errgroup.WithContext(ctx)
	for y0 := 0; y0 < opts.Height; y0 += rows {
		y1 := min(y0+rows, opts.Height)
		g.Go(func() error {
			return f.renderBand(ctx, img, y0, y1)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

func viewProjection(cam *scene.Node, w, h int) (geom.Mat4, error) {
	view, ok := cam.WorldMatrix().Inverse()
	if !ok {
		return geom.Mat4{}, kerrors.New(kerrors.ErrCodeCompositingFailure, "camera transform is singular")
	}
	c := cam.Camera
	aspect := float32(w) / float32(h)
	scale := c.OrthographicScale
	proj := geom.Orthographic(-scale*aspect, scale*aspect, -scale, scale, c.ZNear, c.ZFar)
	return proj.Mul(view), nil
}

// vertex is a triangle corner in screen space with its shading inputs.
type vertex struct {
	sx, sy, z float32 // pixel position and NDC depth
	world     geom.Vec3
	normal    geom.Vec3
	uv        geom.Vec2
}

type triangle struct {
	v                      [3]vertex
	inv                    float32 // reciprocal of twice the signed screen area
	minX, minY, maxX, maxY int
	flip                   bool // back face of a double-sided material
	shader                 *shader
}

type frame struct {
	width, height int
	pattern       []geom.Vec2
	bg            color.NRGBA
	bgLin         rgb
	tris          []triangle
}

func (f *frame) setup(s *scene.Scene, viewProj geom.Mat4) {
	lights := s.Lights()
	textures := map[image.Image]*texture{}

	for _, d := range s.Drawables() {
		n := d.Node
		m := n.Mesh
		nm := d.World.NormalMatrix()

		verts := make([]vertex, len(m.Vertices))
		for i, v := range m.Vertices {
			w := d.World.MulPoint(v.Position)
			ndc := viewProj.MulPoint(w)
			verts[i] = vertex{
				sx:     (ndc.X + 1) / 2 * float32(f.width),
				sy:     (1 - ndc.Y) / 2 * float32(f.height),
				z:      ndc.Z,
				world:  w,
				normal: nm.MulDir(v.Normal).Normal(),
				uv:     v.UV,
			}
		}

		for ei, e := range m.Elements {
			mat, ok := n.MaterialFor(ei)
			if !ok {
				mat = scene.Material{Diffuse: color.NRGBA{0xff, 0xff, 0xff, 0xff}}
			}
			sh := &shader{lighting: mat.Lighting, diffuse: linear(mat.Diffuse)}
			if mat.Texture != nil {
				tex, seen := textures[mat.Texture]
				if !seen {
					tex = newTexture(mat.Texture)
					textures[mat.Texture] = tex
				}
				sh.tex = tex
			}
			for _, l := range lights {
				if l.CategoryMask&n.CategoryMask == 0 {
					continue
				}
				sh.lights = append(sh.lights, light{
					pos:   l.Position,
					color: linear(l.Color).scale(l.Intensity / 1000),
				})
			}
			for i := 0; i+2 < len(e.Indices); i += 3 {
				f.addTriangle(verts[e.Indices[i]], verts[e.Indices[i+1]], verts[e.Indices[i+2]], sh, mat.DoubleSided)
			}
		}
	}
}

func (f *frame) addTriangle(a, b, c vertex, sh *shader, doubleSided bool) {
	area := edge(a, b, c.sx, c.sy)
	if area == 0 || math32.IsNaN(area) {
		return
	}
	// Screen y points down, so front faces have negative area.
	flip := area > 0
	if flip && !doubleSided {
		return
	}
	t := triangle{v: [3]vertex{a, b, c}, inv: 1 / area, flip: flip, shader: sh}
	t.minX = max(int(math32.Floor(min(a.sx, b.sx, c.sx))), 0)
	t.minY = max(int(math32.Floor(min(a.sy, b.sy, c.sy))), 0)
	t.maxX = min(int(math32.Ceil(max(a.sx, b.sx, c.sx))), f.width-1)
	t.maxY = min(int(math32.Ceil(max(a.sy, b.sy, c.sy))), f.height-1)
	if t.minX > t.maxX || t.minY > t.maxY {
		return
	}
	f.tris = append(f.tris, t)
}

// edge returns the signed doubled area of (p, q, (x, y)).
func edge(p, q vertex, x, y float32) float32 {
	return (q.sx-p.sx)*(y-p.sy) - (q.sy-p.sy)*(x-p.sx)
}

const noTriangle = -1

// renderBand rasterizes rows [y0, y1) and writes them into img.
func (f *frame) renderBand(ctx context.Context, img *image.NRGBA, y0, y1 int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n := len(f.pattern)
	count := (y1 - y0) * f.width * n
	depth := make([]float32, count)
	tri := make([]int32, count)
	bary := make([][2]float32, count)

	depth[0], tri[0] = math.MaxFloat32, noTriangle
	for i := 1; i < count; i *= 2 {
		copy(depth[i:], depth[:i])
		copy(tri[i:], tri[:i])
	}

	for ti := range f.tris {
		if ti%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		t := &f.tris[ti]
		if t.maxY < y0 || t.minY >= y1 {
			continue
		}
		a, b, c := t.v[0], t.v[1], t.v[2]
		for y := max(t.minY, y0); y <= min(t.maxY, y1-1); y++ {
			for x := t.minX; x <= t.maxX; x++ {
				base := ((y-y0)*f.width + x) * n
				for si, sp := range f.pattern {
					px, py := float32(x)+sp.X, float32(y)+sp.Y
					w0 := edge(b, c, px, py) * t.inv
					w1 := edge(c, a, px, py) * t.inv
					w2 := edge(a, b, px, py) * t.inv
					if w0 < 0 || w1 < 0 || w2 < 0 {
						continue
					}
					z := w0*a.z + w1*b.z + w2*c.z
					i := base + si
					if z < -1 || z > 1 || z >= depth[i] {
						continue
					}
					depth[i] = z
					tri[i] = int32(ti)
					bary[i] = [2]float32{w1, w2}
				}
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	f.resolve(img, y0, y1, tri, bary)
	return nil
}

// resolve shades the visible samples and averages them into pixels.
func (f *frame) resolve(img *image.NRGBA, y0, y1 int, tri []int32, bary [][2]float32) {
	n := len(f.pattern)
	opaque := f.bg.A != 0
	for y := y0; y < y1; y++ {
		for x := 0; x < f.width; x++ {
			base := ((y-y0)*f.width + x) * n
			var sum rgb
			covered := 0
			for si := 0; si < n; si++ {
				ti := tri[base+si]
				if ti == noTriangle {
					continue
				}
				sum = sum.add(f.shadeSample(&f.tris[ti], bary[base+si]))
				covered++
			}

			px := img.Pix[img.PixOffset(x, y):]
			switch {
			case covered == 0 && opaque:
				px[0], px[1], px[2], px[3] = f.bg.R, f.bg.G, f.bg.B, 0xff
			case covered == 0:
				px[0], px[1], px[2], px[3] = 0, 0, 0, 0
			case opaque:
				c := sum.add(f.bgLin.scale(float32(n - covered))).scale(1 / float32(n))
				px[0], px[1], px[2], px[3] = encode(c.r), encode(c.g), encode(c.b), 0xff
			default:
				c := sum.scale(1 / float32(covered))
				px[0], px[1], px[2] = encode(c.r), encode(c.g), encode(c.b)
				px[3] = uint8((255*covered + n/2) / n)
			}
		}
	}
}

func (f *frame) shadeSample(t *triangle, w [2]float32) rgb {
	w1, w2 := w[0], w[1]
	w0 := 1 - w1 - w2
	a, b, c := &t.v[0], &t.v[1], &t.v[2]

	p := a.world.Scale(w0).Add(b.world.Scale(w1)).Add(c.world.Scale(w2))
	nrm := a.normal.Scale(w0).Add(b.normal.Scale(w1)).Add(c.normal.Scale(w2)).Normal()
	if t.flip {
		nrm = nrm.Negate()
	}
	uv := a.uv.Scale(w0).Add(b.uv.Scale(w1)).Add(c.uv.Scale(w2))
	return t.shader.shade(p, nrm, uv)
}
