package raster

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/disintegration/imaging"

	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/scene"
)

// shader holds everything needed to color one mesh element.
type shader struct {
	lighting scene.Lighting
	diffuse  rgb
	tex      *texture
	lights   []light
}

// light is an omni light with its intensity folded into the color. There
// is no distance attenuation.
type light struct {
	pos   geom.Vec3
	color rgb
}

func (s *shader) shade(p, n geom.Vec3, uv geom.Vec2) rgb {
	base := s.diffuse
	if s.tex != nil {
		tc, a := s.tex.sample(uv)
		base = tc.add(base.scale(1 - a))
	}
	if s.lighting == scene.LightingConstant {
		return base
	}
	var lit rgb
	for _, l := range s.lights {
		d := n.Dot(l.pos.Sub(p).Normal())
		if d > 0 {
			lit = lit.add(l.color.scale(d))
		}
	}
	return base.mul(lit)
}

// texture is an image converted to premultiplied linear RGBA.
type texture struct {
	w, h int
	pix  []float32
}

func newTexture(img image.Image) *texture {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	src := imaging.Clone(img)
	t := &texture{w: src.Bounds().Dx(), h: src.Bounds().Dy()}
	t.pix = make([]float32, 4*t.w*t.h)
	for i := 0; i < len(src.Pix); i += 4 {
		a := float32(src.Pix[i+3]) / 255
		t.pix[i] = toLinear[src.Pix[i]] * a
		t.pix[i+1] = toLinear[src.Pix[i+1]] * a
		t.pix[i+2] = toLinear[src.Pix[i+2]] * a
		t.pix[i+3] = a
	}
	return t
}

// sample filters bilinearly with clamp-to-edge addressing. The image's top
// row is at v = 0.
func (t *texture) sample(uv geom.Vec2) (rgb, float32) {
	x := uv.X*float32(t.w) - 0.5
	y := uv.Y*float32(t.h) - 0.5
	fx, fy := math32.Floor(x), math32.Floor(y)
	tx, ty := x-fx, y-fy
	x0, y0 := clampInt(int(fx), t.w-1), clampInt(int(fy), t.h-1)
	x1, y1 := clampInt(int(fx)+1, t.w-1), clampInt(int(fy)+1, t.h-1)

	var out [4]float32
	for _, tap := range [4]struct {
		x, y int
		w    float32
	}{
		{x0, y0, (1 - tx) * (1 - ty)},
		{x1, y0, tx * (1 - ty)},
		{x0, y1, (1 - tx) * ty},
		{x1, y1, tx * ty},
	} {
		o := 4 * (tap.y*t.w + tap.x)
		for c := range out {
			out[c] += t.pix[o+c] * tap.w
		}
	}
	return rgb{out[0], out[1], out[2]}, out[3]
}

func clampInt(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
