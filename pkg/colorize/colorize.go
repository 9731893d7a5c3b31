// Package colorize recolors icon images before they are used as a texture.
//
// [Colorize] treats the alpha channel of an image as a mask and blends a fill
// (solid color or linear gradient) over a background color through it.
// [Underlayer] composites an image over a flat color, giving transparent
// icons a defined background.
//
// Gradient endpoints are unit-square coordinates with the origin at the
// top-left corner. They are scaled by the target image's pixel size when
// the blend runs, so one spec works for every image size.
package colorize

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

// Kind selects how an image is colorized.
type Kind int

const (
	KindNone Kind = iota
	KindColor
	KindGradient
)

var kindNames = map[Kind]string{
	KindNone:     "none",
	KindColor:    "color",
	KindGradient: "gradient",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses "none", "color" or "gradient" (case-insensitive).
// "solid" is accepted as an alias of "color".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return KindNone, nil
	case "color", "solid":
		return KindColor, nil
	case "gradient":
		return KindGradient, nil
	}
	return KindNone, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown colorization %q (must be none, color or gradient)", s)
}

// Point is a unit-square coordinate.
type Point struct {
	X, Y float64
}

// Gradient describes a two-stop linear gradient.
type Gradient struct {
	Start      color.NRGBA
	End        color.NRGBA
	StartPoint Point
	EndPoint   Point
}

// Spec is a complete colorization setting.
type Spec struct {
	Kind     Kind
	Color    color.NRGBA
	Gradient Gradient
}

// DefaultGradient runs white to black from the top-left to the bottom-right
// corner.
func DefaultGradient() Gradient {
	return Gradient{
		Start:      color.NRGBA{0xff, 0xff, 0xff, 0xff},
		End:        color.NRGBA{0x00, 0x00, 0x00, 0xff},
		StartPoint: Point{0, 0},
		EndPoint:   Point{1, 1},
	}
}

// DefaultSpec returns a pass-through spec with black as the solid color and
// the default gradient preloaded.
func DefaultSpec() Spec {
	return Spec{
		Kind:     KindNone,
		Color:    color.NRGBA{0x00, 0x00, 0x00, 0xff},
		Gradient: DefaultGradient(),
	}
}

// Validate checks the kind and the gradient points.
func (s Spec) Validate() error {
	if _, ok := kindNames[s.Kind]; !ok {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "unknown colorization kind %d", int(s.Kind))
	}
	if s.Kind == KindGradient {
		for _, p := range []Point{s.Gradient.StartPoint, s.Gradient.EndPoint} {
			if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
				return kerrors.New(kerrors.ErrCodeInvalidInput, "gradient point (%g, %g) outside the unit square", p.X, p.Y)
			}
		}
	}
	return nil
}

// Colorize blends spec's fill over background using img's alpha as the mask:
// fully opaque pixels take the fill, fully transparent pixels take the
// background and partial alpha interpolates linearly. The result is opaque
// whenever background is.
//
// KindNone returns img unchanged. An image without pixels is returned
// unchanged together with [kerrors.ErrNoPixelBuffer].
func Colorize(img image.Image, spec Spec, background color.Color) (image.Image, error) {
	if spec.Kind == KindNone {
		return img, nil
	}
	if img == nil || img.Bounds().Empty() {
		return img, kerrors.ErrNoPixelBuffer
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for i := range mask.Pix {
		mask.Pix[i] = src.Pix[i*4+3]
	}

	fill := fillField(spec, w, h)

	dc := gg.NewContext(w, h)
	dc.SetColor(background)
	dc.Clear()
	if err := dc.SetMask(mask); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeCompositingFailure, err, "blend failed")
	}
	dc.DrawImage(fill, 0, 0)

	out, ok := dc.Image().(*image.RGBA)
	if !ok || out == nil {
		return nil, kerrors.New(kerrors.ErrCodeCompositingFailure, "blend failed: context produced no image")
	}
	return out, nil
}

// fillField renders the fill for a w x h image.
func fillField(spec Spec, w, h int) image.Image {
	dc := gg.NewContext(w, h)
	switch spec.Kind {
	case KindGradient:
		g := spec.Gradient
		if g.StartPoint == g.EndPoint {
			dc.SetColor(g.Start)
			dc.Clear()
			break
		}
		grad := gg.NewLinearGradient(
			g.StartPoint.X*float64(w), g.StartPoint.Y*float64(h),
			g.EndPoint.X*float64(w), g.EndPoint.Y*float64(h),
		)
		grad.AddColorStop(0, g.Start)
		grad.AddColorStop(1, g.End)
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, float64(w), float64(h))
		dc.Fill()
	default:
		dc.SetColor(spec.Color)
		dc.Clear()
	}
	return dc.Image()
}
