package colorize

import (
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

// Underlayer composites images over a flat color. It keeps one drawing
// context and reallocates it only when the image size changes, since it runs
// on every interactive color change. An Underlayer is safe for concurrent
// use; calls are serialized.
type Underlayer struct {
	mu sync.Mutex
	dc *gg.Context
}

// NewUnderlayer returns an Underlayer with no context allocated yet.
func NewUnderlayer() *Underlayer {
	return &Underlayer{}
}

// Underlay returns img composited (source over) onto a field of c the size
// of img. The result does not share memory with the reused context.
func (u *Underlayer) Underlay(img image.Image, c color.Color) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return img, kerrors.ErrNoPixelBuffer
	}
	b := img.Bounds()

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.dc == nil || u.dc.Width() != b.Dx() || u.dc.Height() != b.Dy() {
		u.dc = gg.NewContext(b.Dx(), b.Dy())
	}
	u.dc.SetColor(c)
	u.dc.Clear()
	u.dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	out := u.dc.Image()
	if out == nil {
		return nil, kerrors.New(kerrors.ErrCodeCompositingFailure, "underlay failed: context produced no image")
	}
	return imaging.Clone(out), nil
}
