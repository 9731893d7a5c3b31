package renderer

import (
	"context"
	"image"
	"image/color"
	"strings"
	"time"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/observability"
	"github.com/skillbreak/kiticon/pkg/raster"
	"github.com/skillbreak/kiticon/pkg/scene"
)

// Quality selects the antialiasing level of a snapshot.
type Quality int

const (
	// QualityQuick is for interactive previews: 2 samples per pixel.
	QualityQuick Quality = iota
	// QualityFull is for exports: 4 samples per pixel.
	QualityFull
)

// Samples returns the samples per pixel.
func (q Quality) Samples() int {
	if q == QualityFull {
		return 4
	}
	return 2
}

func (q Quality) String() string {
	if q == QualityFull {
		return "full"
	}
	return "quick"
}

// ParseQuality parses "quick" or "full".
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quick", "":
		return QualityQuick, nil
	case "full":
		return QualityFull, nil
	}
	return QualityQuick, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown quality %q (must be quick or full)", s)
}

// Frame is an immutable copy of the renderer state that can be rendered on
// any goroutine.
type Frame struct {
	scene      *scene.Scene
	background color.NRGBA // zero alpha when the background is off

	// Generation is the renderer's change counter when the frame was taken.
	Generation uint64
}

// Frame captures the current state. Meshes and textures are shared with
// the renderer; they are never mutated after creation.
func (r *Renderer) Frame() *Frame {
	f := &Frame{
		scene:      r.kit.Clone().Scene,
		Generation: r.changes,
	}
	if r.background {
		f.background = r.bgColor
	}
	return f
}

// Render draws the frame as a size x size image. The scene is always
// evaluated at time zero, so equal frames give byte-identical images.
func (f *Frame) Render(ctx context.Context, size int, q Quality) (*image.NRGBA, error) {
	start := time.Now()
	observability.Render().OnSnapshotStart(ctx, size, q.Samples())
	img, err := raster.Render(ctx, f.scene, raster.Options{
		Width:      size,
		Height:     size,
		Samples:    q.Samples(),
		Background: f.background,
	})
	observability.Render().OnSnapshotComplete(ctx, size, q.Samples(), time.Since(start), err)
	return img, err
}

// Snapshot renders the current state. It is shorthand for
// r.Frame().Render(ctx, size, q).
func (r *Renderer) Snapshot(ctx context.Context, size int, q Quality) (*image.NRGBA, error) {
	return r.Frame().Render(ctx, size, q)
}
