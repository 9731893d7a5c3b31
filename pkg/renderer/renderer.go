// Package renderer owns the icon's scene state and turns it into bitmaps.
//
// A [Renderer] is mutated through setters from a single goroutine. Every
// setter validates and prepares its result before touching any state, so a
// failed call leaves the renderer exactly as it was. Each applied change
// bumps a counter returned by [Renderer.Changes]; observers compare it with
// the last value they rendered to decide whether a new snapshot is needed.
//
// Rendering works on a [Frame], an independent copy of the scene taken with
// [Renderer.Frame], so snapshots can run on another goroutine while the
// renderer keeps changing.
package renderer

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/skillbreak/kiticon/pkg/colorize"
	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/model"
	"github.com/skillbreak/kiticon/pkg/observability"
	"github.com/skillbreak/kiticon/pkg/scene"
)

// ContentKind tells what the top layer carries.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentImage
	ContentModel
)

func (k ContentKind) String() string {
	switch k {
	case ContentImage:
		return "image"
	case ContentModel:
		return "model"
	}
	return "none"
}

// DefaultBackground is the snapshot background color used when the
// background is enabled and no other color was set.
var DefaultBackground = color.NRGBA{0xff, 0xff, 0xff, 0xff}

// Renderer holds the icon state: layer colors, the top layer content,
// colorization, model rotation and background settings.
type Renderer struct {
	kit        *scene.Kit
	underlayer *colorize.Underlayer

	image      image.Image
	model      *scene.Node
	attachment *model.Attachment
	rotation   geom.Vec3
	padding    float32

	colorization colorize.Spec
	background   bool
	bgColor      color.NRGBA

	changes uint64
}

// New returns a renderer for a stack built with cfg, showing no content.
func New(cfg scene.Config) (*Renderer, error) {
	kit, err := scene.Build(cfg)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		kit:          kit,
		underlayer:   colorize.NewUnderlayer(),
		padding:      model.DefaultPadding,
		colorization: colorize.DefaultSpec(),
		bgColor:      DefaultBackground,
	}, nil
}

// Changes returns the change counter.
func (r *Renderer) Changes() uint64 { return r.changes }

// Content returns what the top layer carries.
func (r *Renderer) Content() ContentKind {
	switch {
	case r.image != nil:
		return ContentImage
	case r.attachment != nil:
		return ContentModel
	}
	return ContentNone
}

// Colors returns the layer colors, top first.
func (r *Renderer) Colors() [scene.LayerCount]color.NRGBA {
	var out [scene.LayerCount]color.NRGBA
	for i := range out {
		out[i] = r.kit.LayerColor(i)
	}
	return out
}

// Image returns the source image of the icon, or nil.
func (r *Renderer) Image() image.Image { return r.image }

// Rotation returns the model rotation in radians.
func (r *Renderer) Rotation() geom.Vec3 { return r.rotation }

// Colorization returns the active colorization.
func (r *Renderer) Colorization() colorize.Spec { return r.colorization }

// RenderBackground reports whether snapshots fill the background.
func (r *Renderer) RenderBackground() bool { return r.background }

// BackgroundColor returns the snapshot background color.
func (r *Renderer) BackgroundColor() color.NRGBA { return r.bgColor }

// Fit returns the placement of the attached model.
func (r *Renderer) Fit() (model.Fit, bool) {
	if r.attachment == nil {
		return model.Fit{}, false
	}
	return r.attachment.Fit(), true
}

// SetLayerColor sets the color of layer i, 0 being the top layer.
func (r *Renderer) SetLayerColor(i int, c color.NRGBA) error {
	if i < 0 || i >= scene.LayerCount {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "layer index %d out of range", i)
	}
	colors := r.Colors()
	colors[i] = c
	return r.SetColors(colors)
}

// SetColors sets all layer colors at once.
func (r *Renderer) SetColors(colors [scene.LayerCount]color.NRGBA) error {
	if colors == r.Colors() {
		return nil
	}
	tex, warn, err := r.prepareTexture(r.image, r.colorization, colors[scene.LayerTop])
	if err != nil {
		return err
	}
	for i, c := range colors {
		if err := r.kit.SetLayerColor(i, c); err != nil {
			return err
		}
	}
	if r.image != nil {
		r.kit.SetIconTexture(tex)
	}
	r.changes++
	return warn
}

// SetImage shows img on the top layer, replacing any model. An image
// without pixels is accepted and drawn as the plain top color; the call then
// returns [kerrors.ErrNoPixelBuffer], which is not fatal.
func (r *Renderer) SetImage(img image.Image) error {
	if img == nil {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "image is nil")
	}
	tex, warn, err := r.prepareTexture(img, r.colorization, r.kit.LayerColor(scene.LayerTop))
	if err != nil {
		return err
	}
	r.detachModel()
	r.image = img
	r.kit.SetIconTexture(tex)
	r.changes++
	return warn
}

// SetModel attaches graph to the top layer, replacing any image or previous
// model, and resets the rotation. graph is not modified.
func (r *Renderer) SetModel(graph *scene.Node) error {
	if graph == nil {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "model is nil")
	}
	att, err := r.attach(graph, r.padding)
	if err != nil {
		return err
	}
	r.image = nil
	r.kit.SetIconTexture(nil)
	r.model = graph
	r.attachment = att
	r.rotation = geom.Vec3{}
	r.changes++
	return nil
}

// ClearContent removes the image or model from the top layer.
func (r *Renderer) ClearContent() {
	if r.Content() == ContentNone {
		return
	}
	r.detachModel()
	r.image = nil
	r.kit.SetIconTexture(nil)
	r.changes++
}

// SetRotation orients the attached model. The rotation is kept when no
// model is attached but has no visible effect until one is.
func (r *Renderer) SetRotation(euler geom.Vec3) {
	if euler == r.rotation {
		return
	}
	r.rotation = euler
	if r.attachment != nil {
		r.attachment.SetRotation(euler)
	}
	r.changes++
}

// Padding returns the gap kept between an attached model and the layer edge.
func (r *Renderer) Padding() float32 { return r.padding }

// SetPadding changes the model padding. An attached model is fitted again,
// keeping its rotation.
func (r *Renderer) SetPadding(p float32) error {
	if p == r.padding {
		return nil
	}
	if r.model == nil {
		opts := model.DefaultOptions(r.kit.Config())
		opts.Padding = p
		if err := opts.Validate(); err != nil {
			return err
		}
		r.padding = p
		r.changes++
		return nil
	}
	att, err := r.attach(r.model, p)
	if err != nil {
		return err
	}
	att.SetRotation(r.rotation)
	r.attachment = att
	r.padding = p
	r.changes++
	return nil
}

// SetColorization changes how the icon image is recolored.
func (r *Renderer) SetColorization(spec colorize.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec == r.colorization {
		return nil
	}
	tex, warn, err := r.prepareTexture(r.image, spec, r.kit.LayerColor(scene.LayerTop))
	if err != nil {
		return err
	}
	r.colorization = spec
	if r.image != nil {
		r.kit.SetIconTexture(tex)
	}
	r.changes++
	return warn
}

// SetRenderBackground selects whether snapshots fill the background.
func (r *Renderer) SetRenderBackground(on bool) {
	if on == r.background {
		return
	}
	r.background = on
	r.changes++
}

// SetBackgroundColor sets the snapshot background color. Alpha is ignored.
func (r *Renderer) SetBackgroundColor(c color.NRGBA) {
	c.A = 0xff
	if c == r.bgColor {
		return
	}
	r.bgColor = c
	if r.background {
		r.changes++
	}
}

// attach fits graph onto the top layer. Attach replaces the previous
// attachment only when it succeeds.
func (r *Renderer) attach(graph *scene.Node, padding float32) (*model.Attachment, error) {
	opts := model.DefaultOptions(r.kit.Config())
	opts.Padding = padding
	att, err := model.Attach(graph, r.kit.TopLayer(), opts)
	triangles, scale := 0, float32(0)
	if att != nil {
		triangles, scale = att.Triangles(), att.Fit().Scale
	}
	observability.Render().OnModelAttach(context.Background(), triangles, scale, err)
	return att, err
}

func (r *Renderer) detachModel() {
	if r.attachment != nil {
		model.Detach(r.kit.TopLayer())
	}
	r.model = nil
	r.attachment = nil
}

// prepareTexture builds the top layer texture for img. A nil img yields a
// nil texture. warn carries a non-fatal error; err a fatal one.
func (r *Renderer) prepareTexture(img image.Image, spec colorize.Spec, top color.NRGBA) (tex image.Image, warn, err error) {
	if img == nil {
		return nil, nil, nil
	}
	start := time.Now()
	if spec.Kind == colorize.KindNone {
		tex, err = r.underlayer.Underlay(img, top)
	} else {
		tex, err = colorize.Colorize(img, spec, top)
	}
	observability.Render().OnColorize(context.Background(), spec.Kind.String(), time.Since(start), err)
	if err != nil && kerrors.IsFatal(err) {
		return nil, nil, err
	}
	return tex, err, nil
}
