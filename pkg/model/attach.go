package model

import (
	"image/color"

	"github.com/chewxy/math32"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/mesh"
	"github.com/skillbreak/kiticon/pkg/scene"
)

// AttachmentName names the positioning container added to the target layer.
const AttachmentName = "top_model"

// DefaultPadding is the gap kept between the model and the layer edge.
const DefaultPadding = 0.1

var white = color.NRGBA{0xff, 0xff, 0xff, 0xff}

// modelMaterial replaces every material of an attached model.
var modelMaterial = scene.Material{
	Diffuse:     white,
	Lighting:    scene.LightingBlinn,
	DoubleSided: true,
}

// Options sizes a model against its target layer.
type Options struct {
	Footprint float32 // layer side length
	Padding   float32 // gap on each side of the footprint
	Depth     float32 // layer thickness
}

// DefaultOptions returns options for a layer built with cfg.
func DefaultOptions(cfg scene.Config) Options {
	return Options{Footprint: cfg.BoxSize, Padding: DefaultPadding, Depth: cfg.BoxHeight}
}

// Validate checks the footprint and padding.
func (o Options) Validate() error {
	if !(o.Footprint > 0) {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "footprint must be positive, got %g", o.Footprint)
	}
	if !(o.Padding >= 0) || o.Padding >= o.Footprint/2 {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "padding %g must be in [0, %g)", o.Padding, o.Footprint/2)
	}
	return nil
}

// Fit is the placement computed for an attached model, in the target
// layer's local space.
type Fit struct {
	Translation geom.Vec3
	Scale       float32
}

// Attachment is a model attached to a layer.
type Attachment struct {
	container *scene.Node
	rotation  *scene.Node
	model     *scene.Node
	size      geom.Vec3
	fit       Fit
}

// Attach fits graph onto target and returns the attachment. graph is not
// modified. Any previous attachment on target is removed first.
//
// The model is treated as y-up. Its footprint (x and z extent) is scaled
// uniformly so the larger side spans Footprint-2*Padding, its minimum corner
// lands at (Padding, Padding) and its base rests on the layer's top face.
func Attach(graph, target *scene.Node, opts Options) (*Attachment, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	flat := flatten(strip(graph.Clone()))
	if flat.IsEmpty() {
		return nil, kerrors.New(kerrors.ErrCodeDecodeFailure, "model has no geometry")
	}

	box := flat.Bounds()
	size := box.Size()
	extent := math32.Max(size.X, size.Z)
	if !(extent > 0) {
		return nil, kerrors.New(kerrors.ErrCodeDecodeFailure, "model has no horizontal extent")
	}
	scale := (opts.Footprint - 2*opts.Padding) / extent

	// The model node turns y-up into the layer's -z-up and moves the center
	// of the model's base to the rotation pivot.
	model := scene.NewNode("model")
	model.Mesh = flat
	model.Materials = []scene.Material{modelMaterial}
	model.Euler = geom.V3(-math32.Pi/2, 0, 0)
	center := box.Center()
	model.Position = geom.V3(-center.X, -center.Z, box.Min.Y)

	rotation := scene.NewNode("rotation")
	rotation.Position = geom.V3(size.X/2, size.Z/2, 0)
	rotation.AddChild(model)

	fit := Fit{
		Translation: geom.V3(opts.Padding, opts.Padding, -opts.Depth/2),
		Scale:       scale,
	}
	container := scene.NewNode(AttachmentName)
	container.Position = fit.Translation
	container.Scale = geom.Splat(scale)
	container.AddChild(rotation)

	container.Walk(func(n *scene.Node) bool {
		n.CategoryMask = scene.CategoryModel
		return true
	})

	Detach(target)
	target.AddChild(container)
	return &Attachment{container: container, rotation: rotation, model: model, size: size, fit: fit}, nil
}

// Detach removes every attachment from target. It reports whether anything
// was removed.
func Detach(target *scene.Node) bool {
	removed := false
	for {
		n := target.ChildNamed(AttachmentName, false)
		if n == nil {
			return removed
		}
		n.RemoveFromParent()
		removed = true
	}
}

// SetRotation orients the model around the center of its base. Only the
// rotation container changes; the fit is left as computed by Attach.
func (a *Attachment) SetRotation(euler geom.Vec3) {
	a.rotation.Euler = euler
}

// Rotation returns the current orientation.
func (a *Attachment) Rotation() geom.Vec3 { return a.rotation.Euler }

// Fit returns the placement computed when the model was attached.
func (a *Attachment) Fit() Fit { return a.fit }

// Size returns the model's unscaled bounding box size.
func (a *Attachment) Size() geom.Vec3 { return a.size }

// Triangles returns the triangle count of the flattened model.
func (a *Attachment) Triangles() int { return a.model.Mesh.TriangleCount() }

// Node returns the positioning container attached to the target.
func (a *Attachment) Node() *scene.Node { return a.container }

// strip removes light and camera nodes and replaces all materials.
func strip(root *scene.Node) *scene.Node {
	root.Walk(func(n *scene.Node) bool {
		if n != root && (n.Light != nil || n.Camera != nil) {
			n.RemoveFromParent()
			return false
		}
		n.Light, n.Camera = nil, nil
		if n.Mesh != nil {
			n.Materials = []scene.Material{modelMaterial}
		}
		return true
	})
	return root
}

// flatten bakes every mesh under root into one single-element mesh in
// root's local space.
func flatten(root *scene.Node) *mesh.Mesh {
	var parts []*mesh.Mesh
	var visit func(n *scene.Node, m geom.Mat4)
	visit = func(n *scene.Node, m geom.Mat4) {
		if !n.Mesh.IsEmpty() {
			parts = append(parts, n.Mesh.Transform(m))
		}
		for _, c := range n.Children() {
			visit(c, m.Mul(c.LocalMatrix()))
		}
	}
	visit(root, geom.Identity())
	return mesh.Merge(parts...).SingleElement()
}
