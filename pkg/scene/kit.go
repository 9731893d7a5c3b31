package scene

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/mesh"
	"github.com/skillbreak/kiticon/pkg/shape"
)

// Layer indices. Index 0 is the top layer, which carries the icon.
const (
	LayerTop = iota
	LayerMiddle
	LayerBottom
	LayerCount
)

// NameCamera is the name of the camera node created by Build.
const NameCamera = "camera"

var layerNames = [LayerCount]string{"layer_top", "layer_middle", "layer_bottom"}

// Default layer colors, top first.
var DefaultColors = [LayerCount]color.NRGBA{
	{0xff, 0xff, 0xff, 0xff},
	{0x30, 0xb0, 0xc7, 0xff},
	{0x32, 0xad, 0xe6, 0xff},
}

// Config holds the stack dimensions.
type Config struct {
	BoxSize      float32 // side length of a layer
	BoxHeight    float32 // thickness of a layer
	CornerRadius float32
}

// DefaultConfig returns a unit stack with layers one sixth thick.
func DefaultConfig() Config {
	return Config{BoxSize: 1, BoxHeight: 1.0 / 6, CornerRadius: 0.22}
}

// Kit is the built icon scene with direct handles to its layers.
type Kit struct {
	Scene  *Scene
	Layers [LayerCount]*Node
	cfg    Config
}

type lightSpec struct {
	name      string
	intensity float32
	pos       func(y0 float32) geom.Vec3
	mask      uint32
}

var rig = []lightSpec{
	{"light_front", 800, func(y0 float32) geom.Vec3 { return geom.V3(0.2, y0, 2.3) }, ^CategoryModel},
	{"light_left", 1000, func(y0 float32) geom.Vec3 { return geom.V3(-3, y0, 0) }, ^CategoryModel},
	{"light_close_left", 500, func(y0 float32) geom.Vec3 { return geom.V3(-0.2, y0, 0.8) }, ^CategoryModel},
	{"light_top", 900, func(float32) geom.Vec3 { return geom.V3(0.5, 2, 0.5) }, ^CategoryModel},
	{"light_model", 1000, func(float32) geom.Vec3 { return geom.V3(0, 1.5, 1) }, CategoryModel},
}

// Build constructs the three layer stack, the light rig and the camera.
// Layers are extruded rounded squares lying in xz over [0, BoxSize]²; the
// top face of the top layer is the icon surface.
func Build(cfg Config) (*Kit, error) {
	if !(cfg.BoxHeight > 0) {
		return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "box height must be positive, got %g", cfg.BoxHeight)
	}
	outline, err := shape.RoundedRectangle(float64(cfg.BoxSize), float64(cfg.BoxSize), float64(cfg.CornerRadius))
	if err != nil {
		return nil, err
	}
	slab := mesh.Extrude(outline, cfg.BoxHeight)

	k := &Kit{Scene: New(), cfg: cfg}
	yOffset := -3 * cfg.BoxHeight / 2
	for i := range k.Layers {
		n := NewNode(layerNames[i])
		n.Mesh = slab
		n.Euler = geom.V3(math32.Pi/2, 0, 0)
		n.Position = geom.V3(0, yOffset+float32(LayerBottom-i)*cfg.BoxHeight, 0)
		n.Materials = []Material{{Diffuse: DefaultColors[i]}}
		k.Scene.Root.AddChild(n)
		k.Layers[i] = n
	}
	top := k.Layers[LayerTop]
	icon := Material{Diffuse: DefaultColors[LayerTop]}
	top.Materials = []Material{icon, icon, top.Materials[0]}

	y0 := k.Layers[LayerMiddle].Position.Y
	for _, l := range rig {
		n := NewNode(l.name)
		n.Position = l.pos(y0)
		n.Light = &Light{
			Color:        color.NRGBA{0xff, 0xff, 0xff, 0xff},
			Intensity:    l.intensity,
			CategoryMask: l.mask,
		}
		k.Scene.Root.AddChild(n)
	}

	cam := NewNode(NameCamera)
	cam.Position = geom.V3(-2.135485, 3.542209, 3.097715)
	cam.Euler = geom.V3(-math32.Pi/4, -math32.Pi/4, 0)
	c := DefaultCamera()
	cam.Camera = &c
	k.Scene.Root.AddChild(cam)
	return k, nil
}

// Config returns the dimensions the kit was built with.
func (k *Kit) Config() Config { return k.cfg }

// TopLayer returns the layer carrying the icon.
func (k *Kit) TopLayer() *Node { return k.Layers[LayerTop] }

// SetLayerColor sets the color of layer i. On the top layer this also sets
// the icon material color shown when no texture is set.
func (k *Kit) SetLayerColor(i int, c color.NRGBA) error {
	if i < 0 || i >= LayerCount {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "layer index %d out of range", i)
	}
	mats := k.Layers[i].Materials
	for j := range mats {
		mats[j].Diffuse = c
	}
	return nil
}

// LayerColor returns the color of layer i.
func (k *Kit) LayerColor(i int) color.NRGBA {
	return k.Layers[i].Materials[len(k.Layers[i].Materials)-1].Diffuse
}

// SetIconTexture puts img on both caps of the top layer. A textured icon is
// drawn unlit; nil removes the texture and restores lit shading.
func (k *Kit) SetIconTexture(img image.Image) {
	top := k.TopLayer()
	for _, e := range []int{mesh.ElementFront, mesh.ElementBack} {
		m := &top.Materials[e]
		m.Texture = img
		if img != nil {
			m.Lighting = LightingConstant
		} else {
			m.Lighting = LightingBlinn
		}
	}
}

// IconTexture returns the texture on the top layer, or nil.
func (k *Kit) IconTexture() image.Image {
	return k.TopLayer().Materials[mesh.ElementBack].Texture
}

// Clone returns an independent copy of the kit. See [Node.Clone].
func (k *Kit) Clone() *Kit {
	c := &Kit{Scene: k.Scene.Clone(), cfg: k.cfg}
	for i, name := range layerNames {
		c.Layers[i] = c.Scene.Root.ChildNamed(name, false)
	}
	return c
}
