package scene

import (
	"image"
	"image/color"
	"testing"

	"github.com/chewxy/math32"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/mesh"
)

const eps = 1e-5

func buildKit(t *testing.T) *Kit {
	t.Helper()
	k, err := Build(DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return k
}

func TestAddChildAndRemove(t *testing.T) {
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	a.AddChild(b)
	b.AddChild(c)

	if got := a.ChildNamed("c", false); got != nil {
		t.Error("non-recursive lookup should not find grandchildren")
	}
	if got := a.ChildNamed("c", true); got != c {
		t.Errorf("recursive lookup = %v, want c", got)
	}

	// Re-parenting detaches from the old parent.
	a.AddChild(c)
	if len(b.Children()) != 0 || c.Parent() != a {
		t.Error("AddChild should move the node")
	}

	c.RemoveFromParent()
	if c.Parent() != nil || len(a.Children()) != 1 {
		t.Error("RemoveFromParent did not detach")
	}
	c.RemoveFromParent() // no-op on a root
}

func TestWalkSkipsChildren(t *testing.T) {
	root := NewNode("root")
	skip := NewNode("skip")
	skip.AddChild(NewNode("hidden"))
	root.AddChild(skip)
	root.AddChild(NewNode("seen"))

	var names []string
	root.Walk(func(n *Node) bool {
		names = append(names, n.Name)
		return n.Name != "skip"
	})
	want := []string{"root", "skip", "seen"}
	if len(names) != len(want) {
		t.Fatalf("visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("visited %v, want %v", names, want)
		}
	}
}

func TestWorldMatrixAndBoundingBox(t *testing.T) {
	root := NewNode("root")
	root.Position = geom.V3(1, 0, 0)
	child := NewNode("child")
	child.Scale = geom.Splat(2)
	child.Mesh = &mesh.Mesh{
		Vertices: []mesh.Vertex{
			{Position: geom.V3(0, 0, 0)},
			{Position: geom.V3(1, 0, 0)},
			{Position: geom.V3(0, 1, 0)},
		},
		Elements: []mesh.Element{{Indices: []uint32{0, 1, 2}}},
	}
	root.AddChild(child)

	if got := child.WorldMatrix().MulPoint(geom.V3(1, 1, 0)); !got.ApproxEqual(geom.V3(3, 2, 0), eps) {
		t.Errorf("world point = %v, want (3,2,0)", got)
	}
	b := root.BoundingBox()
	if !b.Max.ApproxEqual(geom.V3(2, 2, 0), eps) || !b.Min.ApproxEqual(geom.V3(0, 0, 0), eps) {
		t.Errorf("bounding box = %+v", b)
	}
	if !NewNode("empty").BoundingBox().IsEmpty() {
		t.Error("node without geometry should have an empty box")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	k := buildKit(t)
	c := k.Clone()

	if err := c.SetLayerColor(LayerMiddle, color.NRGBA{1, 2, 3, 255}); err != nil {
		t.Fatal(err)
	}
	if k.LayerColor(LayerMiddle) != DefaultColors[LayerMiddle] {
		t.Error("changing a clone must not change the original")
	}
	if c.Layers[LayerTop].Mesh != k.Layers[LayerTop].Mesh {
		t.Error("clones should share meshes")
	}
	c.Layers[LayerTop].Position.Y = 9
	if k.Layers[LayerTop].Position.Y == 9 {
		t.Error("clone transforms must be independent")
	}
}

func TestBuildLayout(t *testing.T) {
	k := buildKit(t)
	h := DefaultConfig().BoxHeight

	wantY := [LayerCount]float32{h / 2, -h / 2, -3 * h / 2}
	for i, l := range k.Layers {
		if math32.Abs(l.Position.Y-wantY[i]) > eps {
			t.Errorf("layer %d y = %v, want %v", i, l.Position.Y, wantY[i])
		}
		if l.CategoryMask != CategoryLayers {
			t.Errorf("layer %d mask = %b", i, l.CategoryMask)
		}
	}

	// The top layer occupies the unit square in xz, one layer thick.
	b := k.Scene.Root.ChildNamed("layer_top", false).BoundingBox().Transform(k.TopLayer().LocalMatrix())
	if !b.Min.ApproxEqual(geom.V3(0, 0, 0), eps) || !b.Max.ApproxEqual(geom.V3(1, h, 1), eps) {
		t.Errorf("top layer bounds = %+v", b)
	}
	if n := len(k.TopLayer().Materials); n != 3 {
		t.Errorf("top layer materials = %d, want 3", n)
	}
	if cam := k.Scene.Camera(); cam == nil || cam.Name != NameCamera {
		t.Fatal("camera missing")
	}
}

func TestBuildLights(t *testing.T) {
	k := buildKit(t)
	lights := k.Scene.Lights()
	if len(lights) != 5 {
		t.Fatalf("lights = %d, want 5", len(lights))
	}
	y0 := k.Layers[LayerMiddle].Position.Y
	tests := []struct {
		intensity float32
		pos       geom.Vec3
		model     bool
	}{
		{800, geom.V3(0.2, y0, 2.3), false},
		{1000, geom.V3(-3, y0, 0), false},
		{500, geom.V3(-0.2, y0, 0.8), false},
		{900, geom.V3(0.5, 2, 0.5), false},
		{1000, geom.V3(0, 1.5, 1), true},
	}
	for i, tt := range tests {
		l := lights[i]
		if l.Intensity != tt.intensity || !l.Position.ApproxEqual(tt.pos, eps) {
			t.Errorf("light %d = %v at %v, want %v at %v", i, l.Intensity, l.Position, tt.intensity, tt.pos)
		}
		if lit := l.CategoryMask&CategoryModel != 0; lit != tt.model {
			t.Errorf("light %d lights the model = %v, want %v", i, lit, tt.model)
		}
		if lit := l.CategoryMask&CategoryLayers != 0; lit == tt.model {
			t.Errorf("light %d lights the layers = %v, want %v", i, lit, !tt.model)
		}
	}
}

func TestBuildInvalidConfig(t *testing.T) {
	for _, cfg := range []Config{
		{BoxSize: 0, BoxHeight: 0.1},
		{BoxSize: 1, BoxHeight: 0},
		{BoxSize: 1, BoxHeight: math32.NaN()},
	} {
		if _, err := Build(cfg); !kerrors.Is(err, kerrors.ErrCodeInvalidInput) {
			t.Errorf("Build(%+v) err = %v, want INVALID_INPUT", cfg, err)
		}
	}
}

func TestSetLayerColor(t *testing.T) {
	k := buildKit(t)
	red := color.NRGBA{0xff, 0, 0, 0xff}
	if err := k.SetLayerColor(LayerTop, red); err != nil {
		t.Fatal(err)
	}
	for i, m := range k.TopLayer().Materials {
		if m.Diffuse != red {
			t.Errorf("top material %d = %v, want red", i, m.Diffuse)
		}
	}
	if err := k.SetLayerColor(LayerCount, red); !kerrors.Is(err, kerrors.ErrCodeInvalidInput) {
		t.Errorf("out of range err = %v", err)
	}
}

func TestSetIconTexture(t *testing.T) {
	k := buildKit(t)
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	k.SetIconTexture(img)
	top := k.TopLayer().Materials
	for _, e := range []int{mesh.ElementFront, mesh.ElementBack} {
		if top[e].Texture == nil || top[e].Lighting != LightingConstant {
			t.Errorf("cap %d not textured and unlit", e)
		}
	}
	if top[mesh.ElementSides].Texture != nil {
		t.Error("sides must not be textured")
	}

	k.SetIconTexture(nil)
	if k.IconTexture() != nil || k.TopLayer().Materials[mesh.ElementBack].Lighting != LightingBlinn {
		t.Error("clearing the texture should restore lit shading")
	}
}
