package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/mesh"
	"github.com/skillbreak/kiticon/pkg/scene"
)

var (
	red   = color.NRGBA{0xff, 0x00, 0x00, 0xff}
	grey  = color.NRGBA{0x80, 0x80, 0x80, 0xff}
	white = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

// testScene returns a scene with a camera at z=5 looking down -z and one
// triangle in the z=0 plane that covers the image center but not the
// corners. ccw selects the winding seen from the camera.
func testScene(mat scene.Material, ccw bool) (*scene.Scene, *scene.Node) {
	s := scene.New()
	cam := scene.NewNode("cam")
	cam.Position = geom.V3(0, 0, 5)
	c := scene.DefaultCamera()
	cam.Camera = &c
	s.Root.AddChild(cam)

	idx := []uint32{0, 1, 2}
	if !ccw {
		idx = []uint32{0, 2, 1}
	}
	tri := scene.NewNode("tri")
	tri.Mesh = &mesh.Mesh{
		Vertices: []mesh.Vertex{
			{Position: geom.V3(-0.5, -0.5, 0), Normal: geom.V3(0, 0, 1), UV: geom.V2(0, 1)},
			{Position: geom.V3(0.5, -0.5, 0), Normal: geom.V3(0, 0, 1), UV: geom.V2(1, 1)},
			{Position: geom.V3(0, 0.5, 0), Normal: geom.V3(0, 0, 1), UV: geom.V2(0.5, 0)},
		},
		Elements: []mesh.Element{{Indices: idx}},
	}
	tri.Materials = []scene.Material{mat}
	s.Root.AddChild(tri)
	return s, tri
}

func addLight(s *scene.Scene, mask uint32) {
	l := scene.NewNode("light")
	l.Position = geom.V3(0, 0, 5)
	l.Light = &scene.Light{Color: white, Intensity: 1000, CategoryMask: mask}
	s.Root.AddChild(l)
}

func render(t *testing.T, s *scene.Scene, opts Options) *image.NRGBA {
	t.Helper()
	img, err := Render(context.Background(), s, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return img
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}

func TestRenderOptions(t *testing.T) {
	s, _ := testScene(scene.Material{Diffuse: red}, true)
	tests := []struct {
		name string
		opts Options
		code kerrors.Code
	}{
		{"zero width", Options{Width: 0, Height: 4, Samples: 1}, kerrors.ErrCodeInvalidInput},
		{"negative height", Options{Width: 4, Height: -1, Samples: 1}, kerrors.ErrCodeInvalidInput},
		{"three samples", Options{Width: 4, Height: 4, Samples: 3}, kerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Render(context.Background(), s, tt.opts); !kerrors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := Render(context.Background(), scene.New(), Options{Width: 4, Height: 4, Samples: 1}); !kerrors.Is(err, kerrors.ErrCodeCompositingFailure) {
		t.Errorf("no camera: err = %v", err)
	}
}

func TestRenderBackground(t *testing.T) {
	s := scene.New()
	cam := scene.NewNode("cam")
	c := scene.DefaultCamera()
	cam.Camera = &c
	s.Root.AddChild(cam)

	img := render(t, s, Options{Width: 5, Height: 3, Samples: 4, Background: grey})
	if img.Bounds() != image.Rect(0, 0, 5, 3) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	for i := 0; i < len(img.Pix); i += 4 {
		if got := (color.NRGBA{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}); got != grey {
			t.Fatalf("pixel %d = %v, want %v", i/4, got, grey)
		}
	}

	img = render(t, s, Options{Width: 5, Height: 3, Samples: 2})
	for _, b := range img.Pix {
		if b != 0 {
			t.Fatal("transparent background should leave pixels zero")
		}
	}
}

func TestRenderConstantMaterial(t *testing.T) {
	s, _ := testScene(scene.Material{Diffuse: red, Lighting: scene.LightingConstant}, true)
	img := render(t, s, Options{Width: 8, Height: 8, Samples: 4})
	if got := img.NRGBAAt(4, 4); got != red {
		t.Errorf("center = %v, want %v", got, red)
	}
	if got := img.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("corner = %v, want transparent", got)
	}
}

func TestRenderBackFaceCulling(t *testing.T) {
	mat := scene.Material{Diffuse: red, Lighting: scene.LightingConstant}
	s, _ := testScene(mat, false)
	if got := render(t, s, Options{Width: 8, Height: 8, Samples: 1}).NRGBAAt(4, 4); got.A != 0 {
		t.Errorf("back face drawn: %v", got)
	}

	mat.DoubleSided = true
	s, _ = testScene(mat, false)
	if got := render(t, s, Options{Width: 8, Height: 8, Samples: 1}).NRGBAAt(4, 4); got != red {
		t.Errorf("double-sided back face = %v, want %v", got, red)
	}
}

func TestRenderCategoryMask(t *testing.T) {
	tests := []struct {
		name      string
		nodeMask  uint32
		lightMask uint32
		lit       bool
	}{
		{"matching", scene.CategoryLayers, ^scene.CategoryModel, true},
		{"model light on layer", scene.CategoryLayers, scene.CategoryModel, false},
		{"layer light on model", scene.CategoryModel, ^scene.CategoryModel, false},
		{"model light on model", scene.CategoryModel, scene.CategoryModel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tri := testScene(scene.Material{Diffuse: grey}, true)
			tri.CategoryMask = tt.nodeMask
			addLight(s, tt.lightMask)
			got := render(t, s, Options{Width: 8, Height: 8, Samples: 1}).NRGBAAt(4, 4)
			if got.A != 0xff {
				t.Fatalf("center not covered: %v", got)
			}
			if tt.lit && !near(got.R, grey.R) {
				t.Errorf("lit center = %v, want ~%v", got, grey)
			}
			if !tt.lit && got.R != 0 {
				t.Errorf("unlit center = %v, want black", got)
			}
		})
	}
}

func TestRenderTexture(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(tex.Pix); i += 4 {
		copy(tex.Pix[i:], []uint8{0x00, 0x00, 0xff, 0xff})
	}
	s, _ := testScene(scene.Material{Diffuse: red, Texture: tex, Lighting: scene.LightingConstant}, true)
	if got := render(t, s, Options{Width: 8, Height: 8, Samples: 1}).NRGBAAt(4, 4); got != (color.NRGBA{0, 0, 0xff, 0xff}) {
		t.Errorf("opaque texture = %v, want blue", got)
	}

	// Transparent texels show the material color.
	empty := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	s, _ = testScene(scene.Material{Diffuse: red, Texture: empty, Lighting: scene.LightingConstant}, true)
	if got := render(t, s, Options{Width: 8, Height: 8, Samples: 1}).NRGBAAt(4, 4); got != red {
		t.Errorf("clear texture = %v, want %v", got, red)
	}
}

func TestRenderIsDeterministicAcrossBands(t *testing.T) {
	k, err := scene.Build(scene.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Width: 64, Height: 64, Samples: 4, Bands: 1}
	one := render(t, k.Scene, opts)
	opts.Bands = 7
	many := render(t, k.Scene, opts)
	again := render(t, k.Scene, opts)

	if !bytes.Equal(one.Pix, many.Pix) || !bytes.Equal(many.Pix, again.Pix) {
		t.Error("output depends on banding or differs between runs")
	}
	if one.NRGBAAt(32, 32).A != 0xff {
		t.Error("the icon stack should cover the image center")
	}
	if one.NRGBAAt(0, 0).A != 0 {
		t.Error("the image corner should be empty")
	}
}

func TestRenderCancelled(t *testing.T) {
	s, _ := testScene(scene.Material{Diffuse: red}, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Render(ctx, s, Options{Width: 8, Height: 8, Samples: 1}); err == nil {
		t.Error("cancelled render should fail")
	}
}
