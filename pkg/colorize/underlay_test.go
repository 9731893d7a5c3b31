package colorize

import (
	"image"
	"image/color"
	"testing"
)

func TestUnderlayTransparentTakesColor(t *testing.T) {
	u := NewUnderlayer()
	out, err := u.Underlay(uniform(8, 8, color.NRGBA{}), red)
	if err != nil {
		t.Fatalf("Underlay error: %v", err)
	}
	assertUniform(t, out, red)
}

func TestUnderlayOpaqueKeepsImage(t *testing.T) {
	u := NewUnderlayer()
	img := uniform(8, 8, blue)
	img.SetNRGBA(3, 3, white)
	out, err := u.Underlay(img, red)
	if err != nil {
		t.Fatalf("Underlay error: %v", err)
	}
	if got := color.NRGBAModel.Convert(out.At(3, 3)); got != white {
		t.Errorf("pixel (3,3) = %v, want white", got)
	}
	if got := color.NRGBAModel.Convert(out.At(0, 0)); got != blue {
		t.Errorf("pixel (0,0) = %v, want blue", got)
	}
}

func TestUnderlayReusesContext(t *testing.T) {
	u := NewUnderlayer()
	if _, err := u.Underlay(uniform(8, 8, color.NRGBA{}), red); err != nil {
		t.Fatal(err)
	}
	first := u.dc

	out, err := u.Underlay(uniform(8, 8, color.NRGBA{}), blue)
	if err != nil {
		t.Fatal(err)
	}
	if u.dc != first {
		t.Error("same-size underlay should reuse the context")
	}
	assertUniform(t, out, blue)

	if _, err := u.Underlay(uniform(4, 2, color.NRGBA{}), blue); err != nil {
		t.Fatal(err)
	}
	if u.dc == first {
		t.Error("size change should allocate a new context")
	}
}

func TestUnderlayResultIsIndependent(t *testing.T) {
	u := NewUnderlayer()
	a, err := u.Underlay(uniform(4, 4, color.NRGBA{}), red)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := u.Underlay(uniform(4, 4, color.NRGBA{}), blue); err != nil {
		t.Fatal(err)
	}
	assertUniform(t, a, red)
}

func TestUnderlayEmpty(t *testing.T) {
	u := NewUnderlayer()
	empty := image.NewNRGBA(image.Rectangle{})
	out, err := u.Underlay(empty, red)
	if err == nil {
		t.Fatal("empty image should report no pixel buffer")
	}
	if out != image.Image(empty) {
		t.Error("the original image should be returned")
	}
}
