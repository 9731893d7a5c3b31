package geom

import (
	"math"
	"testing"
)

const eps = 1e-5

func TestRotations(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"x quarter turn", RotationX(math.Pi / 2), V3(0, 1, 0), V3(0, 0, 1)},
		{"y quarter turn", RotationY(math.Pi / 2), V3(0, 0, 1), V3(1, 0, 0)},
		{"z quarter turn", RotationZ(math.Pi / 2), V3(1, 0, 0), V3(0, 1, 0)},
		{"layer extrusion axis", RotationX(math.Pi / 2), V3(0, 0, 1), V3(0, -1, 0)},
		{"model up axis", RotationX(-math.Pi / 2), V3(0, 1, 0), V3(0, 0, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.MulPoint(tt.in)
			if !got.ApproxEqual(tt.want, eps) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEulerOrder(t *testing.T) {
	e := V3(0.3, -0.7, 1.1)
	want := RotationY(e.Y).MulDir(RotationX(e.X).MulDir(RotationZ(e.Z).MulDir(V3(1, 2, 3))))
	got := Euler(e).MulDir(V3(1, 2, 3))
	if !got.ApproxEqual(want, eps) {
		t.Errorf("Euler applied = %v, want %v", got, want)
	}
}

func TestComposeAppliesScaleThenRotationThenTranslation(t *testing.T) {
	m := Compose(V3(1, 2, 3), V3(0, 0, math.Pi/2), Splat(2))
	got := m.MulPoint(V3(1, 0, 0))
	if want := V3(1, 4, 3); !got.ApproxEqual(want, eps) {
		t.Errorf("Compose point = %v, want %v", got, want)
	}
}

func TestInverse(t *testing.T) {
	m := Compose(V3(-2, 3.5, 3), V3(-0.78, -0.78, 0), V3(1, 2, 0.5))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("Inverse reported singular matrix")
	}
	id := m.Mul(inv)
	for i, v := range Identity() {
		if math.Abs(float64(id[i]-v)) > 1e-4 {
			t.Fatalf("m * inv(m) [%d] = %v, want %v", i, id[i], v)
		}
	}

	if _, ok := Scaling(V3(1, 0, 1)).Inverse(); ok {
		t.Error("Inverse of singular matrix should fail")
	}
}

func TestOrthographic(t *testing.T) {
	p := Orthographic(-2, 2, -1, 1, 1, 100)
	got := p.MulPoint(V3(2, 1, -1))
	if want := V3(1, 1, -1); !got.ApproxEqual(want, eps) {
		t.Errorf("near corner = %v, want %v", got, want)
	}
	got = p.MulPoint(V3(-2, -1, -100))
	if want := V3(-1, -1, 1); !got.ApproxEqual(want, eps) {
		t.Errorf("far corner = %v, want %v", got, want)
	}
}

func TestBox3(t *testing.T) {
	b := EmptyBox()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox should be empty")
	}
	if s := b.Size(); s != (Vec3{}) {
		t.Errorf("empty Size = %v, want zero", s)
	}

	b.ExpandByPoint(V3(1, -1, 2))
	b.ExpandByPoint(V3(-1, 3, 0))
	if b.Min != V3(-1, -1, 0) || b.Max != V3(1, 3, 2) {
		t.Errorf("box = %+v", b)
	}
	if c := b.Center(); c != V3(0, 1, 1) {
		t.Errorf("Center = %v", c)
	}

	moved := b.Transform(Translation(V3(1, 1, 1)))
	if moved.Min != V3(0, 0, 1) || moved.Max != V3(2, 4, 3) {
		t.Errorf("Transform = %+v", moved)
	}

	u := EmptyBox().Union(b)
	if u != b {
		t.Errorf("Union with empty = %+v, want %+v", u, b)
	}
}
