package config

import (
	"image/color"
	"math"
	"testing"

	"github.com/skillbreak/kiticon/pkg/colorize"
	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
)

func TestParseDegrees(t *testing.T) {
	tests := []struct {
		in      string
		want    geom.Vec3
		wantErr bool
	}{
		{"0,0,0", geom.Vec3{}, false},
		{"180, -90, 45", geom.V3(math.Pi, -math.Pi/2, math.Pi/4), false},
		{"1,2", geom.Vec3{}, true},
		{"1,2,three", geom.Vec3{}, true},
		{"1,2,NaN", geom.Vec3{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDegrees(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDegrees(%q) err = %v", tt.in, err)
			continue
		}
		if err != nil {
			if !kerrors.Is(err, kerrors.ErrCodeInvalidInput) {
				t.Errorf("ParseDegrees(%q) code = %s", tt.in, kerrors.GetCode(err))
			}
			continue
		}
		if got.Sub(tt.want).Length() > 1e-6 {
			t.Errorf("ParseDegrees(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatDegrees(t *testing.T) {
	tests := []struct {
		in   geom.Vec3
		want string
	}{
		{geom.Vec3{}, "0,0,0"},
		{geom.V3(math.Pi/2, -math.Pi/12, -1e-9), "90,-15,0"},
	}
	for _, tt := range tests {
		if got := FormatDegrees(tt.in); got != tt.want {
			t.Errorf("FormatDegrees(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseColorPair(t *testing.T) {
	var g colorize.Gradient
	if err := ParseColorPair("#000, #fff", &g); err != nil {
		t.Fatal(err)
	}
	if g.Start != (color.NRGBA{0, 0, 0, 0xff}) || g.End != (color.NRGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("gradient = %+v", g)
	}
	for _, bad := range []string{"#000", "#000,white", ""} {
		if err := ParseColorPair(bad, &g); err == nil {
			t.Errorf("ParseColorPair(%q) should fail", bad)
		}
	}
}

func TestParseGradientPoints(t *testing.T) {
	g := colorize.DefaultGradient()
	if err := ParseGradientPoints("0.25,0,0.75,1", &g); err != nil {
		t.Fatal(err)
	}
	if g.StartPoint != (colorize.Point{X: 0.25, Y: 0}) || g.EndPoint != (colorize.Point{X: 0.75, Y: 1}) {
		t.Errorf("points = %v, %v", g.StartPoint, g.EndPoint)
	}
	if err := ParseGradientPoints("0,0,1", &g); err == nil {
		t.Error("three numbers should fail")
	}
}
