package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/skillbreak/kiticon/pkg/colorize"
	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
)

// ParseFloats parses exactly n comma-separated numbers.
func ParseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "want %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

// ParseDegrees parses an "x,y,z" rotation in degrees and returns it in
// radians.
func ParseDegrees(s string) (geom.Vec3, error) {
	v, err := ParseFloats(s, 3)
	if err != nil {
		return geom.Vec3{}, err
	}
	rad := func(d float64) float32 { return float32(d * math.Pi / 180) }
	return geom.V3(rad(v[0]), rad(v[1]), rad(v[2])), nil
}

// FormatDegrees is the inverse of ParseDegrees, rounded to whole degrees.
func FormatDegrees(v geom.Vec3) string {
	// +0 turns -0 into 0.
	deg := func(r float32) float64 { return math.Round(float64(r)*180/math.Pi) + 0 }
	return fmt.Sprintf("%g,%g,%g", deg(v.X), deg(v.Y), deg(v.Z))
}

// ParseColorPair parses "start,end" hex colors into a gradient's colors.
func ParseColorPair(s string, g *colorize.Gradient) error {
	start, end, ok := strings.Cut(s, ",")
	if !ok {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "want start,end colors, got %q", s)
	}
	a, err := ParseColor(strings.TrimSpace(start))
	if err != nil {
		return err
	}
	b, err := ParseColor(strings.TrimSpace(end))
	if err != nil {
		return err
	}
	g.Start, g.End = a, b
	return nil
}

// ParseGradientPoints parses "x0,y0,x1,y1" into a gradient's unit-square
// start and end points.
func ParseGradientPoints(s string, g *colorize.Gradient) error {
	v, err := ParseFloats(s, 4)
	if err != nil {
		return err
	}
	g.StartPoint = colorize.Point{X: v[0], Y: v[1]}
	g.EndPoint = colorize.Point{X: v[2], Y: v[3]}
	return nil
}
