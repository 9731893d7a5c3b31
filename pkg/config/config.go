// Package config loads user settings for the kiticon commands.
//
// Settings live in a TOML file, by default $XDG_CONFIG_HOME/kiticon/config.toml
// or ~/.config/kiticon/config.toml. A missing file is not an error; every
// setting has a default, and values set in the file replace the defaults one
// by one. Command-line flags override both.
//
//	[colors]
//	top = "#ffffff"
//	middle = "#30b0c7"
//	bottom = "#32ade6"
//
//	[render]
//	size = 1024
//	background = true
//	background_color = "#f2f2f7"
//
//	[colorization]
//	kind = "gradient"
//	gradient_start = "#ff9500"
//	gradient_end = "#ff2d55"
//
// Colors are hex strings parsed with go-colorful.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/skillbreak/kiticon/pkg/colorize"
	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/model"
	"github.com/skillbreak/kiticon/pkg/scene"
)

const appName = "kiticon"

// Defaults for the render section.
const (
	DefaultSize        = 1024
	DefaultPreviewSize = 512
)

// Config is the content of the configuration file.
type Config struct {
	Colors       Colors       `toml:"colors"`
	Render       Render       `toml:"render"`
	Colorization Colorization `toml:"colorization"`
	Symbols      Symbols      `toml:"symbols"`
}

// Colors are the layer colors as hex strings.
type Colors struct {
	Top    string `toml:"top"`
	Middle string `toml:"middle"`
	Bottom string `toml:"bottom"`
}

// Render holds output settings.
type Render struct {
	Size            int     `toml:"size"`
	PreviewSize     int     `toml:"preview_size"`
	Background      bool    `toml:"background"`
	BackgroundColor string  `toml:"background_color"`
	Padding         float32 `toml:"padding"`
}

// Colorization selects how icon images are recolored.
type Colorization struct {
	Kind          string     `toml:"kind"`
	Color         string     `toml:"color"`
	GradientStart string     `toml:"gradient_start"`
	GradientEnd   string     `toml:"gradient_end"`
	PointStart    [2]float64 `toml:"point_start"`
	PointEnd      [2]float64 `toml:"point_end"`
}

// Symbols locates the symbol catalog.
type Symbols struct {
	Catalog string `toml:"catalog"`
	Dir     string `toml:"dir"`
}

// Default returns the built-in settings.
func Default() Config {
	spec := colorize.DefaultSpec()
	g := spec.Gradient
	return Config{
		Colors: Colors{
			Top:    FormatColor(scene.DefaultColors[scene.LayerTop]),
			Middle: FormatColor(scene.DefaultColors[scene.LayerMiddle]),
			Bottom: FormatColor(scene.DefaultColors[scene.LayerBottom]),
		},
		Render: Render{
			Size:            DefaultSize,
			PreviewSize:     DefaultPreviewSize,
			BackgroundColor: "#ffffff",
			Padding:         model.DefaultPadding,
		},
		Colorization: Colorization{
			Kind:          spec.Kind.String(),
			Color:         FormatColor(spec.Color),
			GradientStart: FormatColor(g.Start),
			GradientEnd:   FormatColor(g.End),
			PointStart:    [2]float64{g.StartPoint.X, g.StartPoint.Y},
			PointEnd:      [2]float64{g.EndPoint.X, g.EndPoint.Y},
		},
	}
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML from r over the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "parse config")
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Config{}, kerrors.New(kerrors.ErrCodeInvalidFormat, "unknown config key %q", keys[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every value that can be wrong.
func (c Config) Validate() error {
	if _, err := c.LayerColors(); err != nil {
		return err
	}
	if _, err := c.Spec(); err != nil {
		return err
	}
	if _, err := ParseColor(c.Render.BackgroundColor); err != nil {
		return err
	}
	if c.Render.Size <= 0 || c.Render.PreviewSize <= 0 {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "render sizes must be positive")
	}
	if c.Render.Padding < 0 || c.Render.Padding >= 0.5 {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "padding %g must be in [0, 0.5)", c.Render.Padding)
	}
	return nil
}

// LayerColors returns the parsed layer colors, top first.
func (c Config) LayerColors() ([scene.LayerCount]color.NRGBA, error) {
	var out [scene.LayerCount]color.NRGBA
	for i, s := range []string{c.Colors.Top, c.Colors.Middle, c.Colors.Bottom} {
		col, err := ParseColor(s)
		if err != nil {
			return out, err
		}
		out[i] = col
	}
	return out, nil
}

// Spec returns the parsed colorization.
func (c Config) Spec() (colorize.Spec, error) {
	z := c.Colorization
	kind, err := colorize.ParseKind(z.Kind)
	if err != nil {
		return colorize.Spec{}, err
	}
	spec := colorize.Spec{Kind: kind}
	if spec.Color, err = ParseColor(z.Color); err != nil {
		return colorize.Spec{}, err
	}
	if spec.Gradient.Start, err = ParseColor(z.GradientStart); err != nil {
		return colorize.Spec{}, err
	}
	if spec.Gradient.End, err = ParseColor(z.GradientEnd); err != nil {
		return colorize.Spec{}, err
	}
	spec.Gradient.StartPoint = colorize.Point{X: z.PointStart[0], Y: z.PointStart[1]}
	spec.Gradient.EndPoint = colorize.Point{X: z.PointEnd[0], Y: z.PointEnd[1]}
	return spec, spec.Validate()
}

// Background returns the parsed background color.
func (c Config) Background() (color.NRGBA, error) {
	return ParseColor(c.Render.BackgroundColor)
}

// ParseColor parses "#rrggbb" or "#rgb" into an opaque color.
func ParseColor(s string) (color.NRGBA, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "invalid color %q", s)
	}
	r, g, b := col.RGB255()
	return color.NRGBA{r, g, b, 0xff}, nil
}

// FormatColor returns c as "#rrggbb". Alpha is dropped.
func FormatColor(c color.NRGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}
