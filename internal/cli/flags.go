package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillbreak/kiticon/pkg/colorize"
	"github.com/skillbreak/kiticon/pkg/config"
	"github.com/skillbreak/kiticon/pkg/pipeline"
	"github.com/skillbreak/kiticon/pkg/renderer"
	"github.com/skillbreak/kiticon/pkg/scene"
	"github.com/skillbreak/kiticon/pkg/symbols"
)

// sceneFlags holds the flags shared by every command that renders an icon.
// Unset flags fall back to the configuration file.
type sceneFlags struct {
	symbol          string // catalog symbol used as content
	top             string // top layer color
	middle          string // middle layer color
	bottom          string // bottom layer color
	fill            string // colorization: none, color, gradient
	fillColor       string // solid colorization color
	gradient        string // "start,end" gradient colors
	gradientPoints  string // "x0,y0,x1,y1" in the unit square
	rotate          string // "x,y,z" model rotation in degrees
	padding         float32
	background      bool
	backgroundColor string
	size            int
	quick           bool
}

// register adds the scene flags to cmd.
func (f *sceneFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.symbol, "symbol", "", "use a catalog symbol as the icon")
	fl.StringVar(&f.top, "top", "", "top layer color (#rrggbb)")
	fl.StringVar(&f.middle, "middle", "", "middle layer color (#rrggbb)")
	fl.StringVar(&f.bottom, "bottom", "", "bottom layer color (#rrggbb)")
	fl.StringVar(&f.fill, "fill", "", "icon colorization: none, color, gradient")
	fl.StringVar(&f.fillColor, "fill-color", "", "solid colorization color (#rrggbb)")
	fl.StringVar(&f.gradient, "gradient", "", "gradient colors as start,end (#rrggbb,#rrggbb)")
	fl.StringVar(&f.gradientPoints, "gradient-points", "", "gradient points as x0,y0,x1,y1 in [0,1]")
	fl.StringVar(&f.rotate, "rotate", "", "model rotation as x,y,z in degrees")
	fl.Float32Var(&f.padding, "padding", 0, "gap between a model and the layer edge")
	fl.BoolVar(&f.background, "background", false, "fill the background instead of leaving it transparent")
	fl.StringVar(&f.backgroundColor, "background-color", "", "background color (#rrggbb)")
	fl.IntVar(&f.size, "size", 0, "output size in pixels")
	fl.BoolVar(&f.quick, "quick", false, "render at preview quality (2x instead of 4x antialiasing)")

	_ = cmd.RegisterFlagCompletionFunc("fill", cobra.FixedCompletions(
		[]string{"none", "color", "gradient"}, cobra.ShellCompDirectiveNoFileComp))
}

// configOptions returns the pipeline options described by cfg alone.
func configOptions(cfg config.Config) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	var err error
	if opts.Colors, err = cfg.LayerColors(); err != nil {
		return opts, err
	}
	if opts.Colorization, err = cfg.Spec(); err != nil {
		return opts, err
	}
	if opts.BackgroundColor, err = cfg.Background(); err != nil {
		return opts, err
	}
	opts.Size = cfg.Render.Size
	opts.Background = cfg.Render.Background
	opts.Padding = cfg.Render.Padding
	return opts, nil
}

// options merges cfg and the flags set on cmd into pipeline options.
func (f *sceneFlags) options(cmd *cobra.Command, cfg config.Config, catalog *symbols.Catalog) (pipeline.Options, error) {
	opts, err := configOptions(cfg)
	if err != nil {
		return opts, err
	}

	changed := cmd.Flags().Changed
	for i, name := range []string{"top", "middle", "bottom"} {
		if !changed(name) {
			continue
		}
		value := []string{f.top, f.middle, f.bottom}[i]
		if opts.Colors[scene.LayerTop+i], err = config.ParseColor(value); err != nil {
			return opts, fmt.Errorf("--%s: %w", name, err)
		}
	}
	if changed("fill") {
		if opts.Colorization.Kind, err = colorize.ParseKind(f.fill); err != nil {
			return opts, fmt.Errorf("--fill: %w", err)
		}
	}
	if changed("fill-color") {
		if opts.Colorization.Color, err = config.ParseColor(f.fillColor); err != nil {
			return opts, fmt.Errorf("--fill-color: %w", err)
		}
	}
	if changed("gradient") {
		if err := config.ParseColorPair(f.gradient, &opts.Colorization.Gradient); err != nil {
			return opts, fmt.Errorf("--gradient: %w", err)
		}
	}
	if changed("gradient-points") {
		if err := config.ParseGradientPoints(f.gradientPoints, &opts.Colorization.Gradient); err != nil {
			return opts, fmt.Errorf("--gradient-points: %w", err)
		}
	}
	if changed("rotate") {
		if opts.Rotation, err = config.ParseDegrees(f.rotate); err != nil {
			return opts, fmt.Errorf("--rotate: %w", err)
		}
	}
	if changed("padding") {
		opts.Padding = f.padding
	}
	if changed("background") {
		opts.Background = f.background
	}
	if changed("background-color") {
		if opts.BackgroundColor, err = config.ParseColor(f.backgroundColor); err != nil {
			return opts, fmt.Errorf("--background-color: %w", err)
		}
	}
	if changed("size") {
		opts.Size = f.size
	}
	if f.quick {
		opts.Quality = renderer.QualityQuick
	}
	if f.symbol != "" {
		if catalog == nil {
			return opts, fmt.Errorf("--symbol needs a catalog: set [symbols] catalog in the config file")
		}
		opts.Symbol = f.symbol
		opts.Catalog = catalog
	}
	return opts, nil
}

// catalog loads the symbol catalog when --symbol is set.
func (f *sceneFlags) catalog(cfg config.Config) (*symbols.Catalog, error) {
	if f.symbol == "" {
		return nil, nil
	}
	return loadCatalog(cfg)
}
