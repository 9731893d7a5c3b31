package cli

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	kio "github.com/skillbreak/kiticon/pkg/io"
	"github.com/skillbreak/kiticon/pkg/pipeline"
)

// renderOpts holds the render command flags.
type renderOpts struct {
	scene   sceneFlags
	output  string
	noCache bool
	refresh bool
}

// renderCommand creates the render command for exporting an icon to PNG.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [image|model]",
		Short: "Render an icon to PNG",
		Long: `Render an icon kit mock-up to PNG.

The icon is drawn on the top of three rounded layers. The content can be an
image (PNG, JPEG, GIF, BMP, TIFF, WebP), a 3D model (OBJ, STL) or a symbol from
the configured catalog. Without content the bare layer stack is rendered.

Settings not given as flags come from the configuration file.`,
		Example: `  # Render an image with the default colors
  kiticon render logo.png

  # Tint a symbol with a gradient
  kiticon render --symbol star.fill --fill gradient --gradient '#ff9500,#ff2d55'

  # Tilt a model and render a quick preview
  kiticon render teapot.obj --rotate 20,30,0 --quick -o teapot.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd, input, &opts)
		},
	}

	opts.scene.register(cmd)
	c.completeSymbolFlag(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", kio.DefaultExportName, "output file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "render even if a cached result exists")

	return cmd
}

// runRender composes and renders the icon and writes it atomically.
func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()

	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	catalog, err := opts.scene.catalog(cfg)
	if err != nil {
		return err
	}
	popts, err := opts.scene.options(cmd, cfg, catalog)
	if err != nil {
		return err
	}
	popts.Input = input
	popts.Refresh = opts.refresh

	runner, err := c.newRunner(opts.noCache, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Rendering icon...")
	spinner.Start()
	start := time.Now()
	res, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		if spinner.Cancelled() {
			return ctx.Err()
		}
		return err
	}

	for _, w := range res.Warnings {
		printWarning("%v", w)
	}

	if err := kio.WriteFileAtomic(opts.output, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(res.PNG))
		return err
	}); err != nil {
		return err
	}

	printSuccess("Rendered icon (%s)", res.Content)
	printFile(opts.output)
	printRenderStats(res, popts.Size, time.Since(start))
	return nil
}

// printRenderStats prints size, timing and cache status on a single line.
func printRenderStats(res *pipeline.Result, size int, elapsed time.Duration) {
	parts := []string{
		fmt.Sprintf("%dpx", size),
		fmt.Sprintf("%d bytes", len(res.PNG)),
		elapsed.Round(time.Millisecond).String(),
	}
	printStats(parts, res.CacheHit)
}
