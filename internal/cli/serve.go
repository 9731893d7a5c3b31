package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillbreak/kiticon/pkg/cache"
	"github.com/skillbreak/kiticon/pkg/server"
)

const (
	defaultAddr     = "localhost:8080"
	shutdownTimeout = 5 * time.Second
)

// serveOpts holds the serve command flags.
type serveOpts struct {
	addr    string
	root    string
	maxSize int
	noCache bool
}

// serveCommand creates the serve command for the preview HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered icons over HTTP",
		Long: `Serve rendered icons over HTTP.

GET /icon.png renders an icon; every render setting is a query parameter
(size, quality, top, middle, bottom, fill, fill_color, gradient,
gradient_points, rotate, padding, background, background_color). Images and
models are read from --root, symbols from the configured catalog.

Defaults come from the configuration file. Renders are cached.`,
		Example: `  # Serve images from the current directory
  kiticon serve --root .

  # Then fetch a tinted icon
  curl -o icon.png 'http://localhost:8080/icon.png?input=logo.png&fill=color&fill_color=ff2d55'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.root, "root", "", "directory inputs are served from (disabled when empty)")
	cmd.Flags().IntVar(&opts.maxSize, "max-size", server.DefaultMaxSize, "largest size a request may ask for")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

// runServe listens until ctx is cancelled, then shuts down gracefully.
func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		c.Logger.Warn("symbols disabled", "err", err)
		catalog = nil
	}

	defaults, err := configOptions(cfg)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache, cache.Scope(nil, "serve:"))
	if err != nil {
		return err
	}
	defer runner.Close()

	handler := server.New(runner, server.Options{
		Root:     opts.root,
		Catalog:  catalog,
		Defaults: defaults,
		MaxSize:  opts.maxSize,
		Logger:   c.Logger,
	})

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	printSuccess("Serving icons")
	printKeyValue("URL", StyleLink.Render("http://"+ln.Addr().String()+"/icon.png"))
	if opts.root != "" {
		printKeyValue("Root", opts.root)
	}
	if catalog != nil {
		printKeyValue("Symbols", StyleNumber.Render(strconv.Itoa(catalog.Len())))
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
