// Package cli implements the kiticon command-line interface.
//
// This package provides commands for rendering icon kit mock-ups from
// images, catalog symbols and 3D models, editing them interactively,
// browsing the symbol catalog, serving previews over HTTP and managing the
// render cache and configuration. The CLI is built using cobra and logs with
// charmbracelet/log.
//
// # Commands
//
//   - render: Render an icon to PNG
//   - tweak: Edit an icon interactively with live previews
//   - symbols: List or pick catalog symbols
//   - serve: Serve rendered icons over HTTP
//   - config: Show the configuration
//   - cache: Manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-format to switch between text, JSON and logfmt output.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/skillbreak/kiticon/pkg/buildinfo"
	"github.com/skillbreak/kiticon/pkg/cache"
	"github.com/skillbreak/kiticon/pkg/config"
	"github.com/skillbreak/kiticon/pkg/pipeline"
	"github.com/skillbreak/kiticon/pkg/symbols"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "kiticon"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the default configuration file.
	configPath string
	logFormat  string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Kiticon renders icon kit mock-ups",
		Long:         `Kiticon renders an icon as a stack of three rounded layers, with an image, a symbol or a 3D model on top, and exports the result as PNG.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/kiticon/config.toml)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "text", "log format: text, json or logfmt")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	// Level and format are only known once flags are parsed.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if c.verbose {
			c.SetLogLevel(LogDebug)
		}
		f, err := parseLogFormat(c.logFormat)
		if err != nil {
			return err
		}
		c.Logger.SetFormatter(f)
		c.installHooks()
		return nil
	}

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.tweakCommand())
	root.AddCommand(c.symbolsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool, keyer cache.Keyer) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, keyer, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.Disabled(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.Disabled(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration file named by --config or the default
// location.
func (c *CLI) loadConfig() (config.Config, string, error) {
	path, err := c.configFile()
	if err != nil {
		return config.Default(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, path, err
	}
	c.Logger.Debug("loaded config", "path", path)
	return cfg, path, nil
}

// loadCatalog opens the symbol catalog named in cfg. A catalog that is not
// configured yields nil and no error.
func loadCatalog(cfg config.Config) (*symbols.Catalog, error) {
	if cfg.Symbols.Catalog == "" {
		return nil, nil
	}
	return symbols.Load(cfg.Symbols.Catalog, cfg.Symbols.Dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/kiticon/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
