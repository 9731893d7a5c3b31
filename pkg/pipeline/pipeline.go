// Package pipeline provides the icon rendering pipeline for kiticon.
//
// This package implements the complete load → compose → snapshot → encode
// pipeline used by the render command, the interactive editor and the
// preview server. By centralizing this logic, every entry point applies
// options the same way and shares one render cache.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the input file or catalog symbol and decode it as an image
//     or a 3D model
//  2. Compose: build a renderer and apply colors, colorization, content,
//     padding, rotation and background
//  3. Render: snapshot the scene and encode it as PNG
//
// The PNG is cached under a key derived from the input bytes and every
// option that affects the output, so re-rendering an unchanged icon is a
// file read.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Input = "icon.png"
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("KitIcon.png", result.PNG, 0644)
package pipeline

import (
	"image/color"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/skillbreak/kiticon/pkg/colorize"
	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
	kio "github.com/skillbreak/kiticon/pkg/io"
	"github.com/skillbreak/kiticon/pkg/model"
	"github.com/skillbreak/kiticon/pkg/renderer"
	"github.com/skillbreak/kiticon/pkg/scene"
	"github.com/skillbreak/kiticon/pkg/symbols"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultSize is the default output edge length in pixels.
	DefaultSize = 1024

	// MaxSize bounds the output edge length.
	MaxSize = 8192
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one icon render.
type Options struct {
	// Content. At most one of Input and Symbol is set; neither renders the
	// bare stack.
	Input   string `json:"input,omitempty"`  // image or model file
	Symbol  string `json:"symbol,omitempty"` // catalog symbol name
	Refresh bool   `json:"refresh,omitempty"`

	// Scene options
	Colors       [scene.LayerCount]color.NRGBA `json:"colors"`
	Colorization colorize.Spec                 `json:"colorization"`
	Rotation     geom.Vec3                     `json:"rotation"` // radians
	Padding      float32                       `json:"padding"`

	// Output options
	Size            int              `json:"size"`
	Quality         renderer.Quality `json:"quality"`
	Background      bool             `json:"background"`
	BackgroundColor color.NRGBA      `json:"background_color"`

	// Runtime options (not serialized)
	Catalog *symbols.Catalog `json:"-"`
	Logger  *log.Logger      `json:"-"`
}

// DefaultOptions returns options for a full-quality icon of the bare stack in
// the default colors.
func DefaultOptions() Options {
	return Options{
		Colors:          scene.DefaultColors,
		Colorization:    colorize.DefaultSpec(),
		Padding:         model.DefaultPadding,
		Size:            DefaultSize,
		Quality:         renderer.QualityFull,
		BackgroundColor: renderer.DefaultBackground,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// PNG is the encoded icon.
	PNG []byte

	// InputHash is the content hash of the input file, or "none".
	InputHash string

	// Content is what the top layer carried.
	Content renderer.ContentKind

	// Warnings holds non-fatal problems, such as an image without pixels.
	Warnings []error

	// Stats contains timing information.
	Stats Stats

	// CacheHit reports whether PNG came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LoadTime   time.Duration
	RenderTime time.Duration
	EncodeTime time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults. This method
// is idempotent - calling it multiple times has the same effect as calling
// it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Input != "" && o.Symbol != "" {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "input and symbol are mutually exclusive")
	}
	if o.Symbol != "" {
		if err := kerrors.ValidateSymbolName(o.Symbol); err != nil {
			return err
		}
		if o.Catalog == nil {
			return kerrors.New(kerrors.ErrCodeInvalidInput, "symbol %q requested without a catalog", o.Symbol)
		}
	}
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.Size < 0 || o.Size > MaxSize {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "size %d must be in [1, %d]", o.Size, MaxSize)
	}
	if err := o.Colorization.Validate(); err != nil {
		return err
	}
	if o.Padding < 0 || o.Padding >= 0.5 {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "padding %g must be in [0, 0.5)", o.Padding)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// source resolves the file the content is read from.
func (o *Options) source() (string, error) {
	if o.Symbol != "" {
		return o.Catalog.ImagePath(o.Symbol)
	}
	return o.Input, nil
}

// content classifies the source.
func (o *Options) content(path string) (kio.Content, error) {
	if o.Symbol != "" {
		return kio.ContentImage, nil
	}
	return kio.DetectContent(path)
}
