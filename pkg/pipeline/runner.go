package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/skillbreak/kiticon/pkg/cache"
	"github.com/skillbreak/kiticon/pkg/colorize"
	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	kio "github.com/skillbreak/kiticon/pkg/io"
	"github.com/skillbreak/kiticon/pkg/model"
	"github.com/skillbreak/kiticon/pkg/renderer"
	"github.com/skillbreak/kiticon/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the editor and the preview server all use it to avoid
// duplicating option handling.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, caching is disabled.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.Disabled()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// source is an input whose content hash is known but which is not decoded
// yet. Cache hits never decode.
type source struct {
	path string
	kind kio.Content
	hash string
}

// Execute runs the complete load → compose → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Load
	loadStart := time.Now()
	src, err := r.read(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result := &Result{InputHash: src.hash}

	cacheKey := r.Keyer.RenderKey(src.hash, keyOpts(opts))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			result.PNG = data
			result.CacheHit = true
			result.Content = contentKind(src.kind)
			result.Warnings = r.loadWarnings(ctx, cacheKey)
			result.Stats.LoadTime = time.Since(loadStart)
			opts.Logger.Debug("render cache hit", "input", src.path, "bytes", len(data))
			return result, nil
		}
	}

	// Stage 2: Compose
	rd, warnings, err := r.compose(opts, src)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	result.Warnings = warnings
	result.Content = rd.Content()
	result.Stats.LoadTime = time.Since(loadStart)

	opts.Logger.Info("composed icon",
		"content", rd.Content(),
		"changes", rd.Changes(),
		"duration", result.Stats.LoadTime)

	// Stage 3: Render
	renderStart := time.Now()
	img, err := rd.Snapshot(ctx, opts.Size, opts.Quality)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Stats.RenderTime = time.Since(renderStart)

	encodeStart := time.Now()
	var buf bytes.Buffer
	if err := kio.EncodePNG(&buf, img); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	result.PNG = buf.Bytes()
	result.Stats.EncodeTime = time.Since(encodeStart)

	opts.Logger.Info("rendered icon",
		"size", opts.Size,
		"quality", opts.Quality,
		"bytes", len(result.PNG),
		"duration", result.Stats.RenderTime)

	_ = r.Cache.Set(ctx, cacheKey, result.PNG, cache.TTLRender)
	r.storeWarnings(ctx, cacheKey, result.Warnings)
	return result, nil
}

// storedWarning is the cached form of a non-fatal render warning.
type storedWarning struct {
	Code    kerrors.Code `json:"code"`
	Message string       `json:"message"`
}

// warningsKey names the entry holding the warnings of the render cached
// under key.
func warningsKey(key string) string {
	return "warnings:" + cache.Hash([]byte(key))
}

// storeWarnings records the warnings of a fresh render next to its PNG, so
// a later cache hit reports the same warnings. A render without warnings
// removes any entry left by an earlier render under the same key.
func (r *Runner) storeWarnings(ctx context.Context, key string, warnings []error) {
	wkey := warningsKey(key)
	if len(warnings) == 0 {
		_ = r.Cache.Delete(ctx, wkey)
		return
	}
	stored := make([]storedWarning, len(warnings))
	for i, w := range warnings {
		stored[i] = storedWarning{Code: kerrors.GetCode(w), Message: kerrors.UserMessage(w)}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return
	}
	_ = r.Cache.Set(ctx, wkey, data, cache.TTLRender)
}

// loadWarnings returns the warnings stored for the render cached under key.
func (r *Runner) loadWarnings(ctx context.Context, key string) []error {
	data, hit, err := r.Cache.Get(ctx, warningsKey(key))
	if err != nil || !hit {
		return nil
	}
	var stored []storedWarning
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil
	}
	warnings := make([]error, len(stored))
	for i, w := range stored {
		warnings[i] = kerrors.New(w.Code, "%s", w.Message)
	}
	return warnings
}

// Compose loads the content named by opts and returns a renderer holding
// the complete scene, ready for snapshots or further edits. Non-fatal
// problems are returned as warnings.
func (r *Runner) Compose(ctx context.Context, opts Options) (*renderer.Renderer, []error, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	src, err := r.read(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("load: %w", err)
	}
	return r.compose(opts, src)
}

// read resolves the input and hashes its bytes.
func (r *Runner) read(opts Options) (*source, error) {
	path, err := opts.source()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return &source{hash: "none"}, nil
	}
	kind, err := opts.content(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "%s not found", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	opts.Logger.Debug("read input", "path", path, "kind", kind, "bytes", len(data))
	return &source{path: path, kind: kind, hash: cache.Hash(data)}, nil
}

// compose decodes src and applies every option to a new renderer.
func (r *Runner) compose(opts Options, src *source) (*renderer.Renderer, []error, error) {
	rd, err := renderer.New(scene.DefaultConfig())
	if err != nil {
		return nil, nil, err
	}

	var warnings []error
	apply := func(err error) error {
		if err == nil {
			return nil
		}
		if kerrors.IsFatal(err) {
			return err
		}
		opts.Logger.Warn("non-fatal", "err", err)
		warnings = append(warnings, err)
		return nil
	}

	steps := []func() error{
		func() error { return rd.SetColors(opts.Colors) },
		func() error { return rd.SetColorization(opts.Colorization) },
		func() error { return rd.SetPadding(opts.Padding) },
	}
	switch src.kind {
	case kio.ContentImage:
		img, err := loadImage(src.path, opts.Symbol != "")
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, func() error { return rd.SetImage(img) })
	case kio.ContentModel:
		graph, err := model.Load(src.path)
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, func() error { return rd.SetModel(graph) })
	}
	for _, step := range steps {
		if err := apply(step()); err != nil {
			return nil, nil, err
		}
	}
	rd.SetRotation(opts.Rotation)
	rd.SetRenderBackground(opts.Background)
	rd.SetBackgroundColor(opts.BackgroundColor)
	return rd, warnings, nil
}

// loadImage decodes the image at path; symbols are resized to the fixed
// symbol size.
func loadImage(path string, symbol bool) (image.Image, error) {
	if !symbol {
		return kio.DecodeImage(path)
	}
	img, err := kio.LoadSymbolImage(path)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func contentKind(c kio.Content) renderer.ContentKind {
	switch c {
	case kio.ContentImage:
		return renderer.ContentImage
	case kio.ContentModel:
		return renderer.ContentModel
	}
	return renderer.ContentNone
}

// keyOpts collects every output-affecting option for the cache key.
func keyOpts(o Options) cache.RenderKeyOpts {
	k := cache.RenderKeyOpts{
		Size:     o.Size,
		Symbol:   o.Symbol != "",
		Samples:  o.Quality.Samples(),
		Fill:     o.Colorization.Kind.String(),
		Rotation: [3]float32{o.Rotation.X, o.Rotation.Y, o.Rotation.Z},
		Padding:  o.Padding,
	}
	for i, c := range o.Colors {
		k.Colors[i] = hex(c)
	}
	switch o.Colorization.Kind {
	case colorize.KindColor:
		k.FillColor = hex(o.Colorization.Color)
	case colorize.KindGradient:
		g := o.Colorization.Gradient
		k.Gradient = [2]string{hex(g.Start), hex(g.End)}
		k.GradientPoints = [4]float64{g.StartPoint.X, g.StartPoint.Y, g.EndPoint.X, g.EndPoint.Y}
	}
	if o.Background {
		k.Background = true
		k.BackgroundColor = hex(o.BackgroundColor)
	}
	return k
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
