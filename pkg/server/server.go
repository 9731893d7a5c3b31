// Package server serves rendered icons over HTTP.
//
// The server renders through a [pipeline.Runner], so repeated requests for
// the same icon are answered from the render cache. Every render setting can
// be given as a query parameter; unset parameters use the server defaults.
//
// # Routes
//
//	GET /icon.png  render an icon
//	GET /symbols   list catalog symbols grouped by release year
//	GET /healthz   liveness probe
//
// # Query Parameters
//
//	input             image or model path, relative to the server root
//	symbol            catalog symbol name
//	size              edge length in pixels
//	quality           quick or full
//	top, middle, bottom
//	                  layer colors as rrggbb or #rrggbb
//	fill              none, color or gradient
//	fill_color        solid colorization color
//	gradient          start,end colors
//	gradient_points   x0,y0,x1,y1 in the unit square
//	rotate            x,y,z model rotation in degrees
//	padding           gap between a model and the layer edge
//	background        true to fill the background
//	background_color  background color
package server

import (
	"image/color"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skillbreak/kiticon/pkg/colorize"
	"github.com/skillbreak/kiticon/pkg/config"
	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/httputil"
	"github.com/skillbreak/kiticon/pkg/pipeline"
	"github.com/skillbreak/kiticon/pkg/renderer"
	"github.com/skillbreak/kiticon/pkg/symbols"
)

// DefaultMaxSize caps the size parameter.
const DefaultMaxSize = 2048

// Options configures a Server.
type Options struct {
	// Root is the directory input paths are resolved in. Requests naming an
	// input are rejected when Root is empty.
	Root string

	// Catalog resolves symbol requests. Nil disables symbols.
	Catalog *symbols.Catalog

	// Defaults are the render settings used for parameters a request omits.
	Defaults pipeline.Options

	// MaxSize caps the size parameter; DefaultMaxSize when zero.
	MaxSize int

	Logger *log.Logger
}

// Server is an http.Handler rendering icons on request.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	router chi.Router
}

// New returns a server rendering through runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Server{runner: runner, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.Observe(s.opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Get("/healthz", s.handleHealth)
	r.Get("/icon.png", s.handleIcon)
	r.Get("/symbols", s.handleSymbols)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleIcon(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	opts.Logger = s.opts.Logger.With("request_id", httputil.RequestIDFrom(r.Context()))

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h := w.Header()
	if res.CacheHit {
		h.Set("X-Kiticon-Cache", "hit")
	} else {
		h.Set("X-Kiticon-Cache", "miss")
	}
	for _, warn := range res.Warnings {
		h.Add("X-Kiticon-Warning", kerrors.UserMessage(warn))
	}
	httputil.WritePNG(w, r, res.PNG)
}

// symbolGroup is the JSON form of a catalog group.
type symbolGroup struct {
	Year    string   `json:"year"`
	Release string   `json:"release,omitempty"`
	Symbols []string `json:"symbols"`
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	if s.opts.Catalog == nil {
		httputil.WriteError(w, kerrors.New(kerrors.ErrCodeNotFound, "no symbol catalog configured"))
		return
	}
	groups := s.opts.Catalog.GroupByYear()
	out := make([]symbolGroup, 0, len(groups))
	for _, g := range groups {
		sg := symbolGroup{Year: g.Year}
		if rel := g.Symbols[0].Release; rel != (symbols.Release{}) {
			sg.Release = rel.String()
		}
		for _, sym := range g.Symbols {
			sg.Symbols = append(sg.Symbols, sym.Name)
		}
		out = append(out, sg)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// options builds pipeline options from the server defaults and q.
func (s *Server) options(q url.Values) (pipeline.Options, error) {
	opts := s.opts.Defaults
	opts.Logger = nil

	if input := q.Get("input"); input != "" {
		if s.opts.Root == "" {
			return opts, kerrors.New(kerrors.ErrCodeNotFound, "inputs are not served")
		}
		if err := kerrors.ValidatePath(input); err != nil {
			return opts, err
		}
		opts.Input = filepath.Join(s.opts.Root, filepath.FromSlash(input))
	}
	if symbol := q.Get("symbol"); symbol != "" {
		if err := kerrors.ValidateSymbolName(symbol); err != nil {
			return opts, err
		}
		if s.opts.Catalog == nil {
			return opts, kerrors.New(kerrors.ErrCodeNotFound, "no symbol catalog configured")
		}
		opts.Symbol = symbol
		opts.Catalog = s.opts.Catalog
	}

	p := params{q: q}
	if v, ok := p.int("size"); ok {
		if v < 1 || v > s.opts.MaxSize {
			p.fail(kerrors.New(kerrors.ErrCodeInvalidInput, "size %d must be in [1, %d]", v, s.opts.MaxSize))
		}
		opts.Size = v
	}
	if v := q.Get("quality"); v != "" {
		quality, err := renderer.ParseQuality(v)
		p.fail(err)
		opts.Quality = quality
	}
	for i, name := range []string{"top", "middle", "bottom"} {
		p.color(name, &opts.Colors[i])
	}
	if v := q.Get("fill"); v != "" {
		kind, err := colorize.ParseKind(v)
		p.fail(err)
		opts.Colorization.Kind = kind
	}
	p.color("fill_color", &opts.Colorization.Color)
	if v := q.Get("gradient"); v != "" {
		p.fail(config.ParseColorPair(hexList(v), &opts.Colorization.Gradient))
	}
	if v := q.Get("gradient_points"); v != "" {
		p.fail(config.ParseGradientPoints(v, &opts.Colorization.Gradient))
	}
	if v := q.Get("rotate"); v != "" {
		rot, err := config.ParseDegrees(v)
		p.fail(err)
		opts.Rotation = rot
	}
	if v := q.Get("padding"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			p.fail(kerrors.New(kerrors.ErrCodeInvalidInput, "invalid padding %q", v))
		}
		opts.Padding = float32(f)
	}
	if v := q.Get("background"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(kerrors.New(kerrors.ErrCodeInvalidInput, "invalid background %q", v))
		}
		opts.Background = on
	}
	p.color("background_color", &opts.BackgroundColor)

	return opts, p.err
}

// params parses query values and keeps the first error.
type params struct {
	q   url.Values
	err error
}

func (p *params) fail(err error) {
	if p.err == nil && err != nil {
		p.err = err
	}
}

func (p *params) int(name string) (int, bool) {
	v := p.q.Get(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(kerrors.New(kerrors.ErrCodeInvalidInput, "invalid %s %q", name, v))
		return 0, false
	}
	return n, true
}

// color parses a hex color parameter into dst. The leading '#' is optional
// since it has to be escaped in URLs.
func (p *params) color(name string, dst *color.NRGBA) {
	v := p.q.Get(name)
	if v == "" {
		return
	}
	c, err := config.ParseColor(hex(v))
	if err != nil {
		p.fail(err)
		return
	}
	*dst = c
}

func hex(s string) string {
	if strings.HasPrefix(s, "#") {
		return s
	}
	return "#" + s
}

// hexList applies hex to each comma-separated color.
func hexList(s string) string {
	parts := strings.Split(s, ",")
	for i, part := range parts {
		parts[i] = hex(strings.TrimSpace(part))
	}
	return strings.Join(parts, ",")
}
