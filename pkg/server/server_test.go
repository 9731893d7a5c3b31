package server

import (
	"encoding/json"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/skillbreak/kiticon/pkg/cache"
	"github.com/skillbreak/kiticon/pkg/colorize"
	kio "github.com/skillbreak/kiticon/pkg/io"
	"github.com/skillbreak/kiticon/pkg/pipeline"
	"github.com/skillbreak/kiticon/pkg/renderer"
	"github.com/skillbreak/kiticon/pkg/symbols"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	if err := kio.ExportPNG(filepath.Join(root, "icon.png"), img); err != nil {
		t.Fatal(err)
	}
	if err := kio.ExportPNG(filepath.Join(root, "star.png"), img); err != nil {
		t.Fatal(err)
	}
	catalogPath := filepath.Join(root, "catalog.toml")
	catalogTOML := "[releases.\"2019\"]\nios = \"13.0\"\n\n[symbols]\n\"star\" = \"2019\"\n"
	if err := os.WriteFile(catalogPath, []byte(catalogTOML), 0644); err != nil {
		t.Fatal(err)
	}
	catalog, err := symbols.Load(catalogPath, "")
	if err != nil {
		t.Fatal(err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	defaults := pipeline.DefaultOptions()
	defaults.Size = 24
	defaults.Quality = renderer.QualityQuick
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(c, cache.Scope(nil, "serve:"), logger)
	return New(runner, Options{Root: root, Catalog: catalog, Defaults: defaults, Logger: logger}), root
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(s, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}
}

func TestIcon(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		target string
		size   int
	}{
		{"bare stack", "/icon.png", 24},
		{"sized", "/icon.png?size=16", 16},
		{"image", "/icon.png?input=icon.png&fill=color&fill_color=ff2d55", 24},
		{"symbol gradient", "/icon.png?symbol=star&fill=gradient&gradient=ff9500,%23ff2d55&gradient_points=0,0,1,1", 24},
		{"styled", "/icon.png?top=000&middle=%23112233&background=true&background_color=f2f2f7&rotate=10,20,30", 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(s, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("Content-Type = %q", ct)
			}
			img, err := kio.ReadImage(rec.Body)
			if err != nil {
				t.Fatal(err)
			}
			if b := img.Bounds(); b.Dx() != tt.size || b.Dy() != tt.size {
				t.Errorf("bounds = %v, want %dpx", b, tt.size)
			}
		})
	}
}

func TestIconCacheAndRevalidation(t *testing.T) {
	s, _ := newTestServer(t)

	first := get(s, "/icon.png?input=icon.png")
	if first.Code != http.StatusOK || first.Header().Get("X-Kiticon-Cache") != "miss" {
		t.Fatalf("first = %d, cache %q", first.Code, first.Header().Get("X-Kiticon-Cache"))
	}
	second := get(s, "/icon.png?input=icon.png")
	if second.Header().Get("X-Kiticon-Cache") != "hit" {
		t.Errorf("second request should hit the cache")
	}

	req := httptest.NewRequest(http.MethodGet, "/icon.png?input=icon.png", nil)
	req.Header.Set("If-None-Match", first.Header().Get("ETag"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("revalidation status = %d", rec.Code)
	}
}

func TestIconErrors(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"traversal", "/icon.png?input=../etc/passwd", http.StatusBadRequest, "INVALID_PATH"},
		{"absolute", "/icon.png?input=/etc/passwd", http.StatusBadRequest, "INVALID_PATH"},
		{"missing input", "/icon.png?input=nope.png", http.StatusNotFound, "FILE_NOT_FOUND"},
		{"bad symbol", "/icon.png?symbol=a/b", http.StatusBadRequest, "INVALID_SYMBOL"},
		{"unknown symbol", "/icon.png?symbol=moon", http.StatusNotFound, "NOT_FOUND"},
		{"input and symbol", "/icon.png?input=icon.png&symbol=star", http.StatusBadRequest, "INVALID_INPUT"},
		{"big size", "/icon.png?size=100000", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad size", "/icon.png?size=big", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad color", "/icon.png?top=teal", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad fill", "/icon.png?fill=rainbow", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad rotate", "/icon.png?rotate=1,2", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad padding", "/icon.png?padding=0.7", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad quality", "/icon.png?quality=ultra", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(s, tt.target)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			var body struct{ Code string }
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestOptionsFromQuery(t *testing.T) {
	s, root := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/icon.png?input=icon.png&fill=gradient&gradient=000,fff&padding=0.2&background=1", nil)
	opts, err := s.options(req.URL.Query())
	if err != nil {
		t.Fatal(err)
	}
	if opts.Input != filepath.Join(root, "icon.png") {
		t.Errorf("input = %q", opts.Input)
	}
	g := opts.Colorization.Gradient
	if opts.Colorization.Kind != colorize.KindGradient || g.Start != (color.NRGBA{0, 0, 0, 0xff}) || g.End != (color.NRGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("colorization = %+v", opts.Colorization)
	}
	if opts.Padding != 0.2 || !opts.Background {
		t.Errorf("padding = %g, background = %v", opts.Padding, opts.Background)
	}
}

func TestSymbols(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(s, "/symbols")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var groups []symbolGroup
	if err := json.NewDecoder(rec.Body).Decode(&groups); err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].Year != "2019" || len(groups[0].Symbols) != 1 || groups[0].Symbols[0] != "star" {
		t.Errorf("groups = %+v", groups)
	}
	if groups[0].Release == "" {
		t.Error("release should be described")
	}
}

func TestInputsDisabledWithoutRoot(t *testing.T) {
	s := New(pipeline.NewRunner(nil, nil, nil), Options{Defaults: pipeline.DefaultOptions(), Logger: log.New(io.Discard)})
	if rec := get(s, "/icon.png?input=icon.png"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec := get(s, "/symbols"); rec.Code != http.StatusNotFound {
		t.Errorf("symbols status = %d, want 404", rec.Code)
	}
}
