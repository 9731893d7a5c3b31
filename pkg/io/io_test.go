package io

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{0xff, 0x00, 0x00, 0xff})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0x00, 0x00, 0xff, 0x80})
			}
		}
	}
	return img
}

func TestExportAndDecode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultExportName)
	src := checker(8, 4)

	if err := ExportPNG(path, src); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
	}
	for _, p := range []image.Point{{0, 0}, {1, 0}, {7, 3}} {
		if c := color.NRGBAModel.Convert(got.At(p.X, p.Y)); c != src.NRGBAAt(p.X, p.Y) {
			t.Errorf("pixel %v = %v, want %v", p, c, src.NRGBAAt(p.X, p.Y))
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("export left %d files, want 1", len(entries))
	}
}

func TestExportReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icon.png")
	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ExportPNG(path, checker(2, 2)); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeImage(path); err != nil {
		t.Errorf("replaced file does not decode: %v", err)
	}
}

func TestExportErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		img  image.Image
	}{
		{"missing directory", filepath.Join(dir, "nope", "icon.png"), checker(2, 2)},
		{"empty image", filepath.Join(dir, "icon.png"), image.NewNRGBA(image.Rectangle{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExportPNG(tt.path, tt.img)
			if !kerrors.Is(err, kerrors.ErrCodeExportWriteFailure) {
				t.Errorf("err = %v, want EXPORT_WRITE_FAILURE", err)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeImage(filepath.Join(dir, "missing.png")); !kerrors.Is(err, kerrors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}
	if _, err := DecodeImage(garbage); !kerrors.Is(err, kerrors.ErrCodeDecodeFailure) {
		t.Errorf("garbage file: err = %v", err)
	}
	if _, err := ReadImage(strings.NewReader("")); !kerrors.Is(err, kerrors.ErrCodeDecodeFailure) {
		t.Errorf("empty reader: err = %v", err)
	}
}

func TestLoadSymbolImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "star.fill.png")
	if err := ExportPNG(path, checker(40, 20)); err != nil {
		t.Fatal(err)
	}
	img, err := LoadSymbolImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, SymbolSize, SymbolSize) {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, checker(3, 3)); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG")
	}
	img, err := ReadImage(&buf)
	if err != nil || img.Bounds().Dx() != 3 {
		t.Errorf("ReadImage = %v, %v", img, err)
	}
}

func TestDetectContent(t *testing.T) {
	tests := []struct {
		path    string
		want    Content
		wantErr bool
	}{
		{"icon.png", ContentImage, false},
		{"photo.JPEG", ContentImage, false},
		{"scan.tiff", ContentImage, false},
		{"art.webp", ContentImage, false},
		{"teapot.obj", ContentModel, false},
		{"part.STL", ContentModel, false},
		{"scene.usdz", ContentUnknown, true},
		{"README", ContentUnknown, true},
	}
	for _, tt := range tests {
		got, err := DetectContent(tt.path)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("DetectContent(%q) = %v, %v", tt.path, got, err)
		}
	}
}
