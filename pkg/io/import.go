package io

import (
	"errors"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/model"
)

// SymbolSize is the edge length symbols are resized to.
const SymbolSize = 256

// Content is the kind of file an input path holds.
type Content int

const (
	ContentUnknown Content = iota
	ContentImage
	ContentModel
)

func (c Content) String() string {
	switch c {
	case ContentImage:
		return "image"
	case ContentModel:
		return "model"
	}
	return "unknown"
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DetectContent classifies path by extension.
func DetectContent(path string) (Content, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if imageExts[ext] {
		return ContentImage, nil
	}
	if _, err := model.FormatFromPath(path); err == nil {
		return ContentModel, nil
	}
	return ContentUnknown, kerrors.New(kerrors.ErrCodeUnsupported, "unsupported input %q", filepath.Base(path))
}

// ReadImage decodes an image from r. ReadImage does not close r.
func ReadImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "decode image")
	}
	return img, nil
}

// DecodeImage reads the image file at path.
func DecodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "image %s not found", path)
		}
		return nil, kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "open %s", path)
	}
	defer f.Close()

	img, err := ReadImage(f)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "decode %s", path)
	}
	return img, nil
}

// LoadSymbolImage reads the symbol image at path and resizes it to
// SymbolSize x SymbolSize.
func LoadSymbolImage(path string) (*image.NRGBA, error) {
	img, err := DecodeImage(path)
	if err != nil {
		return nil, err
	}
	return ResizeSymbol(img), nil
}

// ResizeSymbol scales img to SymbolSize x SymbolSize.
func ResizeSymbol(img image.Image) *image.NRGBA {
	return imaging.Resize(img, SymbolSize, SymbolSize, imaging.Lanczos)
}
