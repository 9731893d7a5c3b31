package io

import (
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

// DefaultExportName is the file name used when no output path is given.
const DefaultExportName = "KitIcon.png"

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeExportWriteFailure, err, "encode png")
	}
	return nil
}

// ExportPNG writes img to path as PNG. An existing file is replaced only
// once the new one is completely written.
func ExportPNG(path string, img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return kerrors.New(kerrors.ErrCodeExportWriteFailure, "nothing to export")
	}
	return WriteFileAtomic(path, func(w io.Writer) error { return EncodePNG(w, img) })
}

// WriteFileAtomic creates path from the bytes written by fill.
func WriteFileAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return kerrors.Wrap(kerrors.ErrCodeExportWriteFailure, err, "create %s", path)
	}
	name := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(name)
		return kerrors.Wrap(kerrors.ErrCodeExportWriteFailure, err, "write %s", path)
	}

	if err := fill(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return kerrors.Wrap(kerrors.ErrCodeExportWriteFailure, err, "write %s", path)
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return kerrors.Wrap(kerrors.ErrCodeExportWriteFailure, err, "write %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return kerrors.Wrap(kerrors.ErrCodeExportWriteFailure, err, "rename into %s", path)
	}
	return nil
}
