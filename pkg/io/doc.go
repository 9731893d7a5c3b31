// Package io reads and writes the bitmaps the icon pipeline consumes and
// produces.
//
// # Import
//
// [DecodeImage] reads an image file and [ReadImage] any io.Reader. PNG,
// JPEG and GIF are decoded by imaging, which also applies EXIF orientation;
// BMP, TIFF and WebP decoders are registered from golang.org/x/image. Decode
// errors carry the DECODE_FAILURE code.
//
// [LoadSymbolImage] reads a catalog symbol and resizes it to the fixed
// [SymbolSize] used for icon content.
//
// [DetectContent] decides from the file extension whether a path holds an
// image or a 3D model.
//
// # Export
//
// [EncodePNG] writes a PNG to any io.Writer. [ExportPNG] writes a file
// atomically: the image is encoded to a temporary file next to the target
// and renamed into place, so a failed export never leaves a truncated file.
// Export errors carry the EXPORT_WRITE_FAILURE code.
package io
