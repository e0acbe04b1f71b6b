// Package imaging scales and encodes captured frames.
package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pixiv/go-libjpeg/jpeg"
)

type Format int

const (
	PNG Format = iota + 1
	JPEG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatFromPath picks the encoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	}
	return 0, fmt.Errorf("unsupported image extension %q (use .png, .jpg or .jpeg)", filepath.Ext(path))
}

// Fit scales img down to fit within maxWidth x maxHeight, keeping the
// aspect ratio. A zero limit is no limit. Images that already fit are
// returned unchanged.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 {
		maxWidth = b.Dx()
	}
	if maxHeight <= 0 {
		maxHeight = b.Dy()
	}
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return resize.Thumbnail(uint(maxWidth), uint(maxHeight), img, resize.Bilinear)
}

// Scale resizes img to exactly width x height, ignoring the aspect ratio.
// The result's pixels are packed, Width*4 bytes per row.
func Scale(img image.Image, width, height int) *image.RGBA {
	scaled := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	if rgba, ok := scaled.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == width*4 {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Rect, scaled, scaled.Bounds().Min, draw.Src)
	return rgba
}

// EncodeJPEG writes img with libjpeg at the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.EncoderOptions{Quality: quality})
}

func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return EncodeJPEG(w, img, quality)
	}
	return fmt.Errorf("unsupported format %v", format)
}
