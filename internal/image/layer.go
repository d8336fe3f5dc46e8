// Package image provides image loading, encoding, blend modes and layer
// compositing for the lighting renderers.
package image

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lightplan/pkg/geometry"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Layer represents a single image participating in a composite.
type Layer struct {
	Path    string      // Original file path, empty for in-memory images
	Format  string      // Decoder name (png, jpeg, tiff, webp)
	Image   image.Image // Loaded image data
	Visible bool        // Layer visibility
	Opacity float64     // Layer opacity (0.0 - 1.0)
}

// NewLayer creates a visible, opaque layer wrapping img.
func NewLayer(img image.Image) *Layer {
	return &Layer{
		Image:   img,
		Visible: true,
		Opacity: 1.0,
	}
}

// Load loads an image from the specified path and returns a Layer.
func Load(path string) (*Layer, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	layer, err := Decode(file)
	if err != nil {
		return nil, err
	}
	layer.Path = path
	return layer, nil
}

// Decode reads an image from r and returns a Layer.
func Decode(r io.Reader) (*Layer, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	layer := NewLayer(img)
	layer.Format = format
	return layer, nil
}

// DecodeBytes decodes an in-memory encoded image.
func DecodeBytes(data []byte) (*Layer, error) {
	return Decode(bytes.NewReader(data))
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Aspect returns width / height, or 0 for an empty layer.
func (l *Layer) Aspect() float64 {
	if l.Height() == 0 {
		return 0
	}
	return float64(l.Width()) / float64(l.Height())
}

// Size returns the image dimensions.
func (l *Layer) Size() geometry.Rect {
	return geometry.NewRect(0, 0, float64(l.Width()), float64(l.Height()))
}

// PixelAt returns the color at the specified pixel coordinates.
func (l *Layer) PixelAt(x, y int) color.Color {
	if l.Image == nil {
		return color.Black
	}
	bounds := l.Image.Bounds()
	p := image.Pt(bounds.Min.X+x, bounds.Min.Y+y)
	if !p.In(bounds) {
		return color.Black
	}
	return l.Image.At(p.X, p.Y)
}

// ToRGBA returns a copy of img as an RGBA image with its origin at (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
