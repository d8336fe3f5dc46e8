package image

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Format selects the encoding of a rendered image.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
)

// DefaultJPEGQuality matches a 0.92 quality factor.
const DefaultJPEGQuality = 92

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	default:
		return "jpeg"
	}
}

// MIMEType returns the media type for encoded bytes of this format.
func (f Format) MIMEType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// ParseFormat accepts "jpeg", "jpg" or "png", ignoring case.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return FormatJPEG, fmt.Errorf("unknown image format %q", name)
}

// Encode serializes img. quality applies to JPEG only; values outside
// 1..100 fall back to DefaultJPEGQuality.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// NightFilter darkens a daytime photo and washes it with a tint.
type NightFilter struct {
	Brightness float64    // RGB multiplier applied first
	Tint       color.RGBA // Straight-alpha color mixed over the darkened pixel
}

// DefaultNightFilter halves brightness and adds a faint blue cast.
func DefaultNightFilter() NightFilter {
	return NightFilter{
		Brightness: 0.5,
		Tint:       color.RGBA{R: 20, G: 20, B: 50, A: 80},
	}
}

// Apply returns a filtered copy of img with its origin at (0, 0).
func (f NightFilter) Apply(img image.Image) *image.RGBA {
	k := clamp(f.Brightness, 0, 1)
	ta := float64(f.Tint.A) / 255
	tint := [3]float64{float64(f.Tint.R), float64(f.Tint.G), float64(f.Tint.B)}

	out := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		ch := [3]float64{float64(c.R), float64(c.G), float64(c.B)}
		for i := range ch {
			ch[i] = ch[i]*k*(1-ta) + tint[i]*ta
		}
		return color.NRGBA{
			R: uint8(clamp(ch[0], 0, 255) + 0.5),
			G: uint8(clamp(ch[1], 0, 255) + 0.5),
			B: uint8(clamp(ch[2], 0, 255) + 0.5),
			A: c.A,
		}
	})
	return ToRGBA(out)
}

// Blur applies a Gaussian blur with the given sigma. Non-positive sigma
// returns an unblurred copy.
func Blur(img image.Image, sigma float64) *image.RGBA {
	if sigma <= 0 {
		return ToRGBA(img)
	}
	return ToRGBA(imaging.Blur(img, sigma))
}
