package cardocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	// The card upload allow-list includes image/webp; imaging itself only
	// registers jpeg/png/gif/tiff/bmp decoders.
	_ "golang.org/x/image/webp"
)

// Preprocess normalizes an uploaded card photo for OCR: bound the width
// (never upscale), grayscale, stretch the intensity histogram, sharpen and
// re-encode as PNG. The input bytes are left untouched.
func Preprocess(raw []byte, maxWidth int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrImageProcessing, err)
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)
	gray = stretchContrast(gray)
	gray = imaging.Sharpen(gray, 0.7)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrImageProcessing, err)
	}
	return buf.Bytes(), nil
}

// stretchContrast linearly expands the grayscale histogram to the full
// 0..255 range. Input must already be grayscale (R==G==B).
func stretchContrast(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	lo, hi := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := img.NRGBAAt(x, y).R
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo || (lo == 0 && hi == 255) {
		return img
	}
	scale := 255.0 / float64(hi-lo)
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := img.NRGBAAt(x, y)
			v := uint8(math.Round(float64(p.R-lo) * scale))
			out.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: p.A})
		}
	}
	return out
}
