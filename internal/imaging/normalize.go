// Package imaging normalizes raw preview images into fixed-canvas PNGs.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// Register the raster formats the discovery endpoint serves.
	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// ErrDecode reports input bytes that cannot be decoded or processed.
var ErrDecode = errors.New("image cannot be decoded")

// Size is a pixel canvas size.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is the canvas every stored preview is normalized to.
var DefaultSize = Size{Width: 1600, Height: 900}

// Normalize decodes raw image bytes, scales the image uniformly so it fits
// entirely within target, composites it centered on a fully transparent
// canvas of exactly target, and returns the optimized PNG encoding.
// Callers must not persist anything when an error is returned.
func Normalize(raw []byte, target Size) ([]byte, error) {
	if target.Width <= 0 || target.Height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", target.Width, target.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecode)
	}

	scale := minFloat(
		float64(target.Width)/float64(w),
		float64(target.Height)/float64(h),
	)
	scaledW := int(float64(w) * scale)
	scaledH := int(float64(h) * scale)

	// The zero-valued RGBA canvas is already fully transparent.
	canvas := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	offsetX := (target.Width - scaledW) / 2
	offsetY := (target.Height - scaledH) / 2
	region := image.Rect(offsetX, offsetY, offsetX+scaledW, offsetY+scaledH)

	draw.CatmullRom.Scale(canvas, region, src, bounds, draw.Over, nil)

	var out bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
