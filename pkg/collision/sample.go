package collision

import (
	"errors"
	"fmt"
	"image"
)

// ErrBadSampleRect is returned when the sampled rectangle is empty or lies
// outside the image.
var ErrBadSampleRect = errors.New("sample rectangle outside image bounds")

// SolidFunc decides whether the pixel at (x, y) of img is solid.
type SolidFunc func(img image.Image, x, y int) bool

// Opaque treats fully opaque pixels as solid and everything else as empty.
func Opaque(img image.Image, x, y int) bool {
	_, _, _, a := img.At(x, y).RGBA()
	return a == 0xFFFF
}

// PaletteKey treats every palette index except key as solid.
// Non-paletted images fall back to Opaque.
func PaletteKey(key uint8) SolidFunc {
	return func(img image.Image, x, y int) bool {
		p, ok := img.(*image.Paletted)
		if !ok {
			return Opaque(img, x, y)
		}
		return p.ColorIndexAt(x, y) != key
	}
}

// FromImage samples rect of img into a grid of the same size.
// Grid cell (0, 0) corresponds to rect.Min.
func FromImage(img image.Image, rect image.Rectangle, solid SolidFunc) (*Grid, error) {
	if rect.Empty() || !rect.In(img.Bounds()) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrBadSampleRect, rect, img.Bounds())
	}
	if solid == nil {
		solid = Opaque
	}

	g := NewGrid(rect.Dx(), rect.Dy())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.Cells[y*g.Width+x] = solid(img, rect.Min.X+x, rect.Min.Y+y)
		}
	}
	return g, nil
}
