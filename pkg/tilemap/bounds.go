package tilemap

import (
	"errors"
	"fmt"
	"image"

	"github.com/Faultbox/pk2-tiles/pkg/collision"
)

// Bounds errors.
var (
	ErrEmptyMap    = errors.New("map has no tiles in any layer")
	ErrOutOfBounds = errors.New("bounds do not fit the layer")
)

// Bounds is the tight rectangle of placed tiles. Edges are inclusive cell
// coordinates.
type Bounds struct {
	Top    int
	Left   int
	Bottom int
	Right  int
	Width  int
	Height int
}

// Rect returns the bounds as a half-open rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right+1, b.Bottom+1)
}

// String returns a compact description of the bounds.
func (b Bounds) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d) %dx%d", b.Left, b.Top, b.Right, b.Bottom, b.Width, b.Height)
}

// Existence marks every cell where any layer has a tile placed.
// All layers must share the primary layer's size.
func Existence(primary *Layer, others ...*Layer) (*collision.Grid, error) {
	if err := primary.validate(); err != nil {
		return nil, err
	}
	for i, l := range others {
		if err := l.validate(); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		if l.Width != primary.Width || l.Height != primary.Height {
			return nil, fmt.Errorf("%w: layer %d is %dx%d, expected %dx%d",
				ErrShapeMismatch, i+1, l.Width, l.Height, primary.Width, primary.Height)
		}
	}

	g := collision.NewGrid(primary.Width, primary.Height)
	for i, id := range primary.Tiles {
		g.Cells[i] = id >= 0
	}
	for _, l := range others {
		for i, id := range l.Tiles {
			if id >= 0 {
				g.Cells[i] = true
			}
		}
	}
	return g, nil
}

// ComputeBounds returns the tight rectangle holding every placed tile of
// all given layers. A map without any placed tile yields ErrEmptyMap.
func ComputeBounds(primary *Layer, others ...*Layer) (Bounds, error) {
	g, err := Existence(primary, others...)
	if err != nil {
		return Bounds{}, err
	}

	rays, err := collision.ComputeRays(g)
	if err != nil {
		return Bounds{}, err
	}
	if rays.Empty() {
		return Bounds{}, ErrEmptyMap
	}

	w, h := g.Width, g.Height
	b := Bounds{
		Top:    collision.Min(rays.Top, h),
		Left:   collision.Min(rays.Left, w),
		Bottom: h - collision.Min(rays.Bottom, h) - 1,
		Right:  w - collision.Min(rays.Right, w) - 1,
	}
	b.Width = b.Right - b.Left + 1
	b.Height = b.Bottom - b.Top + 1
	return b, nil
}

// Crop copies the cells of l inside b into a new layer.
func Crop(l *Layer, b Bounds) (*Layer, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	if b.Left < 0 || b.Top < 0 || b.Right >= l.Width || b.Bottom >= l.Height ||
		b.Left > b.Right || b.Top > b.Bottom {
		return nil, fmt.Errorf("%w: %v in %dx%d", ErrOutOfBounds, b, l.Width, l.Height)
	}

	w, h := b.Right-b.Left+1, b.Bottom-b.Top+1
	out := &Layer{Width: w, Height: h, Tiles: make([]int, w*h)}
	for y := 0; y < h; y++ {
		src := (b.Top+y)*l.Width + b.Left
		copy(out.Tiles[y*w:(y+1)*w], l.Tiles[src:src+w])
	}
	return out, nil
}

// Normalize crops every layer to the bounds of their combined content.
// The returned layers are new; the inputs are left untouched.
func Normalize(layers ...*Layer) ([]*Layer, Bounds, error) {
	if len(layers) == 0 {
		return nil, Bounds{}, ErrEmptyLayer
	}

	b, err := ComputeBounds(layers[0], layers[1:]...)
	if err != nil {
		return nil, Bounds{}, err
	}

	out := make([]*Layer, len(layers))
	for i, l := range layers {
		if out[i], err = Crop(l, b); err != nil {
			return nil, Bounds{}, fmt.Errorf("cropping layer %d: %w", i, err)
		}
	}
	return out, b, nil
}
