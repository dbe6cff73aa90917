package collision

import (
	"errors"
	"fmt"
)

// ErrInconsistentRays reports rays that no grid of the given size produces.
var ErrInconsistentRays = errors.New("rays do not describe a grid")

// Rays holds the nearest solid cell distances from each grid edge.
//
// Top and Bottom are indexed by column, Left and Right by row.
type Rays struct {
	Top    []Ray `yaml:"top"`
	Bottom []Ray `yaml:"bottom"`
	Left   []Ray `yaml:"left"`
	Right  []Ray `yaml:"right"`

	// Raw is the grid the rays were computed from.
	Raw *Grid `yaml:"-"`
}

// ComputeRays scans g from all four edges. Every scan line stops at its
// first solid cell, so holes behind that cell do not affect the result.
// g is not modified.
func ComputeRays(g *Grid) (*Rays, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	w, h := g.Width, g.Height
	r := &Rays{
		Top:    make([]Ray, w),
		Bottom: make([]Ray, w),
		Left:   make([]Ray, h),
		Right:  make([]Ray, h),
		Raw:    g,
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if g.Cells[y*w+x] {
				r.Top[x] = Hit(y)
				break
			}
		}
		for y := h - 1; y >= 0; y-- {
			if g.Cells[y*w+x] {
				r.Bottom[x] = Hit(h - 1 - y)
				break
			}
		}
	}

	for y := 0; y < h; y++ {
		row := g.Cells[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			if row[x] {
				r.Left[y] = Hit(x)
				break
			}
		}
		for x := w - 1; x >= 0; x-- {
			if row[x] {
				r.Right[y] = Hit(w - 1 - x)
				break
			}
		}
	}

	return r, nil
}

// Width returns the number of columns the rays describe.
func (r *Rays) Width() int {
	return len(r.Top)
}

// Height returns the number of rows the rays describe.
func (r *Rays) Height() int {
	return len(r.Left)
}

// Empty reports whether no scan line hit a solid cell. Only Top is
// consulted, so rays not built by ComputeRays should pass Check first.
func (r *Rays) Empty() bool {
	for _, ray := range r.Top {
		if ray.IsHit() {
			return false
		}
	}
	return true
}

// Check verifies that r could have come from a width x height grid: every
// array has the right length, distances fit the grid, opposite scans agree
// on which lines are empty, and each column's first solid cell is visible
// from the sides of its row.
func (r *Rays) Check(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInconsistentRays, width, height)
	}
	if len(r.Top) != width || len(r.Bottom) != width || len(r.Left) != height || len(r.Right) != height {
		return fmt.Errorf("%w: lengths %d/%d/%d/%d for %dx%d", ErrInconsistentRays,
			len(r.Top), len(r.Bottom), len(r.Left), len(r.Right), width, height)
	}

	if err := checkOpposite(r.Top, r.Bottom, height, "column"); err != nil {
		return err
	}
	if err := checkOpposite(r.Left, r.Right, width, "row"); err != nil {
		return err
	}

	for x, ray := range r.Top {
		y, ok := ray.Distance()
		if !ok {
			continue
		}
		left, lok := r.Left[y].Distance()
		right, rok := r.Right[y].Distance()
		if !lok || !rok || left > x || right > width-1-x {
			return fmt.Errorf("%w: column %d hits row %d which rows do not see", ErrInconsistentRays, x, y)
		}
	}
	if r.Empty() {
		for y, ray := range r.Left {
			if ray.IsHit() {
				return fmt.Errorf("%w: row %d hits but no column does", ErrInconsistentRays, y)
			}
		}
	}
	return nil
}

// checkOpposite compares scans of the same lines from opposite edges.
func checkOpposite(near, far []Ray, size int, line string) error {
	for i := range near {
		n, nok := near[i].Distance()
		f, fok := far[i].Distance()
		if nok != fok {
			return fmt.Errorf("%w: %s %d hit from one side only", ErrInconsistentRays, line, i)
		}
		if nok && (n >= size || f >= size || n+f > size-1) {
			return fmt.Errorf("%w: %s %d distances %d+%d exceed %d", ErrInconsistentRays, line, i, n, f, size)
		}
	}
	return nil
}
