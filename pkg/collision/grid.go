// Package collision computes directional collision rays over occupancy grids.
//
// Grids use (x, y) coordinates where x is the column and y the row, with
// (0, 0) at the top-left corner. Cells are stored row-major.
package collision

import (
	"errors"
	"fmt"
	"strings"
)

// Grid errors.
var (
	ErrEmptyGrid  = errors.New("occupancy grid is empty")
	ErrJaggedGrid = errors.New("occupancy grid rows differ in length")
)

// Grid is a rectangular occupancy matrix. A true cell is solid.
type Grid struct {
	Width  int
	Height int
	Cells  []bool
}

// NewGrid returns an empty (all non-solid) grid.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		Width:  width,
		Height: height,
		Cells:  make([]bool, width*height),
	}
}

// GridFromRows builds a grid from rows listed top to bottom.
func GridFromRows(rows [][]bool) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}

	width := len(rows[0])
	g := NewGrid(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrJaggedGrid, y, len(row), width)
		}
		copy(g.Cells[y*width:], row)
	}
	return g, nil
}

// Validate checks that the grid is non-empty and its backing slice matches
// its dimensions.
func (g *Grid) Validate() error {
	if g == nil || g.Width <= 0 || g.Height <= 0 {
		return ErrEmptyGrid
	}
	if len(g.Cells) != g.Width*g.Height {
		return fmt.Errorf("%w: %d cells for %dx%d", ErrJaggedGrid, len(g.Cells), g.Width, g.Height)
	}
	return nil
}

// At reports whether the cell at (x, y) is solid.
// Out of bounds cells are never solid.
func (g *Grid) At(x, y int) bool {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return false
	}
	return g.Cells[y*g.Width+x]
}

// Set marks the cell at (x, y). Out of bounds writes are ignored.
func (g *Grid) Set(x, y int, solid bool) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.Cells[y*g.Width+x] = solid
}

// Count returns the number of solid cells.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.Cells {
		if c {
			n++
		}
	}
	return n
}

// String renders the grid with '#' for solid and '.' for empty cells.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow((g.Width + 1) * g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Cells[y*g.Width+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
