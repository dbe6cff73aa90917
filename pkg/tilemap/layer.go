// Package tilemap provides layered tile grids and the bounding rectangle of
// their content.
package tilemap

import (
	"errors"
	"fmt"
)

// EmptyTile marks a cell with no tile placed. Any negative id is empty.
const EmptyTile = -1

// Layer errors.
var (
	ErrEmptyLayer    = errors.New("layer is empty")
	ErrJaggedLayer   = errors.New("layer rows differ in length")
	ErrShapeMismatch = errors.New("layers differ in size")
)

// Layer is a grid of tile ids stored row-major.
type Layer struct {
	Width  int
	Height int
	Tiles  []int
}

// NewLayer returns a layer with every cell set to EmptyTile. Negative sizes
// are treated as zero.
func NewLayer(width, height int) *Layer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	l := &Layer{
		Width:  width,
		Height: height,
		Tiles:  make([]int, width*height),
	}
	for i := range l.Tiles {
		l.Tiles[i] = EmptyTile
	}
	return l
}

// LayerFromRows builds a layer from rows listed top to bottom.
func LayerFromRows(rows [][]int) (*Layer, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyLayer
	}
	width := len(rows[0])
	l := &Layer{Width: width, Height: len(rows), Tiles: make([]int, width*len(rows))}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d tiles, expected %d", ErrJaggedLayer, y, len(row), width)
		}
		copy(l.Tiles[y*width:], row)
	}
	return l, nil
}

func (l *Layer) validate() error {
	if l == nil || l.Width <= 0 || l.Height <= 0 {
		return ErrEmptyLayer
	}
	if len(l.Tiles) != l.Width*l.Height {
		return fmt.Errorf("%w: %d tiles for %dx%d", ErrJaggedLayer, len(l.Tiles), l.Width, l.Height)
	}
	return nil
}

// At returns the tile id at (x, y), or EmptyTile when out of bounds.
func (l *Layer) At(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return EmptyTile
	}
	return l.Tiles[y*l.Width+x]
}

// Set places a tile id at (x, y). Out of bounds writes are ignored.
func (l *Layer) Set(x, y, id int) {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return
	}
	l.Tiles[y*l.Width+x] = id
}

// IsEmpty reports whether no tile is placed at (x, y).
func (l *Layer) IsEmpty(x, y int) bool {
	return l.At(x, y) < 0
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Width:  l.Width,
		Height: l.Height,
		Tiles:  append([]int(nil), l.Tiles...),
	}
}

// Rows returns the layer as rows listed top to bottom.
func (l *Layer) Rows() [][]int {
	rows := make([][]int, l.Height)
	for y := range rows {
		rows[y] = append([]int(nil), l.Tiles[y*l.Width:(y+1)*l.Width]...)
	}
	return rows
}
