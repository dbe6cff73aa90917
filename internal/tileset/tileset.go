// Package tileset cuts block palette images into tiles and computes their
// collision rays.
package tileset

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/png" // PNG palettes from converted episodes
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/pk2-tiles/internal/logger"
	"github.com/Faultbox/pk2-tiles/pkg/collision"
)

// DefaultTileSize is the edge length of a block in pixels.
const DefaultTileSize = 32

// Tileset errors.
var (
	ErrBadPaletteSize = errors.New("palette size is not a whole number of tiles")
	ErrTileOutOfRange = errors.New("tile id out of range")
)

// Tileset is a block palette image split into square tiles, numbered
// left-to-right, top-to-bottom.
type Tileset struct {
	Name     string
	Key      string // stable cache key: name plus content hash
	Image    image.Image
	TileSize int
	Columns  int
	Rows     int
}

// New wraps an already decoded palette image.
func New(name string, img image.Image, tileSize int) (*Tileset, error) {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	b := img.Bounds()
	if b.Empty() || b.Dx()%tileSize != 0 || b.Dy()%tileSize != 0 {
		return nil, fmt.Errorf("%w: %dx%d with %dpx tiles", ErrBadPaletteSize, b.Dx(), b.Dy(), tileSize)
	}
	return &Tileset{
		Name:     name,
		Key:      name,
		Image:    img,
		TileSize: tileSize,
		Columns:  b.Dx() / tileSize,
		Rows:     b.Dy() / tileSize,
	}, nil
}

// Decode reads a BMP or PNG palette.
func Decode(r io.Reader, name string, tileSize int) (*Tileset, error) {
	br := bufio.NewReader(r)

	var (
		img image.Image
		err error
	)
	if magic, _ := br.Peek(2); string(magic) == "BM" {
		img, err = bmp.Decode(br)
	} else {
		img, _, err = image.Decode(br)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding palette %s: %w", name, err)
	}
	return New(name, img, tileSize)
}

// Load reads a palette from disk. The cache key includes a hash of the file
// so edited palettes do not reuse stale collision data.
func Load(path string, tileSize int) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading palette: %w", err)
	}

	name := strings.ToLower(filepath.Base(path))
	ts, err := Decode(bytes.NewReader(data), name, tileSize)
	if err != nil {
		return nil, err
	}

	sum := sha1.Sum(data)
	ts.Key = name + "-" + hex.EncodeToString(sum[:8])

	logger.Debug("palette loaded",
		zap.String("path", path),
		zap.Int("tiles", ts.Count()),
		zap.String("key", ts.Key))
	return ts, nil
}

// Count returns the number of tiles in the palette.
func (t *Tileset) Count() int {
	return t.Columns * t.Rows
}

// Rect returns the pixel rectangle of tile id.
func (t *Tileset) Rect(id int) (image.Rectangle, error) {
	if id < 0 || id >= t.Count() {
		return image.Rectangle{}, fmt.Errorf("%w: %d of %d", ErrTileOutOfRange, id, t.Count())
	}
	origin := t.Image.Bounds().Min
	x := origin.X + (id%t.Columns)*t.TileSize
	y := origin.Y + (id/t.Columns)*t.TileSize
	return image.Rect(x, y, x+t.TileSize, y+t.TileSize), nil
}

// Occupancy samples tile id into an occupancy grid.
func (t *Tileset) Occupancy(id int, solid collision.SolidFunc) (*collision.Grid, error) {
	r, err := t.Rect(id)
	if err != nil {
		return nil, err
	}
	return collision.FromImage(t.Image, r, solid)
}

// Rays computes the collision rays of tile id.
func (t *Tileset) Rays(id int, solid collision.SolidFunc) (*collision.Rays, error) {
	g, err := t.Occupancy(id, solid)
	if err != nil {
		return nil, err
	}
	return collision.ComputeRays(g)
}

// ComputeAll computes rays for every tile using up to workers goroutines.
// workers <= 0 uses GOMAXPROCS. The result is indexed by tile id.
func (t *Tileset) ComputeAll(ctx context.Context, solid collision.SolidFunc, workers int) ([]*collision.Rays, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]*collision.Rays, t.Count())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for id := range out {
		if gctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rays, err := t.Rays(id, solid)
			if err != nil {
				return fmt.Errorf("tile %d: %w", id, err)
			}
			out[id] = rays
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
