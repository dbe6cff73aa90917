// pk2tool inspects Pekka Kana 2 levels and block palettes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/pk2-tiles/internal/cache"
	"github.com/Faultbox/pk2-tiles/internal/config"
	"github.com/Faultbox/pk2-tiles/internal/logger"
	"github.com/Faultbox/pk2-tiles/internal/tileset"
	"github.com/Faultbox/pk2-tiles/pkg/collision"
	"github.com/Faultbox/pk2-tiles/pkg/formats"
	"github.com/Faultbox/pk2-tiles/pkg/tilemap"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(args)
	case "bounds":
		err = cmdBounds(args)
	case "normalize", "norm":
		err = cmdNormalize(args)
	case "rays":
		err = cmdRays(cfg, args)
	case "tiles":
		err = cmdTiles(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pk2tool - Pekka Kana 2 level and block palette utility

Usage:
  pk2tool [flags] <command> [arguments]

Commands:
  info <level.map>               Show level header and layer bounds
  bounds <level.map>             Print the bounding rectangle of placed tiles
  normalize <level.map>          Crop all layers and preview the foreground
  rays <palette.bmp> <id>        Show one block's occupancy and collision rays
  tiles <palette.bmp>            Compute rays for every block in a palette
  config [path]                  Write the current configuration

Flags:
  -config <path>    Config file (default: ./pk2tool.yaml or user config dir)
  -debug            Enable debug logging
  -workers <n>      Goroutines used to compute tile rays
  -no-cache         Do not read or write the collision cache
  -transparent <n>  Palette index treated as empty
  -alpha            Sample pixel alpha instead of the palette key

Examples:
  pk2tool info episodes/rooster\ island\ 1/level001.map
  pk2tool -workers 4 tiles gfx/tiles/tiles01.bmp
  pk2tool rays gfx/tiles/tiles01.bmp 17`)
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: pk2tool info <level.map>")
	}

	m, err := formats.ParsePK2MapFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Level:      %s\n", args[0])
	fmt.Printf("Version:    %s\n", m.Version)
	fmt.Printf("Name:       %s\n", m.Name)
	fmt.Printf("Author:     %s\n", m.Author)
	fmt.Printf("Tileset:    %s\n", m.Tileset)
	fmt.Printf("Background: %s\n", m.BackgroundImage)
	fmt.Printf("Music:      %s\n", strings.TrimSpace(m.Music))
	fmt.Printf("Episode:    level %d at (%d,%d), icon %d\n", m.EpisodeLevel, m.Episode.X, m.Episode.Y, m.Episode.Icon)
	fmt.Printf("Climate:    %s\n", m.Climate)
	fmt.Printf("Scrolling:  %s\n", m.Scrolling)
	if m.TimeLimit > 0 {
		fmt.Printf("Time limit: %ds\n", m.TimeLimit)
	} else {
		fmt.Println("Time limit: none")
	}

	fmt.Printf("Sprites:    %d prototypes\n", len(m.Prototypes))
	for i, p := range m.Prototypes {
		if p == "" {
			continue
		}
		marker := ""
		if i == m.PlayerSprite {
			marker = " (player)"
		}
		fmt.Printf("  %2d %s%s\n", i, p, marker)
	}

	fmt.Println()
	names := []string{"background", "foreground", "sprites"}
	for i, l := range m.Layers() {
		b, err := tilemap.ComputeBounds(l)
		if errors.Is(err, tilemap.ErrEmptyMap) {
			fmt.Printf("  %-10s empty\n", names[i])
			continue
		}
		if err != nil {
			return err
		}
		fmt.Printf("  %-10s %s\n", names[i], b)
	}
	return nil
}

func cmdBounds(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: pk2tool bounds <level.map>")
	}

	m, err := formats.ParsePK2MapFile(args[0])
	if err != nil {
		return err
	}

	b, err := m.Bounds()
	if err != nil {
		return err
	}
	fmt.Printf("top=%d left=%d bottom=%d right=%d width=%d height=%d\n",
		b.Top, b.Left, b.Bottom, b.Right, b.Width, b.Height)
	return nil
}

func cmdNormalize(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: pk2tool normalize <level.map>")
	}

	m, err := formats.ParsePK2MapFile(args[0])
	if err != nil {
		return err
	}

	norm, b, err := m.Normalize()
	if err != nil {
		return err
	}

	fmt.Printf("Cropped %dx%d to %s\n", formats.PK2MapWidth, formats.PK2MapHeight, b)
	fmt.Println()
	fmt.Print(preview(norm.Foreground, norm.Sprites))
	return nil
}

// preview draws a layer as text: '#' for blocks, '@' for sprites, '.' for
// empty cells.
func preview(blocks, sprites *tilemap.Layer) string {
	var sb strings.Builder
	for y := 0; y < blocks.Height; y++ {
		for x := 0; x < blocks.Width; x++ {
			switch {
			case !sprites.IsEmpty(x, y):
				sb.WriteByte('@')
			case !blocks.IsEmpty(x, y):
				sb.WriteByte('#')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// solidFunc picks the pixel test configured for block palettes.
func solidFunc(cfg *config.Config) collision.SolidFunc {
	if cfg.Tiles.UseAlpha {
		return collision.Opaque
	}
	return collision.PaletteKey(uint8(cfg.Tiles.TransparentIndex))
}

// cacheKey identifies rays computed from one palette with one sampling mode.
func cacheKey(cfg *config.Config, ts *tileset.Tileset) string {
	mode := "key" + strconv.Itoa(cfg.Tiles.TransparentIndex)
	if cfg.Tiles.UseAlpha {
		mode = "alpha"
	}
	return fmt.Sprintf("%s-%d-%s", ts.Key, ts.TileSize, mode)
}

func cmdRays(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: pk2tool rays <palette.bmp> <id>")
	}

	id, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid tile id %q: %w", args[1], err)
	}

	ts, err := tileset.Load(args[0], cfg.Tiles.Size)
	if err != nil {
		return err
	}

	rays, err := ts.Rays(id, solidFunc(cfg))
	if err != nil {
		return err
	}

	fmt.Printf("Tile %d of %s (%dx%d)\n\n", id, ts.Name, rays.Width(), rays.Height())
	fmt.Print(rays.Raw.String())
	fmt.Println()
	fmt.Printf("top:    %s\n", joinRays(rays.Top))
	fmt.Printf("bottom: %s\n", joinRays(rays.Bottom))
	fmt.Printf("left:   %s\n", joinRays(rays.Left))
	fmt.Printf("right:  %s\n", joinRays(rays.Right))
	return nil
}

func joinRays(rays []collision.Ray) string {
	parts := make([]string, len(rays))
	for i, r := range rays {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

func cmdTiles(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: pk2tool tiles <palette.bmp>")
	}

	ts, err := tileset.Load(args[0], cfg.Tiles.Size)
	if err != nil {
		return err
	}

	store := openCache(cfg)
	key := cacheKey(cfg, ts)

	var all []*collision.Rays
	if store != nil && store.Has(key) {
		all, err = store.Load(key, ts.Count(), ts.TileSize)
		if err != nil {
			logger.Warn("ignoring cached rays", zap.String("key", key), zap.Error(err))
			all = nil
		}
	}

	if all == nil {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		all, err = ts.ComputeAll(ctx, solidFunc(cfg), cfg.Tiles.Workers)
		if err != nil {
			return err
		}
		if store != nil {
			if err := store.Save(key, all); err != nil {
				logger.Warn("failed to cache rays", zap.String("key", key), zap.Error(err))
			}
		}
	}

	fmt.Printf("Palette: %s\n", ts.Name)
	fmt.Printf("Blocks:  %d (%dx%d of %dpx)\n", len(all), ts.Columns, ts.Rows, ts.TileSize)
	fmt.Println()

	empty := 0
	for id, rays := range all {
		if rays.Empty() {
			empty++
			continue
		}
		top := collision.Min(rays.Top, rays.Height())
		bottom := collision.Min(rays.Bottom, rays.Height())
		left := collision.Min(rays.Left, rays.Width())
		right := collision.Min(rays.Right, rays.Width())
		fmt.Printf("  %3d  top=%-2d bottom=%-2d left=%-2d right=%-2d\n", id, top, bottom, left, right)
	}
	fmt.Printf("\n%d empty blocks\n", empty)
	return nil
}

// openCache returns nil when caching is disabled. A storage failure falls
// back to a process-local store.
func openCache(cfg *config.Config) *cache.Store {
	if !cfg.Cache.Enabled {
		return nil
	}

	store, err := cache.Open(cfg.Cache.AppName)
	if err != nil {
		logger.Warn("collision cache unavailable", zap.Error(err))
		return cache.New(nil)
	}
	return store
}

func cmdConfig(cfg *config.Config, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}

	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
