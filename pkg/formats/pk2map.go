package formats

import (
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/pk2-tiles/pkg/encoding"
	"github.com/Faultbox/pk2-tiles/pkg/tilemap"
)

// PK2 map format errors.
var (
	ErrInvalidPK2Version = errors.New("unsupported PK2 map version")
	ErrTruncatedPK2Data  = errors.New("truncated PK2 map data")
	ErrInvalidPK2Number  = errors.New("invalid PK2 decimal field")
	ErrInvalidPK2Offsets = errors.New("PK2 layer block outside map area")
)

// PK2 map layout constants.
const (
	PK2MapVersion = "1.3"
	PK2MapWidth   = 256
	PK2MapHeight  = 224

	// PK2EmptyCell is the on-disk byte for a cell without a tile.
	PK2EmptyCell = 0xFF

	pk2PathSize   = 13
	pk2TextSize   = 40
	pk2NumberSize = 8
)

// Climate is the weather effect of a map.
type Climate int

// Climate constants.
const (
	ClimateNormal Climate = iota
	ClimateRain
	ClimateForest
	ClimateRainyForest
	ClimateSnow
)

// String returns a human-readable climate name.
func (c Climate) String() string {
	switch c {
	case ClimateNormal:
		return "Normal"
	case ClimateRain:
		return "Rain"
	case ClimateForest:
		return "Forest"
	case ClimateRainyForest:
		return "Rainy forest"
	case ClimateSnow:
		return "Snow"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Scrolling is how the background image moves with the camera.
type Scrolling int

// Scrolling constants.
const (
	ScrollStatic Scrolling = iota
	ScrollVertical
	ScrollHorizontal
	ScrollVerticalHorizontal
)

// String returns a human-readable scrolling mode.
func (s Scrolling) String() string {
	switch s {
	case ScrollStatic:
		return "Static"
	case ScrollVertical:
		return "Parallax vertical"
	case ScrollHorizontal:
		return "Parallax horizontal"
	case ScrollVerticalHorizontal:
		return "Parallax both"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// EpisodePosition places the map icon on the episode overview.
type EpisodePosition struct {
	X    int
	Y    int
	Icon int
}

// PK2Map represents a parsed legacy Pekka Kana 2 level.
type PK2Map struct {
	Version         string
	Tileset         string // block palette image
	BackgroundImage string
	Music           string
	Name            string
	Author          string

	EpisodeLevel int
	Climate      Climate
	TimeLimit    int // seconds, 0 = unlimited
	Scrolling    Scrolling
	PlayerSprite int // index into Prototypes
	Episode      EpisodePosition
	Prototypes   []string

	Background *tilemap.Layer
	Foreground *tilemap.Layer
	Sprites    *tilemap.Layer
}

// Layers returns background, foreground and sprite layers in file order.
func (m *PK2Map) Layers() []*tilemap.Layer {
	return []*tilemap.Layer{m.Background, m.Foreground, m.Sprites}
}

// Bounds returns the rectangle holding every placed block and sprite.
func (m *PK2Map) Bounds() (tilemap.Bounds, error) {
	return tilemap.ComputeBounds(m.Background, m.Foreground, m.Sprites)
}

// Normalize returns a copy of the map with all layers cropped to Bounds.
func (m *PK2Map) Normalize() (*PK2Map, tilemap.Bounds, error) {
	layers, b, err := tilemap.Normalize(m.Layers()...)
	if err != nil {
		return nil, tilemap.Bounds{}, err
	}

	out := *m
	out.Prototypes = append([]string(nil), m.Prototypes...)
	out.Background, out.Foreground, out.Sprites = layers[0], layers[1], layers[2]
	return &out, b, nil
}

// pk2Reader reads fixed-size fields. The first failure sticks; later reads
// return zero values.
type pk2Reader struct {
	data []byte
	off  int
	err  error
}

func (r *pk2Reader) bytes(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: reading %s at offset %d", ErrTruncatedPK2Data, what, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *pk2Reader) skip(n int, what string) {
	r.bytes(n, what)
}

func (r *pk2Reader) str(n int, what string) string {
	return encoding.FixedString(r.bytes(n, what))
}

func (r *pk2Reader) text(what string) string {
	return encoding.FixedStringCut(r.bytes(pk2TextSize, what))
}

func (r *pk2Reader) number(what string) int {
	field := r.bytes(pk2NumberSize, what)
	if r.err != nil {
		return 0
	}
	n, err := parseDecimal(field)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", what, err)
		return 0
	}
	return n
}

// parseDecimal reads a leading, optionally signed integer from a
// NUL-terminated ASCII field. Text after the digits is ignored.
func parseDecimal(field []byte) (int, error) {
	i := 0
	for i < len(field) && (field[i] == ' ' || field[i] == '\t') {
		i++
	}

	neg := false
	if i < len(field) && (field[i] == '-' || field[i] == '+') {
		neg = field[i] == '-'
		i++
	}

	n, digits := 0, 0
	for ; i < len(field) && field[i] >= '0' && field[i] <= '9'; i++ {
		n = n*10 + int(field[i]-'0')
		digits++
	}
	if digits == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPK2Number, encoding.FixedString(field))
	}
	if neg {
		n = -n
	}
	return n, nil
}

// ParsePK2Map parses a version 1.3 PK2 map from raw bytes.
func ParsePK2Map(data []byte) (*PK2Map, error) {
	r := &pk2Reader{data: data}

	version := r.str(5, "version")
	if r.err != nil {
		return nil, r.err
	}
	if version != PK2MapVersion {
		return nil, fmt.Errorf("%w: got %q, expected %q", ErrInvalidPK2Version, version, PK2MapVersion)
	}

	m := &PK2Map{Version: version}
	m.Tileset = r.str(pk2PathSize, "tileset")
	m.BackgroundImage = r.str(pk2PathSize, "background image")
	m.Music = r.str(pk2PathSize, "music")
	m.Name = r.text("map name")
	m.Author = r.text("author")

	m.EpisodeLevel = r.number("episode level")
	m.Climate = Climate(r.number("climate"))
	r.skip(3*pk2NumberSize, "button timers")
	m.TimeLimit = r.number("time limit")
	r.skip(pk2NumberSize, "unused field")
	m.Scrolling = Scrolling(r.number("background scrolling"))
	m.PlayerSprite = r.number("player sprite")
	m.Episode.X = r.number("episode x")
	m.Episode.Y = r.number("episode y")
	m.Episode.Icon = r.number("episode icon")

	count := r.number("prototype count")
	if r.err != nil {
		return nil, r.err
	}
	if count < 0 || count*pk2PathSize > len(data)-r.off {
		return nil, fmt.Errorf("%w: %d prototypes", ErrTruncatedPK2Data, count)
	}
	m.Prototypes = make([]string, count)
	for i := range m.Prototypes {
		m.Prototypes[i] = r.str(pk2PathSize, "prototype")
	}

	var err error
	if m.Background, err = readPK2Layer(r, "background"); err != nil {
		return nil, err
	}
	if m.Foreground, err = readPK2Layer(r, "foreground"); err != nil {
		return nil, err
	}
	if m.Sprites, err = readPK2Layer(r, "sprites"); err != nil {
		return nil, err
	}

	return m, nil
}

// readPK2Layer reads one layer block: an offset and size header followed by
// the rows of the stored rectangle. Cells outside it stay empty.
func readPK2Layer(r *pk2Reader, name string) (*tilemap.Layer, error) {
	offsetX := r.number(name + " offset x")
	offsetY := r.number(name + " offset y")
	lastX := r.number(name + " width")
	lastY := r.number(name + " height")
	if r.err != nil {
		return nil, r.err
	}

	if offsetX < 0 || offsetY < 0 || lastX < 0 || lastY < 0 ||
		offsetX+lastX >= PK2MapWidth || offsetY+lastY >= PK2MapHeight {
		return nil, fmt.Errorf("%w: %s block at (%d,%d) size %dx%d",
			ErrInvalidPK2Offsets, name, offsetX, offsetY, lastX+1, lastY+1)
	}

	l := tilemap.NewLayer(PK2MapWidth, PK2MapHeight)
	for y := offsetY; y <= offsetY+lastY; y++ {
		row := r.bytes(lastX+1, name+" row")
		if r.err != nil {
			return nil, r.err
		}
		for x, b := range row {
			if b != PK2EmptyCell {
				l.Set(offsetX+x, y, int(b))
			}
		}
	}
	return l, nil
}

// ParsePK2MapFile parses a PK2 map file from disk.
func ParsePK2MapFile(path string) (*PK2Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PK2 map file: %w", err)
	}
	return ParsePK2Map(data)
}
