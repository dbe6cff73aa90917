package formats

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/Faultbox/pk2-tiles/pkg/encoding"
)

// trainingCourseHeader is the header of the first episode map up to the
// first layer block.
const trainingCourseHeader = "312e3300cd74696c657330312e626d7000006669656c64335f642e626d700073" +
	"6f6e6730312e786d20202000747261696e696e6720636f75727365cccccccccc" +
	"cccccccccc00cdcdcdcdcdcdcdcdcdcdcdcdcdcd6a616e6e65206b6976696c61" +
	"687469cccccccccccccccccccccccccccc00cdcdcdcdcdcdcdcdcdcd3100cccc" +
	"cccccccc30000000000000003230303000000000323030300000000032303030" +
	"0000000030000000000000003000000000000000320000000000000030000000" +
	"0000000031393500000000003138300000000000310000000000000032300000" +
	"00000000726f6f737465722e73707200cd696e666f332e73707200cdcdcd696e" +
	"666f31302e73707200cdcd696e666f31342e73707200cdcd6170706c652e7370" +
	"720000cdcd736d616c6c68656e2e73707200676966745f6674682e7370720066" +
	"6561746865722e73707200006865646765686f672e73707200696e666f352e73" +
	"707200707200696e666f392e737072000000006d65676170686f6e2e73707200" +
	"696e666f312e73707200707200696e666f31322e737072007200696e666f3137" +
	"2e73707200720068656e2e73707200707200720062675f627573682e73707200" +
	"cd62747472666c79322e73707200746c706f7274312e7370720000676966745f" +
	"666c772e73707200"

// writeNumber writes an 8-byte NUL padded decimal field.
func writeNumber(buf *bytes.Buffer, n int) {
	field := make([]byte, pk2NumberSize)
	copy(field, strconv.Itoa(n))
	buf.Write(field)
}

// writeField writes a NUL padded fixed-size Windows-1252 string.
func writeField(buf *bytes.Buffer, s string, size int) {
	buf.Write(encoding.UTF8ToFixedString(s, size))
}

// testBlock is a rectangle of tiles stored in a layer block.
type testBlock struct {
	x, y  int
	tiles [][]byte
}

func writeBlock(buf *bytes.Buffer, b testBlock) {
	writeNumber(buf, b.x)
	writeNumber(buf, b.y)
	writeNumber(buf, len(b.tiles[0])-1)
	writeNumber(buf, len(b.tiles)-1)
	for _, row := range b.tiles {
		buf.Write(row)
	}
}

// createTestPK2Map creates a minimal valid map with the given layer blocks.
func createTestPK2Map(prototypes []string, bg, fg, sprites testBlock) []byte {
	buf := new(bytes.Buffer)

	writeField(buf, "1.3", 5)
	writeField(buf, "tiles02.bmp", pk2PathSize)
	writeField(buf, "castle.bmp", pk2PathSize)
	writeField(buf, "song03.xm", pk2PathSize)
	buf.Write(append([]byte("test map"), bytes.Repeat([]byte{0xCC}, pk2TextSize-8)...))
	writeField(buf, "tëster", pk2TextSize)

	writeNumber(buf, 3)   // episode level
	writeNumber(buf, 1)   // climate
	writeNumber(buf, 0)   // button timers
	writeNumber(buf, 0)   //
	writeNumber(buf, 0)   //
	writeNumber(buf, 240) // time limit
	writeNumber(buf, 0)   // unused
	writeNumber(buf, 2)   // scrolling
	writeNumber(buf, 0)   // player sprite
	writeNumber(buf, 10)  // episode x
	writeNumber(buf, 20)  // episode y
	writeNumber(buf, 4)   // icon

	writeNumber(buf, len(prototypes))
	for _, p := range prototypes {
		writeField(buf, p, pk2PathSize)
	}

	writeBlock(buf, bg)
	writeBlock(buf, fg)
	writeBlock(buf, sprites)

	return buf.Bytes()
}

func emptyBlock() testBlock {
	return testBlock{tiles: [][]byte{{PK2EmptyCell}}}
}

func TestParsePK2Map_Header(t *testing.T) {
	data := createTestPK2Map([]string{"rooster.spr", "apple.spr"}, emptyBlock(), emptyBlock(), emptyBlock())

	m, err := ParsePK2Map(data)
	if err != nil {
		t.Fatalf("ParsePK2Map failed: %v", err)
	}

	if m.Version != "1.3" {
		t.Errorf("expected version 1.3, got %q", m.Version)
	}
	if m.Tileset != "tiles02.bmp" {
		t.Errorf("expected tileset tiles02.bmp, got %q", m.Tileset)
	}
	if m.BackgroundImage != "castle.bmp" {
		t.Errorf("expected background castle.bmp, got %q", m.BackgroundImage)
	}
	if m.Music != "song03.xm" {
		t.Errorf("expected music song03.xm, got %q", m.Music)
	}
	if m.Name != "test map" {
		t.Errorf("expected name 'test map', got %q", m.Name)
	}
	if m.Author != "tëster" {
		t.Errorf("expected author 'tëster', got %q", m.Author)
	}
	if m.EpisodeLevel != 3 {
		t.Errorf("expected episode level 3, got %d", m.EpisodeLevel)
	}
	if m.Climate != ClimateRain {
		t.Errorf("expected climate Rain, got %v", m.Climate)
	}
	if m.TimeLimit != 240 {
		t.Errorf("expected time limit 240, got %d", m.TimeLimit)
	}
	if m.Scrolling != ScrollHorizontal {
		t.Errorf("expected horizontal scrolling, got %v", m.Scrolling)
	}
	if m.Episode != (EpisodePosition{X: 10, Y: 20, Icon: 4}) {
		t.Errorf("unexpected episode position %+v", m.Episode)
	}
	if len(m.Prototypes) != 2 || m.Prototypes[1] != "apple.spr" {
		t.Errorf("unexpected prototypes %v", m.Prototypes)
	}
	if m.Foreground.Width != PK2MapWidth || m.Foreground.Height != PK2MapHeight {
		t.Errorf("expected %dx%d layer, got %dx%d", PK2MapWidth, PK2MapHeight, m.Foreground.Width, m.Foreground.Height)
	}
}

func TestParsePK2Map_TrainingCourseHeader(t *testing.T) {
	header, err := hex.DecodeString(trainingCourseHeader)
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	buf := bytes.NewBuffer(header)
	writeBlock(buf, testBlock{x: 0, y: 208, tiles: [][]byte{{0x56, 0x56, PK2EmptyCell, 0x3c}}})
	writeBlock(buf, testBlock{x: 1, y: 209, tiles: [][]byte{{0x17}}})
	writeBlock(buf, emptyBlock())

	m, err := ParsePK2Map(buf.Bytes())
	if err != nil {
		t.Fatalf("ParsePK2Map failed: %v", err)
	}

	if m.Tileset != "tiles01.bmp" || m.BackgroundImage != "field3_d.bmp" {
		t.Errorf("unexpected images %q %q", m.Tileset, m.BackgroundImage)
	}
	if m.Music != "song01.xm   " {
		t.Errorf("unexpected music %q", m.Music)
	}
	if m.Name != "training course" {
		t.Errorf("expected name 'training course', got %q", m.Name)
	}
	if m.Author != "janne kivilahti" {
		t.Errorf("expected author 'janne kivilahti', got %q", m.Author)
	}
	if m.EpisodeLevel != 1 || m.Climate != ClimateNormal || m.Scrolling != ScrollHorizontal {
		t.Errorf("unexpected level %d climate %v scrolling %v", m.EpisodeLevel, m.Climate, m.Scrolling)
	}
	if m.Episode != (EpisodePosition{X: 195, Y: 180, Icon: 1}) {
		t.Errorf("unexpected episode position %+v", m.Episode)
	}
	if len(m.Prototypes) != 20 || m.Prototypes[0] != "rooster.spr" || m.Prototypes[19] != "gift_flw.spr" {
		t.Errorf("unexpected prototypes %v", m.Prototypes)
	}

	if m.Background.At(0, 208) != 0x56 || m.Background.At(3, 208) != 0x3c {
		t.Error("background tiles not placed at block offset")
	}
	if !m.Background.IsEmpty(2, 208) {
		t.Error("0xFF cell should be empty")
	}
	if m.Foreground.At(1, 209) != 0x17 {
		t.Errorf("expected foreground tile 0x17, got %d", m.Foreground.At(1, 209))
	}
}

func TestPK2Map_Normalize(t *testing.T) {
	bg := testBlock{x: 10, y: 100, tiles: [][]byte{
		{1, PK2EmptyCell, PK2EmptyCell},
		{PK2EmptyCell, PK2EmptyCell, 2},
	}}
	fg := testBlock{x: 12, y: 99, tiles: [][]byte{{5}}}
	sprites := testBlock{x: 9, y: 101, tiles: [][]byte{{0}}}

	m, err := ParsePK2Map(createTestPK2Map(nil, bg, fg, sprites))
	if err != nil {
		t.Fatalf("ParsePK2Map failed: %v", err)
	}

	b, err := m.Bounds()
	if err != nil {
		t.Fatalf("Bounds failed: %v", err)
	}
	if b.Left != 9 || b.Top != 99 || b.Right != 12 || b.Bottom != 101 {
		t.Errorf("unexpected bounds %v", b)
	}

	n, nb, err := m.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if nb != b {
		t.Errorf("Normalize bounds %v differ from Bounds %v", nb, b)
	}
	if n.Foreground.Width != 4 || n.Foreground.Height != 3 {
		t.Errorf("expected 4x3 layers, got %dx%d", n.Foreground.Width, n.Foreground.Height)
	}
	if n.Foreground.At(3, 0) != 5 || n.Background.At(1, 1) != 1 || n.Sprites.At(0, 2) != 0 {
		t.Error("tiles not moved to normalized coordinates")
	}
	if m.Foreground.Width != PK2MapWidth {
		t.Error("Normalize modified the source map")
	}
}

func TestParsePK2Map_Errors(t *testing.T) {
	valid := createTestPK2Map(nil, emptyBlock(), emptyBlock(), emptyBlock())

	badVersion := append([]byte(nil), valid...)
	copy(badVersion, "1.2\x00\x00")

	badNumber := append([]byte(nil), valid...)
	// First numeric field follows 5+13*3+40*2 bytes of text.
	copy(badNumber[124:], "abc\x00")

	badOffsets := createTestPK2Map(nil,
		testBlock{x: 250, y: 0, tiles: [][]byte{bytes.Repeat([]byte{1}, 10)}},
		emptyBlock(), emptyBlock())

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, ErrTruncatedPK2Data},
		{"bad version", badVersion, ErrInvalidPK2Version},
		{"bad number", badNumber, ErrInvalidPK2Number},
		{"truncated header", valid[:200], ErrTruncatedPK2Data},
		{"truncated layer", valid[:len(valid)-1], ErrTruncatedPK2Data},
		{"block outside map", badOffsets, ErrInvalidPK2Offsets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePK2Map(tt.data)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		field    string
		expected int
		ok       bool
	}{
		{"0\x00\x00\x00", 0, true},
		{"2000\x00\x00\x00\x00", 2000, true},
		{"1\x00\xcc\xcc", 1, true},
		{" 42", 42, true},
		{"-1\x00", -1, true},
		{"12abc", 12, true},
		{"\x00\x00", 0, false},
		{"\xff\xff", 0, false},
	}

	for _, tt := range tests {
		n, err := parseDecimal([]byte(tt.field))
		if (err == nil) != tt.ok {
			t.Errorf("parseDecimal(%q): unexpected error state %v", tt.field, err)
			continue
		}
		if tt.ok && n != tt.expected {
			t.Errorf("parseDecimal(%q) = %d, expected %d", tt.field, n, tt.expected)
		}
	}
}

func TestParsePK2MapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level001.map")
	data := createTestPK2Map(nil, emptyBlock(), testBlock{x: 5, y: 5, tiles: [][]byte{{9}}}, emptyBlock())
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write test map: %v", err)
	}

	m, err := ParsePK2MapFile(path)
	if err != nil {
		t.Fatalf("ParsePK2MapFile failed: %v", err)
	}
	if m.Foreground.At(5, 5) != 9 {
		t.Errorf("expected tile 9, got %d", m.Foreground.At(5, 5))
	}

	if _, err := ParsePK2MapFile(filepath.Join(t.TempDir(), "missing.map")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnumStrings(t *testing.T) {
	if ClimateRainyForest.String() != "Rainy forest" {
		t.Errorf("unexpected %q", ClimateRainyForest.String())
	}
	if Climate(9).String() != "Unknown(9)" {
		t.Errorf("unexpected %q", Climate(9).String())
	}
	if ScrollVerticalHorizontal.String() != "Parallax both" {
		t.Errorf("unexpected %q", ScrollVerticalHorizontal.String())
	}
}
