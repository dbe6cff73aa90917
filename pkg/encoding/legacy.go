// Package encoding provides text decoding for legacy Pekka Kana 2 file formats.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// FillByte is the uninitialised-memory byte the level editor left after
// the terminator of short strings.
const FillByte = 0xCC

// Windows1252ToUTF8 converts Windows-1252 encoded bytes to a UTF-8 string.
// Returns the bytes as-is if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// toWindows1252 converts a UTF-8 string to Windows-1252 bytes.
// Characters outside the code page make it return the input bytes.
func toWindows1252(s string) []byte {
	result, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// FixedString decodes a fixed-size, NUL-terminated Windows-1252 field.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return Windows1252ToUTF8(data)
}

// FixedStringCut is FixedString that also stops at the first FillByte.
func FixedStringCut(data []byte) string {
	if i := bytes.IndexByte(data, FillByte); i >= 0 {
		data = data[:i]
	}
	return FixedString(data)
}

// UTF8ToFixedString encodes s into a NUL-padded field of the given size,
// the inverse of FixedString for text that fits.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	copy(result, toWindows1252(s))
	return result
}
