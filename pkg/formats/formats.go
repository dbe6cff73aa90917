// Package formats provides parsers for Pekka Kana 2 file formats.
//
// Legacy levels (version "1.3") are read by ParsePK2Map. Block palettes are
// plain BMP images and are handled by the tileset package.
package formats
