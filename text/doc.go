// Package text provides the glyph atlas shared by ink's software and GPU
// backends.
//
// A GlyphAtlas owns a single-channel coverage bitmap into which glyphs are
// rasterized on first use and packed with a next-fit shelf packer. Both
// backends consume the same atlas: the software backend composites glyph
// coverage directly into pixel buffers, the GPU backend renders strings
// into a scratch pixmap and uploads them as textures.
//
// Font files are treated as a black box behind two libraries: glyph
// coverage is rasterized with golang.org/x/image/font/opentype, and
// typographic metrics come from go-text/typesetting's HarfBuzz shaper.
// Text handling is deliberately simple: strings are treated as 8-bit
// glyph indices (ASCII), with no shaping, kerning, or subpixel
// positioning.
package text
