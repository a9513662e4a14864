// Package raster is ink's software backend: a scanline rasterizer that
// replays a sorted draw pass directly into a Pixmap.
//
// The backend implements recording.Visitor. Fills run per row with an
// opaque fast path and an integer SRC-OVER slow path; strokes decompose
// into four fills; lines step with Bresenham; text composites glyph
// coverage from the shared atlas; image blits skip fully transparent
// pixels, copy fully opaque ones, and blend the rest, swapping channels
// when source and target formats differ.
//
// Rendering is unantialiased by design and the destination always stays
// opaque.
package raster
