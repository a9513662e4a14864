// Package ink is a lightweight retained-mode 2D rendering library.
//
// ink follows a record, sort, execute pipeline. A client issues high-level
// drawing commands (rectangles, lines, polylines, text, images, clips)
// against a Canvas; the commands are compiled into a compact, self-contained
// Recording; a DrawPass reorders the recording for efficient execution; a
// backend (software rasterizer or GPU) replays the pass onto a target
// surface. Surfaces produce immutable Image snapshots that feed back into
// other surfaces as inputs, enabling multi-layer compositing.
//
// # Packages
//
//   - ink (this package): geometry, colors, pixel buffers, and images
//     shared by every other package.
//   - recording: the compact draw-op model, the Recorder/Recording pair,
//     the Canvas clip stack, and the DrawPass sort.
//   - text: the glyph atlas used by both backends for text rendering.
//   - raster: the software (CPU) backend.
//   - gpu: the hardware backend with vertex batching and a texture cache.
//   - surface: render targets tying a canvas, a recorder, and a backend
//     together.
//
// # Example
//
//	s := surface.NewRaster(256, 256, ink.FormatRGBA8888)
//	s.BeginFrame(ink.RGB(0, 0, 0))
//	c := s.Canvas()
//	c.FillRect(ink.NewRect(16, 16, 64, 64), ink.RGB(255, 0, 0))
//	s.EndFrame()
//	s.Flush()
//	img := s.MakeSnapshot()
//
// Rendering is synchronous and single-threaded: each Surface must be used
// from one goroutine at a time.
package ink
