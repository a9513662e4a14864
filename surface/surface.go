// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"github.com/gogpu/ink"
	"github.com/gogpu/ink/gpu"
	"github.com/gogpu/ink/raster"
	"github.com/gogpu/ink/recording"
	"github.com/gogpu/ink/text"
)

// backend is the contract a Surface drives. Both the software and the GPU
// backends satisfy it; recording-only surfaces have none.
type backend interface {
	BeginFrame(clear ink.Color)
	EndFrame()
	Execute(rec *recording.Recording, pass *recording.DrawPass)
	Resize(width, height int)
	SetGlyphAtlas(atlas *text.GlyphAtlas)
	MakeSnapshot() *ink.Image
}

// Compile-time interface checks.
var (
	_ backend = (*raster.Backend)(nil)
	_ backend = (*gpu.Backend)(nil)
)

// PixelData describes direct access to a raster surface's pixels.
type PixelData struct {
	// Data is the raw pixel storage.
	Data []byte

	// Width and Height are the surface dimensions in pixels.
	Width  int
	Height int

	// Stride is the distance between row starts in bytes.
	Stride int

	// Format is the channel order of the pixels.
	Format ink.PixelFormat
}

// Surface is a render target plus its client-facing canvas and backend.
// The client exclusively owns the surface; the surface exclusively owns
// its backend, target, and recorder.
type Surface struct {
	width  int
	height int
	format ink.PixelFormat

	rec    *recording.Recorder
	canvas *recording.Canvas

	// backend is nil for recording-only surfaces.
	backend backend

	// pix is the pixmap target of raster surfaces, nil otherwise.
	pix *ink.Pixmap

	// sealed is the recording captured by EndFrame, awaiting Flush.
	sealed *recording.Recording
}

// NewRaster creates a software surface over a fresh owned pixmap.
// Returns nil for non-positive dimensions.
func NewRaster(width, height int, format ink.PixelFormat) *Surface {
	pix := ink.NewPixmap(width, height, format)
	if pix == nil {
		return nil
	}
	return newRasterOver(pix)
}

// NewRasterDirect creates a software surface that renders into
// caller-owned pixels. The pixels must outlive the surface. Returns nil
// for an invalid descriptor.
func NewRasterDirect(info ink.PixmapInfo, pixels []byte) *Surface {
	pix := ink.WrapPixmap(info, pixels)
	if pix == nil {
		return nil
	}
	return newRasterOver(pix)
}

func newRasterOver(pix *ink.Pixmap) *Surface {
	rec := recording.NewRecorder()
	return &Surface{
		width:   pix.Width(),
		height:  pix.Height(),
		format:  pix.Format(),
		rec:     rec,
		canvas:  recording.NewCanvas(rec, pix.Width(), pix.Height()),
		backend: raster.New(pix),
		pix:     pix,
	}
}

// NewGPU creates a hardware surface over dev. When dev is nil or the
// backend cannot be constructed (pipeline link failure, target
// allocation), the factory falls back to a software surface of the same
// size rather than returning nil. Returns nil only for non-positive
// dimensions.
func NewGPU(dev gpu.Device, width, height int, format ink.PixelFormat) *Surface {
	if width <= 0 || height <= 0 {
		return nil
	}
	if dev == nil {
		ink.Logger().Warn("gpu surface requested without device, falling back to raster")
		return NewRaster(width, height, format)
	}
	b, err := gpu.NewBackend(dev, width, height, format)
	if err != nil {
		ink.Logger().Warn("gpu backend unavailable, falling back to raster", "error", err)
		return NewRaster(width, height, format)
	}
	rec := recording.NewRecorder()
	return &Surface{
		width:   width,
		height:  height,
		format:  format,
		rec:     rec,
		canvas:  recording.NewCanvas(rec, width, height),
		backend: b,
	}
}

// NewRecording creates a surface that only captures commands: it has no
// backend and produces no pixels. Returns nil for non-positive
// dimensions.
func NewRecording(width, height int) *Surface {
	if width <= 0 || height <= 0 {
		return nil
	}
	rec := recording.NewRecorder()
	return &Surface{
		width:  width,
		height: height,
		format: ink.FormatRGBA8888,
		rec:    rec,
		canvas: recording.NewCanvas(rec, width, height),
	}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	return s.width
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	return s.height
}

// Format returns the surface pixel format.
func (s *Surface) Format() ink.PixelFormat {
	return s.format
}

// Canvas returns the drawing interface of the surface.
func (s *Surface) Canvas() *recording.Canvas {
	return s.canvas
}

// SetGlyphAtlas installs the glyph atlas used by text ops.
func (s *Surface) SetGlyphAtlas(atlas *text.GlyphAtlas) {
	if s.backend != nil {
		s.backend.SetGlyphAtlas(atlas)
	}
}

// BeginFrame resets the recorder and canvas state and prepares the target
// filled with the clear color.
func (s *Surface) BeginFrame(clear ink.Color) {
	s.rec.Reset()
	s.canvas.Reset()
	s.sealed = nil
	if s.backend != nil {
		s.backend.BeginFrame(clear)
	}
}

// EndFrame seals the frame's commands into a recording held by the
// surface until Flush.
func (s *Surface) EndFrame() {
	s.sealed = s.rec.Finish()
}

// Flush builds a draw pass for the sealed recording, executes it on the
// backend, and resets the recorder. Calling Flush without EndFrame seals
// the current commands first. Recording-only surfaces keep their sealed
// recording accessible through Recording.
func (s *Surface) Flush() {
	if s.sealed == nil {
		s.EndFrame()
	}
	if s.backend == nil {
		return
	}
	pass := recording.NewDrawPass(s.sealed)
	s.backend.Execute(s.sealed, pass)
	s.backend.EndFrame()
	s.rec.Reset()
}

// Recording returns the recording sealed by the last EndFrame, if any.
// Useful with recording-only surfaces.
func (s *Surface) Recording() *recording.Recording {
	return s.sealed
}

// MakeSnapshot returns an immutable snapshot of the current target
// contents, or nil for recording-only surfaces.
func (s *Surface) MakeSnapshot() *ink.Image {
	if s.backend == nil {
		return nil
	}
	return s.backend.MakeSnapshot()
}

// PeekPixels exposes the target pixmap of raster surfaces. GPU and
// recording surfaces return nil.
func (s *Surface) PeekPixels() *ink.Pixmap {
	return s.pix
}

// PixelData returns direct pixel access for raster surfaces; ok is false
// otherwise.
func (s *Surface) PixelData() (PixelData, bool) {
	if s.pix == nil {
		return PixelData{}, false
	}
	return PixelData{
		Data:   s.pix.Data(),
		Width:  s.pix.Width(),
		Height: s.pix.Height(),
		Stride: s.pix.Stride(),
		Format: s.pix.Format(),
	}, true
}

// Resize re-creates the target storage at the new size. Contents are
// discarded; the next frame starts from the clear color.
func (s *Surface) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.width = width
	s.height = height
	s.canvas.Resize(width, height)
	if s.backend != nil {
		s.backend.Resize(width, height)
	}
}
