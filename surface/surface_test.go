// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"testing"

	"github.com/gogpu/ink"
	"github.com/gogpu/ink/gpu"
)

func TestRasterSurfaceLifecycle(t *testing.T) {
	s := NewRaster(4, 4, ink.FormatBGRA8888)
	if s == nil {
		t.Fatal("NewRaster returned nil")
	}

	s.BeginFrame(ink.Black)
	s.Canvas().FillRect(ink.NewRect(0, 0, 4, 4), ink.RGB(255, 0, 0))
	s.EndFrame()
	s.Flush()

	pm := s.PeekPixels()
	if pm == nil {
		t.Fatal("PeekPixels returned nil for raster surface")
	}
	for y := 0; y < 4; y++ {
		row := pm.Row(y)
		for x := 0; x < 4; x++ {
			px := row[4*x : 4*x+4]
			if px[0] != 0 || px[1] != 0 || px[2] != 255 || px[3] != 255 {
				t.Fatalf("pixel (%d,%d) = %v, want BGRA red", x, y, px)
			}
		}
	}
}

func TestRasterSurfaceInvalidArgs(t *testing.T) {
	if s := NewRaster(0, 4, ink.FormatRGBA8888); s != nil {
		t.Error("zero width should return nil")
	}
	if s := NewRaster(4, -1, ink.FormatRGBA8888); s != nil {
		t.Error("negative height should return nil")
	}
}

func TestRasterDirectSurface(t *testing.T) {
	buf := make([]byte, 4*4*4)
	info := ink.PixmapInfo{Width: 4, Height: 4, Stride: 16, Format: ink.FormatRGBA8888}

	s := NewRasterDirect(info, buf)
	if s == nil {
		t.Fatal("NewRasterDirect returned nil")
	}
	s.BeginFrame(ink.RGB(1, 2, 3))
	s.Flush()

	// Rendering must land in the caller's buffer.
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 {
		t.Errorf("caller buffer = %v, want cleared to (1,2,3)", buf[:4])
	}
}

func TestRasterDirectInvalid(t *testing.T) {
	info := ink.PixmapInfo{Width: 4, Height: 4, Stride: 8, Format: ink.FormatRGBA8888}
	if s := NewRasterDirect(info, make([]byte, 64)); s != nil {
		t.Error("invalid stride should return nil")
	}
}

func TestSurfaceClippedFrame(t *testing.T) {
	s := NewRaster(16, 16, ink.FormatRGBA8888)
	s.BeginFrame(ink.Black)

	c := s.Canvas()
	c.Save()
	c.ClipRect(ink.NewRect(4, 4, 4, 4))
	c.FillRect(ink.NewRect(0, 0, 16, 16), ink.RGB(0, 255, 0))
	c.Restore()
	s.EndFrame()
	s.Flush()

	pm := s.PeekPixels()
	if got := pm.GetPixel(5, 5); got != ink.RGB(0, 255, 0) {
		t.Errorf("pixel (5,5) = %+v, want green", got)
	}
	if got := pm.GetPixel(0, 0); got != ink.RGB(0, 0, 0) {
		t.Errorf("pixel (0,0) = %+v, want black", got)
	}
}

func TestSurfaceSnapshotIsolation(t *testing.T) {
	s := NewRaster(4, 4, ink.FormatRGBA8888)
	s.BeginFrame(ink.RGB(255, 0, 0))
	s.Flush()

	snap := s.MakeSnapshot()
	if snap == nil {
		t.Fatal("MakeSnapshot returned nil")
	}

	s.BeginFrame(ink.RGB(0, 255, 0))
	s.Flush()

	if got := snap.Pixels().GetPixel(0, 0); got != ink.RGB(255, 0, 0) {
		t.Errorf("snapshot pixel = %+v, want red (isolated from later frames)", got)
	}
}

func TestSnapshotFeedsAnotherSurface(t *testing.T) {
	// Multi-layer compositing: render a layer, snapshot it, draw the
	// snapshot into a second surface.
	layer := NewRaster(4, 4, ink.FormatRGBA8888)
	layer.BeginFrame(ink.RGB(0, 0, 255))
	layer.Flush()
	snap := layer.MakeSnapshot()

	dst := NewRaster(8, 8, ink.FormatRGBA8888)
	dst.BeginFrame(ink.Black)
	dst.Canvas().DrawImage(snap, 2, 2)
	dst.EndFrame()
	dst.Flush()

	pm := dst.PeekPixels()
	if got := pm.GetPixel(3, 3); got != ink.RGB(0, 0, 255) {
		t.Errorf("composited pixel = %+v, want blue", got)
	}
	if got := pm.GetPixel(7, 7); got != ink.RGB(0, 0, 0) {
		t.Errorf("outside composite = %+v, want black", got)
	}
}

func TestGPUSurface(t *testing.T) {
	s := NewGPU(gpu.NewSoftwareDevice(), 8, 8, ink.FormatRGBA8888)
	if s == nil {
		t.Fatal("NewGPU returned nil")
	}
	if s.PeekPixels() != nil {
		t.Error("GPU surface should not expose pixels")
	}

	s.BeginFrame(ink.Black)
	s.Canvas().FillRect(ink.NewRect(0, 0, 8, 8), ink.RGB(255, 0, 0))
	s.EndFrame()
	s.Flush()

	snap := s.MakeSnapshot()
	if snap == nil {
		t.Fatal("GPU MakeSnapshot returned nil")
	}
	if !snap.GPUBacked() {
		t.Error("GPU snapshot should be GPU-backed")
	}
	snap.Close()
}

func TestGPUSurfaceSnapshotRoundTrip(t *testing.T) {
	// Fill red, snapshot, fill green, then composite the snapshot into a
	// second GPU surface sharing the device (the raster backend does not
	// draw GPU images). Only the round trip itself is checked here; the
	// snapshot's pixels are checked in the gpu package's backend tests.
	dev := gpu.NewSoftwareDevice()

	s := NewGPU(dev, 8, 8, ink.FormatRGBA8888)
	s.BeginFrame(ink.Black)
	s.Canvas().FillRect(ink.NewRect(0, 0, 8, 8), ink.RGB(255, 0, 0))
	s.EndFrame()
	s.Flush()
	snap := s.MakeSnapshot()

	s.BeginFrame(ink.Black)
	s.Canvas().FillRect(ink.NewRect(0, 0, 8, 8), ink.RGB(0, 255, 0))
	s.EndFrame()
	s.Flush()

	dst := NewGPU(dev, 8, 8, ink.FormatRGBA8888)
	dst.BeginFrame(ink.Black)
	dst.Canvas().DrawImage(snap, 0, 0)
	dst.EndFrame()
	dst.Flush()

	// The composited surface must still produce a snapshot.
	final := dst.MakeSnapshot()
	if final == nil {
		t.Fatal("composite snapshot is nil")
	}
	snap.Close()
	final.Close()
}

func TestGPUSurfaceFallsBackWithoutDevice(t *testing.T) {
	s := NewGPU(nil, 4, 4, ink.FormatRGBA8888)
	if s == nil {
		t.Fatal("NewGPU with nil device should fall back, not return nil")
	}
	if s.PeekPixels() == nil {
		t.Error("fallback surface should be raster")
	}
}

func TestRecordingSurface(t *testing.T) {
	s := NewRecording(32, 32)
	if s == nil {
		t.Fatal("NewRecording returned nil")
	}

	s.BeginFrame(ink.Black)
	s.Canvas().FillRect(ink.NewRect(0, 0, 8, 8), ink.RGB(1, 1, 1))
	s.EndFrame()

	rec := s.Recording()
	if rec == nil {
		t.Fatal("Recording returned nil after EndFrame")
	}
	if len(rec.Ops()) != 1 {
		t.Errorf("recorded ops = %d, want 1", len(rec.Ops()))
	}
	if s.MakeSnapshot() != nil {
		t.Error("recording surface snapshot should be nil")
	}
	if s.PeekPixels() != nil {
		t.Error("recording surface should not expose pixels")
	}
}

func TestSurfacePixelData(t *testing.T) {
	s := NewRaster(4, 2, ink.FormatBGRA8888)
	pd, ok := s.PixelData()
	if !ok {
		t.Fatal("PixelData should be available for raster surfaces")
	}
	if pd.Width != 4 || pd.Height != 2 || pd.Stride != 16 || pd.Format != ink.FormatBGRA8888 {
		t.Errorf("PixelData = %+v", pd)
	}

	if _, ok := NewRecording(4, 4).PixelData(); ok {
		t.Error("recording surface should have no pixel data")
	}
}

func TestSurfaceResize(t *testing.T) {
	s := NewRaster(4, 4, ink.FormatRGBA8888)
	s.Resize(8, 8)

	if s.Width() != 8 || s.Height() != 8 {
		t.Errorf("size = %dx%d, want 8x8", s.Width(), s.Height())
	}
	s.BeginFrame(ink.RGB(5, 5, 5))
	s.Flush()
	pm := s.PeekPixels()
	if pm.Width() != 8 {
		t.Errorf("pixmap width = %d, want 8", pm.Width())
	}
	if got := pm.GetPixel(7, 7); got != ink.RGB(5, 5, 5) {
		t.Errorf("cleared pixel = %+v", got)
	}
}

func TestFlushWithoutEndFrameSeals(t *testing.T) {
	s := NewRaster(4, 4, ink.FormatRGBA8888)
	s.BeginFrame(ink.Black)
	s.Canvas().FillRect(ink.NewRect(0, 0, 4, 4), ink.RGB(7, 7, 7))
	s.Flush() // no explicit EndFrame

	if got := s.PeekPixels().GetPixel(2, 2); got != ink.RGB(7, 7, 7) {
		t.Errorf("pixel = %+v, want filled", got)
	}
}

func TestTwoFramesIndependent(t *testing.T) {
	s := NewRaster(4, 4, ink.FormatRGBA8888)

	s.BeginFrame(ink.Black)
	s.Canvas().FillRect(ink.NewRect(0, 0, 2, 2), ink.RGB(255, 0, 0))
	s.EndFrame()
	s.Flush()

	s.BeginFrame(ink.Black)
	s.EndFrame()
	s.Flush()

	// The second frame re-cleared the target; the first frame's fill is
	// gone.
	if got := s.PeekPixels().GetPixel(0, 0); got != ink.RGB(0, 0, 0) {
		t.Errorf("pixel after empty frame = %+v, want black", got)
	}
}
