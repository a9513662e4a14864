// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/ink"
	"github.com/gogpu/ink/text"
)

func TestSurfaceDrawText(t *testing.T) {
	atlas, err := text.NewGlyphAtlas(goregular.TTF, 24)
	if err != nil {
		t.Fatalf("NewGlyphAtlas: %v", err)
	}

	s := NewRaster(128, 48, ink.FormatRGBA8888)
	s.SetGlyphAtlas(atlas)

	s.BeginFrame(ink.Black)
	s.Canvas().DrawText(ink.Pt(4, 36), "ink", ink.RGB(255, 255, 255))
	s.EndFrame()
	s.Flush()

	pm := s.PeekPixels()
	var lit int
	for y := 0; y < pm.Height(); y++ {
		for x := 0; x < pm.Width(); x++ {
			if pm.GetPixel(x, y).R > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("text drew no pixels")
	}
}

func TestSurfaceDrawTextWithoutAtlas(t *testing.T) {
	s := NewRaster(32, 32, ink.FormatRGBA8888)
	s.BeginFrame(ink.Black)
	s.Canvas().DrawText(ink.Pt(2, 20), "x", ink.RGB(255, 255, 255))
	s.EndFrame()
	s.Flush() // op skipped, no crash

	if got := s.PeekPixels().GetPixel(5, 15); got != ink.RGB(0, 0, 0) {
		t.Errorf("pixel = %+v, want untouched black", got)
	}
}
