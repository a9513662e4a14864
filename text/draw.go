package text

import "github.com/gogpu/ink"

// DrawTextCPU composites s directly into a 32-bit pixel buffer, using each
// glyph's atlas coverage as the blend alpha. (x, y) is the baseline
// position; buf is row-major with the given stride in bytes, holding
// height rows in the given channel order.
//
// Pixels outside the buffer are skipped, so callers may position text
// partially off the target.
func (a *GlyphAtlas) DrawTextCPU(buf []byte, stride, width, height int, x, y float32, s string, c ink.Color, format ink.PixelFormat) {
	penX := x
	baseline := int(y + 0.5)

	for i := 0; i < len(s); i++ {
		g := a.Glyph(s[i])
		if g.Width > 0 && g.Height > 0 {
			a.drawGlyph(buf, stride, width, height, int(penX+0.5)+g.BearingX, baseline+g.BearingY, g, c, format)
		}
		penX += g.Advance
	}
}

// drawGlyph blends one glyph's coverage into the buffer with its top-left
// corner at (dstX, dstY).
func (a *GlyphAtlas) drawGlyph(buf []byte, stride, width, height, dstX, dstY int, g *Glyph, c ink.Color, format ink.PixelFormat) {
	for gy := 0; gy < g.Height; gy++ {
		ty := dstY + gy
		if ty < 0 || ty >= height {
			continue
		}
		srcRow := a.pix[(g.AtlasY+gy)*a.width+g.AtlasX:]
		dstRow := buf[ty*stride:]
		for gx := 0; gx < g.Width; gx++ {
			tx := dstX + gx
			if tx < 0 || tx >= width {
				continue
			}
			cov := srcRow[gx]
			if cov == 0 {
				continue
			}
			alpha := uint32(cov) * uint32(c.A) / 255
			if alpha == 0 {
				continue
			}
			px := dstRow[4*tx : 4*tx+4]
			dst := format.GetPixel(px)
			format.PutPixel(px, blendPixel(c, dst, uint8(alpha)))
		}
	}
}

// blendPixel applies integer SRC-OVER with the given alpha. The
// destination stays opaque: backends never produce translucent targets.
func blendPixel(src, dst ink.Color, alpha uint8) ink.Color {
	if alpha == 255 {
		return ink.Color{R: src.R, G: src.G, B: src.B, A: 255}
	}
	sa := uint32(alpha)
	da := 255 - sa
	return ink.Color{
		R: uint8((uint32(src.R)*sa + uint32(dst.R)*da) / 255),
		G: uint8((uint32(src.G)*sa + uint32(dst.G)*da) / 255),
		B: uint8((uint32(src.B)*sa + uint32(dst.B)*da) / 255),
		A: 255,
	}
}

// RenderToPixmap rasterizes s into a fresh transparent pixmap sized to the
// string's advance width and the face's line height, with the baseline at
// the face ascent. Covered pixels carry the text color with coverage as
// their alpha, so the GPU backend can upload the result as a scratch
// texture and let the blend stage composite it.
//
// Returns nil for an empty string or a string with no advance.
func (a *GlyphAtlas) RenderToPixmap(s string, c ink.Color, format ink.PixelFormat) *ink.Pixmap {
	w := int(a.MeasureText(s) + 0.5)
	h := int(a.LineHeight() + 0.5)
	if w <= 0 || h <= 0 {
		return nil
	}
	pm := ink.NewPixmap(w, h, format)
	baseline := int(a.Ascent() + 0.5)
	var penX float32

	for i := 0; i < len(s); i++ {
		g := a.Glyph(s[i])
		if g.Width > 0 && g.Height > 0 {
			a.writeGlyphAlpha(pm, int(penX+0.5)+g.BearingX, baseline+g.BearingY, g, c)
		}
		penX += g.Advance
	}
	return pm
}

// writeGlyphAlpha writes one glyph into a transparent pixmap as straight
// color with coverage-scaled alpha, keeping the higher alpha where glyphs
// overlap.
func (a *GlyphAtlas) writeGlyphAlpha(pm *ink.Pixmap, dstX, dstY int, g *Glyph, c ink.Color) {
	for gy := 0; gy < g.Height; gy++ {
		ty := dstY + gy
		if ty < 0 || ty >= pm.Height() {
			continue
		}
		srcRow := a.pix[(g.AtlasY+gy)*a.width+g.AtlasX:]
		for gx := 0; gx < g.Width; gx++ {
			tx := dstX + gx
			if tx < 0 || tx >= pm.Width() {
				continue
			}
			cov := srcRow[gx]
			if cov == 0 {
				continue
			}
			alpha := uint8(uint32(cov) * uint32(c.A) / 255)
			if alpha > pm.GetPixel(tx, ty).A {
				pm.SetPixel(tx, ty, ink.Color{R: c.R, G: c.G, B: c.B, A: alpha})
			}
		}
	}
}
