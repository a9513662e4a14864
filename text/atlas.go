package text

import (
	"image"

	"github.com/gogpu/ink"
)

// Default atlas geometry.
const (
	// atlasInitialWidth is the initial atlas width in pixels.
	atlasInitialWidth = 512

	// atlasInitialHeight is the initial atlas height in pixels.
	atlasInitialHeight = 256
)

// Glyph records where a rasterized glyph lives in the atlas and how to
// position it. The bearing fields are relative to the glyph origin on the
// baseline.
type Glyph struct {
	// AtlasX, AtlasY, Width, Height locate the coverage bitmap in the
	// atlas. A glyph with zero Width or Height renders nothing but still
	// advances the pen (space, control bytes).
	AtlasX int
	AtlasY int
	Width  int
	Height int

	// BearingX and BearingY offset the bitmap from the pen position; a
	// negative BearingY places the bitmap above the baseline.
	BearingX int
	BearingY int

	// Advance is the horizontal pen movement after this glyph.
	Advance float32

	// U0, V0, U1, V1 are the bitmap's texture coordinates in [0, 1].
	// They are refreshed whenever the atlas grows.
	U0 float32
	V0 float32
	U1 float32
	V1 float32
}

// GlyphAtlas rasterizes glyphs on first use and packs them into a single
// 8-bit coverage bitmap with a next-fit shelf packer. The atlas grows in
// place by doubling its smaller dimension when a glyph no longer fits.
//
// Glyph lookup is by 8-bit index: text is treated as ASCII, and multi-byte
// input passes through as raw byte indices.
//
// The atlas is not safe for concurrent use.
type GlyphAtlas struct {
	face *Face

	pix    []byte
	width  int
	height int

	// Shelf packer state.
	cursorX   int
	cursorY   int
	rowHeight int

	glyphs [256]*Glyph

	// dirty is set whenever the bitmap changes, signaling GPU backends to
	// re-upload.
	dirty bool

	allocs int
}

// NewGlyphAtlas loads font data at the given pixel size and returns an
// empty atlas for it.
func NewGlyphAtlas(fontData []byte, sizePx float64) (*GlyphAtlas, error) {
	face, err := NewFace(fontData, sizePx)
	if err != nil {
		return nil, err
	}
	return NewGlyphAtlasWithFace(face), nil
}

// NewGlyphAtlasWithFace returns an empty atlas over an already-loaded
// face.
func NewGlyphAtlasWithFace(face *Face) *GlyphAtlas {
	return &GlyphAtlas{
		face:   face,
		pix:    make([]byte, atlasInitialWidth*atlasInitialHeight),
		width:  atlasInitialWidth,
		height: atlasInitialHeight,
	}
}

// Face returns the font face backing the atlas.
func (a *GlyphAtlas) Face() *Face {
	return a.face
}

// Width returns the atlas bitmap width in pixels.
func (a *GlyphAtlas) Width() int {
	return a.width
}

// Height returns the atlas bitmap height in pixels.
func (a *GlyphAtlas) Height() int {
	return a.height
}

// Bitmap returns the single-channel coverage bitmap, row-major,
// Width() bytes per row.
func (a *GlyphAtlas) Bitmap() []byte {
	return a.pix
}

// LineHeight returns the typographic line height of the face.
func (a *GlyphAtlas) LineHeight() float32 {
	return a.face.LineHeight()
}

// Ascent returns the baseline-to-top distance of the face.
func (a *GlyphAtlas) Ascent() float32 {
	return a.face.Ascent()
}

// Dirty reports whether the bitmap changed since the last MarkClean.
func (a *GlyphAtlas) Dirty() bool {
	return a.dirty
}

// MarkClean clears the dirty flag after a GPU upload.
func (a *GlyphAtlas) MarkClean() {
	a.dirty = false
}

// GlyphCount returns the number of glyphs cached so far, including empty
// glyphs that occupy no atlas space.
func (a *GlyphAtlas) GlyphCount() int {
	return a.allocs
}

// Utilization returns the fraction of atlas area covered by packed glyph
// shelves, for instrumentation.
func (a *GlyphAtlas) Utilization() float64 {
	used := a.cursorY + a.rowHeight
	if used > a.height {
		used = a.height
	}
	return float64(used) / float64(a.height)
}

// Glyph returns the cached glyph for an 8-bit index, rasterizing and
// packing it on first use.
func (a *GlyphAtlas) Glyph(index byte) *Glyph {
	if g := a.glyphs[index]; g != nil {
		return g
	}

	g := &Glyph{}
	if img := a.face.rasterize(index); img != nil {
		b := img.bounds
		g.Width = b.Dx()
		g.Height = b.Dy()
		g.BearingX = b.Min.X
		g.BearingY = b.Min.Y
		g.Advance = img.advance
		if g.Width > 0 && g.Height > 0 {
			x, y := a.pack(g.Width, g.Height)
			g.AtlasX = x
			g.AtlasY = y
			a.blit(x, y, img.mask)
			a.dirty = true
		}
	}
	a.updateUV(g)
	a.glyphs[index] = g
	a.allocs++
	return g
}

// MeasureText returns the advance width of s in pixels.
func (a *GlyphAtlas) MeasureText(s string) float32 {
	var w float32
	for i := 0; i < len(s); i++ {
		w += a.Glyph(s[i]).Advance
	}
	return w
}

// pack reserves a width x height region with the next-fit shelf packer:
// the glyph goes on the current shelf if it fits horizontally, otherwise a
// new shelf starts below; if the new shelf does not fit vertically the
// atlas grows and packing retries.
func (a *GlyphAtlas) pack(width, height int) (x, y int) {
	for {
		if a.cursorX+width <= a.width && a.cursorY+height <= a.height {
			x, y = a.cursorX, a.cursorY
			a.cursorX += width
			if height > a.rowHeight {
				a.rowHeight = height
			}
			return x, y
		}

		// Start a new shelf.
		if a.cursorX > 0 {
			a.cursorY += a.rowHeight
			a.cursorX = 0
			a.rowHeight = 0
			if a.cursorY+height <= a.height && width <= a.width {
				continue
			}
		}

		a.grow()
	}
}

// grow doubles the smaller atlas dimension, preserving packed content and
// refreshing the texture coordinates of every cached glyph.
func (a *GlyphAtlas) grow() {
	newW, newH := a.width, a.height
	if newW <= newH {
		newW *= 2
	} else {
		newH *= 2
	}

	pix := make([]byte, newW*newH)
	for y := 0; y < a.height; y++ {
		copy(pix[y*newW:y*newW+a.width], a.pix[y*a.width:(y+1)*a.width])
	}
	a.pix = pix
	a.width = newW
	a.height = newH
	a.dirty = true

	for _, g := range a.glyphs {
		if g != nil {
			a.updateUV(g)
		}
	}

	ink.Logger().Debug("glyph atlas grown", "width", newW, "height", newH)
}

// blit copies a coverage mask into the atlas at (x, y).
func (a *GlyphAtlas) blit(x, y int, mask *image.Alpha) {
	b := mask.Bounds()
	for row := 0; row < b.Dy(); row++ {
		src := mask.Pix[row*mask.Stride : row*mask.Stride+b.Dx()]
		dst := a.pix[(y+row)*a.width+x:]
		copy(dst[:b.Dx()], src)
	}
}

// updateUV recomputes a glyph's texture coordinates for the current atlas
// size.
func (a *GlyphAtlas) updateUV(g *Glyph) {
	g.U0 = float32(g.AtlasX) / float32(a.width)
	g.V0 = float32(g.AtlasY) / float32(a.height)
	g.U1 = float32(g.AtlasX+g.Width) / float32(a.width)
	g.V1 = float32(g.AtlasY+g.Height) / float32(a.height)
}
