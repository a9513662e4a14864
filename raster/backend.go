package raster

import (
	"github.com/gogpu/ink"
	"github.com/gogpu/ink/recording"
	"github.com/gogpu/ink/text"
)

// Compile-time interface check.
var _ recording.Visitor = (*Backend)(nil)

// Backend rasterizes recordings into a Pixmap. The pixmap is owned by the
// surface that owns the backend; the backend only mutates its pixels.
//
// Backend is not safe for concurrent use.
type Backend struct {
	target *ink.Pixmap

	hasClip bool
	clip    ink.Rect

	atlas *text.GlyphAtlas

	// atlasWarned suppresses repeated missing-atlas warnings within a
	// frame.
	atlasWarned bool
}

// New returns a backend rendering into target.
func New(target *ink.Pixmap) *Backend {
	return &Backend{target: target}
}

// Target returns the pixmap the backend renders into.
func (b *Backend) Target() *ink.Pixmap {
	return b.target
}

// SetGlyphAtlas installs the atlas used by text ops. Text ops are skipped
// while no atlas is installed.
func (b *Backend) SetGlyphAtlas(a *text.GlyphAtlas) {
	b.atlas = a
}

// BeginFrame clears the target with the given color and resets the clip
// state for a new frame.
func (b *Backend) BeginFrame(clear ink.Color) {
	if b.target == nil {
		return
	}
	b.target.Clear(clear)
	b.hasClip = false
	b.atlasWarned = false
}

// EndFrame flushes pending work. The software backend has none.
func (b *Backend) EndFrame() {}

// Resize re-creates the target storage at the new size. Existing contents
// are discarded.
func (b *Backend) Resize(width, height int) {
	if b.target == nil {
		return
	}
	b.target.Reallocate(width, height, b.target.Format())
}

// Execute replays rec in pass order.
func (b *Backend) Execute(rec *recording.Recording, pass *recording.DrawPass) {
	if b.target == nil {
		return
	}
	rec.Dispatch(b, pass)
}

// MakeSnapshot returns an immutable deep copy of the current target, or
// nil if the backend has no valid target.
func (b *Backend) MakeSnapshot() *ink.Image {
	if b.target == nil {
		return nil
	}
	return ink.ImageFromPixmap(b.target)
}

// effectiveClip returns the active clip intersected with the target
// bounds.
func (b *Backend) effectiveClip() ink.Rect {
	bounds := ink.NewRect(0, 0, float32(b.target.Width()), float32(b.target.Height()))
	if b.hasClip {
		return bounds.Intersect(b.clip)
	}
	return bounds
}

// clipRect intersects r with the effective clip and returns integer span
// bounds [x0, x1) x [y0, y1); ok is false when nothing remains.
func (b *Backend) clipRect(r ink.Rect) (x0, y0, x1, y1 int, ok bool) {
	c := b.effectiveClip().Intersect(r)
	if c.Empty() {
		return 0, 0, 0, 0, false
	}
	x0 = int(c.X)
	y0 = int(c.Y)
	x1 = int(c.Right())
	y1 = int(c.Bottom())
	if x0 >= x1 || y0 >= y1 {
		return 0, 0, 0, 0, false
	}
	return x0, y0, x1, y1, true
}

// --------------------------------------------------------------------------
// Visitor
// --------------------------------------------------------------------------

// FillRect fills rect with c, clipped to the effective clip and target.
func (b *Backend) FillRect(rect ink.Rect, c ink.Color) {
	x0, y0, x1, y1, ok := b.clipRect(rect)
	if !ok || c.A == 0 {
		return
	}

	if c.Opaque() {
		// Fast path: pack the color once and replicate it per row.
		var px [4]byte
		b.target.Format().PutPixel(px[:], c)
		for y := y0; y < y1; y++ {
			row := b.target.Row(y)
			for x := x0; x < x1; x++ {
				copy(row[4*x:4*x+4], px[:])
			}
		}
		return
	}

	format := b.target.Format()
	for y := y0; y < y1; y++ {
		row := b.target.Row(y)
		for x := x0; x < x1; x++ {
			px := row[4*x : 4*x+4]
			format.PutPixel(px, Blend(c, format.GetPixel(px)))
		}
	}
}

// StrokeRect outlines rect by filling its four edges at the given width.
func (b *Backend) StrokeRect(rect ink.Rect, c ink.Color, width float32) {
	if width <= 0 {
		width = 1
	}
	b.FillRect(ink.NewRect(rect.X, rect.Y, rect.W, width), c)
	b.FillRect(ink.NewRect(rect.X, rect.Bottom()-width, rect.W, width), c)
	b.FillRect(ink.NewRect(rect.X, rect.Y, width, rect.H), c)
	b.FillRect(ink.NewRect(rect.Right()-width, rect.Y, width, rect.H), c)
}

// Line steps from p1 to p2 with integer Bresenham, blending one pixel per
// step. The width argument is ignored on the software path.
func (b *Backend) Line(p1, p2 ink.Point, c ink.Color, _ float32) {
	if c.A == 0 {
		return
	}
	x0 := int(p1.X)
	y0 := int(p1.Y)
	x1 := int(p2.X)
	y1 := int(p2.Y)

	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	clip := b.effectiveClip()
	format := b.target.Format()
	for {
		if clip.Contains(float32(x0), float32(y0)) {
			px := b.target.Row(y0)[4*x0 : 4*x0+4]
			format.PutPixel(px, Blend(c, format.GetPixel(px)))
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Polyline draws a segment between each consecutive point pair.
func (b *Backend) Polyline(pts []ink.Point, c ink.Color, width float32) {
	for i := 0; i+1 < len(pts); i++ {
		b.Line(pts[i], pts[i+1], c, width)
	}
}

// Text composites s at the baseline position through the glyph atlas. The
// op is skipped with a once-per-frame warning when no atlas is installed.
func (b *Backend) Text(pos ink.Point, s string, c ink.Color) {
	if b.atlas == nil {
		if !b.atlasWarned {
			ink.Logger().Warn("text op skipped: no glyph atlas installed")
			b.atlasWarned = true
		}
		return
	}
	t := b.target
	b.atlas.DrawTextCPU(t.Data(), t.Stride(), t.Width(), t.Height(), pos.X, pos.Y, s, c, t.Format())
}

// DrawImage copies the intersection of the image rect with the effective
// clip and the target. Fully transparent source pixels are skipped, fully
// opaque ones written verbatim (channel-swapped across formats), and the
// rest blended SRC-OVER.
func (b *Backend) DrawImage(img *ink.Image, x, y float32) {
	src := img.Pixels()
	if src == nil {
		// GPU-backed images cannot be sampled by the software backend.
		ink.Logger().Warn("image op skipped: GPU-backed image on software backend", "image", img.UniqueID())
		return
	}

	dst := ink.NewRect(x, y, float32(img.Width()), float32(img.Height()))
	x0, y0, x1, y1, ok := b.clipRect(dst)
	if !ok {
		return
	}

	offX := x0 - int(x)
	offY := y0 - int(y)
	srcFormat := src.Format()
	dstFormat := b.target.Format()
	sameFormat := srcFormat == dstFormat

	for dy := y0; dy < y1; dy++ {
		srcRow := src.Row(offY + dy - y0)
		dstRow := b.target.Row(dy)
		for dx := x0; dx < x1; dx++ {
			sp := srcRow[4*(offX+dx-x0) : 4*(offX+dx-x0)+4]
			sc := srcFormat.GetPixel(sp)
			switch sc.A {
			case 0:
				// Skip.
			case 255:
				if sameFormat {
					copy(dstRow[4*dx:4*dx+4], sp)
				} else {
					dstFormat.PutPixel(dstRow[4*dx:], sc)
				}
			default:
				dp := dstRow[4*dx : 4*dx+4]
				dstFormat.PutPixel(dp, Blend(sc, dstFormat.GetPixel(dp)))
			}
		}
	}
}

// SetClip installs rect as the active clip.
func (b *Backend) SetClip(rect ink.Rect) {
	b.hasClip = true
	b.clip = rect
}

// ClearClip removes the active clip; the effective clip becomes the full
// target.
func (b *Backend) ClearClip() {
	b.hasClip = false
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
