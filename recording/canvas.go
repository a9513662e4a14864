package recording

import "github.com/gogpu/ink"

// clipFrame is one entry of the canvas clip stack.
type clipFrame struct {
	hasClip bool
	clip    ink.Rect
}

// Canvas is the client-facing drawing API. It is a thin wrapper that
// translates calls into Recorder ops while maintaining the clip stack:
// Save and Restore manipulate only canvas-side state, and the
// corresponding SetClip/ClearClip ops are emitted on Restore only when the
// effective clip actually changed.
//
// The Canvas is not safe for concurrent use.
type Canvas struct {
	rec    *Recorder
	width  int
	height int

	stack   []clipFrame
	current clipFrame
}

// NewCanvas returns a canvas of the given size writing into rec.
func NewCanvas(rec *Recorder, width, height int) *Canvas {
	return &Canvas{
		rec:    rec,
		width:  width,
		height: height,
		stack:  make([]clipFrame, 0, 8),
	}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int {
	return c.height
}

// Resize updates the canvas dimensions for subsequent frames.
func (c *Canvas) Resize(width, height int) {
	c.width = width
	c.height = height
}

// Reset drops the clip stack and the current clip without emitting ops.
// Surfaces call this at the start of each frame.
func (c *Canvas) Reset() {
	c.stack = c.stack[:0]
	c.current = clipFrame{}
}

// --------------------------------------------------------------------------
// Clip state
// --------------------------------------------------------------------------

// Save pushes the current clip state. Pair every Save with a Restore.
func (c *Canvas) Save() {
	c.stack = append(c.stack, c.current)
}

// Restore pops the most recent Save. If the restored clip differs from the
// current one, the matching SetClip or ClearClip op is re-issued so the
// recording stays consistent with the canvas state. An unmatched Restore
// is a no-op.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	restored := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]

	if restored == c.current {
		return
	}
	c.current = restored
	if restored.hasClip {
		c.rec.SetClip(restored.clip)
	} else {
		c.rec.ClearClip()
	}
}

// ClipRect intersects rect with the current clip and installs the result.
// A disjoint intersection yields a zero-size clip rather than removing the
// clip.
func (c *Canvas) ClipRect(rect ink.Rect) {
	if c.current.hasClip {
		rect = c.current.clip.Intersect(rect)
	}
	c.current = clipFrame{hasClip: true, clip: rect}
	c.rec.SetClip(rect)
}

// --------------------------------------------------------------------------
// Drawing
// --------------------------------------------------------------------------

// FillRect fills rect with color.
func (c *Canvas) FillRect(rect ink.Rect, color ink.Color) {
	c.rec.FillRect(rect, color)
}

// StrokeRect outlines rect with the given stroke width. Width 1 is the
// conventional hairline stroke.
func (c *Canvas) StrokeRect(rect ink.Rect, color ink.Color, width float32) {
	c.rec.StrokeRect(rect, color, width)
}

// DrawLine draws a segment from p1 to p2. The software backend renders
// all lines one pixel wide regardless of width; the GPU backend honors it.
func (c *Canvas) DrawLine(p1, p2 ink.Point, color ink.Color, width float32) {
	c.rec.DrawLine(p1, p2, color, width)
}

// DrawPolyline draws connected segments through pts.
func (c *Canvas) DrawPolyline(pts []ink.Point, color ink.Color, width float32) {
	c.rec.DrawPolyline(pts, color, width)
}

// DrawText draws s with its baseline at pos. The op is skipped at
// execution time if the backend has no glyph atlas installed.
func (c *Canvas) DrawText(pos ink.Point, s string, color ink.Color) {
	c.rec.DrawText(pos, s, color)
}

// DrawImage blits img with its top-left corner at (x, y).
func (c *Canvas) DrawImage(img *ink.Image, x, y float32) {
	c.rec.DrawImage(img, x, y)
}

// Clear fills the whole canvas with color.
func (c *Canvas) Clear(color ink.Color) {
	c.rec.FillRect(ink.NewRect(0, 0, float32(c.width), float32(c.height)), color)
}
