package recording

import "github.com/gogpu/ink"

// Recorder builds a Recording. Each draw method appends exactly one op;
// polyline and text additionally reserve arena bytes, and DrawImage
// registers the image in the reference table.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	ops    []DrawOp
	arena  *Arena
	images []*ink.Image
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		ops:   make([]DrawOp, 0, 256),
		arena: NewArena(),
	}
}

// FillRect records a filled rectangle.
func (r *Recorder) FillRect(rect ink.Rect, c ink.Color) {
	r.ops = append(r.ops, DrawOp{Type: OpFillRect, Color: c, Rect: rect})
}

// StrokeRect records a rectangle outline of the given stroke width.
func (r *Recorder) StrokeRect(rect ink.Rect, c ink.Color, width float32) {
	r.ops = append(r.ops, DrawOp{Type: OpStrokeRect, Color: c, Width: width, Rect: rect})
}

// DrawLine records a line segment of the given stroke width.
func (r *Recorder) DrawLine(p1, p2 ink.Point, c ink.Color, width float32) {
	r.ops = append(r.ops, DrawOp{
		Type:  OpLine,
		Color: c,
		Width: width,
		Rect:  ink.Rect{X: p1.X, Y: p1.Y, W: p2.X, H: p2.Y},
	})
}

// DrawPolyline records connected segments through pts. Recording fewer
// than two points is a no-op.
func (r *Recorder) DrawPolyline(pts []ink.Point, c ink.Color, width float32) {
	if len(pts) < 2 {
		return
	}
	off := r.arena.StorePoints(pts)
	r.ops = append(r.ops, DrawOp{
		Type:  OpPolyline,
		Color: c,
		Width: width,
		Off:   uint32(off),
		Count: uint32(len(pts)),
	})
}

// DrawText records a string drawn with its baseline at pos. Recording an
// empty string is a no-op.
func (r *Recorder) DrawText(pos ink.Point, s string, c ink.Color) {
	if s == "" {
		return
	}
	off := r.arena.StoreString(s)
	r.ops = append(r.ops, DrawOp{
		Type:  OpText,
		Color: c,
		Rect:  ink.Rect{X: pos.X, Y: pos.Y},
		Off:   uint32(off),
		Count: uint32(len(s)),
	})
}

// DrawImage records an image blit with its top-left corner at (x, y).
// Recording a nil or invalid image is a no-op.
func (r *Recorder) DrawImage(img *ink.Image, x, y float32) {
	if !img.Valid() {
		return
	}
	index := uint32(len(r.images))
	r.images = append(r.images, img)
	r.ops = append(r.ops, DrawOp{
		Type: OpDrawImage,
		Rect: ink.Rect{X: x, Y: y},
		Off:  index,
	})
}

// SetClip records a rectangular clip that applies to subsequent ops.
func (r *Recorder) SetClip(rect ink.Rect) {
	r.ops = append(r.ops, DrawOp{Type: OpSetClip, Rect: rect})
}

// ClearClip records the removal of the active clip.
func (r *Recorder) ClearClip() {
	r.ops = append(r.ops, DrawOp{Type: OpClearClip})
}

// OpCount returns the number of ops recorded so far.
func (r *Recorder) OpCount() int {
	return len(r.ops)
}

// Finish seals the recorder state into an immutable Recording. The
// recorder must be Reset before further use.
func (r *Recorder) Finish() *Recording {
	rec := &Recording{ops: r.ops, arena: r.arena, images: r.images}
	r.ops = nil
	r.arena = NewArena()
	r.images = nil
	return rec
}

// Reset discards all recorded state, retaining allocated capacity where
// possible so a recorder can be reused frame over frame.
func (r *Recorder) Reset() {
	if r.ops == nil {
		r.ops = make([]DrawOp, 0, 256)
	} else {
		r.ops = r.ops[:0]
	}
	if r.arena == nil {
		r.arena = NewArena()
	} else {
		r.arena.Reset()
	}
	r.images = r.images[:0]
}
