package recording

import "github.com/gogpu/ink"

// Visitor receives the ops of a Recording, one call per op. Backends
// implement Visitor to execute a recording; the set of op types is closed,
// so dispatch is an exhaustive switch rather than virtual dispatch.
type Visitor interface {
	// FillRect fills rect with c.
	FillRect(rect ink.Rect, c ink.Color)

	// StrokeRect outlines rect with stroke width width.
	StrokeRect(rect ink.Rect, c ink.Color, width float32)

	// Line draws a segment from p1 to p2.
	Line(p1, p2 ink.Point, c ink.Color, width float32)

	// Polyline draws connected segments through pts. The slice borrows
	// into the recording's arena and is only valid during the call.
	Polyline(pts []ink.Point, c ink.Color, width float32)

	// Text draws s with its baseline at pos.
	Text(pos ink.Point, s string, c ink.Color)

	// DrawImage blits img with its top-left corner at (x, y).
	DrawImage(img *ink.Image, x, y float32)

	// SetClip installs rect as the active clip.
	SetClip(rect ink.Rect)

	// ClearClip removes the active clip.
	ClearClip()
}

// Recording is the immutable result of a recorder finishing a frame: a
// sequence of compact ops, the arena owning their variable-length
// payloads, and the table of referenced images.
//
// Invariants: every polyline op addresses count points of valid arena
// bytes, every text op addresses len+1 bytes (zero-terminated), and every
// image index is in range of the image table.
type Recording struct {
	ops    []DrawOp
	arena  *Arena
	images []*ink.Image
}

// Ops returns the recorded ops in insertion order. The slice must not be
// modified.
func (r *Recording) Ops() []DrawOp {
	return r.ops
}

// Arena returns the payload arena. Slices handed out by the arena borrow
// its storage and are valid only while the recording lives.
func (r *Recording) Arena() *Arena {
	return r.arena
}

// Images returns the image reference table.
func (r *Recording) Images() []*ink.Image {
	return r.images
}

// Image resolves an image table index, or nil if out of range.
func (r *Recording) Image(index int) *ink.Image {
	if index < 0 || index >= len(r.images) {
		return nil
	}
	return r.images[index]
}

// Accept visits every op in insertion order.
func (r *Recording) Accept(v Visitor) {
	for i := range r.ops {
		r.visit(v, &r.ops[i])
	}
}

// Dispatch visits every op in the order chosen by pass. This is the
// execution path used by backends.
func (r *Recording) Dispatch(v Visitor, pass *DrawPass) {
	for _, idx := range pass.SortedIndices {
		r.visit(v, &r.ops[idx])
	}
}

// visit routes a single op to the matching visitor method, resolving
// arena payloads and image references.
func (r *Recording) visit(v Visitor, op *DrawOp) {
	switch op.Type {
	case OpFillRect:
		v.FillRect(op.Rect, op.Color)
	case OpStrokeRect:
		v.StrokeRect(op.Rect, op.Color, op.Width)
	case OpLine:
		v.Line(op.P1(), op.P2(), op.Color, op.Width)
	case OpPolyline:
		v.Polyline(r.arena.Points(int(op.Off), int(op.Count)), op.Color, op.Width)
	case OpText:
		v.Text(op.Pos(), r.arena.String(int(op.Off), int(op.Count)), op.Color)
	case OpDrawImage:
		if img := r.Image(op.ImageIndex()); img != nil {
			v.DrawImage(img, op.Rect.X, op.Rect.Y)
		}
	case OpSetClip:
		v.SetClip(op.Rect)
	case OpClearClip:
		v.ClearClip()
	}
}
