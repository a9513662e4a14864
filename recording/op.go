package recording

import (
	"fmt"

	"github.com/gogpu/ink"
)

// OpType identifies the kind of a recorded draw op.
//
// The numeric order is load-bearing: DrawPass sort keys embed the op type,
// so clip ops come first (they must lead the group they open) and draw ops
// batch in this order within a clip group.
type OpType uint8

const (
	// OpSetClip installs a rectangular clip.
	OpSetClip OpType = iota

	// OpClearClip removes the active clip.
	OpClearClip

	// OpFillRect fills an axis-aligned rectangle.
	OpFillRect

	// OpStrokeRect outlines an axis-aligned rectangle.
	OpStrokeRect

	// OpLine draws a single line segment.
	OpLine

	// OpPolyline draws connected line segments through arena-stored points.
	OpPolyline

	// OpText draws a string at a baseline position.
	OpText

	// OpDrawImage blits an image from the recording's image table.
	OpDrawImage
)

// opTypeNames maps OpType values to their string representation.
var opTypeNames = [...]string{
	OpSetClip:    "SetClip",
	OpClearClip:  "ClearClip",
	OpFillRect:   "FillRect",
	OpStrokeRect: "StrokeRect",
	OpLine:       "Line",
	OpPolyline:   "Polyline",
	OpText:       "Text",
	OpDrawImage:  "DrawImage",
}

// String returns the string representation of an OpType.
func (t OpType) String() string {
	if int(t) < len(opTypeNames) {
		return opTypeNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// DrawOp is a single recorded command. Ops are small, trivially copyable
// values with no pointers: variable-length payloads stay in the arena and
// images are referenced by table index, so backends can traverse a pass
// without chasing pointers.
//
// The payload fields are interpreted per Type:
//
//	FillRect, StrokeRect, SetClip:  Rect
//	Line:                           Rect holds both endpoints, see P1/P2
//	Polyline:                       Off (arena offset), Count (points)
//	Text:                           Rect.X/Y (baseline), Off, Count (bytes)
//	DrawImage:                      Rect.X/Y (position), Off (image index)
//	ClearClip:                      none
type DrawOp struct {
	Type  OpType
	Color ink.Color
	Width float32

	Rect  ink.Rect
	Off   uint32
	Count uint32
}

// P1 returns the first endpoint of a Line op.
func (op DrawOp) P1() ink.Point {
	return ink.Point{X: op.Rect.X, Y: op.Rect.Y}
}

// P2 returns the second endpoint of a Line op.
func (op DrawOp) P2() ink.Point {
	return ink.Point{X: op.Rect.W, Y: op.Rect.H}
}

// Pos returns the position payload of a Text or DrawImage op.
func (op DrawOp) Pos() ink.Point {
	return ink.Point{X: op.Rect.X, Y: op.Rect.Y}
}

// ImageIndex returns the image table index of a DrawImage op.
func (op DrawOp) ImageIndex() int {
	return int(op.Off)
}
