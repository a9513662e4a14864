package recording

import (
	"testing"

	"github.com/gogpu/ink"
)

func TestRecorderOnePerCall(t *testing.T) {
	r := NewRecorder()
	r.FillRect(ink.NewRect(0, 0, 10, 10), ink.RGB(255, 0, 0))
	r.StrokeRect(ink.NewRect(0, 0, 10, 10), ink.RGB(0, 255, 0), 2)
	r.DrawLine(ink.Pt(0, 0), ink.Pt(5, 5), ink.RGB(0, 0, 255), 1)
	r.SetClip(ink.NewRect(1, 1, 2, 2))
	r.ClearClip()

	if r.OpCount() != 5 {
		t.Errorf("OpCount = %d, want 5", r.OpCount())
	}
}

func TestRecorderPolylineArena(t *testing.T) {
	r := NewRecorder()
	pts := []ink.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}
	r.DrawPolyline(pts, ink.RGB(1, 1, 1), 1)

	rec := r.Finish()
	ops := rec.Ops()
	if len(ops) != 1 {
		t.Fatalf("ops = %d, want 1", len(ops))
	}
	op := ops[0]
	if op.Type != OpPolyline || op.Count != 3 {
		t.Fatalf("op = %+v", op)
	}
	got := rec.Arena().Points(int(op.Off), int(op.Count))
	for i := range pts {
		if got[i] != pts[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], pts[i])
		}
	}
}

func TestRecorderPolylineTooShort(t *testing.T) {
	r := NewRecorder()
	r.DrawPolyline([]ink.Point{{X: 1, Y: 1}}, ink.RGB(1, 1, 1), 1)
	if r.OpCount() != 0 {
		t.Error("single-point polyline should record nothing")
	}
}

func TestRecorderTextArena(t *testing.T) {
	r := NewRecorder()
	r.DrawText(ink.Pt(10, 20), "hi", ink.RGB(9, 9, 9))

	rec := r.Finish()
	op := rec.Ops()[0]
	if op.Type != OpText {
		t.Fatalf("type = %v, want Text", op.Type)
	}
	if got := rec.Arena().String(int(op.Off), int(op.Count)); got != "hi" {
		t.Errorf("text payload = %q, want %q", got, "hi")
	}
	if pos := op.Pos(); pos != ink.Pt(10, 20) {
		t.Errorf("pos = %+v, want (10,20)", pos)
	}
}

func TestRecorderImageTable(t *testing.T) {
	r := NewRecorder()
	pm := ink.NewPixmap(2, 2, ink.FormatRGBA8888)
	imgA := ink.ImageFromPixmap(pm)
	imgB := ink.ImageFromPixmap(pm)

	r.DrawImage(imgA, 0, 0)
	r.DrawImage(imgB, 4, 4)

	rec := r.Finish()
	if len(rec.Images()) != 2 {
		t.Fatalf("images = %d, want 2", len(rec.Images()))
	}
	ops := rec.Ops()
	if rec.Image(ops[0].ImageIndex()) != imgA {
		t.Error("op 0 should reference image A")
	}
	if rec.Image(ops[1].ImageIndex()) != imgB {
		t.Error("op 1 should reference image B")
	}
}

func TestRecorderDrawImageInvalid(t *testing.T) {
	r := NewRecorder()
	r.DrawImage(nil, 0, 0)
	if r.OpCount() != 0 {
		t.Error("nil image should record nothing")
	}
}

func TestRecorderFinishAndReset(t *testing.T) {
	r := NewRecorder()
	r.FillRect(ink.NewRect(0, 0, 1, 1), ink.RGB(1, 1, 1))

	rec := r.Finish()
	if len(rec.Ops()) != 1 {
		t.Fatalf("sealed ops = %d, want 1", len(rec.Ops()))
	}

	r.Reset()
	r.FillRect(ink.NewRect(0, 0, 1, 1), ink.RGB(1, 1, 1))
	if r.OpCount() != 1 {
		t.Errorf("ops after Reset = %d, want 1", r.OpCount())
	}
	// The sealed recording is unaffected by recorder reuse.
	if len(rec.Ops()) != 1 {
		t.Error("sealed recording changed after recorder reuse")
	}
}

// opLog records visitor calls for order verification.
type opLog struct {
	calls []string
}

func (l *opLog) FillRect(ink.Rect, ink.Color)                 { l.calls = append(l.calls, "fill") }
func (l *opLog) StrokeRect(ink.Rect, ink.Color, float32)      { l.calls = append(l.calls, "stroke") }
func (l *opLog) Line(_, _ ink.Point, _ ink.Color, _ float32)  { l.calls = append(l.calls, "line") }
func (l *opLog) Polyline([]ink.Point, ink.Color, float32)     { l.calls = append(l.calls, "polyline") }
func (l *opLog) Text(ink.Point, string, ink.Color)            { l.calls = append(l.calls, "text") }
func (l *opLog) DrawImage(*ink.Image, float32, float32)       { l.calls = append(l.calls, "image") }
func (l *opLog) SetClip(ink.Rect)                             { l.calls = append(l.calls, "setclip") }
func (l *opLog) ClearClip()                                   { l.calls = append(l.calls, "clearclip") }

func TestRecordingAcceptInsertionOrder(t *testing.T) {
	r := NewRecorder()
	r.StrokeRect(ink.NewRect(0, 0, 1, 1), ink.RGB(1, 1, 1), 1)
	r.FillRect(ink.NewRect(0, 0, 1, 1), ink.RGB(1, 1, 1))
	r.SetClip(ink.NewRect(0, 0, 1, 1))
	r.DrawLine(ink.Pt(0, 0), ink.Pt(1, 1), ink.RGB(1, 1, 1), 1)

	log := &opLog{}
	r.Finish().Accept(log)

	want := []string{"stroke", "fill", "setclip", "line"}
	if len(log.calls) != len(want) {
		t.Fatalf("calls = %v", log.calls)
	}
	for i := range want {
		if log.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, log.calls[i], want[i])
		}
	}
}
