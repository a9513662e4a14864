package recording

import (
	"testing"

	"github.com/gogpu/ink"
)

func TestArenaStoreString(t *testing.T) {
	a := NewArena()

	off := a.StoreString("hello")
	if got := a.String(off, 5); got != "hello" {
		t.Errorf("String = %q, want %q", got, "hello")
	}
	// StoreString appends a trailing zero byte.
	if a.Len() != 6 {
		t.Errorf("Len = %d, want 6", a.Len())
	}
	if b := a.Bytes(off, 6); b[5] != 0 {
		t.Errorf("terminator byte = %d, want 0", b[5])
	}
}

func TestArenaStorePoints(t *testing.T) {
	a := NewArena()
	pts := []ink.Point{{X: 200, Y: 30}, {X: 260, Y: 130}, {X: 140, Y: 130}}

	off := a.StorePoints(pts)
	got := a.Points(off, len(pts))
	if len(got) != len(pts) {
		t.Fatalf("decoded %d points, want %d", len(got), len(pts))
	}
	for i := range pts {
		if got[i] != pts[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], pts[i])
		}
	}
}

func TestArenaOffsetsStable(t *testing.T) {
	a := NewArena()
	off1 := a.StoreString("first")
	off2 := a.StoreString("second")

	// Growing the arena must not disturb earlier offsets.
	for i := 0; i < 1000; i++ {
		a.StoreString("padding to force growth")
	}
	if got := a.String(off1, 5); got != "first" {
		t.Errorf("offset 1 = %q, want %q", got, "first")
	}
	if got := a.String(off2, 6); got != "second" {
		t.Errorf("offset 2 = %q, want %q", got, "second")
	}
}

func TestArenaAllocate(t *testing.T) {
	a := NewArena()
	off1 := a.Allocate(10)
	off2 := a.Allocate(4)

	if off1 != 0 || off2 != 10 {
		t.Errorf("offsets = %d, %d, want 0, 10", off1, off2)
	}
	if a.Len() != 14 {
		t.Errorf("Len = %d, want 14", a.Len())
	}
}

func TestArenaReset(t *testing.T) {
	a := NewArena()
	a.StoreString("content")

	a.Reset()
	if a.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", a.Len())
	}

	// The arena is reusable after Reset.
	off := a.StoreString("again")
	if off != 0 {
		t.Errorf("offset after Reset = %d, want 0", off)
	}
	if got := a.String(off, 5); got != "again" {
		t.Errorf("String = %q, want %q", got, "again")
	}
}
