package raster

import (
	"testing"

	"github.com/gogpu/ink"
	"github.com/gogpu/ink/recording"
)

// render records ops through fn and executes them on a fresh backend over
// a pixmap of the given size and format.
func render(width, height int, format ink.PixelFormat, clear ink.Color, fn func(*recording.Recorder)) *ink.Pixmap {
	pm := ink.NewPixmap(width, height, format)
	b := New(pm)
	b.BeginFrame(clear)

	r := recording.NewRecorder()
	fn(r)
	rec := r.Finish()
	b.Execute(rec, recording.NewDrawPass(rec))
	b.EndFrame()
	return pm
}

func TestOpaqueFillBGRA(t *testing.T) {
	// Scenario: an opaque red fill covering a 4x4 BGRA target.
	pm := render(4, 4, ink.FormatBGRA8888, ink.Black, func(r *recording.Recorder) {
		r.FillRect(ink.NewRect(0, 0, 4, 4), ink.RGB(255, 0, 0))
	})

	for y := 0; y < 4; y++ {
		row := pm.Row(y)
		for x := 0; x < 4; x++ {
			px := row[4*x : 4*x+4]
			// BGRA byte order: B=0, G=0, R=255, A=255.
			if px[0] != 0 || px[1] != 0 || px[2] != 255 || px[3] != 255 {
				t.Fatalf("pixel (%d,%d) bytes = %v, want [0 0 255 255]", x, y, px)
			}
		}
	}
}

func TestHalfAlphaBlendOverBlack(t *testing.T) {
	pm := render(8, 8, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.FillRect(ink.NewRect(0, 0, 8, 8), ink.RGBA(255, 255, 255, 128))
	})

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := pm.GetPixel(x, y)
			for name, ch := range map[string]uint8{"R": c.R, "G": c.G, "B": c.B} {
				if ch < 127 || ch > 129 {
					t.Fatalf("pixel (%d,%d) %s = %d, want 128 +/- 1", x, y, name, ch)
				}
			}
		}
	}
}

func TestClippedOverdraw(t *testing.T) {
	pm := render(16, 16, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.SetClip(ink.NewRect(4, 4, 4, 4))
		r.FillRect(ink.NewRect(0, 0, 16, 16), ink.RGB(0, 255, 0))
		r.ClearClip()
	})

	if got := pm.GetPixel(5, 5); got != ink.RGB(0, 255, 0) {
		t.Errorf("pixel (5,5) = %+v, want green", got)
	}
	if got := pm.GetPixel(0, 0); got != ink.RGB(0, 0, 0) {
		t.Errorf("pixel (0,0) = %+v, want black", got)
	}
	if got := pm.GetPixel(15, 15); got != ink.RGB(0, 0, 0) {
		t.Errorf("pixel (15,15) = %+v, want black", got)
	}
}

func TestPolylineTriangle(t *testing.T) {
	// A closed triangle: exactly three segments, endpoints carrying the
	// stroke color.
	pts := []ink.Point{{X: 200, Y: 30}, {X: 260, Y: 130}, {X: 140, Y: 130}, {X: 200, Y: 30}}
	c := ink.RGBA(255, 200, 0, 255)

	pm := render(320, 200, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.DrawPolyline(pts, c, 1)
	})

	for i, p := range pts {
		if got := pm.GetPixel(int(p.X), int(p.Y)); got != c {
			t.Errorf("endpoint %d (%v,%v) = %+v, want %+v", i, p.X, p.Y, got, c)
		}
	}
	// A midpoint of the horizontal bottom edge must also be set.
	if got := pm.GetPixel(200, 130); got != c {
		t.Errorf("bottom edge midpoint = %+v, want %+v", got, c)
	}
}

func TestStrokeRectEdges(t *testing.T) {
	pm := render(10, 10, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.StrokeRect(ink.NewRect(1, 1, 8, 8), ink.RGB(255, 255, 255), 1)
	})

	white := ink.RGB(255, 255, 255)
	black := ink.RGB(0, 0, 0)
	if got := pm.GetPixel(1, 1); got != white {
		t.Errorf("corner = %+v, want white", got)
	}
	if got := pm.GetPixel(4, 1); got != white {
		t.Errorf("top edge = %+v, want white", got)
	}
	if got := pm.GetPixel(4, 8); got != white {
		t.Errorf("bottom edge = %+v, want white", got)
	}
	if got := pm.GetPixel(1, 4); got != white {
		t.Errorf("left edge = %+v, want white", got)
	}
	if got := pm.GetPixel(8, 4); got != white {
		t.Errorf("right edge = %+v, want white", got)
	}
	if got := pm.GetPixel(4, 4); got != black {
		t.Errorf("interior = %+v, want black", got)
	}
}

func TestLineEndpoints(t *testing.T) {
	c := ink.RGB(0, 128, 255)
	pm := render(20, 20, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.DrawLine(ink.Pt(2, 3), ink.Pt(15, 11), c, 5)
	})

	if got := pm.GetPixel(2, 3); got != c {
		t.Errorf("start = %+v, want %+v", got, c)
	}
	if got := pm.GetPixel(15, 11); got != c {
		t.Errorf("end = %+v, want %+v", got, c)
	}
}

func TestDrawImageOpaqueCopy(t *testing.T) {
	src := ink.NewPixmap(2, 2, ink.FormatRGBA8888)
	src.Clear(ink.RGB(10, 20, 30))
	img := ink.ImageFromPixmap(src)

	pm := render(8, 8, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.DrawImage(img, 3, 3)
	})

	if got := pm.GetPixel(3, 3); got != ink.RGB(10, 20, 30) {
		t.Errorf("blit pixel = %+v", got)
	}
	if got := pm.GetPixel(5, 5); got != ink.RGB(0, 0, 0) {
		t.Errorf("outside blit = %+v, want black", got)
	}
}

func TestDrawImageFormatSwizzle(t *testing.T) {
	// BGRA source onto an RGBA target: channels must swap, not copy raw.
	src := ink.NewPixmap(1, 1, ink.FormatBGRA8888)
	src.SetPixel(0, 0, ink.RGB(255, 0, 0))
	img := ink.ImageFromPixmap(src)

	pm := render(4, 4, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.DrawImage(img, 0, 0)
	})

	if got := pm.GetPixel(0, 0); got != ink.RGB(255, 0, 0) {
		t.Errorf("swizzled pixel = %+v, want red", got)
	}
}

func TestDrawImageTransparentSkipsAndBlends(t *testing.T) {
	src := ink.NewPixmap(2, 1, ink.FormatRGBA8888)
	src.SetPixel(0, 0, ink.RGBA(0, 0, 0, 0))       // skipped
	src.SetPixel(1, 0, ink.RGBA(255, 255, 255, 128)) // blended
	img := ink.ImageFromPixmap(src)

	pm := render(4, 4, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.FillRect(ink.NewRect(0, 0, 4, 4), ink.RGB(40, 40, 40))
		r.DrawImage(img, 0, 0)
	})

	if got := pm.GetPixel(0, 0); got != ink.RGB(40, 40, 40) {
		t.Errorf("transparent source should skip, got %+v", got)
	}
	got := pm.GetPixel(1, 0)
	// (255*128 + 40*127)/255 = 147 (integer division).
	if got.R < 147 || got.R > 149 {
		t.Errorf("blended R = %d, want 148 +/- 1", got.R)
	}
}

func TestDrawImageClipped(t *testing.T) {
	src := ink.NewPixmap(4, 4, ink.FormatRGBA8888)
	src.Clear(ink.RGB(255, 0, 0))
	img := ink.ImageFromPixmap(src)

	pm := render(8, 8, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.SetClip(ink.NewRect(0, 0, 2, 2))
		r.DrawImage(img, 0, 0)
	})

	if got := pm.GetPixel(1, 1); got != ink.RGB(255, 0, 0) {
		t.Errorf("inside clip = %+v, want red", got)
	}
	if got := pm.GetPixel(3, 3); got != ink.RGB(0, 0, 0) {
		t.Errorf("outside clip = %+v, want black", got)
	}
}

func TestTextWithoutAtlasSkips(t *testing.T) {
	// A text op with no atlas installed must not crash and must leave
	// the target untouched.
	pm := render(8, 8, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.DrawText(ink.Pt(0, 6), "hi", ink.RGB(255, 255, 255))
	})

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := pm.GetPixel(x, y); got != ink.RGB(0, 0, 0) {
				t.Fatalf("pixel (%d,%d) = %+v, want untouched black", x, y, got)
			}
		}
	}
}

func TestFillOutsideTargetIsClipped(t *testing.T) {
	pm := render(4, 4, ink.FormatRGBA8888, ink.Black, func(r *recording.Recorder) {
		r.FillRect(ink.NewRect(-10, -10, 100, 100), ink.RGB(1, 2, 3))
	})
	if got := pm.GetPixel(0, 0); got != ink.RGB(1, 2, 3) {
		t.Errorf("pixel (0,0) = %+v", got)
	}
	if got := pm.GetPixel(3, 3); got != ink.RGB(1, 2, 3) {
		t.Errorf("pixel (3,3) = %+v", got)
	}
}

func TestResizeDiscardsContents(t *testing.T) {
	pm := ink.NewPixmap(4, 4, ink.FormatRGBA8888)
	b := New(pm)
	b.BeginFrame(ink.RGB(9, 9, 9))

	b.Resize(8, 8)
	if pm.Width() != 8 || pm.Height() != 8 {
		t.Fatalf("size = %dx%d, want 8x8", pm.Width(), pm.Height())
	}
	if got := pm.GetPixel(0, 0); got != (ink.Color{}) {
		t.Errorf("contents should be discarded, got %+v", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	pm := ink.NewPixmap(4, 4, ink.FormatRGBA8888)
	b := New(pm)
	b.BeginFrame(ink.RGB(255, 0, 0))

	snap := b.MakeSnapshot()
	if snap == nil {
		t.Fatal("MakeSnapshot returned nil")
	}

	// Mutating the surface after the snapshot must not change it.
	pm.Clear(ink.RGB(0, 255, 0))
	if got := snap.Pixels().GetPixel(0, 0); got != ink.RGB(255, 0, 0) {
		t.Errorf("snapshot pixel = %+v, want red", got)
	}
}
