package raster

import (
	"testing"

	"github.com/gogpu/ink"
)

func TestBlendTransparentSourceLeavesDestination(t *testing.T) {
	dst := ink.RGB(10, 20, 30)
	src := ink.RGBA(255, 255, 255, 0)
	if got := Blend(src, dst); got != dst {
		t.Errorf("Blend with a=0 = %+v, want %+v", got, dst)
	}
}

func TestBlendOpaqueSourceReplacesDestination(t *testing.T) {
	dst := ink.RGB(10, 20, 30)
	src := ink.RGB(200, 100, 50)
	if got := Blend(src, dst); got != src {
		t.Errorf("Blend with a=255 = %+v, want %+v", got, src)
	}
}

func TestBlendHalfAlphaOverBlack(t *testing.T) {
	dst := ink.RGB(0, 0, 0)
	src := ink.RGBA(255, 255, 255, 128)
	got := Blend(src, dst)

	for name, ch := range map[string]uint8{"R": got.R, "G": got.G, "B": got.B} {
		if ch < 127 || ch > 129 {
			t.Errorf("%s = %d, want 128 +/- 1", name, ch)
		}
	}
	if got.A != 255 {
		t.Errorf("A = %d, want 255", got.A)
	}
}

func TestBlendQuarterAlpha(t *testing.T) {
	dst := ink.RGB(100, 100, 100)
	src := ink.RGBA(200, 200, 200, 64)
	got := Blend(src, dst)

	// (200*64 + 100*191) / 255 = 125 (integer division).
	if got.R != 125 {
		t.Errorf("R = %d, want 125", got.R)
	}
}
