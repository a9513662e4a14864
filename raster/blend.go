package raster

import "github.com/gogpu/ink"

// Blend applies integer SRC-OVER: out = (src*a + dst*(255-a)) / 255 per
// channel. The output alpha is clamped to 255; this backend never
// produces translucent destinations.
func Blend(src, dst ink.Color) ink.Color {
	switch src.A {
	case 0:
		return dst
	case 255:
		return ink.Color{R: src.R, G: src.G, B: src.B, A: 255}
	}
	sa := uint32(src.A)
	da := 255 - sa
	return ink.Color{
		R: uint8((uint32(src.R)*sa + uint32(dst.R)*da) / 255),
		G: uint8((uint32(src.G)*sa + uint32(dst.G)*da) / 255),
		B: uint8((uint32(src.B)*sa + uint32(dst.B)*da) / 255),
		A: 255,
	}
}
