package text

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Face errors.
var (
	// ErrEmptyFont is returned when the font data is empty.
	ErrEmptyFont = errors.New("text: font data is empty")

	// ErrInvalidSize is returned for a non-positive pixel size.
	ErrInvalidSize = errors.New("text: pixel size must be positive")
)

// Face is a font loaded at a fixed pixel size. It bundles the two font
// backends the atlas needs: an opentype face for rasterizing glyph
// coverage and a go-text face for typographic metrics.
//
// Face is not safe for concurrent use; the underlying opentype face keeps
// internal rasterization state.
type Face struct {
	size float64

	// raster is the x/image face used to produce glyph coverage.
	raster font.Face

	// Metrics in pixels, resolved at construction.
	ascent     float32
	descent    float32
	lineHeight float32
}

// NewFace parses font data and prepares it at the given pixel size.
func NewFace(data []byte, sizePx float64) (*Face, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFont
	}
	if sizePx <= 0 {
		return nil, ErrInvalidSize
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	raster, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("text: create face: %w", err)
	}

	f := &Face{size: sizePx, raster: raster}
	if err := f.resolveMetrics(data); err != nil {
		// The shaping path failing is not fatal; fall back to the
		// rasterizer's own metrics.
		m := raster.Metrics()
		f.ascent = fixedToFloat(m.Ascent)
		f.descent = fixedToFloat(m.Descent)
		f.lineHeight = fixedToFloat(m.Height)
	}
	return f, nil
}

// resolveMetrics shapes a probe string through go-text's HarfBuzz
// implementation and records the line extents it reports.
func (f *Face) resolveMetrics(data []byte) error {
	gtFace, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("text: parse font for metrics: %w", err)
	}

	probe := []rune("M")
	var shaper shaping.HarfbuzzShaper
	out := shaper.Shape(shaping.Input{
		Text:      probe,
		RunStart:  0,
		RunEnd:    len(probe),
		Face:      gtFace,
		Size:      floatToFixed(f.size),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})

	ascent := fixedToFloat(out.LineBounds.Ascent)
	// HarfBuzz reports descent as a negative offset below the baseline.
	descent := -fixedToFloat(out.LineBounds.Descent)
	gap := fixedToFloat(out.LineBounds.Gap)
	if ascent <= 0 {
		return errors.New("text: shaper reported no line bounds")
	}
	f.ascent = ascent
	f.descent = descent
	f.lineHeight = ascent + descent + gap
	return nil
}

// Size returns the pixel size the face was loaded at.
func (f *Face) Size() float64 {
	return f.size
}

// Ascent returns the distance from the baseline to the typographic top.
func (f *Face) Ascent() float32 {
	return f.ascent
}

// Descent returns the distance from the baseline to the typographic
// bottom.
func (f *Face) Descent() float32 {
	return f.descent
}

// LineHeight returns the typographic line height.
func (f *Face) LineHeight() float32 {
	return f.lineHeight
}

// glyphImage is one rasterized glyph: a coverage mask with its bounds
// relative to the glyph origin on the baseline, plus the horizontal
// advance.
type glyphImage struct {
	mask    *image.Alpha
	bounds  image.Rectangle
	advance float32
}

// rasterize renders the glyph for the given 8-bit index into a coverage
// mask. Returns nil if the font has no usable glyph for the index; the
// caller records an empty glyph so the lookup is not retried.
func (f *Face) rasterize(index byte) *glyphImage {
	r := rune(index)
	bounds, advance, ok := f.raster.GlyphBounds(r)
	if !ok {
		return nil
	}

	minX := bounds.Min.X.Floor()
	minY := bounds.Min.Y.Floor()
	maxX := bounds.Max.X.Ceil()
	maxY := bounds.Max.Y.Ceil()
	rect := image.Rect(minX, minY, maxX, maxY)

	mask := image.NewAlpha(rect)
	if !rect.Empty() {
		d := font.Drawer{
			Dst:  mask,
			Src:  image.White,
			Face: f.raster,
			Dot:  fixed.Point26_6{},
		}
		d.DrawString(string(r))
	}

	return &glyphImage{mask: mask, bounds: rect, advance: fixedToFloat(advance)}
}

// floatToFixed converts a float64 to 26.6 fixed point.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fixedToFloat converts a 26.6 fixed point value to float32.
func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
