package ink

import (
	"image"
	"image/color"
	"image/png"
	"io"
)

// Compile-time interface check.
var _ image.Image = (*Pixmap)(nil)

// PixmapInfo describes the geometry and format of a pixel buffer.
type PixmapInfo struct {
	// Width is the buffer width in pixels. Must be > 0 for a valid pixmap.
	Width int

	// Height is the buffer height in pixels. Must be > 0 for a valid pixmap.
	Height int

	// Stride is the distance in bytes between the starts of consecutive
	// rows. Always >= 4*Width; equal to 4*Width for owned pixmaps.
	Stride int

	// Format is the channel order of the pixel data.
	Format PixelFormat
}

// Valid reports whether the descriptor describes a usable buffer.
func (i PixmapInfo) Valid() bool {
	return i.Width > 0 && i.Height > 0 && i.Stride >= 4*i.Width
}

// Pixmap is a rectangular 32-bit pixel buffer with a known stride and
// channel order. A pixmap either owns its pixels (allocated with it) or
// borrows them from the caller; borrowed pixels must outlive the pixmap.
//
// Pixmaps are passed by pointer and never implicitly copied; use Clone for
// an explicit deep copy.
type Pixmap struct {
	info  PixmapInfo
	data  []byte
	owned bool
}

// NewPixmap allocates an owning pixmap of the given size and format.
// Returns nil if the dimensions are not positive.
func NewPixmap(width, height int, format PixelFormat) *Pixmap {
	if width <= 0 || height <= 0 {
		return nil
	}
	stride := 4 * width
	return &Pixmap{
		info:  PixmapInfo{Width: width, Height: height, Stride: stride, Format: format},
		data:  make([]byte, stride*height),
		owned: true,
	}
}

// WrapPixmap borrows an existing pixel buffer. The caller keeps ownership
// of pixels and must keep it alive for the pixmap's lifetime. Returns nil
// if the descriptor is invalid or the buffer is too small.
func WrapPixmap(info PixmapInfo, pixels []byte) *Pixmap {
	if !info.Valid() || len(pixels) < info.Stride*info.Height {
		return nil
	}
	return &Pixmap{info: info, data: pixels, owned: false}
}

// Info returns the pixmap descriptor.
func (p *Pixmap) Info() PixmapInfo {
	return p.info
}

// Width returns the pixmap width in pixels.
func (p *Pixmap) Width() int {
	return p.info.Width
}

// Height returns the pixmap height in pixels.
func (p *Pixmap) Height() int {
	return p.info.Height
}

// Stride returns the row stride in bytes.
func (p *Pixmap) Stride() int {
	return p.info.Stride
}

// Format returns the pixel format.
func (p *Pixmap) Format() PixelFormat {
	return p.info.Format
}

// Owned reports whether the pixmap owns its pixel storage.
func (p *Pixmap) Owned() bool {
	return p.owned
}

// Data returns the raw pixel bytes. Rows are Stride() bytes apart.
func (p *Pixmap) Data() []byte {
	return p.data
}

// Row returns the pixel bytes of row y, 4*Width bytes long.
func (p *Pixmap) Row(y int) []byte {
	off := y * p.info.Stride
	return p.data[off : off+4*p.info.Width]
}

// Clear fills every pixel with c, packed in the pixmap's format.
func (p *Pixmap) Clear(c Color) {
	var px [4]byte
	p.info.Format.PutPixel(px[:], c)
	for y := 0; y < p.info.Height; y++ {
		row := p.Row(y)
		for x := 0; x < len(row); x += 4 {
			copy(row[x:x+4], px[:])
		}
	}
}

// SetPixel writes c at (x, y). Out-of-bounds coordinates are ignored.
func (p *Pixmap) SetPixel(x, y int, c Color) {
	if x < 0 || x >= p.info.Width || y < 0 || y >= p.info.Height {
		return
	}
	p.info.Format.PutPixel(p.data[y*p.info.Stride+4*x:], c)
}

// GetPixel returns the color at (x, y), or the zero Color out of bounds.
func (p *Pixmap) GetPixel(x, y int) Color {
	if x < 0 || x >= p.info.Width || y < 0 || y >= p.info.Height {
		return Color{}
	}
	return p.info.Format.GetPixel(p.data[y*p.info.Stride+4*x:])
}

// Reallocate drops the current storage and allocates a fresh owned buffer
// of the new size. Existing contents are not preserved. Reallocating a
// borrowing pixmap turns it into an owning one.
func (p *Pixmap) Reallocate(width, height int, format PixelFormat) {
	if width <= 0 || height <= 0 {
		return
	}
	stride := 4 * width
	p.info = PixmapInfo{Width: width, Height: height, Stride: stride, Format: format}
	p.data = make([]byte, stride*height)
	p.owned = true
}

// Clone returns an owning deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	out := NewPixmap(p.info.Width, p.info.Height, p.info.Format)
	for y := 0; y < p.info.Height; y++ {
		copy(out.Row(y), p.Row(y))
	}
	return out
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	c := p.GetPixel(x, y)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.info.Width, p.info.Height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}

// WritePNG encodes the pixmap as PNG. Intended for debugging and golden
// tests.
func (p *Pixmap) WritePNG(w io.Writer) error {
	return png.Encode(w, p)
}
