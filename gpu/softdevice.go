package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/ink"
)

// Compile-time interface check.
var _ Device = (*SoftwareDevice)(nil)

// SoftwareDevice is an in-memory implementation of the Device contract:
// a minimal triangle rasterizer over byte slices. It exists as the
// reference implementation of the device semantics, as the execution
// target for tests, and as a last-resort device in builds without GPU
// support.
//
// Simplifications relative to a real GPU: texture sampling is always
// nearest-neighbor and the projection matrix is ignored — the rasterizer
// consumes vertex positions directly in target pixel coordinates, which
// is exactly what the backend's orthographic projection would produce.
type SoftwareDevice struct {
	framebuffers map[FramebufferID]*softFramebuffer
	textures     map[TextureID]*softTexture
	buffers      map[BufferID][]byte
	pipelines    map[PipelineID]VertexLayout
	nextID       uint64

	// Pass state.
	cur       *softFramebuffer
	pipeline  PipelineID
	vbuf      BufferID
	boundTex  TextureID
	scissorOn bool
	scissor   [4]int

	// DrawCalls counts DrawTriangles invocations, for batching tests.
	DrawCalls int
}

type softFramebuffer struct {
	width  int
	height int
	format ink.PixelFormat
	tex    *softTexture
	texID  TextureID
}

type softTexture struct {
	width  int
	height int
	format ink.PixelFormat
	pix    []byte
}

// NewSoftwareDevice returns an empty software device.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{
		framebuffers: make(map[FramebufferID]*softFramebuffer),
		textures:     make(map[TextureID]*softTexture),
		buffers:      make(map[BufferID][]byte),
		pipelines:    make(map[PipelineID]VertexLayout),
	}
}

func (d *SoftwareDevice) nextHandle() uint64 {
	d.nextID++
	return d.nextID
}

// CreateFramebuffer allocates a target and its color attachment texture.
func (d *SoftwareDevice) CreateFramebuffer(width, height int, format ink.PixelFormat) (FramebufferID, TextureID, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, ErrInvalidTarget
	}
	tex := &softTexture{width: width, height: height, format: format, pix: make([]byte, 4*width*height)}
	texID := TextureID(d.nextHandle())
	d.textures[texID] = tex

	fbID := FramebufferID(d.nextHandle())
	d.framebuffers[fbID] = &softFramebuffer{width: width, height: height, format: format, tex: tex, texID: texID}
	return fbID, texID, nil
}

// ResizeFramebuffer discards the attachment contents and reallocates.
func (d *SoftwareDevice) ResizeFramebuffer(fb FramebufferID, width, height int) error {
	f, ok := d.framebuffers[fb]
	if !ok || width <= 0 || height <= 0 {
		return ErrInvalidTarget
	}
	f.width = width
	f.height = height
	f.tex.width = width
	f.tex.height = height
	f.tex.pix = make([]byte, 4*width*height)
	return nil
}

// DestroyFramebuffer releases the framebuffer and its attachment.
func (d *SoftwareDevice) DestroyFramebuffer(fb FramebufferID) {
	if f, ok := d.framebuffers[fb]; ok {
		delete(d.textures, f.texID)
		delete(d.framebuffers, fb)
	}
}

// CompilePipeline records the vertex layout; the software device has no
// shaders to compile.
func (d *SoftwareDevice) CompilePipeline(layout VertexLayout, _, _ string) (PipelineID, error) {
	id := PipelineID(d.nextHandle())
	d.pipelines[id] = layout
	return id, nil
}

// CreateVertexBuffer allocates an empty dynamic buffer.
func (d *SoftwareDevice) CreateVertexBuffer() BufferID {
	id := BufferID(d.nextHandle())
	d.buffers[id] = nil
	return id
}

// UploadBuffer replaces the buffer contents.
func (d *SoftwareDevice) UploadBuffer(buf BufferID, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	d.buffers[buf] = cp
}

// BeginPass selects the render target, optionally clearing it.
func (d *SoftwareDevice) BeginPass(fb FramebufferID, clear *ink.Color) {
	f := d.framebuffers[fb]
	d.cur = f
	d.scissorOn = false
	if f == nil || clear == nil {
		return
	}
	var px [4]byte
	f.format.PutPixel(px[:], *clear)
	pix := f.tex.pix
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], px[:])
	}
}

// EndPass finishes the pass.
func (d *SoftwareDevice) EndPass() {
	d.cur = nil
}

// BindPipeline selects the pipeline for subsequent draws.
func (d *SoftwareDevice) BindPipeline(p PipelineID) {
	d.pipeline = p
}

// BindVertexBuffer selects the vertex stream.
func (d *SoftwareDevice) BindVertexBuffer(buf BufferID) {
	d.vbuf = buf
}

// BindTexture binds the sampled texture. Only unit 0 exists.
func (d *SoftwareDevice) BindTexture(_ int, tex TextureID) {
	d.boundTex = tex
}

// SetProjection is accepted and ignored; see the type comment.
func (d *SoftwareDevice) SetProjection(_ [16]float32) {}

// DrawTriangles rasterizes count vertices from the bound stream.
func (d *SoftwareDevice) DrawTriangles(first, count int) {
	d.DrawCalls++
	if d.cur == nil {
		return
	}
	layout := d.pipelines[d.pipeline]
	floats := layout.Floats()
	data := d.buffers[d.vbuf]

	verts := make([]float32, len(data)/4)
	for i := range verts {
		verts[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}

	for v := first; v+2 < first+count; v += 3 {
		base := v * floats
		if (v+3)*floats > len(verts) {
			return
		}
		d.rasterizeTriangle(layout, verts[base:base+3*floats])
	}
}

// rasterizeTriangle fills one triangle with barycentric interpolation and
// SRC_ALPHA / ONE_MINUS_SRC_ALPHA blending.
func (d *SoftwareDevice) rasterizeTriangle(layout VertexLayout, tri []float32) {
	floats := layout.Floats()
	x0, y0 := tri[0], tri[1]
	x1, y1 := tri[floats], tri[floats+1]
	x2, y2 := tri[2*floats], tri[2*floats+1]

	area := (x1-x0)*(y2-y0) - (y1-y0)*(x2-x0)
	if area == 0 {
		return
	}

	minX := int(minF(x0, minF(x1, x2)))
	maxX := int(maxF(x0, maxF(x1, x2))) + 1
	minY := int(minF(y0, minF(y1, y2)))
	maxY := int(maxF(y0, maxF(y1, y2))) + 1
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > d.cur.width {
		maxX = d.cur.width
	}
	if maxY > d.cur.height {
		maxY = d.cur.height
	}

	for py := minY; py < maxY; py++ {
		for px := minX; px < maxX; px++ {
			if d.scissorOn && !d.inScissor(px, py) {
				continue
			}
			cx := float32(px) + 0.5
			cy := float32(py) + 0.5
			w0 := ((x1-cx)*(y2-cy) - (y1-cy)*(x2-cx)) / area
			w1 := ((x2-cx)*(y0-cy) - (y2-cy)*(x0-cx)) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			src := d.shade(layout, tri, w0, w1, w2)
			d.blendPixel(px, py, src)
		}
	}
}

// shade evaluates the fragment color at the interpolated attributes.
func (d *SoftwareDevice) shade(layout VertexLayout, tri []float32, w0, w1, w2 float32) ink.Color {
	floats := layout.Floats()
	lerp := func(off int) float32 {
		return w0*tri[off] + w1*tri[floats+off] + w2*tri[2*floats+off]
	}

	if layout == LayoutColor {
		return ink.Color{
			R: clamp255(lerp(2) * 255),
			G: clamp255(lerp(3) * 255),
			B: clamp255(lerp(4) * 255),
			A: clamp255(lerp(5) * 255),
		}
	}

	tex := d.textures[d.boundTex]
	if tex == nil {
		return ink.Color{}
	}
	u := lerp(2)
	v := lerp(3)
	tx := int(u * float32(tex.width))
	ty := int(v * float32(tex.height))
	if tx < 0 {
		tx = 0
	}
	if tx >= tex.width {
		tx = tex.width - 1
	}
	if ty < 0 {
		ty = 0
	}
	if ty >= tex.height {
		ty = tex.height - 1
	}
	return tex.format.GetPixel(tex.pix[4*(ty*tex.width+tx):])
}

// blendPixel writes src over the destination pixel with frame blending.
func (d *SoftwareDevice) blendPixel(px, py int, src ink.Color) {
	if src.A == 0 {
		return
	}
	buf := d.cur.tex.pix[4*(py*d.cur.width+px):]
	dst := d.cur.format.GetPixel(buf)
	sa := uint32(src.A)
	da := 255 - sa
	out := ink.Color{
		R: uint8((uint32(src.R)*sa + uint32(dst.R)*da) / 255),
		G: uint8((uint32(src.G)*sa + uint32(dst.G)*da) / 255),
		B: uint8((uint32(src.B)*sa + uint32(dst.B)*da) / 255),
		A: uint8(minU32(255, sa+uint32(dst.A)*da/255)),
	}
	d.cur.format.PutPixel(buf, out)
}

func (d *SoftwareDevice) inScissor(x, y int) bool {
	s := d.scissor
	return x >= s[0] && x < s[0]+s[2] && y >= s[1] && y < s[1]+s[3]
}

// SetScissor sets the scissor rectangle. The software device uses
// top-down window coordinates.
func (d *SoftwareDevice) SetScissor(x, y, width, height int) {
	d.scissor = [4]int{x, y, width, height}
}

// EnableScissor toggles scissor testing.
func (d *SoftwareDevice) EnableScissor(enabled bool) {
	d.scissorOn = enabled
}

// CreateTexture allocates a texture, optionally with initial contents.
// The filter argument is accepted for contract compatibility; sampling is
// always nearest.
func (d *SoftwareDevice) CreateTexture(width, height int, format ink.PixelFormat, pixels []byte, _ TextureFilter) (TextureID, error) {
	if width <= 0 || height <= 0 {
		return 0, ErrTextureAlloc
	}
	tex := &softTexture{width: width, height: height, format: format, pix: make([]byte, 4*width*height)}
	if pixels != nil {
		copy(tex.pix, pixels)
	}
	id := TextureID(d.nextHandle())
	d.textures[id] = tex
	return id, nil
}

// WriteTexture replaces the texture contents.
func (d *SoftwareDevice) WriteTexture(tex TextureID, width, height int, pixels []byte) {
	t := d.textures[tex]
	if t == nil || t.width != width || t.height != height {
		return
	}
	copy(t.pix, pixels)
}

// DeleteTexture releases a texture.
func (d *SoftwareDevice) DeleteTexture(tex TextureID) {
	delete(d.textures, tex)
}

// Blit copies src's color attachment into dst's.
func (d *SoftwareDevice) Blit(src, dst FramebufferID, width, height int) {
	s, d1 := d.framebuffers[src], d.framebuffers[dst]
	if s == nil || d1 == nil {
		return
	}
	rows := height
	if rows > s.height {
		rows = s.height
	}
	if rows > d1.height {
		rows = d1.height
	}
	cols := 4 * width
	for y := 0; y < rows; y++ {
		copy(d1.tex.pix[y*4*d1.width:y*4*d1.width+cols], s.tex.pix[y*4*s.width:])
	}
}

// ReadPixels copies a rectangle of the attachment into dst, top-down.
func (d *SoftwareDevice) ReadPixels(fb FramebufferID, x, y, width, height int, dst []byte) error {
	f := d.framebuffers[fb]
	if f == nil {
		return ErrInvalidTarget
	}
	for row := 0; row < height; row++ {
		srcOff := 4 * ((y+row)*f.width + x)
		copy(dst[row*4*width:(row+1)*4*width], f.tex.pix[srcOff:srcOff+4*width])
	}
	return nil
}

// RowOrder reports top-down rows, matching WebGPU conventions.
func (d *SoftwareDevice) RowOrder() RowOrder {
	return RowOrderTopDown
}

// Flush is immediate on the software device.
func (d *SoftwareDevice) Flush() {}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clamp255(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
