package gpu

import (
	"fmt"
	"math"

	"github.com/gogpu/ink"
	"github.com/gogpu/ink/recording"
	"github.com/gogpu/ink/text"
)

// Compile-time interface check.
var _ recording.Visitor = (*Backend)(nil)

// minLineLength is the shortest line the quad expansion renders; anything
// shorter is dropped to avoid a degenerate normal.
const minLineLength = 1e-4

// Backend replays sorted draw passes through a Device, batching color
// geometry into as few draw calls as the pass allows. A batch flushes
// when the op stream switches pipelines (text and image ops bind
// textures), when the clip changes, and at the end of the pass.
//
// Backend is not safe for concurrent use, and at most one backend may
// drive a given device at a time.
type Backend struct {
	dev    Device
	width  int
	height int
	format ink.PixelFormat

	fb    FramebufferID
	fbTex TextureID

	colorPipe PipelineID
	texPipe   PipelineID
	colorBuf  BufferID
	texBuf    BufferID

	// CPU-side vertex accumulators, uploaded per batch.
	colorVerts []float32
	texVerts   []float32

	// Scratch texture reused for text uploads; re-created whenever the
	// rendered string's size differs from it.
	tempTex  TextureID
	tempW    int
	tempH    int

	cache *TextureCache

	atlas       *text.GlyphAtlas
	atlasWarned bool

	inFrame bool
}

// NewBackend creates a GPU backend with a fresh offscreen target of the
// given size. Pipeline or target creation failure returns an error; the
// caller (normally a Surface factory) falls back to the software backend.
func NewBackend(dev Device, width, height int, format ink.PixelFormat) (*Backend, error) {
	if dev == nil {
		return nil, ErrDeviceUnavailable
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidTarget
	}

	fb, fbTex, err := dev.CreateFramebuffer(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("gpu: create target: %w", err)
	}

	colorPipe, err := dev.CompilePipeline(LayoutColor, colorShaderSource, colorShaderSource)
	if err != nil {
		dev.DestroyFramebuffer(fb)
		return nil, fmt.Errorf("%w: color pipeline: %w", ErrPipelineLink, err)
	}
	texPipe, err := dev.CompilePipeline(LayoutTexture, textureShaderSource, textureShaderSource)
	if err != nil {
		dev.DestroyFramebuffer(fb)
		return nil, fmt.Errorf("%w: texture pipeline: %w", ErrPipelineLink, err)
	}

	return &Backend{
		dev:       dev,
		width:     width,
		height:    height,
		format:    format,
		fb:        fb,
		fbTex:     fbTex,
		colorPipe: colorPipe,
		texPipe:   texPipe,
		colorBuf:  dev.CreateVertexBuffer(),
		texBuf:    dev.CreateVertexBuffer(),
		cache:     NewTextureCache(),
	}, nil
}

// Device returns the device the backend draws through.
func (b *Backend) Device() Device {
	return b.dev
}

// Cache returns the backend's CPU-image texture cache.
func (b *Backend) Cache() *TextureCache {
	return b.cache
}

// SetGlyphAtlas installs the atlas used by text ops.
func (b *Backend) SetGlyphAtlas(a *text.GlyphAtlas) {
	b.atlas = a
}

// BeginFrame starts a pass over the target, clearing it with the given
// color.
func (b *Backend) BeginFrame(clear ink.Color) {
	b.dev.BeginPass(b.fb, &clear)
	b.dev.EnableScissor(false)
	b.atlasWarned = false
	b.inFrame = true
}

// EndFrame flushes any pending batch, ends the pass, and waits for the
// device to finish the frame's work.
func (b *Backend) EndFrame() {
	if !b.inFrame {
		return
	}
	b.flushColor()
	b.dev.EnableScissor(false)
	b.dev.EndPass()
	b.dev.Flush()
	b.inFrame = false
}

// Execute replays rec in pass order. Must be called between BeginFrame
// and EndFrame.
func (b *Backend) Execute(rec *recording.Recording, pass *recording.DrawPass) {
	if !b.inFrame {
		return
	}
	rec.Dispatch(b, pass)
	b.flushColor()
}

// Resize re-creates the target storage at the new size.
func (b *Backend) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if err := b.dev.ResizeFramebuffer(b.fb, width, height); err != nil {
		ink.Logger().Warn("gpu: resize failed", "error", err)
		return
	}
	b.width = width
	b.height = height
}

// MakeSnapshot blits the current target into a fresh texture and wraps it
// in an immutable Image. The texture is released when the last holder of
// the image closes it. Returns nil when the blit target cannot be
// allocated.
func (b *Backend) MakeSnapshot() *ink.Image {
	dev := b.dev
	snapFB, snapTex, err := dev.CreateFramebuffer(b.width, b.height, b.format)
	if err != nil {
		ink.Logger().Warn("gpu: snapshot allocation failed", "error", err)
		return nil
	}
	dev.Blit(b.fb, snapFB, b.width, b.height)
	token := ink.NewReleaseToken(func() {
		dev.DestroyFramebuffer(snapFB)
	})
	return ink.ImageFromTexture(uint64(snapTex), b.width, b.height, b.format, token)
}

// Close flushes the texture cache and releases the target.
func (b *Backend) Close() {
	b.cache.Close(b.dev)
	if b.tempTex != 0 {
		b.dev.DeleteTexture(b.tempTex)
		b.tempTex = 0
	}
	b.dev.DestroyFramebuffer(b.fb)
}

// --------------------------------------------------------------------------
// Batch flushing
// --------------------------------------------------------------------------

// flushColor uploads the pending color batch and issues one triangle-list
// draw. A no-op when the batch is empty.
func (b *Backend) flushColor() {
	if len(b.colorVerts) == 0 {
		return
	}
	b.dev.UploadBuffer(b.colorBuf, vertexBytes(b.colorVerts))
	b.dev.BindPipeline(b.colorPipe)
	b.dev.SetProjection(orthoProjection(b.width, b.height))
	b.dev.BindVertexBuffer(b.colorBuf)
	b.dev.DrawTriangles(0, len(b.colorVerts)/LayoutColor.Floats())
	b.colorVerts = b.colorVerts[:0]
}

// flushTextured uploads the pending textured batch and draws it with tex
// bound to unit 0. A no-op when the batch is empty.
func (b *Backend) flushTextured(tex TextureID) {
	if len(b.texVerts) == 0 {
		return
	}
	b.dev.UploadBuffer(b.texBuf, vertexBytes(b.texVerts))
	b.dev.BindPipeline(b.texPipe)
	b.dev.SetProjection(orthoProjection(b.width, b.height))
	b.dev.BindTexture(0, tex)
	b.dev.BindVertexBuffer(b.texBuf)
	b.dev.DrawTriangles(0, len(b.texVerts)/LayoutTexture.Floats())
	b.texVerts = b.texVerts[:0]
}

// --------------------------------------------------------------------------
// Visitor
// --------------------------------------------------------------------------

// FillRect pushes two triangles into the color batch.
func (b *Backend) FillRect(rect ink.Rect, c ink.Color) {
	b.colorVerts = pushColorQuad(b.colorVerts, rect, c)
}

// StrokeRect pushes four thin rectangles, one per edge. Corners overlap
// by one stroke width.
func (b *Backend) StrokeRect(rect ink.Rect, c ink.Color, width float32) {
	if width <= 0 {
		width = 1
	}
	b.colorVerts = pushColorQuad(b.colorVerts, ink.NewRect(rect.X, rect.Y, rect.W, width), c)
	b.colorVerts = pushColorQuad(b.colorVerts, ink.NewRect(rect.X, rect.Bottom()-width, rect.W, width), c)
	b.colorVerts = pushColorQuad(b.colorVerts, ink.NewRect(rect.X, rect.Y, width, rect.H), c)
	b.colorVerts = pushColorQuad(b.colorVerts, ink.NewRect(rect.Right()-width, rect.Y, width, rect.H), c)
}

// Line expands the segment into a quad along the perpendicular normal.
// Segments shorter than the degeneracy threshold are dropped.
func (b *Backend) Line(p1, p2 ink.Point, c ink.Color, width float32) {
	if width <= 0 {
		width = 1
	}
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length < minLineLength {
		return
	}
	nx := -dy / length * width / 2
	ny := dx / length * width / 2

	verts := b.colorVerts
	verts = pushColorVertex(verts, p1.X+nx, p1.Y+ny, c)
	verts = pushColorVertex(verts, p2.X+nx, p2.Y+ny, c)
	verts = pushColorVertex(verts, p2.X-nx, p2.Y-ny, c)
	verts = pushColorVertex(verts, p1.X+nx, p1.Y+ny, c)
	verts = pushColorVertex(verts, p2.X-nx, p2.Y-ny, c)
	verts = pushColorVertex(verts, p1.X-nx, p1.Y-ny, c)
	b.colorVerts = verts
}

// Polyline expands each segment as Line. Caps and joins are not rendered.
func (b *Backend) Polyline(pts []ink.Point, c ink.Color, width float32) {
	for i := 0; i+1 < len(pts); i++ {
		b.Line(pts[i], pts[i+1], c, width)
	}
}

// Text rasterizes the string through the glyph atlas into a scratch
// texture and draws it as one textured quad with its top at
// baseline - line height.
func (b *Backend) Text(pos ink.Point, s string, c ink.Color) {
	if b.atlas == nil {
		if !b.atlasWarned {
			ink.Logger().Warn("text op skipped: no glyph atlas installed")
			b.atlasWarned = true
		}
		return
	}

	pm := b.atlas.RenderToPixmap(s, c, ink.FormatRGBA8888)
	if pm == nil {
		return
	}

	b.flushColor()
	if !b.ensureTempTexture(pm) {
		return
	}

	quad := ink.NewRect(pos.X, pos.Y-b.atlas.LineHeight(), float32(pm.Width()), float32(pm.Height()))
	b.texVerts = pushTexQuad(b.texVerts, quad, 0, 0, 1, 1)
	b.flushTextured(b.tempTex)
}

// ensureTempTexture uploads pm into the scratch texture, re-creating it
// when the size changed.
func (b *Backend) ensureTempTexture(pm *ink.Pixmap) bool {
	if b.tempTex != 0 && pm.Width() == b.tempW && pm.Height() == b.tempH {
		b.dev.WriteTexture(b.tempTex, pm.Width(), pm.Height(), pm.Data())
		return true
	}
	if b.tempTex != 0 {
		b.dev.DeleteTexture(b.tempTex)
		b.tempTex = 0
	}
	tex, err := b.dev.CreateTexture(pm.Width(), pm.Height(), ink.FormatRGBA8888, pm.Data(), FilterLinear)
	if err != nil {
		ink.Logger().Warn("gpu: text scratch texture failed", "error", err)
		return false
	}
	b.tempTex = tex
	b.tempW = pm.Width()
	b.tempH = pm.Height()
	return true
}

// DrawImage resolves the image to a texture — GPU-backed images bring
// their own, CPU-backed ones go through the texture cache — and draws one
// textured quad. Upload failure skips the op, leaving the destination
// unchanged.
func (b *Backend) DrawImage(img *ink.Image, x, y float32) {
	b.flushColor()

	var tex TextureID
	if img.GPUBacked() {
		tex = TextureID(img.TextureHandle())
	} else {
		var err error
		tex, err = b.cache.Lookup(b.dev, img)
		if err != nil {
			ink.Logger().Warn("gpu: image upload failed, op skipped", "image", img.UniqueID(), "error", err)
			return
		}
	}

	quad := ink.NewRect(x, y, float32(img.Width()), float32(img.Height()))
	b.texVerts = pushTexQuad(b.texVerts, quad, 0, 0, 1, 1)
	b.flushTextured(tex)
}

// SetClip flushes the pending batch and enables the hardware scissor.
// The rectangle's origin is flipped for devices with bottom-up readback
// conventions.
func (b *Backend) SetClip(rect ink.Rect) {
	b.flushColor()
	x := int(rect.X)
	y := int(rect.Y)
	w := int(rect.W)
	h := int(rect.H)
	if b.dev.RowOrder() == RowOrderBottomUp {
		y = b.height - (y + h)
	}
	b.dev.SetScissor(x, y, w, h)
	b.dev.EnableScissor(true)
}

// ClearClip flushes the pending batch and disables the scissor.
func (b *Backend) ClearClip() {
	b.flushColor()
	b.dev.EnableScissor(false)
}
