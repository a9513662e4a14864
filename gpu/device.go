package gpu

import (
	"errors"

	"github.com/gogpu/ink"
)

// Device errors.
var (
	// ErrDeviceUnavailable is returned when no usable GPU device exists.
	ErrDeviceUnavailable = errors.New("gpu: no device available")

	// ErrPipelineLink is returned when pipeline compilation fails.
	ErrPipelineLink = errors.New("gpu: pipeline compilation failed")

	// ErrTextureAlloc is returned when a texture cannot be created.
	ErrTextureAlloc = errors.New("gpu: texture allocation failed")

	// ErrInvalidTarget is returned for operations on an invalid target.
	ErrInvalidTarget = errors.New("gpu: invalid render target")
)

// Opaque device resource handles. Zero is never a valid handle.
type (
	// FramebufferID identifies a render target with a color attachment.
	FramebufferID uint64

	// TextureID identifies a 2D texture.
	TextureID uint64

	// BufferID identifies a dynamic vertex buffer.
	BufferID uint64

	// PipelineID identifies a compiled pipeline.
	PipelineID uint64
)

// VertexLayout selects the vertex stream format of a pipeline.
type VertexLayout uint8

const (
	// LayoutColor is interleaved position + RGBA color:
	// x, y, r, g, b, a as float32, stride 24 bytes.
	LayoutColor VertexLayout = iota

	// LayoutTexture is interleaved position + texture coordinates:
	// x, y, u, v as float32, stride 16 bytes.
	LayoutTexture
)

// Stride returns the vertex size in bytes.
func (l VertexLayout) Stride() int {
	if l == LayoutTexture {
		return 16
	}
	return 24
}

// Floats returns the number of float32 components per vertex.
func (l VertexLayout) Floats() int {
	if l == LayoutTexture {
		return 4
	}
	return 6
}

// RowOrder reports how a device returns pixel rows from ReadPixels.
type RowOrder uint8

const (
	// RowOrderTopDown means row 0 is the top of the image.
	RowOrderTopDown RowOrder = iota

	// RowOrderBottomUp means row 0 is the bottom of the image, as in
	// GL-family readbacks.
	RowOrderBottomUp
)

// TextureFilter selects how a texture is sampled.
type TextureFilter uint8

const (
	// FilterLinear interpolates between texels. The default for text and
	// snapshot textures.
	FilterLinear TextureFilter = iota

	// FilterNearest picks the closest texel. The texture cache uses this
	// for CPU-sourced images.
	FilterNearest
)

// Device is the boundary between the batching backend and a concrete GPU
// API. Implementations are single-threaded and must be used from the
// thread on which the underlying context is current.
//
// Draw state (pipeline, vertex buffer, texture, scissor, projection) is
// only valid between BeginPass and EndPass.
type Device interface {
	// CreateFramebuffer allocates a render target of the given size and
	// format and returns the framebuffer handle together with its color
	// attachment texture.
	CreateFramebuffer(width, height int, format ink.PixelFormat) (FramebufferID, TextureID, error)

	// ResizeFramebuffer re-creates the target storage at a new size.
	// Existing contents are discarded.
	ResizeFramebuffer(fb FramebufferID, width, height int) error

	// DestroyFramebuffer releases a framebuffer and its color attachment.
	DestroyFramebuffer(fb FramebufferID)

	// CompilePipeline builds a render pipeline from WGSL vertex and
	// fragment sources with the given vertex stream layout.
	CompilePipeline(layout VertexLayout, vertexSrc, fragmentSrc string) (PipelineID, error)

	// CreateVertexBuffer allocates a dynamic vertex buffer.
	CreateVertexBuffer() BufferID

	// UploadBuffer replaces the buffer contents with data for the draws
	// recorded after this call in the current pass.
	UploadBuffer(buf BufferID, data []byte)

	// BeginPass starts rendering into fb. A non-nil clear color fills the
	// target first; nil preserves its contents.
	BeginPass(fb FramebufferID, clear *ink.Color)

	// EndPass finishes the current pass and submits its work.
	EndPass()

	// BindPipeline selects the pipeline for subsequent draws.
	BindPipeline(p PipelineID)

	// BindVertexBuffer selects the vertex stream for subsequent draws.
	BindVertexBuffer(buf BufferID)

	// BindTexture binds a texture to the given unit for subsequent draws
	// with the texture pipeline.
	BindTexture(slot int, tex TextureID)

	// SetProjection sets the column-major projection matrix uniform.
	SetProjection(m [16]float32)

	// DrawTriangles draws count vertices from the bound vertex stream as
	// a triangle list, starting at first.
	DrawTriangles(first, count int)

	// SetScissor sets the scissor rectangle in the device's window
	// coordinates.
	SetScissor(x, y, width, height int)

	// EnableScissor toggles scissor testing.
	EnableScissor(enabled bool)

	// CreateTexture allocates a 2D texture and, when pixels is non-nil,
	// uploads the initial contents (tightly packed rows in the given
	// format).
	CreateTexture(width, height int, format ink.PixelFormat, pixels []byte, filter TextureFilter) (TextureID, error)

	// WriteTexture replaces the full contents of a texture.
	WriteTexture(tex TextureID, width, height int, pixels []byte)

	// DeleteTexture releases a texture.
	DeleteTexture(tex TextureID)

	// Blit copies the color attachment of src into the color attachment
	// of dst. Both framebuffers must have the given size.
	Blit(src, dst FramebufferID, width, height int)

	// ReadPixels reads a rectangle of the framebuffer's color attachment
	// into dst, 4 bytes per pixel in the framebuffer's format, rows in
	// the order reported by RowOrder.
	ReadPixels(fb FramebufferID, x, y, width, height int, dst []byte) error

	// RowOrder reports the row order of ReadPixels results.
	RowOrder() RowOrder

	// Flush blocks until submitted GPU work completes.
	Flush()
}
