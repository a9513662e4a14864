package ink

import "sync/atomic"

// imageIDCounter issues process-unique image identifiers.
var imageIDCounter atomic.Uint64

// ReleaseToken is a shared lifetime holder for a GPU resource backing one
// or more images. Every holder calls Release exactly once; when the last
// reference is released the destructor runs and frees the resource.
type ReleaseToken struct {
	refs    atomic.Int32
	destroy func()
}

// NewReleaseToken returns a token with a single reference whose destructor
// runs when the reference count reaches zero.
func NewReleaseToken(destroy func()) *ReleaseToken {
	t := &ReleaseToken{destroy: destroy}
	t.refs.Store(1)
	return t
}

// Retain adds a reference for an additional holder.
func (t *ReleaseToken) Retain() {
	t.refs.Add(1)
}

// Release drops one reference. The destructor runs when the count reaches
// zero; further calls are no-ops.
func (t *ReleaseToken) Release() {
	if t.refs.Add(-1) == 0 && t.destroy != nil {
		t.destroy()
	}
}

// Image is an immutable snapshot of pixel content. The storage is either a
// CPU pixmap (owned copy or caller-borrowed pixels) or an opaque GPU
// texture handle paired with a ReleaseToken that frees the texture when
// the last holder drops it.
//
// Images are shared by reference; the pixel contents must never be
// mutated. UniqueID is stable for the image's lifetime and keys the GPU
// backend's texture cache.
type Image struct {
	id     uint64
	width  int
	height int
	format PixelFormat

	// CPU storage. pix is nil for GPU-backed images.
	pix *Pixmap

	// GPU storage. handle is 0 for CPU-backed images.
	handle  uint64
	release *ReleaseToken

	closed atomic.Bool
}

// ImageFromPixmap deep-copies src into a fresh owned pixmap and wraps it.
// Returns nil if src is nil or invalid.
func ImageFromPixmap(src *Pixmap) *Image {
	if src == nil || !src.Info().Valid() {
		return nil
	}
	return &Image{
		id:     imageIDCounter.Add(1),
		width:  src.Width(),
		height: src.Height(),
		format: src.Format(),
		pix:    src.Clone(),
	}
}

// WrapPixmapImage records src's pixels without copying. The caller must
// keep src alive and unchanged for the image's lifetime. Returns nil if
// src is nil or invalid.
func WrapPixmapImage(src *Pixmap) *Image {
	if src == nil || !src.Info().Valid() {
		return nil
	}
	return &Image{
		id:     imageIDCounter.Add(1),
		width:  src.Width(),
		height: src.Height(),
		format: src.Format(),
		pix:    src,
	}
}

// ImageFromTexture adopts an opaque GPU texture handle. The release token
// carries the destructor that frees the texture; it may be shared with
// other holders. Returns nil for a zero handle or non-positive size.
func ImageFromTexture(handle uint64, width, height int, format PixelFormat, release *ReleaseToken) *Image {
	if handle == 0 || width <= 0 || height <= 0 {
		return nil
	}
	return &Image{
		id:      imageIDCounter.Add(1),
		width:   width,
		height:  height,
		format:  format,
		handle:  handle,
		release: release,
	}
}

// UniqueID returns the process-unique, monotonically increasing image id.
func (im *Image) UniqueID() uint64 {
	return im.id
}

// Width returns the image width in pixels.
func (im *Image) Width() int {
	return im.width
}

// Height returns the image height in pixels.
func (im *Image) Height() int {
	return im.height
}

// Format returns the pixel format of the image content.
func (im *Image) Format() PixelFormat {
	return im.format
}

// Pixels returns the CPU pixmap backing the image, or nil for GPU-backed
// images. The returned pixmap must not be mutated.
func (im *Image) Pixels() *Pixmap {
	return im.pix
}

// TextureHandle returns the opaque GPU texture handle, or 0 for CPU-backed
// images.
func (im *Image) TextureHandle() uint64 {
	return im.handle
}

// GPUBacked reports whether the image's storage lives on the GPU.
func (im *Image) GPUBacked() bool {
	return im.handle != 0
}

// Valid reports whether the image has usable storage.
func (im *Image) Valid() bool {
	if im == nil || im.width <= 0 || im.height <= 0 {
		return false
	}
	if im.handle != 0 {
		return true
	}
	return im.pix != nil
}

// Close releases the image's share of the underlying GPU texture, if any.
// Close is idempotent. CPU-backed images have nothing to release.
func (im *Image) Close() {
	if im == nil || !im.closed.CompareAndSwap(false, true) {
		return
	}
	if im.release != nil {
		im.release.Release()
	}
}
