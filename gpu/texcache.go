package gpu

import "github.com/gogpu/ink"

// TextureCache maps CPU image identity to an uploaded GPU texture so each
// image is uploaded at most once per backend lifetime. The cache holds no
// reference to the Image itself, only its id, so client images drop
// independently of the cache.
//
// There is no eviction: entries live until the owning backend closes.
// The CPU images that appear in compositing are small and few.
type TextureCache struct {
	entries map[uint64]TextureID
}

// NewTextureCache returns an empty cache.
func NewTextureCache() *TextureCache {
	return &TextureCache{entries: make(map[uint64]TextureID)}
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int {
	return len(c.entries)
}

// Lookup resolves a CPU-backed image to its uploaded texture, uploading
// on first use. Upload failure returns an error and caches nothing, so a
// later frame may retry.
func (c *TextureCache) Lookup(dev Device, img *ink.Image) (TextureID, error) {
	if tex, ok := c.entries[img.UniqueID()]; ok {
		return tex, nil
	}

	src := img.Pixels()
	if src == nil {
		return 0, ErrTextureAlloc
	}

	tex, err := dev.CreateTexture(src.Width(), src.Height(), src.Format(), tightPixels(src), FilterNearest)
	if err != nil {
		return 0, err
	}
	c.entries[img.UniqueID()] = tex
	return tex, nil
}

// Close deletes every cached texture. The cache is unusable afterwards.
func (c *TextureCache) Close(dev Device) {
	for _, tex := range c.entries {
		dev.DeleteTexture(tex)
	}
	c.entries = nil
}

// tightPixels returns the pixmap's pixels with rows tightly packed, as
// texture uploads expect. Owned pixmaps already are; borrowed ones may
// carry extra row padding.
func tightPixels(p *ink.Pixmap) []byte {
	if p.Stride() == 4*p.Width() {
		return p.Data()
	}
	out := make([]byte, 4*p.Width()*p.Height())
	for y := 0; y < p.Height(); y++ {
		copy(out[y*4*p.Width():], p.Row(y))
	}
	return out
}
