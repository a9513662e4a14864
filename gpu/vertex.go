package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/ink"
)

// pushColorVertex appends one LayoutColor vertex to verts.
func pushColorVertex(verts []float32, x, y float32, c ink.Color) []float32 {
	return append(verts,
		x, y,
		float32(c.R)/255,
		float32(c.G)/255,
		float32(c.B)/255,
		float32(c.A)/255,
	)
}

// pushColorQuad appends two triangles covering the rectangle in
// triangle-list order.
func pushColorQuad(verts []float32, r ink.Rect, c ink.Color) []float32 {
	x0, y0 := r.X, r.Y
	x1, y1 := r.Right(), r.Bottom()
	verts = pushColorVertex(verts, x0, y0, c)
	verts = pushColorVertex(verts, x1, y0, c)
	verts = pushColorVertex(verts, x1, y1, c)
	verts = pushColorVertex(verts, x0, y0, c)
	verts = pushColorVertex(verts, x1, y1, c)
	verts = pushColorVertex(verts, x0, y1, c)
	return verts
}

// pushTexQuad appends two textured triangles covering the rectangle with
// the given texture coordinates.
func pushTexQuad(verts []float32, r ink.Rect, u0, v0, u1, v1 float32) []float32 {
	x0, y0 := r.X, r.Y
	x1, y1 := r.Right(), r.Bottom()
	verts = append(verts, x0, y0, u0, v0)
	verts = append(verts, x1, y0, u1, v0)
	verts = append(verts, x1, y1, u1, v1)
	verts = append(verts, x0, y0, u0, v0)
	verts = append(verts, x1, y1, u1, v1)
	verts = append(verts, x0, y1, u0, v1)
	return verts
}

// orthoProjection returns the column-major orthographic projection that
// maps target pixels with a top-left origin to normalized device
// coordinates with Y flipped.
func orthoProjection(width, height int) [16]float32 {
	var m [16]float32
	m[0] = 2 / float32(width)
	m[5] = -2 / float32(height)
	m[10] = -1
	m[12] = -1
	m[13] = 1
	m[15] = 1
	return m
}

// vertexBytes encodes a float32 vertex stream as little-endian bytes for
// a buffer upload.
func vertexBytes(verts []float32) []byte {
	out := make([]byte, 4*len(verts))
	for i, v := range verts {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}
