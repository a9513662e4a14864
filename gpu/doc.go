// Package gpu is ink's hardware backend. It replays sorted draw passes as
// batched triangle lists: color geometry accumulates in a CPU-side vertex
// array until a pipeline switch, texture bind, or clip change forces a
// flush, which uploads the batch and issues one draw call.
//
// The backend talks to the hardware through the small Device interface.
// Two implementations ship with the package: HALDevice drives a real GPU
// through gogpu/wgpu's hardware abstraction layer (build tag !nogpu), and
// SoftwareDevice is a self-contained in-memory rasterizer used by tests
// and as a reference for the device contract.
//
// CPU-sourced images are uploaded once per backend lifetime and cached in
// a TextureCache keyed by image id. Surface snapshots blit the current
// color attachment into a fresh texture wrapped in an Image whose release
// token frees the texture with the last holder.
package gpu
