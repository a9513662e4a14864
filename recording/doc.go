// Package recording implements the compact draw-command model at the core
// of ink's record, sort, execute pipeline.
//
// A Recorder appends fixed-size draw ops to a growing list; variable-length
// payloads (polyline points, text bytes) live in a byte Arena addressed by
// offset and count, and images are indexed through a shared reference
// table. Finish seals the recorder state into an immutable Recording.
//
// A Recording replays through the Visitor interface: Accept visits ops in
// insertion order, Dispatch visits them in the order chosen by a DrawPass.
// Dispatch is the single choke point every backend uses; fan-out is by
// visitor method over a closed set of op types, not by op subtype.
//
// The DrawPass sorts a recording by (clip group, op type, color, sequence)
// so that operations never cross clip boundaries, same-typed same-colored
// operations batch together, and clip changes always lead the group they
// open.
package recording
