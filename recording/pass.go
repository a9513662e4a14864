package recording

import "sort"

// DrawPass is a deterministic execution order over a Recording. Sorting
// groups ops by clip region first, then by op type and color within each
// group, so backends see "change clip, then run this group" and same-typed
// same-colored ops batch together.
//
// DrawPass is a pure function of the recording: the same recording always
// produces the same SortedIndices.
type DrawPass struct {
	// SortedIndices is a permutation of [0, len(ops)).
	SortedIndices []uint32

	groups int
}

// Sort key layout, most significant field first:
//
//	[63:48] clip group id
//	[47:40] op type
//	[39:8]  packed color
//	[7:0]   sequence within group
//
// The clip group id occupies the top bits so ops never cross a clip
// boundary. Clip ops carry the lowest type values (see OpType), placing
// them at the start of the group they open. The sequence byte is a stable
// tiebreak preserving insertion order inside a color run; it wraps at 256,
// so a group with more than 256 ops does not keep strict insertion order
// among ops of the same type and color.
const (
	keyGroupShift = 48
	keyTypeShift  = 40
	keyColorShift = 8
)

// NewDrawPass computes the sorted execution order for rec. Sorting runs
// even when the recording contains no clips; the cost is one O(n log n)
// pass over small keys.
func NewDrawPass(rec *Recording) *DrawPass {
	ops := rec.Ops()
	keys := make([]uint64, len(ops))
	indices := make([]uint32, len(ops))

	var group uint16
	var seq uint8
	for i := range ops {
		op := &ops[i]
		if op.Type == OpSetClip || op.Type == OpClearClip {
			// A clip op opens a new group and belongs to it.
			group++
			seq = 0
		}
		keys[i] = uint64(group)<<keyGroupShift |
			uint64(op.Type)<<keyTypeShift |
			uint64(op.Color.Packed())<<keyColorShift |
			uint64(seq)
		indices[i] = uint32(i)
		seq++
	}

	sort.Slice(indices, func(a, b int) bool {
		return keys[indices[a]] < keys[indices[b]]
	})

	return &DrawPass{SortedIndices: indices, groups: int(group) + 1}
}

// ClipGroups returns the number of clip groups in the pass, counting the
// implicit unclipped group 0.
func (p *DrawPass) ClipGroups() int {
	return p.groups
}
