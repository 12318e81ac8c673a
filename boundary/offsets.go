package boundary

import "sort"

// Offsets is an Index backed by sorted start offsets.
type Offsets struct {
	starts []int64
}

var _ Index = (*Offsets)(nil)

// NewOffsets validates starts and returns an Offsets index.
//
// starts must be non-empty, begin with 0 and be non-decreasing. The final
// entry is the total embedding count; equal neighbours denote empty
// sequences, which never resolve. The slice is retained, not copied.
func NewOffsets(starts []int64) (*Offsets, error) {
	if len(starts) == 0 {
		return nil, &ValidationError{Kind: KindOffsets, Position: -1, Reason: "no offsets"}
	}
	if starts[0] != 0 {
		return nil, &ValidationError{Kind: KindOffsets, Position: 0, Value: starts[0], Reason: "first offset must be 0"}
	}
	for i := 1; i < len(starts); i++ {
		if starts[i] < starts[i-1] {
			return nil, &ValidationError{Kind: KindOffsets, Position: i, Value: starts[i], Reason: "offsets must be non-decreasing"}
		}
	}
	return &Offsets{starts: starts}, nil
}

// FromStarts accepts the start-only form, where the terminal total is not
// part of the array, and appends total.
func FromStarts(starts []int64, total int64) (*Offsets, error) {
	if len(starts) > 0 && total < starts[len(starts)-1] {
		return nil, &ValidationError{Kind: KindOffsets, Position: len(starts), Value: total, Reason: "total is smaller than the last start offset"}
	}
	full := make([]int64, len(starts)+1)
	copy(full, starts)
	full[len(starts)] = total
	return NewOffsets(full)
}

// Resolve returns the sequence whose range contains ordinal.
func (o *Offsets) Resolve(ordinal int64) (int64, bool) {
	if ordinal < 0 || ordinal >= o.Len() {
		return 0, false
	}
	// First i whose end offset lies beyond ordinal; skips empty ranges.
	i := sort.Search(len(o.starts)-1, func(i int) bool {
		return o.starts[i+1] > ordinal
	})
	return int64(i), true
}

// Len returns the total embedding count.
func (o *Offsets) Len() int64 { return o.starts[len(o.starts)-1] }

// NumSequences returns the number of ranges, including empty ones.
func (o *Offsets) NumSequences() int64 { return int64(len(o.starts) - 1) }

// Kind returns KindOffsets.
func (o *Offsets) Kind() Kind { return KindOffsets }

// Range returns the embedding range [start, end) owned by seq.
func (o *Offsets) Range(seq int64) (start, end int64, ok bool) {
	if seq < 0 || seq >= o.NumSequences() {
		return 0, 0, false
	}
	return o.starts[seq], o.starts[seq+1], true
}
