package boundary

// Explicit is an Index backed by one sequence id per embedding.
type Explicit struct {
	ids    []int64
	numSeq int64
}

var _ Index = (*Explicit)(nil)

// NewExplicit validates that every id is non-negative and returns an
// Explicit index. The slice is retained, not copied.
func NewExplicit(ids []int64) (*Explicit, error) {
	var maxID int64 = -1
	for i, id := range ids {
		if id < 0 {
			return nil, &ValidationError{Kind: KindExplicit, Position: i, Value: id, Reason: "sequence ids must be non-negative"}
		}
		if id > maxID {
			maxID = id
		}
	}
	return &Explicit{ids: ids, numSeq: maxID + 1}, nil
}

// Resolve returns ids[ordinal].
func (e *Explicit) Resolve(ordinal int64) (int64, bool) {
	if ordinal < 0 || ordinal >= int64(len(e.ids)) {
		return 0, false
	}
	return e.ids[ordinal], true
}

// Len returns the number of embeddings.
func (e *Explicit) Len() int64 { return int64(len(e.ids)) }

// NumSequences returns max id + 1.
func (e *Explicit) NumSequences() int64 { return e.numSeq }

// Kind returns KindExplicit.
func (e *Explicit) Kind() Kind { return KindExplicit }
