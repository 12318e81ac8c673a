package accum

import "github.com/hupe1980/hitaccum/boundary"

// PaddingIndex marks an empty slot in a top-K row. FAISS emits it when a
// search finds fewer than K neighbours; such slots are skipped.
const PaddingIndex int64 = -1

// Hits is a dense, row-major top-K result: row r holds the K candidate
// target embeddings of query embedding r and their raw scores.
type Hits struct {
	Scores  []float32
	Indices []int64
	Rows    int
	K       int
}

// NewHits wraps flat score and index slices with a row count. K is derived
// from the slice length.
func NewHits(scores []float32, indices []int64, rows int) (Hits, error) {
	h := Hits{Scores: scores, Indices: indices, Rows: rows}
	if rows > 0 {
		h.K = len(scores) / rows
	}
	return h, h.Validate()
}

// FromRows builds Hits from per-row slices. Every row must have the same length.
func FromRows(scores [][]float32, indices [][]int64) (Hits, error) {
	if len(scores) != len(indices) {
		return Hits{}, &ShapeError{Field: "rows", Got: len(indices), Want: len(scores), Reason: "score and index row counts differ"}
	}
	if len(scores) == 0 {
		return Hits{}, nil
	}
	k := len(scores[0])
	h := Hits{
		Scores:  make([]float32, 0, len(scores)*k),
		Indices: make([]int64, 0, len(scores)*k),
		Rows:    len(scores),
		K:       k,
	}
	for r := range scores {
		if len(scores[r]) != k || len(indices[r]) != k {
			return Hits{}, &ShapeError{Field: "row length", Got: len(indices[r]), Want: k, Reason: "rows must all have K columns"}
		}
		h.Scores = append(h.Scores, scores[r]...)
		h.Indices = append(h.Indices, indices[r]...)
	}
	return h, nil
}

// Validate checks the matrix shape.
func (h Hits) Validate() error {
	if h.Rows < 0 {
		return &ShapeError{Field: "rows", Got: h.Rows, Want: 0, Reason: "must be non-negative"}
	}
	if h.Rows > 0 && h.K < 1 {
		return &ShapeError{Field: "k", Got: h.K, Want: 1, Reason: "must be positive"}
	}
	want := h.Rows * h.K
	if len(h.Scores) != want {
		return &ShapeError{Field: "scores", Got: len(h.Scores), Want: want, Reason: "length must be rows*k"}
	}
	if len(h.Indices) != want {
		return &ShapeError{Field: "indices", Got: len(h.Indices), Want: want, Reason: "length must match scores"}
	}
	return nil
}

// Row returns the scores and indices of row r.
func (h Hits) Row(r int) ([]float32, []int64) {
	lo := r * h.K
	hi := lo + h.K
	return h.Scores[lo:hi:hi], h.Indices[lo:hi:hi]
}

// validateCall checks everything that can be rejected before work starts.
func validateCall(h Hits, query, target boundary.Index, workers int) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if workers < 1 {
		return &ShapeError{Field: "workers", Got: workers, Want: 1, Reason: "must be at least 1"}
	}
	if query == nil || target == nil {
		return &ShapeError{Field: "boundary", Reason: "query and target boundary indexes are required"}
	}
	if int64(h.Rows) > query.Len() {
		return &ShapeError{Field: "rows", Got: h.Rows, Want: int(query.Len()), Reason: "more query rows than query embeddings"}
	}
	return nil
}
