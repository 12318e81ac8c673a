package accum

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/hitaccum/resource"
)

const (
	// minSlab and maxSlab bound the number of aggregates allocated at
	// once. Slabs double from minSlab so small maps stay small.
	minSlab = 16
	maxSlab = 4096

	// aggregateCost approximates the heap bytes one pair costs: the
	// aggregate itself plus its map slot (key, pointer, control bytes).
	aggregateCost = 80
)

// PairKey identifies a (query sequence, target sequence) pair.
type PairKey struct {
	Query  int64
	Target int64
}

// Aggregate holds the statistics of all contributing hits of one pair.
type Aggregate struct {
	Sum   Sum
	Max   float32
	Count uint64
}

func (a *Aggregate) add(q uint64, score float32) {
	a.Sum.AddQuantum(q)
	if a.Count == 0 || score > a.Max {
		a.Max = score
	}
	a.Count++
}

func (a *Aggregate) merge(o *Aggregate) {
	if o.Count == 0 {
		return
	}
	a.Sum.Add(o.Sum)
	if a.Count == 0 || o.Max > a.Max {
		a.Max = o.Max
	}
	a.Count += o.Count
}

// Stats counts what a worker (or a merged set of workers) saw.
type Stats struct {
	Rows        uint64 // query rows visited
	Accepted    uint64 // hits whose adjusted score was positive
	Contributed uint64 // hits folded into an aggregate
	Dropped     uint64 // hits with a non-positive adjusted score
	Padding     uint64 // empty top-K slots
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Rows += o.Rows
	s.Accepted += o.Accepted
	s.Contributed += o.Contributed
	s.Dropped += o.Dropped
	s.Padding += o.Padding
}

// PairMap is a worker-local aggregate table. It is not safe for concurrent
// mutation; each worker owns exactly one.
//
// Aggregates are carved out of slabs so pointers stay stable and the map
// never rehashes values. Every aggregate is charged against the memory
// budget before it is inserted; the charge does not depend on slab size.
type PairMap struct {
	pairs map[PairKey]*Aggregate
	slab  []Aggregate

	budget   *resource.Controller
	reserved int64

	// Queries and Targets hold the sequence ids that appear in at least
	// one aggregate.
	Queries *roaring64.Bitmap
	Targets *roaring64.Bitmap

	Stats Stats
}

// NewPairMap creates an empty map charging the given budget (nil means unlimited).
func NewPairMap(budget *resource.Controller) *PairMap {
	return &PairMap{
		pairs:   make(map[PairKey]*Aggregate),
		budget:  budget,
		Queries: roaring64.New(),
		Targets: roaring64.New(),
	}
}

// Len returns the number of pairs.
func (m *PairMap) Len() int { return len(m.pairs) }

// Get returns the aggregate of key.
func (m *PairMap) Get(key PairKey) (Aggregate, bool) {
	a, ok := m.pairs[key]
	if !ok {
		return Aggregate{}, false
	}
	return *a, true
}

// All iterates over all pairs in unspecified order.
func (m *PairMap) All() iter.Seq2[PairKey, Aggregate] {
	return func(yield func(PairKey, Aggregate) bool) {
		for k, a := range m.pairs {
			if !yield(k, *a) {
				return
			}
		}
	}
}

// Reserved returns the bytes currently charged to the budget.
func (m *PairMap) Reserved() int64 { return m.reserved }

// Release returns the map's reservation to the budget and drops its contents.
func (m *PairMap) Release() {
	if m == nil {
		return
	}
	m.budget.ReleaseMemory(m.reserved)
	m.reserved = 0
	m.pairs = nil
	m.slab = nil
}

// Add folds one quantized hit into the aggregate of key.
func (m *PairMap) Add(key PairKey, q uint64, score float32) error {
	a, ok := m.pairs[key]
	if !ok {
		var err error
		if a, err = m.insert(key); err != nil {
			return err
		}
	}
	a.add(q, score)
	return nil
}

func (m *PairMap) insert(key PairKey) (*Aggregate, error) {
	if !m.budget.TryAcquireMemory(aggregateCost) {
		return nil, ErrMemoryBudget
	}
	m.reserved += aggregateCost

	if len(m.slab) == cap(m.slab) {
		m.slab = make([]Aggregate, 0, nextSlab(cap(m.slab)))
	}
	m.slab = m.slab[:len(m.slab)+1]
	a := &m.slab[len(m.slab)-1]
	m.pairs[key] = a
	m.Queries.Add(uint64(key.Query))
	m.Targets.Add(uint64(key.Target))
	return a, nil
}

func nextSlab(prev int) int {
	if prev < minSlab {
		return minSlab
	}
	return min(prev*2, maxSlab)
}

// absorb merges every aggregate of o into m. o is left untouched.
func (m *PairMap) absorb(o *PairMap) error {
	for k, src := range o.pairs {
		dst, ok := m.pairs[k]
		if !ok {
			var err error
			if dst, err = m.insert(k); err != nil {
				return err
			}
		}
		dst.merge(src)
	}
	m.Queries.Or(o.Queries)
	m.Targets.Or(o.Targets)
	m.Stats.Add(o.Stats)
	return nil
}
