package result

import (
	"cmp"
	"slices"

	"github.com/hupe1980/hitaccum/accum"
)

// Record is one output row.
type Record struct {
	Query  int64
	Target int64
	Sum    float64
	Max    float32
	Count  uint64
}

type entry struct {
	key accum.PairKey
	agg accum.Aggregate
}

// Sort returns the records of m in output order. The comparison uses the
// exact sums, so pairs whose float64 sums print identically still order
// deterministically.
func Sort(m *accum.PairMap) []Record {
	entries := make([]entry, 0, m.Len())
	for k, a := range m.All() {
		if a.Count == 0 {
			continue
		}
		entries = append(entries, entry{key: k, agg: a})
	}

	slices.SortFunc(entries, compareEntries)

	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{
			Query:  e.key.Query,
			Target: e.key.Target,
			Sum:    e.agg.Sum.Float64(),
			Max:    e.agg.Max,
			Count:  e.agg.Count,
		}
	}
	return records
}

func compareEntries(a, b entry) int {
	if c := cmp.Compare(a.key.Query, b.key.Query); c != 0 {
		return c
	}
	if c := b.agg.Sum.Cmp(a.agg.Sum); c != 0 {
		return c
	}
	return cmp.Compare(a.key.Target, b.key.Target)
}
