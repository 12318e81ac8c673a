package workload

import (
	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/boundary"
)

// Reference accumulates hits sequentially with a plain map. It is the
// brute-force oracle the parallel engine is tested against.
func Reference(hits accum.Hits, query, target boundary.Index, bias float32, mode accum.Mode) (map[accum.PairKey]accum.Aggregate, error) {
	out := make(map[accum.PairKey]accum.Aggregate)
	filter := accum.Filter{Bias: bias}

	for row := range hits.Rows {
		qseq, ok := query.Resolve(int64(row))
		if !ok {
			return nil, &accum.OutOfRangeError{Side: "query", Row: row, Index: int64(row), Limit: query.Len()}
		}
		scores, indices := hits.Row(row)

		// best holds the per-row winner of each target in ModeBestPerRow.
		best := make(map[int64]float32)
		for col, idx := range indices {
			if idx == accum.PaddingIndex {
				continue
			}
			tseq, ok := target.Resolve(idx)
			if !ok {
				return nil, &accum.OutOfRangeError{Side: "target", Row: row, Col: col, Index: idx, Limit: target.Len()}
			}
			adjusted, accepted := filter.Apply(scores[col])
			if !accepted {
				continue
			}
			if mode == accum.ModeBestPerRow {
				if cur, seen := best[tseq]; !seen || adjusted > cur {
					best[tseq] = adjusted
				}
				continue
			}
			fold(out, accum.PairKey{Query: qseq, Target: tseq}, adjusted)
		}
		for tseq, score := range best {
			fold(out, accum.PairKey{Query: qseq, Target: tseq}, score)
		}
	}
	return out, nil
}

func fold(out map[accum.PairKey]accum.Aggregate, key accum.PairKey, score float32) {
	a := out[key]
	q, _ := accum.Quantize(score)
	a.Sum.AddQuantum(q)
	if a.Count == 0 || score > a.Max {
		a.Max = score
	}
	a.Count++
	out[key] = a
}

// ShuffleWithinRows returns a copy of hits with the columns of every row
// permuted.
func ShuffleWithinRows(hits accum.Hits, rng *RNG) accum.Hits {
	out := accum.Hits{
		Scores:  make([]float32, len(hits.Scores)),
		Indices: make([]int64, len(hits.Indices)),
		Rows:    hits.Rows,
		K:       hits.K,
	}
	for row := range hits.Rows {
		scores, indices := hits.Row(row)
		perm := rng.Perm(hits.K)
		base := row * hits.K
		for dst, src := range perm {
			out.Scores[base+dst] = scores[src]
			out.Indices[base+dst] = indices[src]
		}
	}
	return out
}
