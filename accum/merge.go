package accum

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Merge reduces worker maps into one map.
//
// Maps are combined pairwise in rounds (0+1, 2+3, ... then 0+2, ...), each
// round in parallel, always folding the smaller map into the larger one.
// Because the combine is associative and commutative the result does not
// depend on the tree shape. Inputs are consumed: absorbed maps are released
// and must not be used afterwards. On error every input map is released.
func Merge(ctx context.Context, maps []*PairMap) (*PairMap, error) {
	live := make([]*PairMap, 0, len(maps))
	for _, m := range maps {
		if m != nil {
			live = append(live, m)
		}
	}
	if len(live) == 0 {
		return NewPairMap(nil), nil
	}

	for stride := 1; stride < len(live); stride *= 2 {
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i+stride < len(live); i += 2 * stride {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				merged, err := mergePair(live[i], live[i+stride])
				if err != nil {
					return err
				}
				live[i] = merged
				live[i+stride] = nil
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			for _, m := range live {
				m.Release()
			}
			return nil, err
		}
	}
	return live[0], nil
}

func mergePair(a, b *PairMap) (*PairMap, error) {
	if b.Len() > a.Len() {
		a, b = b, a
	}
	if err := a.absorb(b); err != nil {
		return nil, err
	}
	b.Release()
	return a, nil
}
