package accum

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/hitaccum/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addScore(t *testing.T, m *PairMap, q, tgt int64, score float32) {
	t.Helper()
	quantum, ok := Quantize(score)
	require.True(t, ok)
	require.NoError(t, m.Add(PairKey{Query: q, Target: tgt}, quantum, score))
}

func TestPairMap_Add(t *testing.T) {
	m := NewPairMap(nil)
	addScore(t, m, 0, 1, 0.25)
	addScore(t, m, 0, 1, 0.5)
	addScore(t, m, 2, 3, 0.125)

	assert.Equal(t, 2, m.Len())

	a, ok := m.Get(PairKey{Query: 0, Target: 1})
	require.True(t, ok)
	assert.Equal(t, uint64(2), a.Count)
	assert.Equal(t, float32(0.5), a.Max)
	assert.Equal(t, 0.75, a.Sum.Float64())

	_, ok = m.Get(PairKey{Query: 1, Target: 1})
	assert.False(t, ok)

	assert.Equal(t, []uint64{0, 2}, m.Queries.ToArray())
	assert.Equal(t, []uint64{1, 3}, m.Targets.ToArray())
}

func TestPairMap_SlabsStayValid(t *testing.T) {
	m := NewPairMap(nil)
	n := maxSlab*2 + 7
	for i := range n {
		addScore(t, m, int64(i), 0, 1)
	}
	for i := range n {
		addScore(t, m, int64(i), 0, 1)
	}

	require.Equal(t, n, m.Len())
	for k, a := range m.All() {
		assert.Equal(t, uint64(2), a.Count, "pair %v", k)
		assert.Equal(t, 2.0, a.Sum.Float64())
	}
}

func TestPairMap_Budget(t *testing.T) {
	const pairs = 100
	rc := resource.NewController(resource.Config{MemoryLimitBytes: pairs * aggregateCost})
	m := NewPairMap(rc)

	for i := range pairs {
		addScore(t, m, int64(i), 0, 1)
	}
	assert.Equal(t, int64(pairs*aggregateCost), m.Reserved())
	assert.Equal(t, int64(pairs*aggregateCost), rc.MemoryUsage())

	q, _ := Quantize(1)
	err := m.Add(PairKey{Query: pairs, Target: 0}, q, 1)
	require.ErrorIs(t, err, ErrMemoryBudget)

	// Existing pairs keep accumulating without new reservations.
	require.NoError(t, m.Add(PairKey{Query: 0, Target: 0}, q, 1))

	m.Release()
	assert.Zero(t, rc.MemoryUsage())
	assert.Equal(t, int64(pairs*aggregateCost), rc.PeakMemoryUsage())
}

func TestPairMap_SinglePairChargesOneAggregate(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: aggregateCost})
	m := NewPairMap(rc)

	addScore(t, m, 0, 0, 0.5)
	addScore(t, m, 0, 0, 0.25)
	assert.Equal(t, int64(aggregateCost), rc.MemoryUsage())
	assert.Equal(t, minSlab, cap(m.slab))
}

func TestNextSlab(t *testing.T) {
	assert.Equal(t, minSlab, nextSlab(0))
	assert.Equal(t, 2*minSlab, nextSlab(minSlab))
	assert.Equal(t, maxSlab, nextSlab(maxSlab/2))
	assert.Equal(t, maxSlab, nextSlab(maxSlab))
}

func TestMerge(t *testing.T) {
	maps := make([]*PairMap, 5)
	for i := range maps {
		maps[i] = NewPairMap(nil)
		addScore(t, maps[i], 0, 0, float32(i+1)/8)
		addScore(t, maps[i], int64(i), 9, 0.5)
		maps[i].Stats.Rows = 1
	}

	merged, err := Merge(context.Background(), maps)
	require.NoError(t, err)

	a, ok := merged.Get(PairKey{Query: 0, Target: 0})
	require.True(t, ok)
	assert.Equal(t, uint64(5), a.Count)
	assert.Equal(t, float32(5.0/8), a.Max)
	assert.Equal(t, SumOf(0.125, 0.25, 0.375, 0.5, 0.625), a.Sum)

	assert.Equal(t, 6, merged.Len())
	assert.Equal(t, uint64(5), merged.Stats.Rows)
	assert.Equal(t, uint64(5), merged.Queries.GetCardinality())
	assert.Equal(t, []uint64{0, 9}, merged.Targets.ToArray())
}

func TestMerge_Empty(t *testing.T) {
	merged, err := Merge(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, merged.Len())
}

func TestMerge_ReleasesAbsorbedMaps(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	a, b := NewPairMap(rc), NewPairMap(rc)
	addScore(t, a, 0, 0, 1)
	addScore(t, b, 1, 0, 1)
	require.Equal(t, int64(2*aggregateCost), rc.MemoryUsage())

	merged, err := Merge(context.Background(), []*PairMap{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Len())
	assert.Equal(t, merged.Reserved(), rc.MemoryUsage())

	merged.Release()
	assert.Zero(t, rc.MemoryUsage())
}

func TestMerge_BudgetExhausted(t *testing.T) {
	const pairs = 64
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 2 * pairs * aggregateCost})
	a, b := NewPairMap(rc), NewPairMap(rc)
	for i := range pairs {
		addScore(t, a, int64(i), 0, 1)
		addScore(t, b, int64(i), 1, 1)
	}

	_, err := Merge(context.Background(), []*PairMap{a, b})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMemoryBudget))
	assert.Zero(t, rc.MemoryUsage())
}
