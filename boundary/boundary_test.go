package boundary

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsets_Resolve(t *testing.T) {
	idx, err := NewOffsets([]int64{0, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, KindOffsets, idx.Kind())
	assert.Equal(t, int64(3), idx.Len())
	assert.Equal(t, int64(2), idx.NumSequences())

	tests := []struct {
		ordinal int64
		seq     int64
		ok      bool
	}{
		{0, 0, true},
		{1, 0, true},
		{2, 1, true},
		{3, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		seq, ok := idx.Resolve(tt.ordinal)
		assert.Equal(t, tt.ok, ok, "ordinal %d", tt.ordinal)
		if tt.ok {
			assert.Equal(t, tt.seq, seq, "ordinal %d", tt.ordinal)
		}
	}
}

func TestOffsets_EmptySequencesAreSkipped(t *testing.T) {
	idx, err := NewOffsets([]int64{0, 2, 2, 2, 5})
	require.NoError(t, err)

	seq, ok := idx.Resolve(1)
	require.True(t, ok)
	assert.Equal(t, int64(0), seq)

	seq, ok = idx.Resolve(2)
	require.True(t, ok)
	assert.Equal(t, int64(3), seq)

	seq, ok = idx.Resolve(4)
	require.True(t, ok)
	assert.Equal(t, int64(3), seq)

	start, end, ok := idx.Range(1)
	require.True(t, ok)
	assert.Equal(t, start, end)
}

func TestOffsets_Validation(t *testing.T) {
	tests := []struct {
		name   string
		starts []int64
	}{
		{"empty", nil},
		{"nonzero first", []int64{1, 2}},
		{"decreasing", []int64{0, 3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOffsets(tt.starts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidBoundary))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, KindOffsets, ve.Kind)
		})
	}
}

func TestOffsets_ZeroSequences(t *testing.T) {
	idx, err := NewOffsets([]int64{0})
	require.NoError(t, err)
	assert.Equal(t, int64(0), idx.Len())
	assert.Equal(t, int64(0), idx.NumSequences())

	_, ok := idx.Resolve(0)
	assert.False(t, ok)
}

func TestFromStarts(t *testing.T) {
	idx, err := FromStarts([]int64{0, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), idx.Len())

	seq, ok := idx.Resolve(2)
	require.True(t, ok)
	assert.Equal(t, int64(1), seq)

	_, err = FromStarts([]int64{0, 4}, 3)
	assert.ErrorIs(t, err, ErrInvalidBoundary)
}

func TestExplicit(t *testing.T) {
	idx, err := NewExplicit([]int64{2, 0, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, KindExplicit, idx.Kind())
	assert.Equal(t, int64(4), idx.Len())
	assert.Equal(t, int64(3), idx.NumSequences())

	seq, ok := idx.Resolve(2)
	require.True(t, ok)
	assert.Equal(t, int64(2), seq)

	_, ok = idx.Resolve(4)
	assert.False(t, ok)

	_, err = NewExplicit([]int64{0, -1})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Position)
	assert.Equal(t, int64(-1), ve.Value)
}

func TestExplicitAndOffsetsAgree(t *testing.T) {
	offsets, err := NewOffsets([]int64{0, 3, 4, 4, 9})
	require.NoError(t, err)

	ids := make([]int64, offsets.Len())
	for i := range ids {
		seq, ok := offsets.Resolve(int64(i))
		require.True(t, ok)
		ids[i] = seq
	}
	explicit, err := NewExplicit(ids)
	require.NoError(t, err)

	for i := int64(0); i < offsets.Len(); i++ {
		a, _ := offsets.Resolve(i)
		b, _ := explicit.Resolve(i)
		assert.Equal(t, a, b, "ordinal %d", i)
	}
}

func TestParse(t *testing.T) {
	idx, err := Parse("ids", []int64{0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, KindExplicit, idx.Kind())

	idx, err = Parse("offsets", []int64{0, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, KindOffsets, idx.Kind())

	_, err = Parse("bogus", nil)
	assert.Error(t, err)

	k, err := ParseKind("explicit")
	require.NoError(t, err)
	assert.Equal(t, "ids", k.String())
}
