package partition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

func TestNewRejectsNonPositiveNodeCount(t *testing.T) {
	for _, n := range []int64{0, -1, math.MinInt64} {
		_, err := New(n)
		assert.True(t, apperrors.IsConfiguration(err), "n=%d", n)
	}
}

func TestPartition(t *testing.T) {
	p, err := New(100)
	require.NoError(t, err)

	tests := []struct {
		key     int64
		buckets int
		want    int
	}{
		{0, 4, 0},
		{24, 4, 0},
		{25, 4, 1},
		{49, 4, 1},
		{50, 4, 2},
		{99, 4, 3},
		{100, 4, 0},
		{125, 4, 1},
		{33, 3, 0},
		{34, 3, 1},
		{67, 3, 2},
		{99, 1, 0},
	}
	for _, tt := range tests {
		got, err := p.Partition(tt.key, tt.buckets)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "key=%d buckets=%d", tt.key, tt.buckets)
	}
}

func TestPartitionRejectsBadInput(t *testing.T) {
	p, err := New(10)
	require.NoError(t, err)

	_, err = p.Partition(3, 0)
	assert.True(t, apperrors.IsConfiguration(err))
	_, err = p.Partition(-1, 2)
	assert.Error(t, err)
}

func TestPartitionIsMonotonicAndCovering(t *testing.T) {
	const n, r = 1000, 7
	p, err := New(n)
	require.NoError(t, err)

	counts := make([]int, r)
	prev := 0
	for k := int64(0); k < n; k++ {
		b, err := p.Partition(k, r)
		require.NoError(t, err)
		require.GreaterOrEqual(t, b, prev, "key %d", k)
		require.Less(t, b, r)
		counts[b]++
		prev = b
	}
	for b, c := range counts {
		assert.InDelta(t, n/r, c, 1, "bucket %d", b)
	}
}

func TestBoundsMatchPartition(t *testing.T) {
	for _, tc := range []struct {
		n int64
		r int
	}{{100, 4}, {10, 3}, {7, 7}, {3, 5}, {1 << 40, 13}} {
		p, err := New(tc.n)
		require.NoError(t, err)

		var next int64
		for b := 0; b < tc.r; b++ {
			lo, hi, err := p.Bounds(b, tc.r)
			require.NoError(t, err)
			assert.Equal(t, next, lo, "n=%d r=%d bucket %d", tc.n, tc.r, b)
			next = hi
			if lo < hi {
				first, _ := p.Partition(lo, tc.r)
				last, _ := p.Partition(hi-1, tc.r)
				assert.Equal(t, b, first)
				assert.Equal(t, b, last)
			}
		}
		assert.Equal(t, tc.n, next)
	}
}

func TestLargeKeysDoNotOverflow(t *testing.T) {
	p, err := New(math.MaxInt64)
	require.NoError(t, err)

	got, err := p.Partition(math.MaxInt64-1, math.MaxInt32)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32-1, got)

	_, _, err = p.Bounds(5, 3)
	assert.Error(t, err)
}
