// Package partition assigns numeric keys to buckets in contiguous ranges,
// so that consecutive document numbers land in the same bucket. Index
// builders use it to shard work; query evaluation never calls it.
package partition

import (
	"fmt"
	"math/bits"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// RangePartitioner maps key k of a keyspace of nodeCount keys to bucket
// floor(k * buckets / nodeCount) mod buckets.
type RangePartitioner struct {
	nodeCount uint64
}

// New rejects a non-positive nodeCount, for which the mapping is undefined.
func New(nodeCount int64) (*RangePartitioner, error) {
	if nodeCount <= 0 {
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "partition node count must be positive, got %d", nodeCount)
	}
	return &RangePartitioner{nodeCount: uint64(nodeCount)}, nil
}

func (p *RangePartitioner) NodeCount() int64 {
	return int64(p.nodeCount)
}

func checkBuckets(buckets int) error {
	if buckets <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "bucket count must be positive, got %d", buckets)
	}
	return nil
}

// Partition returns the bucket of key. Keys at or past nodeCount wrap
// around, matching the mod in the mapping.
func (p *RangePartitioner) Partition(key int64, buckets int) (int, error) {
	if err := checkBuckets(buckets); err != nil {
		return 0, err
	}
	if key < 0 {
		return 0, fmt.Errorf("partition key must be non-negative, got %d", key)
	}
	// floor(k*R/N) mod R == floor((k mod N)*R/N), which stays below R.
	r := uint64(key) % p.nodeCount
	hi, lo := bits.Mul64(r, uint64(buckets))
	q, _ := bits.Div64(hi, lo, p.nodeCount)
	return int(q), nil
}

// Bounds returns the half-open key range [lo, hi) that maps to bucket.
// Ranges of adjacent buckets are contiguous and may be empty when there are
// more buckets than keys.
func (p *RangePartitioner) Bounds(bucket, buckets int) (lo, hi int64, err error) {
	if err := checkBuckets(buckets); err != nil {
		return 0, 0, err
	}
	if bucket < 0 || bucket >= buckets {
		return 0, 0, fmt.Errorf("bucket %d out of range [0, %d)", bucket, buckets)
	}
	return p.start(bucket, buckets), p.start(bucket+1, buckets), nil
}

// start is ceil(bucket * nodeCount / buckets).
func (p *RangePartitioner) start(bucket, buckets int) int64 {
	hi, lo := bits.Mul64(uint64(bucket), p.nodeCount)
	q, rem := bits.Div64(hi, lo, uint64(buckets))
	if rem > 0 {
		q++
	}
	return int64(q)
}
