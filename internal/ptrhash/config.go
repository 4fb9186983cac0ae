// Package ptrhash implements the construction and query engine for the
// minimal perfect hash function used by mphkv.
//
// The algorithm assigns one 8-bit pilot per bucket such that mixing the
// pilot with each bucket key's hash yields collision-free slots, then
// remaps the sparse occupied slot range down to the minimal range [0, n).
package ptrhash

import (
	"fmt"
	"math"

	mpherrors "github.com/minperf/mphkv/errors"
	intbits "github.com/minperf/mphkv/internal/bits"
)

const (
	// lambda is the average keys per bucket.
	lambda = 3.0

	// alpha is the slot load factor: numSlots ~= numKeys / alpha.
	alpha = 0.98

	// partitionedSlots is the slot count per partition when the key set is
	// large enough to be split. Power of two so slot regions are word-aligned
	// in the occupancy bitmap and partition arithmetic cannot overflow.
	partitionedSlots = 1 << 16

	// numPilotValues is the number of pilot candidates per bucket (8-bit range).
	numPilotValues = 256

	// maxBuildAttempts bounds the whole-construction retry loop. Each attempt
	// derives a fresh pilot seed deterministically from the caller's seed.
	maxBuildAttempts = 10
)

// singlePartitionMaxKeys is the key-count threshold below which exactly one
// partition is used. Matches the expected fill of a full-size partition, so
// partitioned builds always have at least two partitions.
var singlePartitionMaxKeys = uint64(math.Floor(alpha * float64(partitionedSlots)))

// Geometry describes the slot and bucket layout for a given key count.
// All partitions share the same power-of-two slot count.
type Geometry struct {
	NumKeys             uint64
	NumPartitions       uint32
	SlotsPerPartition   uint32 // power of two, <= partitionedSlots
	BucketsPerPartition uint32
	TotalSlots          uint64
	TotalBuckets        uint64
}

// ComputeGeometry derives the partition layout for numKeys keys.
// Fails rather than overflowing when the key count exceeds what 32-bit slot
// indexing supports.
func ComputeGeometry(numKeys uint64) (Geometry, error) {
	var g Geometry
	g.NumKeys = numKeys

	if numKeys <= singlePartitionMaxKeys {
		// Small datasets are unstable across many tiny partitions, so force
		// a single one sized to the data.
		g.NumPartitions = 1
		slots := intbits.NextPow2(uint64(math.Ceil(float64(max(numKeys, 1)) / alpha)))
		if slots < 64 {
			slots = 64
		}
		g.SlotsPerPartition = uint32(slots)
	} else {
		p := (numKeys + singlePartitionMaxKeys - 1) / singlePartitionMaxKeys
		if p > math.MaxUint32 {
			return g, fmt.Errorf("%w: %d keys", mpherrors.ErrTooManyKeys, numKeys)
		}
		g.NumPartitions = uint32(p)
		g.SlotsPerPartition = partitionedSlots
	}

	total, ok := intbits.CheckedMul(uint64(g.NumPartitions), uint64(g.SlotsPerPartition))
	if !ok || total > 1<<32 {
		return g, fmt.Errorf("%w: %d keys need %d slots", mpherrors.ErrTooManyKeys, numKeys, total)
	}
	g.TotalSlots = total

	g.BucketsPerPartition = uint32(math.Ceil(alpha * float64(g.SlotsPerPartition) / lambda))
	if g.BucketsPerPartition == 0 {
		g.BucketsPerPartition = 1
	}
	g.TotalBuckets = uint64(g.NumPartitions) * uint64(g.BucketsPerPartition)
	return g, nil
}
