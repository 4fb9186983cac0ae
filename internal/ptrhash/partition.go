package ptrhash

import (
	"fmt"

	mpherrors "github.com/minperf/mphkv/errors"
	intbits "github.com/minperf/mphkv/internal/bits"
)

// Hash is the 128-bit key hash consumed by the engine. K0 routes the key to
// its partition (top bits, via FastRange) and contributes to the slot input;
// K1 selects the bucket within the partition.
type Hash struct {
	K0, K1 uint64
}

// partitionIndex returns the partition for a key hash.
func partitionIndex(k0 uint64, numPartitions uint32) uint32 {
	return intbits.FastRange32(k0, numPartitions)
}

// partitionKeys scatters hashes into per-partition groups using a counting
// sort over one shared backing array. Every input hash lands in exactly one
// group; a partition receiving more keys than it has slots fails the build.
func partitionKeys(hashes []Hash, g Geometry) ([][]Hash, error) {
	p := g.NumPartitions
	counts := make([]uint32, p)
	for _, h := range hashes {
		counts[partitionIndex(h.K0, p)]++
	}

	offsets := make([]uint32, p+1)
	var sum uint64
	for i, c := range counts {
		if uint64(c) > uint64(g.SlotsPerPartition) {
			return nil, fmt.Errorf("%w: partition %d has %d keys for %d slots",
				mpherrors.ErrPartitionOverflow, i, c, g.SlotsPerPartition)
		}
		offsets[i] = uint32(sum)
		sum += uint64(c)
	}
	offsets[p] = uint32(sum)

	backing := make([]Hash, len(hashes))
	cursor := make([]uint32, p)
	copy(cursor, offsets[:p])
	for _, h := range hashes {
		pi := partitionIndex(h.K0, p)
		backing[cursor[pi]] = h
		cursor[pi]++
	}

	parts := make([][]Hash, p)
	for i := uint32(0); i < p; i++ {
		parts[i] = backing[offsets[i]:offsets[i+1]]
	}
	return parts, nil
}
