package ptrhash

import (
	"errors"
	"fmt"
	mathbits "math/bits"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	mpherrors "github.com/minperf/mphkv/errors"
	intbits "github.com/minperf/mphkv/internal/bits"
)

// seedIncrement spaces the per-attempt pilot seeds (golden-ratio constant,
// the standard SplitMix64 stream increment).
const seedIncrement = 0x9e3779b97f4a7c15

// derivePilotSeed computes the pilot-mixing seed for a build attempt. Key
// hashes stay fixed across attempts; only the pilot mixing is reseeded, so a
// retry explores a fresh set of slot placements over the same buckets.
func derivePilotSeed(seed uint64, attempt int) uint64 {
	return intbits.SplitMix64(seed + uint64(attempt)*seedIncrement)
}

// Build constructs the perfect hash function over the given key hashes.
// The caller guarantees the hashes are pairwise distinct in 128 bits;
// violations surface as ErrDuplicateKey. workers <= 0 uses GOMAXPROCS.
//
// Construction is deterministic: the same hashes and seed always produce the
// same function, regardless of input order or worker count.
func Build(hashes []Hash, seed uint64, workers int) (*Func, error) {
	geo, err := ComputeGeometry(uint64(len(hashes)))
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > int(geo.NumPartitions) {
		workers = int(geo.NumPartitions)
	}

	parts, err := partitionKeys(hashes, geo)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxBuildAttempts; attempt++ {
		pilotSeed := derivePilotSeed(seed, attempt)
		pilots := make([]uint8, geo.TotalBuckets)
		bitmap := make([]uint64, geo.TotalSlots/bitsPerWord)

		err := solveAll(parts, geo, pilotSeed, workers, pilots, bitmap)
		if err == nil {
			rm, err := buildRemapTable(bitmap, geo)
			if err != nil {
				return nil, err
			}
			return &Func{geo: geo, pilotSeed: pilotSeed, pilots: pilots, remap: rm}, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %d keys, %d partitions, %d attempts: %v",
		mpherrors.ErrConstructionFailed, len(hashes), geo.NumPartitions, maxBuildAttempts, lastErr)
}

// retryable reports whether a solve failure may succeed under a different
// pilot seed. Duplicate keys and partition overflow never will.
func retryable(err error) bool {
	return errors.Is(err, errEvictionLimit) || errors.Is(err, mpherrors.ErrConstructionFailed)
}

// solveAll settles every partition using a fixed worker pool. Each worker
// owns one reusable solver and bucket scratch space; partitions write pilots
// and occupancy bits only into their own disjoint regions, so the only
// synchronization is the final join.
func solveAll(parts [][]Hash, geo Geometry, pilotSeed uint64, workers int, pilots []uint8, bitmap []uint64) error {
	partCh := make(chan uint32, geo.NumPartitions)
	for pi := uint32(0); pi < geo.NumPartitions; pi++ {
		partCh <- pi
	}
	close(partCh)

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			slv := newSolver(int(geo.BucketsPerPartition), int(geo.SlotsPerPartition))
			buckets := make([][]Hash, geo.BucketsPerPartition)
			for pi := range partCh {
				if err := solvePartition(slv, buckets, parts[pi], pi, geo, pilotSeed, pilots, bitmap); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func solvePartition(slv *solver, buckets [][]Hash, part []Hash, pi uint32, geo Geometry, pilotSeed uint64, pilots []uint8, bitmap []uint64) error {
	for i := range buckets {
		buckets[i] = buckets[i][:0]
	}
	for _, h := range part {
		b := bucketIndex(h.K1, geo.BucketsPerPartition)
		buckets[b] = append(buckets[b], h)
	}

	pilotsDst := pilots[uint64(pi)*uint64(geo.BucketsPerPartition):][:geo.BucketsPerPartition]
	slv.reset(buckets, len(part), geo.SlotsPerPartition, pilotSeed, pilotsDst)

	// Seeded per partition so builds are reproducible for a fixed seed.
	rng := rand.New(rand.NewPCG(pilotSeed, uint64(pi)+1))
	if err := slv.solve(rng); err != nil {
		return fmt.Errorf("partition %d (%d keys): %w", pi, len(part), err)
	}

	// Partition regions start at a multiple of 64 slots, so each worker
	// touches its own bitmap words exclusively.
	base := uint64(pi) * uint64(geo.SlotsPerPartition)
	for slot := uint32(0); slot < geo.SlotsPerPartition; slot++ {
		if slv.taken(slot) {
			g := base + uint64(slot)
			bitmap[g/bitsPerWord] |= 1 << (g % bitsPerWord)
		}
	}
	return nil
}

// buildRemapTable walks the global occupancy bitmap and assigns the i-th
// occupied overflow slot the i-th hole in [0, n), in increasing order.
func buildRemapTable(bitmap []uint64, geo Geometry) (*remap, error) {
	n := geo.NumKeys
	total := geo.TotalSlots

	var takenCount uint64
	for _, w := range bitmap {
		takenCount += uint64(mathbits.OnesCount64(w))
	}
	if takenCount != n {
		return nil, fmt.Errorf("%w: occupancy mismatch: %d slots taken for %d keys",
			mpherrors.ErrConstructionFailed, takenCount, n)
	}

	if total == n {
		return newRemap(nil), nil
	}

	takenAt := func(i uint64) bool {
		return bitmap[i/bitsPerWord]&(1<<(i%bitsPerWord)) != 0
	}

	values := make([]uint32, 0, total-n)
	for hole := uint64(0); hole < n; hole++ {
		if takenAt(hole) {
			continue
		}
		// Entries for unoccupied overflow slots repeat the upcoming hole,
		// keeping the sequence non-decreasing for the line encoding.
		for !takenAt(n + uint64(len(values))) {
			values = append(values, uint32(hole))
		}
		values = append(values, uint32(hole))
	}

	// Trailing unoccupied overflow slots: pad so every index in
	// [0, total-n) decodes to something inside [0, n).
	var last uint32
	if len(values) > 0 {
		last = values[len(values)-1]
	}
	for uint64(len(values)) < total-n {
		values = append(values, last)
	}

	return newRemap(values), nil
}
