package ptrhash

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	mpherrors "github.com/minperf/mphkv/errors"
)

// errEvictionLimit is an internal retry signal: the solver displaced more
// keys than its budget allows. The build loop retries the whole construction
// with a different pilot seed; the error is never user-facing.
var errEvictionLimit = errors.New("ptrhash: eviction limit exceeded")

const (
	// pinnedSize is the length of the ring of recently placed buckets that
	// may not be evicted, preventing short displacement cycles.
	pinnedSize = 16

	// maxEvictionMultiplier bounds total evictions per partition at
	// maxEvictionMultiplier * numSlots before giving up on this seed.
	maxEvictionMultiplier = 10

	bitsPerWord = 64

	minBufferAlloc = 16
)

// solver settles the pilots for one partition. It is reused across
// partitions by a single worker; occupancy state is cleared in O(1) by
// bumping a generation counter instead of zeroing the slot arrays.
type solver struct {
	numBuckets uint32
	numSlots   uint32
	numKeys    int
	pilotSeed  uint64

	// All 256 pilot hash values, precomputed once per partition.
	pilotHPs [numPilotValues]uint64

	buckets     [][]Hash // grouped keys, owned by the caller
	bucketOrder []uint16 // bucket indices, largest bucket first

	pilots       []uint8  // output: one pilot per bucket
	slotOwner    []uint16 // slot -> owning bucket, valid while slotGen matches
	slotGen      []uint8
	processedGen []uint8
	generation   uint8

	// Duplicate detection for phase-2 candidates keeps its own generation
	// array so probing never corrupts the occupancy tracking.
	dupGen  []uint32
	dupMark uint32

	pinned     [pinnedSize]int32
	pinnedBits []uint64
	pinnedIdx  int
	evictions  int

	slotsBuf      []uint16
	foldedBuf     []uint64
	pending       *bucketHeap
	bestSlots     []uint16
	evictedOwners []uint16

	sortCounts    []int
	sortPositions []int

	maxNumBuckets uint32
	maxNumSlots   uint32
}

func newSolver(maxBuckets, maxSlots int) *solver {
	var pinned [pinnedSize]int32
	for i := range pinned {
		pinned[i] = -1
	}

	maxBucketSize := int(math.Ceil(lambda * 3))
	if maxBucketSize < minBufferAlloc {
		maxBucketSize = minBufferAlloc
	}
	heapCapacity := maxBuckets / 10
	if heapCapacity < minBufferAlloc {
		heapCapacity = minBufferAlloc
	}

	return &solver{
		bucketOrder:   make([]uint16, maxBuckets),
		pilots:        make([]uint8, maxBuckets),
		slotOwner:     make([]uint16, maxSlots),
		slotGen:       make([]uint8, maxSlots),
		generation:    1, // generation 0 means "free"
		processedGen:  make([]uint8, maxBuckets),
		dupGen:        make([]uint32, maxSlots),
		pinned:        pinned,
		pinnedBits:    make([]uint64, (maxBuckets+bitsPerWord-1)/bitsPerWord),
		slotsBuf:      make([]uint16, maxBucketSize),
		foldedBuf:     make([]uint64, maxBucketSize),
		pending:       newBucketHeap(heapCapacity),
		bestSlots:     make([]uint16, 0, maxBucketSize),
		evictedOwners: make([]uint16, 0, minBufferAlloc),
		sortCounts:    make([]int, maxBucketSize+1),
		sortPositions: make([]int, maxBucketSize+1),
		maxNumBuckets: uint32(maxBuckets),
		maxNumSlots:   uint32(maxSlots),
	}
}

// reset prepares the solver for a new partition. pilotsDst receives the pilot
// array directly, so partition results land in their disjoint region of the
// final pilot slice without copying.
func (s *solver) reset(buckets [][]Hash, numKeys int, numSlots uint32, pilotSeed uint64, pilotsDst []uint8) {
	numBuckets := uint32(len(buckets))
	s.buckets = buckets
	s.numBuckets = numBuckets
	s.numSlots = numSlots
	s.numKeys = numKeys
	s.pilotSeed = pilotSeed
	s.evictions = 0
	s.pinnedIdx = 0

	for p := range s.pilotHPs {
		s.pilotHPs[p] = pilotHash(uint8(p), pilotSeed)
	}

	if numSlots > s.maxNumSlots {
		s.maxNumSlots = numSlots
		s.slotOwner = make([]uint16, numSlots)
		s.slotGen = make([]uint8, numSlots)
		s.dupGen = make([]uint32, numSlots)
	}
	if numBuckets > s.maxNumBuckets {
		s.maxNumBuckets = numBuckets
		s.bucketOrder = make([]uint16, numBuckets)
		s.processedGen = make([]uint8, numBuckets)
		s.pinnedBits = make([]uint64, (numBuckets+bitsPerWord-1)/bitsPerWord)
	}
	s.pilots = pilotsDst[:numBuckets]

	maxBucketSize := 0
	for _, b := range buckets {
		if len(b) > maxBucketSize {
			maxBucketSize = len(b)
		}
	}
	if maxBucketSize > len(s.slotsBuf) {
		s.slotsBuf = make([]uint16, maxBucketSize)
		s.foldedBuf = make([]uint64, maxBucketSize)
	}
	if maxBucketSize+1 > len(s.sortCounts) {
		s.sortCounts = make([]int, maxBucketSize+1)
		s.sortPositions = make([]int, maxBucketSize+1)
	}

	sortBucketsBySize(buckets, s.bucketOrder[:numBuckets], s.sortCounts, s.sortPositions)

	// O(1) clearing: any slot whose generation differs from s.generation is
	// free. The temporary marker generation+1 used by duplicate checks must
	// stay valid, so wrap early and clear for real.
	s.generation++
	if s.generation >= 254 {
		s.generation = 1
		clear(s.slotGen)
		clear(s.processedGen[:numBuckets])
	}

	for i := range s.pinned {
		s.pinned[i] = -1
	}
	clear(s.pinnedBits[:(numBuckets+bitsPerWord-1)/bitsPerWord])
}

func (s *solver) bucketSize(idx int) int {
	return len(s.buckets[idx])
}

func (s *solver) isProcessed(idx int) bool {
	return s.processedGen[idx] == s.generation
}

func (s *solver) setProcessed(idx int) {
	s.processedGen[idx] = s.generation
}

func (s *solver) clearProcessed(idx int) {
	s.processedGen[idx] = 0
}

// getOwner returns the bucket owning slot, or -1 if the slot is free.
func (s *solver) getOwner(slot uint32) int {
	if s.slotGen[slot] != s.generation {
		return -1
	}
	return int(s.slotOwner[slot])
}

func (s *solver) taken(slot uint32) bool {
	return s.slotGen[slot] == s.generation
}

func (s *solver) isPinned(idx int) bool {
	return s.pinnedBits[idx/bitsPerWord]&(1<<(idx%bitsPerWord)) != 0
}

func (s *solver) pin(idx int) {
	old := s.pinned[s.pinnedIdx]
	if old >= 0 {
		s.pinnedBits[int(old)/bitsPerWord] &^= 1 << (int(old) % bitsPerWord)
	}
	s.pinned[s.pinnedIdx] = int32(idx)
	s.pinnedBits[idx/bitsPerWord] |= 1 << (idx % bitsPerWord)
	s.pinnedIdx = (s.pinnedIdx + 1) % pinnedSize
}

// solve assigns a pilot to every bucket. rng drives the phase-2 starting
// pilot; the caller seeds it deterministically so identical inputs build
// identical functions. Returns errEvictionLimit when the displacement budget
// is exhausted (the build loop retries with a new pilot seed).
func (s *solver) solve(rng *rand.Rand) error {
	if s.numKeys == 0 {
		for i := range s.pilots {
			s.pilots[i] = 0
			s.setProcessed(i)
		}
		return nil
	}

	maxEvictions := maxEvictionMultiplier * int(s.numSlots)
	s.pending.clear()
	s.bestSlots = s.bestSlots[:0]
	s.evictedOwners = s.evictedOwners[:0]

	// Largest buckets first; displaced buckets drain from the heap before
	// the main order continues.
	for _, idx16 := range s.bucketOrder[:s.numBuckets] {
		idx := int(idx16)
		if s.bucketSize(idx) == 0 {
			s.pilots[idx] = 0
			s.setProcessed(idx)
			continue
		}
		if s.isProcessed(idx) {
			continue
		}

		if err := s.processBucket(idx, rng); err != nil {
			return err
		}

		for s.pending.len() > 0 {
			cur, _ := s.pending.pop()
			if s.isProcessed(cur) {
				continue
			}
			if err := s.processBucket(cur, rng); err != nil {
				return err
			}
			if s.evictions > maxEvictions {
				return errEvictionLimit
			}
		}

		if s.evictions > maxEvictions {
			return errEvictionLimit
		}
	}
	return nil
}

// processBucket settles one bucket: phase 1 looks for a pilot whose slots are
// all free; phase 2 picks the pilot displacing the cheapest set of settled
// buckets, evicts them, and requeues them on the pending heap.
func (s *solver) processBucket(bucketIdx int, rng *rand.Rand) error {
	bucket := s.buckets[bucketIdx]
	bucketSize := len(bucket)

	if pilot, ok := s.findFreePilot(bucket); ok {
		s.placeBucket(bucketIdx, pilot, s.slotsBuf[:bucketSize])
		s.setProcessed(bucketIdx)
		return nil
	}

	// Phase 2: score each candidate by the squared sizes of the settled
	// buckets it would displace; smaller buckets are cheaper to move. The
	// random starting pilot spreads evictions across the pilot range.
	p0 := uint8(rng.IntN(numPilotValues))
	bestPilot := uint8(0)
	bestScore := math.MaxInt
	s.bestSlots = s.bestSlots[:0]

	slots := s.slotsBuf[:bucketSize]
	folded := s.foldedBuf[:bucketSize]
	for i, h := range bucket {
		folded[i] = foldSlotInput(h.K0, h.K1)
	}
	minPossibleScore := bucketSize * bucketSize

	for delta := 0; delta < numPilotValues; delta++ {
		pilot := uint8((int(p0) + delta) % numPilotValues)
		hp := s.pilotHPs[pilot]

		for i := range slots {
			slots[i] = uint16(pilotSlotFolded(folded[i], hp, s.numSlots))
		}

		score := 0
		viable := true
		for _, slot := range slots {
			owner := s.getOwner(uint32(slot))
			if owner < 0 {
				continue
			}
			if s.isPinned(owner) {
				viable = false
				break
			}
			ownerSize := s.bucketSize(owner)
			score += ownerSize * ownerSize
			if score >= bestScore {
				viable = false
				break
			}
		}
		if !viable {
			continue
		}
		if !s.noDuplicateSlots(slots) {
			continue
		}

		if score < bestScore {
			bestPilot = pilot
			bestScore = score
			s.bestSlots = append(s.bestSlots[:0], slots...)
			if score <= minPossibleScore {
				break
			}
		}
	}

	if len(s.bestSlots) == 0 {
		// Keys with equal slot input hit the same slot under every pilot, so
		// exhausting all 256 candidates is guaranteed for duplicates.
		if hasDuplicateSlotInput(bucket) {
			return fmt.Errorf("%w: bucket %d", mpherrors.ErrDuplicateKey, bucketIdx)
		}
		return fmt.Errorf("%w: bucket=%d size=%d slots=%d",
			mpherrors.ErrConstructionFailed, bucketIdx, bucketSize, s.numSlots)
	}

	s.evictedOwners = s.evictedOwners[:0]
	for _, slot := range s.bestSlots {
		owner := s.getOwner(uint32(slot))
		if owner < 0 || owner == bucketIdx {
			continue
		}
		owner16 := uint16(owner)
		seen := false
		for _, e := range s.evictedOwners {
			if e == owner16 {
				seen = true
				break
			}
		}
		if !seen {
			s.evictedOwners = append(s.evictedOwners, owner16)
		}
	}

	for _, owner16 := range s.evictedOwners {
		owner := int(owner16)
		s.evictBucket(owner)
		s.clearProcessed(owner)
		s.pending.push(owner, s.bucketSize(owner))
		s.evictions++
	}

	s.placeBucket(bucketIdx, bestPilot, s.bestSlots)
	s.pin(bucketIdx)
	s.setProcessed(bucketIdx)
	return nil
}

func (s *solver) placeBucket(bucketIdx int, pilot uint8, slots []uint16) {
	s.pilots[bucketIdx] = pilot
	gen := s.generation
	for _, slot := range slots {
		s.slotOwner[slot] = uint16(bucketIdx)
		s.slotGen[slot] = gen
	}
}

func (s *solver) evictBucket(bucketIdx int) {
	hp := s.pilotHPs[s.pilots[bucketIdx]]
	gen := s.generation
	for _, h := range s.buckets[bucketIdx] {
		slot := pilotSlotFolded(foldSlotInput(h.K0, h.K1), hp, s.numSlots)
		// A slot may already belong to a different bucket from an earlier
		// eviction in this call; only clear slots still owned here.
		if s.slotGen[slot] == gen && s.slotOwner[slot] == uint16(bucketIdx) {
			s.slotGen[slot] = 0
		}
	}
}

// noDuplicateSlots reports whether the candidate slots are pairwise distinct,
// using the separate dupGen array with a fresh marker per call.
func (s *solver) noDuplicateSlots(slots []uint16) bool {
	s.dupMark++
	if s.dupMark == 0 {
		clear(s.dupGen)
		s.dupMark = 1
	}
	mark := s.dupMark
	for _, slot := range slots {
		if s.dupGen[slot] == mark {
			return false
		}
		s.dupGen[slot] = mark
	}
	return true
}

// hasDuplicateSlotInput reports whether two bucket keys share the same folded
// slot input (k0 ^ k1).
func hasDuplicateSlotInput(bucket []Hash) bool {
	for i := range bucket {
		xi := bucket[i].K0 ^ bucket[i].K1
		for j := i + 1; j < len(bucket); j++ {
			if xi == bucket[j].K0^bucket[j].K1 {
				return true
			}
		}
	}
	return false
}
