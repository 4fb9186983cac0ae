package ptrhash

import (
	"math/bits"

	intbits "github.com/minperf/mphkv/internal/bits"
)

// pilotMixC is the mixing constant applied before the SplitMix64 finalizer
// when hashing a pilot value. Odd, so multiplication is a bijection mod 2^64.
const pilotMixC = 0x517cc1b727220a95

// pilotHash derives the per-pilot mixing multiplier from the pilot value and
// the build's pilot seed. The SplitMix64 finalizer decorrelates the 256
// candidates so they behave as independent trials; "| 1" keeps the result odd
// so multiplying by it stays bijective and never collapses to zero.
func pilotHash(pilot uint8, pilotSeed uint64) uint64 {
	return intbits.SplitMix64(pilotMixC*(uint64(pilot)^pilotSeed)) | 1
}

// foldSlotInput collapses the 128-bit key hash into the 64-bit slot input.
// Using k0^k1 keeps the slot computation independent of bucket assignment
// (which reads k1 only) while retaining full 128-bit collision resistance.
func foldSlotInput(k0, k1 uint64) uint64 {
	h := k0 ^ k1
	return h ^ (h >> 32)
}

// pilotSlotFolded maps a pre-folded hash to a slot in [0, numSlots): one
// 64-bit multiply by the pilot hash, then FastRange on the 128-bit product.
func pilotSlotFolded(hFolded uint64, hp uint64, numSlots uint32) uint32 {
	hi, _ := bits.Mul64(hFolded*hp, uint64(numSlots))
	return uint32(hi)
}

// pilotSlot computes the slot for a key hash under a given pilot.
func pilotSlot(k0, k1 uint64, pilot uint8, numSlots uint32, pilotSeed uint64) uint32 {
	return pilotSlotFolded(foldSlotInput(k0, k1), pilotHash(pilot, pilotSeed), numSlots)
}

// bucketIndex computes the bucket for a key within its partition using the
// CubicEps distribution x²(1+x)/2 · 255/256 + x/256. The skew produces a few
// large buckets (placed first, while slots are plentiful) and many tiny ones
// that fill the remaining gaps, which speeds up the pilot search.
func bucketIndex(x uint64, numBuckets uint32) uint32 {
	if numBuckets <= 1 {
		return 0
	}
	x2, _ := bits.Mul64(x, x)
	xHalf := (x >> 1) | (1 << 63) // (1+x)/2 in fixed point
	cubic, _ := bits.Mul64(x2, xHalf)
	scaled := (cubic/256)*255 + x/256
	return intbits.FastRange32(scaled, numBuckets)
}
