package mphkv

import (
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Hasher maps an arbitrary key to a 128-bit hash. The construction engine
// derives everything else (partition, bucket, slot) by cheaply mixing the two
// halves with small integers; keys are never rehashed.
//
// Implementations must be deterministic for a given seed and near-uniform for
// well-distributed keys. A hasher must not try to repair pathological input
// distributions: catastrophic clustering is surfaced as a typed construction
// failure upstream.
type Hasher interface {
	// Hash128 returns the two hash halves. k0 routes the key to its
	// partition and feeds the slot computation; k1 selects the bucket.
	Hash128(key string, seed uint64) (k0, k1 uint64)

	// Name identifies the hasher in persisted store headers.
	Name() string
}

// XXH3Hasher is the default hasher, using the hardware-accelerated
// xxHash3-128 implementation.
type XXH3Hasher struct{}

func (XXH3Hasher) Hash128(key string, seed uint64) (uint64, uint64) {
	h := xxh3.HashString128Seed(key, seed)
	return h.Hi, h.Lo
}

func (XXH3Hasher) Name() string { return "xxh3" }

// Murmur3Hasher hashes with MurmurHash3's 128-bit variant. Slower than XXH3
// on large keys but useful when reproducing indices built by murmur-based
// pipelines. The 64-bit seed is folded to murmur's 32-bit seed space.
type Murmur3Hasher struct{}

func (Murmur3Hasher) Hash128(key string, seed uint64) (uint64, uint64) {
	return murmur3.Sum128WithSeed([]byte(key), uint32(seed^(seed>>32)))
}

func (Murmur3Hasher) Name() string { return "murmur3" }

// hasherByName resolves the hashers this package can name in a persisted
// header. Custom Hasher implementations must be supplied explicitly via
// WithHasher when loading.
func hasherByName(name string) (Hasher, bool) {
	switch name {
	case "xxh3":
		return XXH3Hasher{}, true
	case "murmur3":
		return Murmur3Hasher{}, true
	default:
		return nil, false
	}
}
