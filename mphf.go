package mphkv

import (
	"github.com/minperf/mphkv/internal/ptrhash"
)

// MPHF is a minimal perfect hash function: an immutable bijection from the n
// build-time keys onto [0, n). It is safe for unlimited concurrent queries.
//
// For a key that was not in the build set, Index still returns some value in
// [0, n); that value carries no meaning and must never be trusted without an
// independent verification step (see VerifiedStore).
type MPHF struct {
	fn     *ptrhash.Func
	hasher Hasher
	seed   uint64
}

// New builds an MPHF over the given keys. Keys must be pairwise distinct;
// duplicates fail with ErrDuplicateKey. An empty key set builds a trivial
// function.
//
// Construction may legitimately fail for adversarial key distributions after
// a bounded number of internal retries; the returned error wraps
// ErrConstructionFailed with diagnostic context.
func New(keys []string, opts ...Option) (*MPHF, error) {
	cfg := applyOptions(opts)

	hashes := make([]ptrhash.Hash, len(keys))
	for i, key := range keys {
		k0, k1 := cfg.hasher.Hash128(key, cfg.seed)
		hashes[i] = ptrhash.Hash{K0: k0, K1: k1}
	}

	fn, err := ptrhash.Build(hashes, cfg.seed, cfg.workers)
	if err != nil {
		return nil, err
	}
	return &MPHF{fn: fn, hasher: cfg.hasher, seed: cfg.seed}, nil
}

// Index returns the slot for key in [0, n).
func (m *MPHF) Index(key string) uint64 {
	k0, k1 := m.hasher.Hash128(key, m.seed)
	return m.fn.Index(k0, k1)
}

// batchWindow is how many keys ahead of the resolution point hashes are
// computed in IndexBatch, hiding hash latency behind the table walks.
const batchWindow = 16

// IndexBatch resolves a batch of keys into dst, which must be at least
// len(keys) long. Results land in caller order; only timing differs from
// calling Index in a loop.
func (m *MPHF) IndexBatch(keys []string, dst []uint64) {
	n := len(keys)
	if n == 0 {
		return
	}
	var ring [batchWindow]ptrhash.Hash

	ahead := min(n, batchWindow)
	for i := 0; i < ahead; i++ {
		k0, k1 := m.hasher.Hash128(keys[i], m.seed)
		ring[i%batchWindow] = ptrhash.Hash{K0: k0, K1: k1}
	}
	for i := 0; i < n; i++ {
		h := ring[i%batchWindow]
		if next := i + batchWindow; next < n {
			k0, k1 := m.hasher.Hash128(keys[next], m.seed)
			ring[next%batchWindow] = ptrhash.Hash{K0: k0, K1: k1}
		}
		dst[i] = m.fn.Index(h.K0, h.K1)
	}
}

// Len returns the number of keys the function was built over.
func (m *MPHF) Len() uint64 {
	return m.fn.NumKeys()
}

// Seed returns the hash seed the function was built with.
func (m *MPHF) Seed() uint64 {
	return m.seed
}

// SizeInBytes returns the metadata footprint (pilots plus remap table).
func (m *MPHF) SizeInBytes() int {
	return m.fn.SizeInBytes()
}

// BitsPerKey reports the metadata cost per key; a few bits per key at scale.
func (m *MPHF) BitsPerKey() float64 {
	return m.fn.BitsPerKey()
}
