package mphkv

import (
	"fmt"
	"iter"

	mpherrors "github.com/minperf/mphkv/errors"
)

// VerifiedStore is the safe store variant: alongside the values it keeps the
// keys in MPHF-index order and compares on every lookup, so a query for a
// key absent from the build set always fails with ErrKeyNotFound and never
// returns a wrong value.
type VerifiedStore[V any] struct {
	table[V]
	keys []string
}

// NewVerifiedStore builds a verified store from a key-value mapping. The
// mapping is consumed at construction; the store is immutable afterwards.
// An empty mapping is valid and yields an empty store.
func NewVerifiedStore[V any](data map[string]V, opts ...Option) (*VerifiedStore[V], error) {
	t, err := buildTable(data, opts)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(data))
	for k := range data {
		keys[t.mphf.Index(k)] = k
	}
	return &VerifiedStore[V]{table: t, keys: keys}, nil
}

// Get returns the value for key, or ErrKeyNotFound if the key was not in the
// build set. The miss path performs no allocation.
func (s *VerifiedStore[V]) Get(key string) (V, error) {
	if idx := s.mphf.Index(key); int(idx) < len(s.keys) && s.keys[idx] == key {
		return s.values[idx], nil
	}
	var zero V
	return zero, mpherrors.ErrKeyNotFound
}

// GetDetailed is Get with a descriptive miss that names the key. It may
// allocate on the miss path.
func (s *VerifiedStore[V]) GetDetailed(key string) (V, error) {
	if idx := s.mphf.Index(key); int(idx) < len(s.keys) && s.keys[idx] == key {
		return s.values[idx], nil
	}
	var zero V
	return zero, fmt.Errorf("%w: %q", mpherrors.ErrKeyNotFound, key)
}

// Contains reports exact membership: no false positives, no false negatives.
func (s *VerifiedStore[V]) Contains(key string) bool {
	idx := s.mphf.Index(key)
	return int(idx) < len(s.keys) && s.keys[idx] == key
}

// Len returns the number of key-value pairs.
func (s *VerifiedStore[V]) Len() int {
	return s.len()
}

func (s *VerifiedStore[V]) IsEmpty() bool {
	return s.len() == 0
}

// All enumerates key-value pairs in MPHF-index order (not insertion order).
// The sequence is lazy and restartable.
func (s *VerifiedStore[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for i, k := range s.keys {
			if !yield(k, s.values[i]) {
				return
			}
		}
	}
}

// Keys enumerates the keys in MPHF-index order.
func (s *VerifiedStore[V]) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, k := range s.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Values enumerates the values in MPHF-index order.
func (s *VerifiedStore[V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range s.values {
			if !yield(v) {
				return
			}
		}
	}
}

// MemoryUsage returns the footprint of the hash function metadata, the
// values array, and the keys array (headers plus string bytes).
func (s *VerifiedStore[V]) MemoryUsage() int {
	keyBytes := 0
	for _, k := range s.keys {
		keyBytes += len(k)
	}
	const stringHeaderSize = 16
	return s.mphf.SizeInBytes() + s.valueBytes() + keyBytes + stringHeaderSize*len(s.keys)
}

var _ Store[int] = (*VerifiedStore[int])(nil)
