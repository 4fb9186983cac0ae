package mphkv

import (
	"fmt"
	"iter"
	"unsafe"

	mpherrors "github.com/minperf/mphkv/errors"
)

// Store is the query surface shared by both store variants. The variants
// differ only in what a lookup guarantees for keys absent from the build set:
// the verified store reports them as misses, the fast store may return an
// arbitrary value.
type Store[V any] interface {
	Get(key string) (V, error)
	GetDetailed(key string) (V, error)
	Contains(key string) bool
	Len() int
	IsEmpty() bool
	MemoryUsage() int
}

// table is the base both variants compose over: an MPHF plus a values array
// in MPHF-index order.
type table[V any] struct {
	mphf   *MPHF
	values []V
}

func buildTable[V any](data map[string]V, opts []Option) (table[V], error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	m, err := New(keys, opts...)
	if err != nil {
		return table[V]{}, err
	}

	values := make([]V, len(data))
	for k, v := range data {
		values[m.Index(k)] = v
	}
	return table[V]{mphf: m, values: values}, nil
}

func (t *table[V]) len() int {
	return len(t.values)
}

// valueBytes approximates the heap footprint of the values array: backing
// array only, not memory reachable through pointer-typed values.
func (t *table[V]) valueBytes() int {
	var zero V
	return len(t.values) * int(unsafe.Sizeof(zero))
}

// FastStore is the memory-minimal store variant: the MPHF plus a values
// array, no keys. Lookups for build-time keys return the correct value; a
// lookup for any other key returns an arbitrary value from the store with no
// error. That wrong-value behavior is the variant's documented contract, not
// a defect — use VerifiedStore unless every queried key is guaranteed to be
// in the build set.
type FastStore[V any] struct {
	table[V]
}

// NewFastStore builds a fast store from a key-value mapping. The mapping is
// consumed at construction; the store is immutable afterwards. An empty
// mapping is valid and yields an empty store.
func NewFastStore[V any](data map[string]V, opts ...Option) (*FastStore[V], error) {
	t, err := buildTable(data, opts)
	if err != nil {
		return nil, err
	}
	return &FastStore[V]{table: t}, nil
}

// Get returns the value stored at the key's MPHF index. Only an empty store
// misses; for a non-member key of a non-empty store this returns an
// arbitrary, unflagged value.
func (s *FastStore[V]) Get(key string) (V, error) {
	if len(s.values) == 0 {
		var zero V
		return zero, mpherrors.ErrKeyNotFound
	}
	return s.values[s.mphf.Index(key)], nil
}

// GetDetailed is Get with an allocated, descriptive miss. Only relevant for
// empty stores; see Get for the non-member contract.
func (s *FastStore[V]) GetDetailed(key string) (V, error) {
	if len(s.values) == 0 {
		var zero V
		return zero, fmt.Errorf("%w: %q", mpherrors.ErrKeyNotFound, key)
	}
	return s.values[s.mphf.Index(key)], nil
}

// Contains is only approximate: without stored keys the store cannot confirm
// membership, so any key reports true against a non-empty store.
func (s *FastStore[V]) Contains(key string) bool {
	return len(s.values) > 0 && s.mphf.Index(key) < uint64(len(s.values))
}

// Len returns the number of key-value pairs.
func (s *FastStore[V]) Len() int {
	return s.len()
}

func (s *FastStore[V]) IsEmpty() bool {
	return s.len() == 0
}

// Values enumerates the stored values in MPHF-index order. The sequence is
// restartable. Keys cannot be enumerated; see Keys.
func (s *FastStore[V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range s.values {
			if !yield(v) {
				return
			}
		}
	}
}

// Keys reports ErrUnsupportedOperation: the fast variant retains no keys.
func (s *FastStore[V]) Keys() (iter.Seq[string], error) {
	return nil, fmt.Errorf("%w: fast store key enumeration", mpherrors.ErrUnsupportedOperation)
}

// Save reports ErrUnsupportedOperation: persistence requires the keys array
// to rebuild the hash function on load.
func (s *FastStore[V]) Save(path string) error {
	return fmt.Errorf("%w: fast store persistence", mpherrors.ErrUnsupportedOperation)
}

// MemoryUsage returns the footprint of the hash function metadata plus the
// values array.
func (s *FastStore[V]) MemoryUsage() int {
	return s.mphf.SizeInBytes() + s.valueBytes()
}

var _ Store[int] = (*FastStore[int])(nil)
