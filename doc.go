// Package mphkv implements a Minimal Perfect Hash Function (MPHF) library
// with immutable key-value stores layered on top.
//
// An MPHF maps each of n fixed keys to a distinct index in [0, n) using a
// few bits per key. Construction partitions the key set, searches an 8-bit
// pilot per bucket within each partition, and compacts overflow slots with
// a cacheline-local remap table.
//
// # Basic Usage
//
// Building a hash function:
//
//	m, err := mphkv.New(keys)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	idx := m.Index("mykey") // unique in [0, len(keys)) for member keys
//
// Building a store:
//
//	store, err := mphkv.NewVerifiedStore(map[string]string{"a": "1", "b": "2"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := store.Get("a")
//
// VerifiedStore keeps the keys and rejects lookups of non-member keys with
// ErrKeyNotFound. FastStore drops the keys to save memory; querying a key
// that was not in the build set silently returns some resident value, so it
// is only safe when callers guarantee membership.
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: mphf.go (New, Index, IndexBatch), store.go (FastStore),
//     verified_store.go (VerifiedStore), persist.go (Save, LoadVerifiedStore)
//   - Configuration: options.go (Option, With* functions), hasher.go (Hasher)
//   - Value encoding: codec/ (Codec, String, Bytes, JSON)
//   - Algorithm: internal/ptrhash/ (partitioning, pilot search, remap)
//   - Platform: fadvise_*.go (OS-specific read hints)
package mphkv
