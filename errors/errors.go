// Package errors defines all exported error sentinels for the mphkv library.
//
// This is the single source of truth for error values. Both the top-level
// mphkv package and the internal construction engine import from here,
// ensuring errors.Is checks work across package boundaries.
package errors

import "errors"

// Construction errors
var (
	// ErrConstructionFailed is returned when the pilot search exhausted its
	// retry budget without settling every bucket. The wrapped message carries
	// key count, implicated partition, and attempt count, so an adversarial
	// key distribution can be diagnosed without inspecting internals.
	ErrConstructionFailed = errors.New("mphkv: pilot search failed to settle all buckets")

	// ErrPartitionOverflow is returned when a partition received more keys
	// than it has slots. With a sane hasher this indicates a pathologically
	// skewed hash distribution.
	ErrPartitionOverflow = errors.New("mphkv: partition key count exceeds slot capacity")

	// ErrDuplicateKey is returned when two keys hash identically in all 128
	// bits, making them indistinguishable to the hash function.
	ErrDuplicateKey = errors.New("mphkv: duplicate or hash-indistinguishable keys")

	// ErrTooManyKeys is returned when the key count exceeds what 32-bit slot
	// indexing supports.
	ErrTooManyKeys = errors.New("mphkv: key count exceeds maximum")
)

// Lookup errors
var (
	// ErrKeyNotFound is the verified store's miss result. It is a bare
	// sentinel so the fast lookup path does not allocate.
	ErrKeyNotFound = errors.New("mphkv: key not found")

	// ErrUnsupportedOperation is returned by fast-store operations that are
	// structurally unavailable (persistence, key enumeration) because the
	// fast variant retains no keys.
	ErrUnsupportedOperation = errors.New("mphkv: operation requires stored keys")
)

// Persistence errors
var (
	ErrInvalidMagic   = errors.New("mphkv: invalid magic number")
	ErrInvalidVersion = errors.New("mphkv: unsupported format version")
	ErrChecksumFailed = errors.New("mphkv: file checksum verification failed")
	ErrTruncatedFile  = errors.New("mphkv: store file is truncated")
)
