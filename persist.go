package mphkv

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/minperf/mphkv/codec"
	mpherrors "github.com/minperf/mphkv/errors"
)

// On-disk store format, little-endian throughout:
//
//	Offset  Size  Field
//	0       4     Magic       0x564B504D ("MPKV")
//	4       2     Version     0x0001
//	6       2     Flags       bit 0: keys section present (verified store)
//	8       8     KeyCount    uint64
//	16      8     Seed        uint64
//	24      8     HasherName  NUL-padded ASCII tag
//	32      8     Reserved    zero
//	40      ...   Keys        KeyCount × (uint32 length + bytes), index order
//	...     ...   Values      KeyCount × (uint32 length + codec bytes)
//	end-8   8     Checksum    xxhash64 of all preceding bytes
//
// The hash function itself is never serialized: loading re-runs construction
// over the restored keys with the persisted seed, trading load latency for a
// trivially simple file format.
const (
	storeMagic   = uint32(0x564B504D) // "MPKV"
	storeVersion = uint16(0x0001)

	flagHasKeys = uint16(1 << 0)

	storeHeaderSize = 40
	storeFooterSize = 8
)

// Save writes the store to path as a single self-describing blob. The write
// is atomic: a temp file in the same directory is synced and renamed over
// path, so a crash never leaves a torn file behind.
func (s *VerifiedStore[V]) Save(path string, c codec.Codec[V]) (err error) {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	digest := xxhash.New()
	w := bufio.NewWriter(io.MultiWriter(f, digest))

	var header [storeHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], storeMagic)
	binary.LittleEndian.PutUint16(header[4:6], storeVersion)
	binary.LittleEndian.PutUint16(header[6:8], flagHasKeys)
	binary.LittleEndian.PutUint64(header[8:16], uint64(len(s.keys)))
	binary.LittleEndian.PutUint64(header[16:24], s.mphf.Seed())
	copy(header[24:32], s.mphf.hasher.Name())
	if _, err = w.Write(header[:]); err != nil {
		return err
	}

	var lenBuf [4]byte
	for _, key := range s.keys {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(key)))
		if _, err = w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err = w.WriteString(key); err != nil {
			return err
		}
	}
	for i := range s.values {
		var encoded []byte
		encoded, err = c.Marshal(s.values[i])
		if err != nil {
			return fmt.Errorf("encode value at index %d: %w", i, err)
		}
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(encoded)))
		if _, err = w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err = w.Write(encoded); err != nil {
			return err
		}
	}

	// Flush so the digest has seen every body byte before the footer.
	if err = w.Flush(); err != nil {
		return err
	}
	var footer [storeFooterSize]byte
	binary.LittleEndian.PutUint64(footer[:], digest.Sum64())
	if _, err = f.Write(footer[:]); err != nil {
		return err
	}

	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadVerifiedStore reads a store written by Save and rebuilds it. The file
// is memory-mapped read-only for parsing and unmapped before returning; the
// hash function is reconstructed from the restored keys with the persisted
// seed, so lookups return exactly the pre-persistence values.
func LoadVerifiedStore[V any](path string, c codec.Codec[V], opts ...Option) (*VerifiedStore[V], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat store file: %w", err)
	}
	size := stat.Size()
	if size < storeHeaderSize+storeFooterSize {
		return nil, mpherrors.ErrTruncatedFile
	}

	// The whole file is consumed front to back exactly once.
	fadviseSequential(int(f.Fd()), 0, size)

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap store file: %w", err)
	}
	defer mm.Unmap()
	data := []byte(mm)

	body := data[:size-storeFooterSize]
	want := binary.LittleEndian.Uint64(data[size-storeFooterSize:])
	if xxhash.Sum64(body) != want {
		return nil, mpherrors.ErrChecksumFailed
	}

	if binary.LittleEndian.Uint32(body[0:4]) != storeMagic {
		return nil, mpherrors.ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint16(body[4:6]); v != storeVersion {
		return nil, fmt.Errorf("%w: version %d", mpherrors.ErrInvalidVersion, v)
	}
	if binary.LittleEndian.Uint16(body[6:8])&flagHasKeys == 0 {
		return nil, fmt.Errorf("%w: file carries no keys section", mpherrors.ErrInvalidVersion)
	}
	numKeys := binary.LittleEndian.Uint64(body[8:16])
	seed := binary.LittleEndian.Uint64(body[16:24])
	hasherName := trimNul(body[24:32])

	cfg := applyOptions(opts)
	hasher := cfg.hasher
	if hasher.Name() != hasherName {
		h, ok := hasherByName(hasherName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown hasher %q, supply it via WithHasher",
				mpherrors.ErrInvalidVersion, hasherName)
		}
		hasher = h
	}

	sections := body[storeHeaderSize:]
	keys := make([]string, 0, numKeys)
	for i := uint64(0); i < numKeys; i++ {
		chunk, rest, err := readChunk(sections)
		if err != nil {
			return nil, err
		}
		keys = append(keys, string(chunk))
		sections = rest
	}

	pairs := make(map[string]V, numKeys)
	for i := uint64(0); i < numKeys; i++ {
		chunk, rest, err := readChunk(sections)
		if err != nil {
			return nil, err
		}
		v, err := c.Unmarshal(chunk)
		if err != nil {
			return nil, fmt.Errorf("decode value at index %d: %w", i, err)
		}
		pairs[keys[i]] = v
		sections = rest
	}

	return NewVerifiedStore(pairs, WithSeed(seed), WithHasher(hasher), WithWorkers(cfg.workers))
}

// readChunk consumes one uint32-length-prefixed chunk.
func readChunk(data []byte) ([]byte, []byte, error) {
	if len(data) < 4 {
		return nil, nil, mpherrors.ErrTruncatedFile
	}
	n := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if uint64(len(data)) < uint64(n) {
		return nil, nil, mpherrors.ErrTruncatedFile
	}
	return data[:n], data[n:], nil
}

func trimNul(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
