package ptrhash

import "math/bits"

// The remap table maps overflow slots [n, totalSlots) onto the holes the
// pilot placement left in [0, n). Entry i corresponds to slot n+i; entries
// for slots no key occupies are filled with the next hole so the sequence
// stays non-decreasing and a query for a foreign key can never index out of
// range.
//
// The primary encoding packs 44 entries per 64-byte line: a shared high-part
// base, one low byte per entry, and a 128-bit unary code of high-part deltas.
// Decoding any entry reads exactly one line. A line can only represent a
// high-part spread of 128-44 positions; hole spacings that exceed it (possible
// only for extreme occupancy patterns) fall back to a plain uint32 table.

const lineEntries = 44

// remapLine is one 64-byte block: 16 bytes of unary-coded high parts, a
// 4-byte base, and 44 low bytes.
type remapLine struct {
	high [2]uint64
	base uint32
	low  [lineEntries]uint8
}

type remap struct {
	lines []remapLine
	plain []uint32 // fallback encoding; nil when lines are in use
	n     int
}

// newRemap encodes a non-decreasing sequence of slot values.
func newRemap(values []uint32) *remap {
	r := &remap{n: len(values)}
	if len(values) == 0 {
		return r
	}

	numLines := (len(values) + lineEntries - 1) / lineEntries
	lines := make([]remapLine, numLines)
	for li := range lines {
		start := li * lineEntries
		end := min(start+lineEntries, len(values))
		chunk := values[start:end]
		if !encodeLine(&lines[li], chunk) {
			r.plain = append([]uint32(nil), values...)
			return r
		}
	}
	r.lines = lines
	return r
}

// encodeLine packs up to lineEntries values into l. The line is padded by
// repeating the last value, which keeps the unary positions valid. Reports
// false when the high-part spread does not fit.
func encodeLine(l *remapLine, chunk []uint32) bool {
	l.base = chunk[0] >> 8
	last := chunk[len(chunk)-1]
	for i := 0; i < lineEntries; i++ {
		v := last
		if i < len(chunk) {
			v = chunk[i]
		}
		hi := int(v>>8) - int(l.base)
		pos := hi + i
		if hi < 0 || pos >= 2*bitsPerWord {
			return false
		}
		l.high[pos/bitsPerWord] |= 1 << (pos % bitsPerWord)
		l.low[i] = uint8(v)
	}
	return true
}

// get decodes entry i. i must be < r.n.
func (r *remap) get(i uint32) uint32 {
	if r.plain != nil {
		return r.plain[i]
	}
	l := &r.lines[i/lineEntries]
	j := int(i % lineEntries)

	c0 := bits.OnesCount64(l.high[0])
	var pos int
	if j < c0 {
		pos = selectWord(l.high[0], j)
	} else {
		pos = bitsPerWord + selectWord(l.high[1], j-c0)
	}
	hi := uint32(pos - j)
	return (l.base+hi)<<8 | uint32(l.low[j])
}

func (r *remap) len() int {
	return r.n
}

func (r *remap) sizeInBytes() int {
	if r.plain != nil {
		return 4 * len(r.plain)
	}
	return 64 * len(r.lines)
}

// selectWord returns the position of the k-th (0-based) set bit in x.
// The caller guarantees x has more than k bits set.
func selectWord(x uint64, k int) int {
	for ; k > 0; k-- {
		x &= x - 1
	}
	return bits.TrailingZeros64(x)
}
