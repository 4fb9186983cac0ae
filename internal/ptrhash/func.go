package ptrhash

// Func is the immutable minimal perfect hash function: pilots, remap table,
// and partition metadata. It is read-only after Build returns; any number of
// goroutines may query it concurrently without coordination.
type Func struct {
	geo       Geometry
	pilotSeed uint64
	pilots    []uint8
	remap     *remap
}

// NumKeys returns n, the size of the key set the function was built over.
func (f *Func) NumKeys() uint64 {
	return f.geo.NumKeys
}

// Index maps a key hash to its slot in [0, n). For the build-time key set
// the results are a bijection onto [0, n); for any other hash the result is
// still in range but carries no meaning.
func (f *Func) Index(k0, k1 uint64) uint64 {
	n := f.geo.NumKeys
	if n == 0 {
		return 0
	}
	pi := partitionIndex(k0, f.geo.NumPartitions)
	bucket := bucketIndex(k1, f.geo.BucketsPerPartition)
	pilot := f.pilots[uint64(pi)*uint64(f.geo.BucketsPerPartition)+uint64(bucket)]
	local := pilotSlot(k0, k1, pilot, f.geo.SlotsPerPartition, f.pilotSeed)
	slot := uint64(pi)*uint64(f.geo.SlotsPerPartition) + uint64(local)
	if slot >= n {
		slot = uint64(f.remap.get(uint32(slot - n)))
	}
	return slot
}

// PilotSeed returns the effective pilot-mixing seed the build settled on.
func (f *Func) PilotSeed() uint64 {
	return f.pilotSeed
}

// SizeInBytes returns the memory footprint of the pilot array plus the remap
// table. Partition metadata is a handful of words and ignored.
func (f *Func) SizeInBytes() int {
	size := len(f.pilots)
	if f.remap != nil {
		size += f.remap.sizeInBytes()
	}
	return size
}

// BitsPerKey reports the metadata cost of the function per key.
func (f *Func) BitsPerKey() float64 {
	if f.geo.NumKeys == 0 {
		return 0
	}
	return float64(8*f.SizeInBytes()) / float64(f.geo.NumKeys)
}
