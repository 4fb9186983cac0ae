package ptrhash

// bucketHeap is a max-heap of bucket indices ordered by bucket size, used as
// the worklist for buckets displaced by eviction. Larger buckets come out
// first; ties break on the lower bucket index so draining order is fully
// deterministic.
type bucketHeap struct {
	indices []uint16
	sizes   []uint16
}

func newBucketHeap(capacity int) *bucketHeap {
	return &bucketHeap{
		indices: make([]uint16, 0, capacity),
		sizes:   make([]uint16, 0, capacity),
	}
}

func (h *bucketHeap) clear() {
	h.indices = h.indices[:0]
	h.sizes = h.sizes[:0]
}

func (h *bucketHeap) len() int {
	return len(h.indices)
}

func (h *bucketHeap) push(idx int, size int) {
	h.indices = append(h.indices, uint16(idx))
	h.sizes = append(h.sizes, uint16(size))
	h.up(len(h.indices) - 1)
}

func (h *bucketHeap) pop() (int, int) {
	n := len(h.indices) - 1
	h.swap(0, n)
	h.down(0, n)
	idx := h.indices[n]
	size := h.sizes[n]
	h.indices = h.indices[:n]
	h.sizes = h.sizes[:n]
	return int(idx), int(size)
}

func (h *bucketHeap) swap(i, j int) {
	h.indices[i], h.indices[j] = h.indices[j], h.indices[i]
	h.sizes[i], h.sizes[j] = h.sizes[j], h.sizes[i]
}

func (h *bucketHeap) less(i, j int) bool {
	if h.sizes[i] != h.sizes[j] {
		return h.sizes[i] > h.sizes[j]
	}
	return h.indices[i] < h.indices[j]
}

func (h *bucketHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.less(j, i) {
			break
		}
		h.swap(i, j)
		j = i
	}
}

func (h *bucketHeap) down(i, n int) {
	for {
		j1 := 2*i + 1
		if j1 >= n {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.less(j2, j1) {
			j = j2
		}
		if !h.less(j, i) {
			break
		}
		h.swap(i, j)
		i = j
	}
}

// sortBucketsBySize fills order with bucket indices sorted by descending
// size using a counting sort; equal sizes keep ascending index order. The
// counts and positions buffers are reused across partitions.
func sortBucketsBySize(buckets [][]Hash, order []uint16, counts, positions []int) {
	n := len(buckets)
	if n == 0 {
		return
	}

	maxSize := 0
	for _, b := range buckets {
		if len(b) > maxSize {
			maxSize = len(b)
		}
	}
	if maxSize == 0 {
		for i := range order[:n] {
			order[i] = uint16(i)
		}
		return
	}

	for i := 0; i <= maxSize; i++ {
		counts[i] = 0
	}
	for _, b := range buckets {
		counts[len(b)]++
	}

	pos := 0
	for size := maxSize; size >= 0; size-- {
		positions[size] = pos
		pos += counts[size]
	}
	for i, b := range buckets {
		order[positions[len(b)]] = uint16(i)
		positions[len(b)]++
	}
}
