package ptrhash

import (
	"sort"
	"testing"
)

func TestBucketHeapOrdering(t *testing.T) {
	h := newBucketHeap(4)
	h.push(3, 2)
	h.push(1, 5)
	h.push(7, 5)
	h.push(2, 1)
	h.push(5, 3)

	// Largest size first; ties break on the lower bucket index.
	want := []struct{ idx, size int }{
		{1, 5}, {7, 5}, {5, 3}, {3, 2}, {2, 1},
	}
	for i, w := range want {
		idx, size := h.pop()
		if idx != w.idx || size != w.size {
			t.Fatalf("pop %d = (%d, %d), want (%d, %d)", i, idx, size, w.idx, w.size)
		}
	}
	if h.len() != 0 {
		t.Errorf("heap not empty after draining: len = %d", h.len())
	}
}

func TestBucketHeapClear(t *testing.T) {
	h := newBucketHeap(2)
	h.push(0, 1)
	h.push(1, 2)
	h.clear()
	if h.len() != 0 {
		t.Errorf("len after clear = %d, want 0", h.len())
	}
	h.push(9, 4)
	if idx, size := h.pop(); idx != 9 || size != 4 {
		t.Errorf("pop after clear = (%d, %d), want (9, 4)", idx, size)
	}
}

func TestBucketHeapRandom(t *testing.T) {
	rng := newTestRNG(t)
	h := newBucketHeap(16)

	const n = 500
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = rng.IntN(20)
		h.push(i, sizes[i])
	}

	prevSize, prevIdx := 1<<30, -1
	for i := 0; i < n; i++ {
		idx, size := h.pop()
		if size != sizes[idx] {
			t.Fatalf("pop returned size %d for bucket %d, want %d", size, idx, sizes[idx])
		}
		if size > prevSize || (size == prevSize && idx < prevIdx) {
			t.Fatalf("out of order: (%d, %d) after (%d, %d)", idx, size, prevIdx, prevSize)
		}
		prevSize, prevIdx = size, idx
	}
}

func TestSortBucketsBySize(t *testing.T) {
	rng := newTestRNG(t)

	const numBuckets = 200
	buckets := make([][]Hash, numBuckets)
	maxSize := 0
	for i := range buckets {
		size := rng.IntN(8)
		buckets[i] = make([]Hash, size)
		if size > maxSize {
			maxSize = size
		}
	}

	order := make([]uint16, numBuckets)
	counts := make([]int, maxSize+1)
	positions := make([]int, maxSize+1)
	sortBucketsBySize(buckets, order, counts, positions)

	want := make([]int, numBuckets)
	for i := range want {
		want[i] = i
	}
	sort.SliceStable(want, func(a, b int) bool {
		return len(buckets[want[a]]) > len(buckets[want[b]])
	})

	for i := range order {
		if int(order[i]) != want[i] {
			t.Fatalf("order[%d] = %d (size %d), want %d (size %d)",
				i, order[i], len(buckets[order[i]]), want[i], len(buckets[want[i]]))
		}
	}
}

func TestSortBucketsAllEmpty(t *testing.T) {
	buckets := make([][]Hash, 5)
	order := make([]uint16, 5)
	sortBucketsBySize(buckets, order, make([]int, 1), make([]int, 1))
	for i, o := range order {
		if int(o) != i {
			t.Errorf("order[%d] = %d, want %d", i, o, i)
		}
	}
}
