package ptrhash

import (
	"errors"
	"math"
	"testing"

	mpherrors "github.com/minperf/mphkv/errors"
)

func TestComputeGeometrySinglePartition(t *testing.T) {
	testCases := []struct {
		name      string
		numKeys   uint64
		wantSlots uint32
	}{
		{"empty", 0, 64},
		{"one_key", 1, 64},
		{"tiny", 50, 64},
		{"small", 1000, 1024},
		{"pow2_boundary", 1004, 1024}, // ceil(1004/0.98) = 1025 -> 2048
		{"threshold", singlePartitionMaxKeys, 1 << 16},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := ComputeGeometry(tc.numKeys)
			if err != nil {
				t.Fatalf("ComputeGeometry(%d) failed: %v", tc.numKeys, err)
			}
			if g.NumPartitions != 1 {
				t.Errorf("NumPartitions = %d, want 1", g.NumPartitions)
			}
			if tc.name == "pow2_boundary" {
				// ceil(1004/0.98) = 1025, which no longer fits 1024 slots.
				if g.SlotsPerPartition != 2048 {
					t.Errorf("SlotsPerPartition = %d, want 2048", g.SlotsPerPartition)
				}
			} else if g.SlotsPerPartition != tc.wantSlots {
				t.Errorf("SlotsPerPartition = %d, want %d", g.SlotsPerPartition, tc.wantSlots)
			}
			if g.SlotsPerPartition&(g.SlotsPerPartition-1) != 0 {
				t.Errorf("SlotsPerPartition = %d is not a power of two", g.SlotsPerPartition)
			}
			if g.TotalSlots != uint64(g.SlotsPerPartition) {
				t.Errorf("TotalSlots = %d, want %d", g.TotalSlots, g.SlotsPerPartition)
			}
			if uint64(g.SlotsPerPartition) < tc.numKeys {
				t.Errorf("fewer slots (%d) than keys (%d)", g.SlotsPerPartition, tc.numKeys)
			}
		})
	}
}

func TestComputeGeometryPartitioned(t *testing.T) {
	numKeys := singlePartitionMaxKeys + 1
	g, err := ComputeGeometry(numKeys)
	if err != nil {
		t.Fatalf("ComputeGeometry(%d) failed: %v", numKeys, err)
	}
	if g.NumPartitions != 2 {
		t.Errorf("NumPartitions = %d, want 2", g.NumPartitions)
	}
	if g.SlotsPerPartition != 1<<16 {
		t.Errorf("SlotsPerPartition = %d, want %d", g.SlotsPerPartition, 1<<16)
	}
	if g.TotalSlots != 2<<16 {
		t.Errorf("TotalSlots = %d, want %d", g.TotalSlots, 2<<16)
	}

	// Average fill per partition must not exceed alpha.
	avg := float64(numKeys) / float64(g.TotalSlots)
	if avg > alpha {
		t.Errorf("average load %.4f exceeds alpha %.2f", avg, alpha)
	}
}

func TestComputeGeometryBuckets(t *testing.T) {
	g, err := ComputeGeometry(10_000)
	if err != nil {
		t.Fatal(err)
	}
	want := uint32(math.Ceil(alpha * float64(g.SlotsPerPartition) / lambda))
	if g.BucketsPerPartition != want {
		t.Errorf("BucketsPerPartition = %d, want %d", g.BucketsPerPartition, want)
	}
	if g.TotalBuckets != uint64(g.NumPartitions)*uint64(g.BucketsPerPartition) {
		t.Errorf("TotalBuckets = %d, inconsistent with per-partition count", g.TotalBuckets)
	}
}

func TestComputeGeometryTooManyKeys(t *testing.T) {
	_, err := ComputeGeometry(1 << 33)
	if !errors.Is(err, mpherrors.ErrTooManyKeys) {
		t.Errorf("expected ErrTooManyKeys, got: %v", err)
	}
}
