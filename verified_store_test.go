package mphkv

import (
	"errors"
	"strings"
	"testing"

	mpherrors "github.com/minperf/mphkv/errors"
)

func TestVerifiedStoreBasic(t *testing.T) {
	s, err := NewVerifiedStore(map[string]string{"a": "1", "b": "2", "c": "3"})
	if err != nil {
		t.Fatalf("NewVerifiedStore failed: %v", err)
	}

	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
	for k, want := range map[string]string{"a": "1", "b": "2", "c": "3"} {
		got, err := s.Get(k)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", k, err)
		}
		if got != want {
			t.Fatalf("Get(%q) = %q, want %q", k, got, want)
		}
	}

	if _, err := s.Get("z"); !errors.Is(err, mpherrors.ErrKeyNotFound) {
		t.Errorf("Get(\"z\"): expected ErrKeyNotFound, got: %v", err)
	}
	if s.Contains("z") {
		t.Error("Contains(\"z\") = true for a non-member key")
	}
}

func TestVerifiedStoreGetDetailed(t *testing.T) {
	s, err := NewVerifiedStore(map[string]int{"present": 1})
	if err != nil {
		t.Fatal(err)
	}

	if got, err := s.GetDetailed("present"); err != nil || got != 1 {
		t.Errorf("GetDetailed(present) = %d, %v; want 1, nil", got, err)
	}

	_, err = s.GetDetailed("absent")
	if !errors.Is(err, mpherrors.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got: %v", err)
	}
	if !strings.Contains(err.Error(), "absent") {
		t.Errorf("detailed miss %q does not name the key", err.Error())
	}
}

// TestVerifiedStoreNoFalsePositives hammers the store with near-miss keys.
// The per-lookup key comparison must reject every one.
func TestVerifiedStoreNoFalsePositives(t *testing.T) {
	data := testMapping(5000)
	s, err := NewVerifiedStore(data)
	if err != nil {
		t.Fatal(err)
	}

	rng := newTestRNG(t)
	for trial := 0; trial < 10_000; trial++ {
		probe := randomProbeKey(rng.Uint64())
		if _, member := data[probe]; member {
			continue
		}
		if _, err := s.Get(probe); !errors.Is(err, mpherrors.ErrKeyNotFound) {
			t.Fatalf("Get(%q) = %v, want ErrKeyNotFound", probe, err)
		}
		if s.Contains(probe) {
			t.Fatalf("Contains(%q) = true for a non-member key", probe)
		}
	}
}

func randomProbeKey(x uint64) string {
	// Same shape as the member keys but out of their numeric range.
	return "key_" + strings.Repeat("9", int(x%4)+5)
}

func TestVerifiedStoreEmpty(t *testing.T) {
	s, err := NewVerifiedStore(map[string]string{})
	if err != nil {
		t.Fatalf("NewVerifiedStore(empty) failed: %v", err)
	}
	if !s.IsEmpty() || s.Len() != 0 {
		t.Errorf("IsEmpty = %v, Len = %d; want true, 0", s.IsEmpty(), s.Len())
	}
	if _, err := s.Get("x"); !errors.Is(err, mpherrors.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got: %v", err)
	}
	for range s.All() {
		t.Fatal("All yielded a pair from an empty store")
	}
}

func TestVerifiedStoreIteration(t *testing.T) {
	data := testMapping(500)
	s, err := NewVerifiedStore(data)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]int, len(data))
	for k, v := range s.All() {
		if prev, dup := seen[k]; dup {
			t.Fatalf("key %q yielded twice (values %d and %d)", k, prev, v)
		}
		seen[k] = v
		if want := data[k]; v != want {
			t.Fatalf("All yielded %q -> %d, want %d", k, v, want)
		}
	}
	if len(seen) != len(data) {
		t.Errorf("All yielded %d pairs, want %d", len(seen), len(data))
	}

	// Keys and Values run in the same index order, so zipping them must
	// reproduce the pairs.
	var keys []string
	for k := range s.Keys() {
		keys = append(keys, k)
	}
	i := 0
	for v := range s.Values() {
		if want := data[keys[i]]; v != want {
			t.Fatalf("Values[%d] = %d, want %d (key %q)", i, v, want, keys[i])
		}
		i++
	}

	// Early termination must not panic and must restart cleanly.
	for range s.All() {
		break
	}
	n := 0
	for range s.Keys() {
		n++
	}
	if n != len(data) {
		t.Errorf("Keys after early break yielded %d, want %d", n, len(data))
	}
}

func TestVerifiedStoreStructValues(t *testing.T) {
	type record struct {
		ID   int
		Name string
	}
	data := map[string]record{
		"first":  {ID: 1, Name: "one"},
		"second": {ID: 2, Name: "two"},
	}
	s, err := NewVerifiedStore(data)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Get("second")
	if err != nil {
		t.Fatal(err)
	}
	if got != data["second"] {
		t.Errorf("Get(second) = %+v, want %+v", got, data["second"])
	}
}

func TestVerifiedStoreMemoryUsage(t *testing.T) {
	data := testMapping(1000)
	s, err := NewVerifiedStore(data)
	if err != nil {
		t.Fatal(err)
	}
	keyBytes := 0
	for k := range data {
		keyBytes += len(k)
	}
	if got := s.MemoryUsage(); got < keyBytes {
		t.Errorf("MemoryUsage = %d, want >= %d (key bytes alone)", got, keyBytes)
	}
}
