package mphkv

import "testing"

func TestHashersDeterministic(t *testing.T) {
	for _, h := range []Hasher{XXH3Hasher{}, Murmur3Hasher{}} {
		t.Run(h.Name(), func(t *testing.T) {
			k0a, k1a := h.Hash128("some key", testSeed1)
			k0b, k1b := h.Hash128("some key", testSeed1)
			if k0a != k0b || k1a != k1b {
				t.Error("same key and seed hashed differently")
			}

			k0c, k1c := h.Hash128("some key", testSeed2)
			if k0a == k0c && k1a == k1c {
				t.Error("different seeds produced the same hash")
			}

			k0d, k1d := h.Hash128("some key.", testSeed1)
			if k0a == k0d && k1a == k1d {
				t.Error("different keys produced the same hash")
			}
		})
	}
}

func TestHasherByName(t *testing.T) {
	for _, name := range []string{"xxh3", "murmur3"} {
		h, ok := hasherByName(name)
		if !ok {
			t.Errorf("hasherByName(%q) not found", name)
			continue
		}
		if h.Name() != name {
			t.Errorf("hasherByName(%q).Name() = %q", name, h.Name())
		}
	}
	if _, ok := hasherByName("sha256"); ok {
		t.Error("hasherByName resolved an unknown name")
	}
}
