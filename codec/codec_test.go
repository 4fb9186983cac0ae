package codec

import (
	"bytes"
	"testing"
)

func TestStringRoundTrip(t *testing.T) {
	c := String{}
	for _, v := range []string{"", "a", "some longer value", "\x00binary\xff"} {
		encoded, err := c.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%q) failed: %v", v, err)
		}
		decoded, err := c.Unmarshal(encoded)
		if err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if decoded != v {
			t.Errorf("round trip of %q gave %q", v, decoded)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	c := Bytes{}
	v := []byte{1, 2, 3, 255, 0}
	encoded, err := c.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := c.Unmarshal(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, v) {
		t.Errorf("round trip of %v gave %v", v, decoded)
	}
}

// TestBytesNoAliasing pins the contract that decoded values never share
// memory with the input buffer.
func TestBytesNoAliasing(t *testing.T) {
	c := Bytes{}

	v := []byte{1, 2, 3}
	encoded, _ := c.Marshal(v)
	v[0] = 99
	if encoded[0] != 1 {
		t.Error("Marshal output aliases the value")
	}

	decoded, _ := c.Unmarshal(encoded)
	encoded[0] = 42
	if decoded[0] != 1 {
		t.Error("Unmarshal output aliases the input")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type record struct {
		ID   int      `json:"id"`
		Tags []string `json:"tags,omitempty"`
	}
	c := JSON[record]{}

	v := record{ID: 7, Tags: []string{"x", "y"}}
	encoded, err := c.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := c.Unmarshal(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.ID != v.ID || len(decoded.Tags) != 2 || decoded.Tags[1] != "y" {
		t.Errorf("round trip of %+v gave %+v", v, decoded)
	}
}

func TestJSONUnmarshalError(t *testing.T) {
	c := JSON[int]{}
	if _, err := c.Unmarshal([]byte("not json")); err == nil {
		t.Error("Unmarshal of invalid JSON succeeded")
	}
}

func TestCodecNames(t *testing.T) {
	if (String{}).Name() != "string" || (Bytes{}).Name() != "bytes" || (JSON[int]{}).Name() != "json" {
		t.Error("codec names changed; persisted stores reference them")
	}
}
