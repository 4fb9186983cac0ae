// Package codec centralizes value encoding for store persistence.
//
// The codec used to write a store must also be used to read it back; codec
// selection is deliberately a breaking-change boundary for persisted bytes.
package codec

import "encoding/json"

// Codec encodes and decodes store values. Implementations must be safe for
// concurrent use. Unmarshal must not retain the input slice: it may alias a
// memory-mapped file that is unmapped after loading completes.
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
	Name() string
}

// String stores string values verbatim.
type String struct{}

func (String) Marshal(v string) ([]byte, error) {
	return []byte(v), nil
}

func (String) Unmarshal(data []byte) (string, error) {
	return string(data), nil
}

func (String) Name() string { return "string" }

// Bytes stores byte-slice values verbatim. Both directions copy, so decoded
// values never alias the source buffer.
type Bytes struct{}

func (Bytes) Marshal(v []byte) ([]byte, error) {
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (Bytes) Unmarshal(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (Bytes) Name() string { return "bytes" }

// JSON encodes values with encoding/json. The general-purpose choice for
// struct values.
type JSON[V any] struct{}

func (JSON[V]) Marshal(v V) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON[V]) Unmarshal(data []byte) (V, error) {
	var v V
	err := json.Unmarshal(data, &v)
	return v, err
}

func (JSON[V]) Name() string { return "json" }
