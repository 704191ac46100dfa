// Package codec provides pluggable value serialization for depot sidecars
// (and anything else that needs V <-> []byte).
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
