package codec

import (
	"bytes"
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestBytesIsIdentity(t *testing.T) {
	in := []byte{0x00, 0xF2, 0x46}
	enc, err := Bytes{}.Encode(in)
	if err != nil || !bytes.Equal(enc, in) {
		t.Fatalf("Encode: %v %v", enc, err)
	}
	dec, err := Bytes{}.Decode(enc)
	if err != nil || !bytes.Equal(dec, in) {
		t.Fatalf("Decode: %v %v", dec, err)
	}
}

func TestStringPassesRawBytesThrough(t *testing.T) {
	enc, err := String{}.Encode("höi")
	if err != nil || string(enc) != "höi" {
		t.Fatalf("Encode: %q %v", enc, err)
	}
	// no validation: invalid UTF-8 survives the round trip byte for byte
	dec, err := String{}.Decode([]byte{'h', 0xFF, 'i'})
	if err != nil || dec != string([]byte{'h', 0xFF, 'i'}) {
		t.Fatalf("Decode: %q %v", dec, err)
	}
}

func TestLimitCodecBoundary(t *testing.T) {
	lc := LimitCodec[string]{Inner: String{}, MaxDecode: 4}

	// Encode is never limited.
	big, err := lc.Encode(strings.Repeat("x", 10))
	if err != nil || len(big) != 10 {
		t.Fatalf("Encode: %d bytes, err=%v", len(big), err)
	}

	if _, err := lc.Decode([]byte("1234")); err != nil {
		t.Fatalf("payload at the limit should decode: %v", err)
	}
	if _, err := lc.Decode([]byte("12345")); err == nil {
		t.Fatalf("payload over the limit should be rejected")
	}

	// MaxDecode <= 0 disables the check.
	open := LimitCodec[string]{Inner: String{}}
	if _, err := open.Decode(big); err != nil {
		t.Fatalf("unlimited decode: %v", err)
	}
}

func TestProtobufRoundTrip(t *testing.T) {
	pc := NewProtobuf(func() *wrapperspb.BytesValue { return &wrapperspb.BytesValue{} })

	enc, err := pc.Encode(wrapperspb.Bytes([]byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := pc.Decode(enc)
	if err != nil || !bytes.Equal(got.GetValue(), []byte{1, 2, 3}) {
		t.Fatalf("Decode: %v %v", got, err)
	}
}
