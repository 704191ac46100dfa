// Package wire frames depot records. Every stored value carries the revision
// it was written under so readers can reject entries that outlived a Drop.
// Unlike the container format itself, the envelope is strict: trailing bytes
// are corruption.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version    byte = 1
	kindEntry  byte = 1
	kindBundle byte = 2
)

var (
	ErrCorrupt = errors.New("fpack: corrupt depot record")
	magic4     = [...]byte{'F', 'P', 'K', 'D'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | kind(1=entry) | rev(u64 be) | plen(u32 be) | payload(plen)
func EncodeEntry(rev uint64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 8 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], rev)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeEntry returns the revision and the payload. The payload subslices b
// (zero-copy); callers must not mutate b while the payload is in use.
func DecodeEntry(b []byte) (rev uint64, payload []byte, err error) {
	const hdr = 4 + 1 + 1 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return 0, nil, ErrCorrupt
	}

	off := 6

	// rev
	rev = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	// plen; must account for the rest of the buffer exactly
	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen != len(b)-off {
		return 0, nil, ErrCorrupt
	}

	return rev, b[off:], nil
}

// Bundle:
//
//	magic(4) | ver(1) | kind(1=bundle) | n(u32 be)
//	nameLen(u16 be) | name(nameLen) | rev(u64 be) | plen(u32 be) | payload(plen) * n
type BundleItem struct {
	Name    string
	Rev     uint64
	Payload []byte
}

func EncodeBundle(items []BundleItem) ([]byte, error) {
	total := 4 + 1 + 1 + 4
	for i := range items {
		if l := len(items[i].Name); l == 0 || l > 0xFFFF {
			return nil, errors.New("fpack: invalid name length in bundle")
		}
		total += 2 + len(items[i].Name) + 8 + 4 + len(items[i].Payload)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindBundle)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint32(u4[:], uint32(len(items)))
	buf.Write(u4[:])

	for _, it := range items {
		binary.BigEndian.PutUint16(u2[:], uint16(len(it.Name)))
		buf.Write(u2[:])
		buf.WriteString(it.Name)

		binary.BigEndian.PutUint64(u8[:], it.Rev)
		buf.Write(u8[:])

		binary.BigEndian.PutUint32(u4[:], uint32(len(it.Payload)))
		buf.Write(u4[:])
		buf.Write(it.Payload)
	}

	return buf.Bytes(), nil
}

func DecodeBundle(b []byte) ([]BundleItem, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindBundle {
		return nil, ErrCorrupt
	}

	off := 6

	// n; bound against the smallest possible item before preallocating
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	const minItem = 2 + 1 + 8 + 4 // shortest legal item: one-byte name, empty payload
	if n < 0 || n > (len(b)-off)/minItem {
		return nil, ErrCorrupt
	}

	items := make([]BundleItem, 0, n)
	for i := 0; i < n; i++ {
		// nameLen
		if off+2 > len(b) {
			return nil, ErrCorrupt
		}
		nlen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if nlen <= 0 || nlen > len(b)-off {
			return nil, ErrCorrupt
		}

		nameBytes := b[off : off+nlen]
		off += nlen

		// rev
		if off+8 > len(b) {
			return nil, ErrCorrupt
		}
		rev := binary.BigEndian.Uint64(b[off : off+8])
		off += 8

		// plen
		if off+4 > len(b) {
			return nil, ErrCorrupt
		}
		plen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if plen < 0 || plen > len(b)-off {
			return nil, ErrCorrupt
		}

		payload := b[off : off+plen]
		off += plen

		items = append(items, BundleItem{
			Name:    string(nameBytes), // one expected alloc per item
			Rev:     rev,
			Payload: payload,
		})
	}

	if off != len(b) {
		return nil, ErrCorrupt
	}
	return items, nil
}
