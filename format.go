package fpack

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf8"
)

// Magic is the fixed first byte of every encoded container.
const Magic byte = 0x46

const (
	yDifference uint64 = 43
	zDifference uint64 = 34
)

// derive recomputes the two fields that depend on x. They are never stored
// on the wire and never settable independently.
func derive(x uint64) (y, z uint64) {
	return x + yDifference, x + zDifference
}

// Encode serializes c into the container wire format. It is total: every
// in-memory container encodes without error.
//
// Known format quirks, kept for wire compatibility: file counts above 65535
// wrap around the u16 count field, and a 0x00 byte embedded in the comment or
// a file name desynchronizes the decoder. Callers own that validation.
func (c *Container) Encode() []byte {
	total := 1 + len(c.Comment) + 1 + 8 + 2
	for i := range c.Files {
		total += len(c.Files[i].Name) + 1 + 8 + len(c.Files[i].Content)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	var u8 [8]byte
	var u2 [2]byte

	buf.WriteByte(Magic)
	buf.WriteString(c.Comment)
	buf.WriteByte(0x00)

	binary.LittleEndian.PutUint64(u8[:], c.X)
	buf.Write(u8[:])

	binary.LittleEndian.PutUint16(u2[:], uint16(len(c.Files)))
	buf.Write(u2[:])

	for i := range c.Files {
		f := &c.Files[i]
		buf.WriteString(f.Name)
		buf.WriteByte(0x00)

		binary.LittleEndian.PutUint64(u8[:], uint64(len(f.Content)))
		buf.Write(u8[:])
		buf.Write(f.Content)
	}

	return buf.Bytes()
}

// Decode parses a buffer produced by Encode. The parse is a single forward
// pass over an explicit offset; truncation is detected lazily, field by
// field. Trailing bytes after the last file are ignored.
//
// Decoded file contents subslice b (zero-copy); clone them if b is reused.
func Decode(b []byte) (*Container, error) {
	if len(b) == 0 {
		return nil, ErrTruncated
	}
	if b[0] != Magic {
		return nil, ErrBadMagic
	}
	off := 1

	comment, off, err := readCString(b, off)
	if err != nil {
		return nil, err
	}

	if off+8 > len(b) {
		return nil, ErrTruncated
	}
	x := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	y, z := derive(x)

	if off+2 > len(b) {
		return nil, ErrTruncated
	}
	count := int(binary.LittleEndian.Uint16(b[off : off+2]))
	off += 2

	files := make([]File, 0, count)
	for i := 0; i < count; i++ {
		var name string
		name, off, err = readCString(b, off)
		if err != nil {
			return nil, err
		}

		if off+8 > len(b) {
			return nil, ErrTruncated
		}
		clen := binary.LittleEndian.Uint64(b[off : off+8])
		off += 8
		if clen > uint64(len(b)-off) { // overflow-safe bound check
			return nil, ErrTruncated
		}

		content := b[off : off+int(clen)]
		off += int(clen)

		files = append(files, File{Name: name, Content: content})
	}

	return &Container{Comment: comment, X: x, Y: y, Z: z, Files: files}, nil
}

// readCString scans forward from off for the 0x00 sentinel and decodes the
// bytes before it as text. Decoding is lossy and never fails: each maximal
// invalid subpart becomes one U+FFFD. Returns the decoded string and the
// offset past the sentinel.
func readCString(b []byte, off int) (string, int, error) {
	i := bytes.IndexByte(b[off:], 0x00)
	if i < 0 {
		return "", 0, ErrTruncated
	}
	return lossyString(b[off : off+i]), off + i + 1, nil
}

// lossyString converts raw to a string, substituting one U+FFFD for each
// maximal invalid subpart (Unicode "U+FFFD Substitution of Maximal
// Subparts"): two adjacent stray bytes yield two replacements, while a
// truncated multi-byte sequence yields one.
func lossyString(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var sb strings.Builder
	sb.Grow(len(raw) + 2)
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			i += subpartLen(raw[i:])
			continue
		}
		sb.Write(raw[i : i+size])
		i += size
	}
	return sb.String()
}

// subpartLen reports how many bytes at the start of an invalid sequence form
// the longest prefix of a well-formed encoding. Always at least 1.
func subpartLen(b []byte) int {
	lead := b[0]
	var lo, hi byte
	var cont int // continuation bytes a complete sequence would carry
	switch {
	case lead >= 0xC2 && lead <= 0xDF:
		return 1 // the continuation byte was bad or missing
	case lead == 0xE0:
		lo, hi, cont = 0xA0, 0xBF, 2
	case lead >= 0xE1 && lead <= 0xEF && lead != 0xED:
		lo, hi, cont = 0x80, 0xBF, 2
	case lead == 0xED:
		lo, hi, cont = 0x80, 0x9F, 2 // excludes surrogates
	case lead == 0xF0:
		lo, hi, cont = 0x90, 0xBF, 3
	case lead >= 0xF1 && lead <= 0xF3:
		lo, hi, cont = 0x80, 0xBF, 3
	case lead == 0xF4:
		lo, hi, cont = 0x80, 0x8F, 3
	default:
		return 1 // stray continuation byte, or a byte UTF-8 never uses
	}
	if len(b) < 2 || b[1] < lo || b[1] > hi {
		return 1
	}
	n := 2
	for n <= cont && n < len(b) && b[n] >= 0x80 && b[n] <= 0xBF {
		n++
	}
	return n
}
