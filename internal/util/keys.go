package util

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// BundleKeySorted returns a deterministic composite key for a name set with a
// short hash. names must already be sorted ascending. Each name is
// length-prefixed in the hash input, so distinct name sets never share a key
// even when their concatenated bytes would.
func BundleKeySorted(prefix string, sortedNames []string) string {
	h := sha256.New()
	var nlen [8]byte
	for _, name := range sortedNames {
		binary.BigEndian.PutUint64(nlen[:], uint64(len(name)))
		h.Write(nlen[:])
		h.Write([]byte(name))
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil)[:8])
}
