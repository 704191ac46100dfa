// Package fpack implements a small flat container format: one free-form
// comment, a creation timestamp with two derived fields, and an ordered list
// of named byte blobs, encoded into a single buffer with full round-trip
// decode.
//
// Wire layout (multi-byte integers little-endian):
//
//	magic(1, 0x46) | comment\x00 | x(u64) | count(u16)
//	per file: name\x00 | clen(u64) | content(clen bytes)
//
// y and z never hit the wire; they are recomputed as x+43 and x+34 whenever
// x is read, so the invariant holds for every Container regardless of where
// it came from.
//
// On top of the codec, Depot persists encoded containers by name into a
// pluggable byte store with per-name revisions guarding concurrent
// overwrites:
//   - Store: byte store with TTL (e.g. Ristretto, BigCache, Redis).
//   - RevStore: revision counter per name. Local (in-process) by default,
//     optional Redis implementation for multi-replica setups.
//   - Codec[Manifest]: encodes the manifest sidecar saved next to each blob.
//
// Keys:
//
//	entry:<ns>:<name>    - encoded containers
//	manifest:<ns>:<name> - manifest sidecars
//	bundle:<ns>:<hash>   - multi-container bundles (hash over sorted names)
//
// Conditional-save pattern:
//
//	obs := depot.SnapshotRev(name) // before building the container
//	c   := buildContainer()
//	_   = depot.Save(ctx, name, c, obs, 0) // write iff current rev == obs
package fpack
