package revstore

import (
	"context"
	"time"
)

// RevStore abstracts where per-name revisions live.
// Use LocalRevStore (default) for in-process revisions, or RedisRevStore for
// revisions shared across replicas.
type RevStore interface {
	// Snapshot returns the current revision; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// SnapshotMany returns revisions for many keys; missing => 0.
	SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new revision.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
