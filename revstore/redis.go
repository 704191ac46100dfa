package revstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevStore shares per-name revisions across processes and survives
// restarts. Optionally, a TTL can be applied to revision keys to prevent
// unbounded growth. If a revision key expires, readers observe rev=0 and
// depot entries self-heal.
type RedisRevStore struct {
	rdb redis.UniversalClient
	ns  string        // logical namespace; should match Options.Namespace
	ttl time.Duration // optional TTL for revision keys; 0 disables expiry
}

var _ RevStore = (*RedisRevStore)(nil)

// NewRedisRevStore creates a Redis-backed revision store without TTL.
func NewRedisRevStore(client redis.UniversalClient, namespace string) *RedisRevStore {
	return &RedisRevStore{rdb: client, ns: namespace}
}

// NewRedisRevStoreWithTTL creates a Redis-backed revision store with TTL.
// If ttl <= 0, keys do not expire.
func NewRedisRevStoreWithTTL(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisRevStore {
	return &RedisRevStore{rdb: client, ns: namespace, ttl: ttl}
}

func (s *RedisRevStore) key(k string) string { return "rev:" + s.ns + ":" + k }

// Snapshot returns the current revision.
// Missing keys are treated as revision 0.
func (s *RedisRevStore) Snapshot(ctx context.Context, storageKey string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(storageKey)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis rev parse: %w", err)
	}
	return u, nil
}

// SnapshotMany returns revisions for multiple keys.
// Missing keys map to 0.
func (s *RedisRevStore) SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error) {
	if len(storageKeys) == 0 {
		return map[string]uint64{}, nil
	}
	keys := make([]string, len(storageKeys))
	for i, k := range storageKeys {
		keys[i] = s.key(k)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]uint64, len(storageKeys))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			out[storageKeys[i]] = 0
		case string:
			u, err := strconv.ParseUint(vv, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("redis rev parse at %s: %w", storageKeys[i], err)
			}
			out[storageKeys[i]] = u
		case []byte:
			u, err := strconv.ParseUint(string(vv), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("redis rev parse at %s: %w", storageKeys[i], err)
			}
			out[storageKeys[i]] = u
		default:
			str := fmt.Sprint(vv)
			u, err := strconv.ParseUint(str, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("redis rev parse at %s: %w", storageKeys[i], err)
			}
			out[storageKeys[i]] = u
		}
	}
	return out, nil
}

// Bump atomically increments the revision and (optionally) refreshes TTL.
// When ttl > 0, INCR + EXPIRE are pipelined in a single round-trip and the
// INCR result is captured from the pipeline (no extra INCR).
func (s *RedisRevStore) Bump(ctx context.Context, storageKey string) (uint64, error) {
	k := s.key(storageKey)

	if s.ttl <= 0 {
		v, err := s.rdb.Incr(ctx, k).Result()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// Cleanup is not applicable for RedisRevStore (Redis handles expiry if TTL is set).
func (s *RedisRevStore) Cleanup(time.Duration) {}

// Close closes the underlying Redis client.
func (s *RedisRevStore) Close(ctx context.Context) error { return s.rdb.Close() }
