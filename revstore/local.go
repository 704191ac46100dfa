package revstore

import (
	"context"
	"sync"
	"time"
)

type localRevEntry struct {
	Rev       uint64
	UpdatedAt time.Time
}

// LocalRevStore keeps revisions in-process (default).
// Optional cleanup loop to prune long-inactive entries.
type LocalRevStore struct {
	mu     sync.RWMutex
	revs   map[string]localRevEntry
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup

	retention time.Duration
}

var _ RevStore = (*LocalRevStore)(nil)

func NewLocalRevStore(cleanupInterval, retention time.Duration) *LocalRevStore {
	s := &LocalRevStore{
		revs:      make(map[string]localRevEntry),
		retention: retention,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *LocalRevStore) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	e, ok := s.revs[k]
	s.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	return e.Rev, nil
}

// SnapshotMany acquires the read lock once and reads all requested keys.
// this avoids per-key lock/unlock overhead.
func (s *LocalRevStore) SnapshotMany(_ context.Context, ks []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(ks))
	s.mu.RLock()
	for _, k := range ks {
		out[k] = s.revs[k].Rev // zero value (0) if missing
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *LocalRevStore) Bump(_ context.Context, k string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.revs[k]
	e.Rev++
	e.UpdatedAt = now
	s.revs[k] = e
	s.mu.Unlock()
	return e.Rev, nil
}

func (s *LocalRevStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.revs {
		if !e.UpdatedAt.IsZero() && e.UpdatedAt.Before(cutoff) {
			delete(s.revs, k)
		}
	}
	s.mu.Unlock()
}

func (s *LocalRevStore) Close(_ context.Context) error {
	if s.stopCh != nil {
		close(s.stopCh)
		if s.ticker != nil {
			s.ticker.Stop() // stop ticker before waiting
		}
		s.wg.Wait()
	}
	return nil
}
