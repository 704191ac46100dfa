// Package asynchook decouples hook sinks from the depot's hot paths.
// Events are queued to a bounded channel and dropped when it is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery:     10, // sample logs: ~every 10th self-heal
//	    BundleRejectEvery: 1,  // log every bundle rejection
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	depot, _ := fpack.NewDepot(fpack.Options{
//	    Namespace: "app:prod:archive",
//	    Store:     store,
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/fpack"
)

type Hooks struct {
	inner fpack.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ fpack.Hooks = (*Hooks)(nil)

func New(inner fpack.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) SelfHeal(k, r string)             { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) RevBumpError(k string, err error) { h.try(func() { h.inner.RevBumpError(k, err) }) }
func (h *Hooks) LocalRevWithBundle()              { h.try(func() { h.inner.LocalRevWithBundle() }) }
func (h *Hooks) BundleRejected(ns string, n int, r string) {
	h.try(func() { h.inner.BundleRejected(ns, n, r) })
}
func (h *Hooks) StoreSetRejected(k string, b bool) {
	h.try(func() { h.inner.StoreSetRejected(k, b) })
}
func (h *Hooks) RevSnapshotError(n int, err error) {
	h.try(func() { h.inner.RevSnapshotError(n, err) })
}
func (h *Hooks) DropOutage(name string, be, de error) {
	h.try(func() { h.inner.DropOutage(name, be, de) })
}
