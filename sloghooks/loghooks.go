// Package sloghooks logs depot hook events through log/slog with sampling
// and key redaction.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/fpack"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery     uint64
	BundleRejectEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr     atomic.Uint64
	bundleRejectCtr atomic.Uint64
}

var _ fpack.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("fpack.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) BundleRejected(ns string, requested int, reason string) {
	if h.l == nil || !sample(h.opts.BundleRejectEvery, &h.bundleRejectCtr) {
		return
	}
	h.l.Info("fpack.bundle_rejected",
		"ns", ns,
		"requested", requested,
		"reason", reason)
}

func (h *Hooks) StoreSetRejected(storageKey string, isBundle bool) {
	if h.l == nil {
		return
	}
	h.l.Warn("fpack.store_set_rejected",
		"key", h.redact(storageKey),
		"is_bundle", isBundle)
}

func (h *Hooks) RevSnapshotError(count int, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("fpack.rev_snapshot_error",
		"count", count,
		"err", err)
}

func (h *Hooks) RevBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("fpack.rev_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) DropOutage(name string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("fpack.drop_outage",
		"name", h.redact(name),
		"bump_err", bumpErr,
		"del_err", delErr)
}

func (h *Hooks) LocalRevWithBundle() {
	if h.l == nil {
		return
	}
	h.l.Warn("fpack.local_rev_with_bundle",
		"msg", "bundles enabled with local revstore; stale bundles possible in multi-replica")
}
