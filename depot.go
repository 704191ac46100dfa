package fpack

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/unkn0wn-root/fpack/codec"
	"github.com/unkn0wn-root/fpack/internal/util"
	"github.com/unkn0wn-root/fpack/internal/wire"
	"github.com/unkn0wn-root/fpack/revstore"
	"github.com/unkn0wn-root/fpack/store"
)

const (
	defaultRevRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type depot struct {
	ns    string
	store store.Store
	log   Logger
	hooks Hooks

	manifestCodec codec.Codec[Manifest]

	defaultTTL     time.Duration
	bundleTTL      time.Duration
	sweepInterval  time.Duration
	revRetention   time.Duration
	computeSetCost SetCostFunc

	rev revstore.RevStore

	bundleDisabled   bool
	manifestDisabled bool
}

func newDepot(opts Options) (*depot, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("fpack: store is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("fpack: namespace is required")
	}

	d := &depot{
		ns:               opts.Namespace,
		store:            opts.Store,
		bundleDisabled:   opts.DisableBundle,
		manifestDisabled: opts.DisableManifest,
	}

	// defaults
	d.log = coalesce[Logger](opts.Logger, NopLogger{})
	d.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	d.defaultTTL = opts.DefaultTTL
	d.bundleTTL = opts.BundleTTL
	d.sweepInterval = coalesce[time.Duration](opts.CleanupInterval, defaultSweep)
	d.revRetention = coalesce[time.Duration](opts.RevRetention, defaultRevRetention)

	if opts.ComputeSetCost != nil {
		d.computeSetCost = opts.ComputeSetCost
	} else {
		d.computeSetCost = func(_ string, _ []byte, _ bool, _ int) int64 { return 1 }
	}

	if !d.manifestDisabled {
		d.manifestCodec = opts.ManifestCodec
		if d.manifestCodec == nil {
			d.manifestCodec = codec.JSON[Manifest]{}
		}
	}

	if opts.RevStore != nil {
		d.rev = opts.RevStore
	} else {
		// default to in-process revisions with periodic cleanup
		d.rev = revstore.NewLocalRevStore(d.sweepInterval, d.revRetention)
		if !d.bundleDisabled {
			d.hooks.LocalRevWithBundle()
		}
	}

	return d, nil
}

func (d *depot) Close(ctx context.Context) error {
	// Close rev store first (best effort)
	if d.rev != nil {
		_ = d.rev.Close(ctx)
	}
	if d.store != nil {
		return d.store.Close(ctx)
	}
	return nil
}

func (d *depot) Save(ctx context.Context, name string, c *Container, observedRev uint64, ttl time.Duration) error {
	if c == nil {
		return fmt.Errorf("fpack: nil container")
	}
	if ttl == 0 {
		ttl = d.defaultTTL
	}
	k := d.entryKey(name)
	if d.snapshotRev(k) != observedRev {
		// revision moved; skip stale write
		d.log.Debug("Save skipped (rev mismatch)", Fields{"name": name, "obs": observedRev})
		return nil
	}

	env := wire.EncodeEntry(observedRev, c.Encode())
	ok, err := d.store.Set(ctx, k, env, d.computeSetCost(k, env, false, 1), ttl)
	if err != nil {
		return err
	}
	if !ok {
		d.hooks.StoreSetRejected(k, false)
		d.log.Debug("Save rejected by store (pressure)", Fields{"name": name})
		return nil
	}

	if !d.manifestDisabled {
		if err := d.saveManifest(ctx, name, c, ttl); err != nil {
			// sidecar is advisory; the entry itself landed
			d.log.Warn("manifest sidecar write failed", Fields{"name": name, "err": err})
		}
	}
	return nil
}

func (d *depot) saveManifest(ctx context.Context, name string, c *Container, ttl time.Duration) error {
	mb, err := d.manifestCodec.Encode(c.Manifest())
	if err != nil {
		return err
	}
	mk := d.manifestKey(name)
	ok, err := d.store.Set(ctx, mk, mb, d.computeSetCost(mk, mb, false, 1), ttl)
	if err != nil {
		return err
	}
	if !ok {
		d.hooks.StoreSetRejected(mk, false)
	}
	return nil
}

func (d *depot) Load(ctx context.Context, name string) (*Container, bool, error) {
	k := d.entryKey(name)
	raw, ok, err := d.store.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	rev, payload, err := wire.DecodeEntry(raw)
	if err != nil {
		d.selfHeal(ctx, k, "corrupt")
		return nil, false, nil
	}
	// validate revision
	if rev != d.snapshotRev(k) {
		d.selfHeal(ctx, k, "rev_mismatch")
		return nil, false, nil
	}
	c, err := Decode(payload)
	if err != nil {
		d.selfHeal(ctx, k, "decode")
		return nil, false, nil
	}
	return c, true, nil
}

// Stat returns the manifest sidecar for name without decoding the blob.
// Always a miss when sidecars are disabled.
func (d *depot) Stat(ctx context.Context, name string) (Manifest, bool, error) {
	var zero Manifest
	if d.manifestDisabled {
		return zero, false, nil
	}
	mk := d.manifestKey(name)
	raw, ok, err := d.store.Get(ctx, mk)
	if err != nil || !ok {
		return zero, false, err
	}
	m, err := d.manifestCodec.Decode(raw)
	if err != nil {
		d.selfHeal(ctx, mk, "manifest_decode")
		return zero, false, nil
	}
	return m, true, nil
}

func (d *depot) Drop(ctx context.Context, name string) error {
	k := d.entryKey(name)

	_, bumpErr := d.rev.Bump(ctx, k)
	if bumpErr != nil {
		d.hooks.RevBumpError(k, bumpErr)
	}
	delErr := d.store.Del(ctx, k)
	if !d.manifestDisabled {
		_ = d.store.Del(ctx, d.manifestKey(name))
	}

	if bumpErr != nil && delErr != nil {
		d.hooks.DropOutage(name, bumpErr, delErr)
	}
	if bumpErr != nil || delErr != nil {
		return &DropError{Name: name, BumpErr: bumpErr, DelErr: delErr}
	}
	d.log.Debug("dropped container (bumped rev + cleared entry)", Fields{"name": name})
	return nil
}

func (d *depot) SaveAll(ctx context.Context, items map[string]*Container, observedRevs map[string]uint64, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	if ttl == 0 {
		ttl = d.bundleTTL
	}
	if d.bundleDisabled {
		return d.seedSingles(ctx, items, observedRevs)
	}

	// verify all observed revs still current; otherwise the bundle would
	// carry at least one stale member
	for n := range items {
		obs, ok := observedRevs[n]
		if !ok || d.snapshotRev(d.entryKey(n)) != obs {
			d.log.Debug("SaveAll skipped bundle (rev mismatch)", Fields{"name": n})
			return d.seedSingles(ctx, items, observedRevs)
		}
	}

	// encode into a bundle in deterministic name order
	names := make([]string, 0, len(items))
	for n := range items {
		names = append(names, n)
	}
	sort.Strings(names)

	wireItems := make([]wire.BundleItem, 0, len(items))
	for _, n := range names {
		wireItems = append(wireItems, wire.BundleItem{
			Name:    n,
			Rev:     observedRevs[n],
			Payload: items[n].Encode(),
		})
	}
	env, err := wire.EncodeBundle(wireItems)
	if err != nil {
		return err
	}

	bk := d.bundleKeySorted(names)
	ok, err := d.store.Set(ctx, bk, env, d.computeSetCost(bk, env, true, len(items)), ttl)
	if err != nil {
		return err
	}
	if !ok {
		d.hooks.StoreSetRejected(bk, true)
		d.log.Debug("bundle Set rejected; seeding singles", Fields{"bundleKey": bk})
	}

	// also seed singles best-effort
	return d.seedSingles(ctx, items, observedRevs)
}

func (d *depot) seedSingles(ctx context.Context, items map[string]*Container, observedRevs map[string]uint64) error {
	for n, c := range items {
		if obs, ok := observedRevs[n]; ok {
			if err := d.Save(ctx, n, c, obs, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *depot) LoadAll(ctx context.Context, names []string) (map[string]*Container, []string, error) {
	out := make(map[string]*Container, len(names))
	if len(names) == 0 {
		return out, nil, nil
	}

	if !d.bundleDisabled {
		// sort a copy once; reuse for the bundle key
		sorted := make([]string, len(names))
		copy(sorted, names)
		sort.Strings(sorted)

		bk := d.bundleKeySorted(sorted)
		if raw, ok, err := d.store.Get(ctx, bk); err == nil && ok {
			items, derr := wire.DecodeBundle(raw)
			switch {
			case derr != nil:
				_ = d.store.Del(ctx, bk)
				d.hooks.BundleRejected(d.ns, len(names), "decode_error")
			case !d.bundleValid(items):
				_ = d.store.Del(ctx, bk)
				d.hooks.BundleRejected(d.ns, len(names), "invalid_or_stale")
			default:
				byName := make(map[string]*Container, len(items))
				for _, it := range items {
					c, err := Decode(it.Payload)
					if err != nil {
						continue
					}
					byName[it.Name] = c
				}
				var missing []string
				for _, n := range names {
					if c, ok := byName[n]; ok {
						out[n] = c
					} else {
						missing = append(missing, n)
					}
				}
				return out, missing, nil
			}
		}
	}

	// Fallback: try singles
	var missing []string
	for _, n := range names {
		if c, ok, _ := d.Load(ctx, n); ok {
			out[n] = c
		} else {
			missing = append(missing, n)
		}
	}
	return out, missing, nil
}

func (d *depot) SnapshotRev(name string) uint64 {
	return d.snapshotRev(d.entryKey(name))
}

func (d *depot) SnapshotRevs(names []string) map[string]uint64 {
	storage := make([]string, len(names))
	for i, n := range names {
		storage[i] = d.entryKey(n)
	}
	m, err := d.rev.SnapshotMany(context.Background(), storage)
	if err != nil {
		d.hooks.RevSnapshotError(len(names), err)
		// conservative fallback: one by one
		out := make(map[string]uint64, len(names))
		for _, n := range names {
			out[n] = d.SnapshotRev(n)
		}
		return out
	}
	out := make(map[string]uint64, len(names))
	for _, n := range names {
		out[n] = m[d.entryKey(n)]
	}
	return out
}

func (d *depot) snapshotRev(storageKey string) uint64 {
	r, err := d.rev.Snapshot(context.Background(), storageKey)
	if err != nil {
		// Conservative: treat as 0 so conditional saves skip; reads self-heal
		d.hooks.RevSnapshotError(1, err)
		d.log.Warn("rev snapshot error", Fields{"key": storageKey, "err": err})
		return 0
	}
	return r
}

func (d *depot) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = d.store.Del(ctx, storageKey)
	d.hooks.SelfHeal(storageKey, reason)
}

func (d *depot) entryKey(name string) string {
	// isolate by namespace
	return "entry:" + d.ns + ":" + name
}

func (d *depot) manifestKey(name string) string {
	return "manifest:" + d.ns + ":" + name
}

func (d *depot) bundleKeySorted(sortedNames []string) string {
	// sortedNames must be sorted ascending
	return util.BundleKeySorted("bundle:"+d.ns, sortedNames)
}

func (d *depot) bundleValid(items []wire.BundleItem) bool {
	for _, it := range items {
		if it.Rev != d.snapshotRev(d.entryKey(it.Name)) {
			return false
		}
	}
	return true
}
