package fpack

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/fpack/codec"
	rev "github.com/unkn0wn-root/fpack/revstore"
	st "github.com/unkn0wn-root/fpack/store"
)

type SetCostFunc func(key string, raw []byte, isBundle bool, bundleCount int) int64

// Depot is the high-level, store-agnostic archive API. Containers are saved
// by name with clobber protection via per-name revisions: a Save only lands
// when the revision observed before building the container is still current.
type Depot interface {
	Close(context.Context) error

	// Singles
	Save(ctx context.Context, name string, c *Container, observedRev uint64, ttl time.Duration) error
	Load(ctx context.Context, name string) (*Container, bool, error)
	Stat(ctx context.Context, name string) (Manifest, bool, error)
	Drop(ctx context.Context, name string) error

	// Bundles (order-agnostic return; order by your own names slice)
	SaveAll(ctx context.Context, items map[string]*Container, observedRevs map[string]uint64, ttl time.Duration) error
	LoadAll(ctx context.Context, names []string) (found map[string]*Container, missing []string, err error)

	// Revision snapshots (for conditional saves)
	SnapshotRev(name string) uint64
	SnapshotRevs(names []string) map[string]uint64
}

// Options tune the depot. Only Namespace and Store are required; others have
// sensible defaults.
type Options struct {
	// Required
	Namespace string // logical namespace to avoid collisions, e.g. "archive", "report"
	Store     st.Store

	Logger        Logger            // if nil, NopLogger is used
	Hooks         Hooks             // if nil, NopHooks is used
	ManifestCodec c.Codec[Manifest] // nil => codec.JSON[Manifest]

	DefaultTTL      time.Duration // singles; 0 => no expiry
	BundleTTL       time.Duration // bundles; 0 => no expiry
	CleanupInterval time.Duration // local rev sweep; 0 => 1h
	RevRetention    time.Duration // 0 => 30d

	ComputeSetCost SetCostFunc  // default 1
	RevStore       rev.RevStore // nil => LocalRevStore (in-process)

	DisableBundle   bool // default false => bundles enabled
	DisableManifest bool // default false => manifest sidecars written
}

func NewDepot(opts Options) (Depot, error) {
	return newDepot(opts)
}
