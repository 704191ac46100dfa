package fpack

// Hooks lightweight callbacks for high-signal depot events.
// Implementations MUST be cheap and non-blocking; the depot calls them on
// hot paths. Wrap with hooks/async if the sink may stall.
type Hooks interface {
	// An entry was deleted by the depot on read.
	// reason ∈ {"corrupt", "rev_mismatch", "decode", "manifest_decode"}
	SelfHeal(storageKey, reason string)

	// A bundle read was rejected and fell back to singles.
	// reason ∈ {"decode_error", "invalid_or_stale"}
	BundleRejected(namespace string, requested int, reason string)

	// Store returned ok=false on Set (backpressure/eviction).
	StoreSetRejected(storageKey string, isBundle bool)

	// RevStore errors (snapshot or bump).
	// count is number of names involved (1 for Snapshot/Bump, N for SnapshotMany).
	RevSnapshotError(count int, err error)
	RevBumpError(storageKey string, err error)

	// Both rev bump and delete failed during Drop (likely backend outage).
	DropOutage(name string, bumpErr, delErr error)

	// Bundles are enabled with a local RevStore (stale bundles possible
	// across replicas).
	LocalRevWithBundle()
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)            {}
func (NopHooks) BundleRejected(string, int, string) {}
func (NopHooks) StoreSetRejected(string, bool)      {}
func (NopHooks) RevSnapshotError(int, error)        {}
func (NopHooks) RevBumpError(string, error)         {}
func (NopHooks) DropOutage(string, error, error)    {}
func (NopHooks) LocalRevWithBundle()                {}
