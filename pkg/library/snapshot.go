package library

import "slices"

// State tracks the lifecycle of one user-scoped collection snapshot.
type State int

const (
	// StateEmpty means no snapshot exists and no fetch has been issued.
	StateEmpty State = iota
	// StateLoading means a fetch is outstanding and no snapshot exists yet.
	StateLoading
	// StateReady means the snapshot is current.
	StateReady
	// StateStale means a snapshot exists but has been invalidated.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateStale:
		return "stale"
	default:
		return "empty"
	}
}

// entry is the cache slot for one (user, collection) pair. Fetches are
// identified by a monotonically increasing sequence number so that a result
// arriving out of order can never overwrite a newer snapshot: only results
// with seq > applied are installed.
//
// All fields are guarded by the owning Library's mutex.
type entry[T any] struct {
	state   State
	items   []T
	nextSeq uint64
	applied uint64
}

// hasSnapshot reports whether a last-known-good snapshot exists.
func (e *entry[T]) hasSnapshot() bool {
	return e.state == StateReady || e.state == StateStale
}

// beginFetch issues a new fetch sequence number.
func (e *entry[T]) beginFetch() uint64 {
	e.nextSeq++
	if !e.hasSnapshot() {
		e.state = StateLoading
	}
	return e.nextSeq
}

// apply installs a fetch result unless a newer one already landed.
func (e *entry[T]) apply(seq uint64, items []T) {
	if seq <= e.applied {
		return
	}
	e.applied = seq
	e.items = items
	e.state = StateReady
}

// fail records a fetch failure. The last known-good snapshot, when present,
// is kept as-is.
func (e *entry[T]) fail() {
	if e.hasSnapshot() {
		return
	}
	e.state = StateEmpty
}

// invalidate marks a current snapshot as needing revalidation.
func (e *entry[T]) invalidate() {
	if e.state == StateReady {
		e.state = StateStale
	}
}

// snapshot returns a copy of the held items so callers can never mutate the
// cache's view.
func (e *entry[T]) snapshot() []T {
	return slices.Clone(e.items)
}
