// Package lockreg implements the process-wide lock registry guarding the
// git index working tree (spec §4.7). Grounded on
// original_source/src/read_only_mutex.rs's ReadOnlyMutex<T>: a mutex that
// exposes its held value for reading but never lets a caller replace it —
// "what it actually guards is serialization of operations on the tree, not
// mutation of the path value" (spec §9). Generalized with Go generics so
// the same type could in principle guard any other immutable handle.
package lockreg

import "sync"

// Named is a mutex wrapping an immutable value of type T. Lock serializes
// callers and returns both the guarded value and an unlock function, mirroring
// aretw0-loam's pkg/git.Client.Lock() (func(), error) shape but backed by an
// in-process sync.Mutex rather than a filesystem lock file, since spec §4.7
// scopes this to a single process (no cross-process requirement).
type Named[T any] struct {
	mu    sync.Mutex
	value T
}

// New returns a Named lock guarding value.
func New[T any](value T) *Named[T] {
	return &Named[T]{value: value}
}

// Lock blocks until the lock is acquired, then returns the guarded value and
// an unlock function. The caller must call unlock exactly once, typically
// via defer immediately after acquiring it.
func (n *Named[T]) Lock() (value T, unlock func()) {
	n.mu.Lock()
	return n.value, n.mu.Unlock
}
