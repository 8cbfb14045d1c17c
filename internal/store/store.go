// Package store provides the persistence collaborator: a keyed document
// store with per-key atomicity and nothing more, plus a best-effort TTL
// cache for transient session state.
package store

import "context"

// KV is the keyed store the tutoring core persists through. Implementations
// guarantee per-key atomicity only; callers needing read-modify-write
// atomicity serialize above this interface.
type KV interface {
	// Get returns the stored value for key. The second return is false
	// when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases underlying resources.
	Close() error
}
