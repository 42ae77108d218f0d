package swr

import "context"

// Store is the durable key-value contract backing cache entries.
//
// Entries carry their own expiration inside the serialized envelope, so a
// Store persists bytes verbatim and never expires keys on its own. Reads
// report presence explicitly; a missing key is (nil, false, nil), not an
// error.
type Store interface {
	// Driver reports the backend identity.
	Driver() Driver
	// Ready reports whether the backend is usable; construction failures
	// surface here and on every operation.
	Ready(ctx context.Context) error
	// Get returns the stored bytes for key when present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Flush clears all keys for this store scope.
	Flush(ctx context.Context) error
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
