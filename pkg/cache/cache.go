package cache

import (
	"context"
	"time"
)

// Cache is the store behind cached platform calls. Implementations must be
// safe for concurrent use. Entries carry no TTL; retention is enforced out
// of band by the Janitor.
type Cache interface {
	// Get returns the value stored for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Cleanup removes entries last written before the cutoff and returns
	// how many were removed.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases resources held by the backend.
	Close() error
}

// Key joins key parts with a separator that cannot appear in the ids used
// as parts.
func Key(parts ...string) string {
	key := ""
	for i, part := range parts {
		if i > 0 {
			key += "\x1f"
		}
		key += part
	}
	return key
}
