// Package blob defines the durable content store contract.
package blob

import (
	"context"
	"time"
)

// Store is a durable key->bytes store with capability-based read access:
// content is written directly but read only through time-limited signed URLs.
type Store interface {
	// Put writes data under key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// SignedURL issues a GET-only capability URL for key, valid for ttl.
	// The capability is never persisted and expires by time alone.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
