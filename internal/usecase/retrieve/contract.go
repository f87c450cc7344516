package retrieve

import (
	"context"
	"time"

	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
)

// DocumentReader looks up document records by ID.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

// URLSigner issues time-limited download capabilities for blob keys.
type URLSigner interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
