package ingest

import (
	"context"

	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
)

// BlobStore writes uploaded content to durable storage.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// DocumentWriter persists document records in the metadata index.
type DocumentWriter interface {
	Put(ctx context.Context, doc *domdoc.Document) error
}
