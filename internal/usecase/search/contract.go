package search

import (
	"context"

	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
)

// Repository scans the metadata index for keyword matches.
type Repository interface {
	FindByKeyword(ctx context.Context, token string, limit int) ([]domdoc.Document, error)
}
