// Package retrieve coordinates document downloads: record lookup plus signed
// capability issuance.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/docshelf/internal/domain"
)

// DefaultURLTTL is the signed URL lifetime (5 minutes).
const DefaultURLTTL = 300 * time.Second

// placeholderTitle is returned when a record has no title.
const placeholderTitle = "Untitled Document"

// Link is a granted download capability.
type Link struct {
	DownloadURL string
	DocumentID  string
	Title       string
	TTLSeconds  int
}

// Service validates identifiers and issues signed download links.
type Service struct {
	docs   DocumentReader
	blobs  URLSigner
	urlTTL time.Duration
}

// New creates a retrieval service with the default URL TTL.
func New(docs DocumentReader, blobs URLSigner) *Service {
	return &Service{docs: docs, blobs: blobs, urlTTL: DefaultURLTTL}
}

// WithURLTTL configures the signed URL lifetime.
func (s *Service) WithURLTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.urlTTL = ttl
	}
	return s
}

// Retrieve looks up rawID and issues a signed download capability.
//
// An unknown identifier yields domain.ErrDocumentNotFound; a record that
// exists but references no stored content yields domain.ErrFileNotFound.
// Both map to the same HTTP status, but stay distinct observable outcomes.
func (s *Service) Retrieve(ctx context.Context, rawID string) (Link, error) {
	id := strings.TrimSpace(rawID)
	if id == "" {
		return Link{}, fmt.Errorf("query parameter 'id' is required: %w", domain.ErrValidation)
	}

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return Link{}, err
		}
		return Link{}, fmt.Errorf("lookup document %s: %w: %w", id, domain.ErrUpstream, err)
	}

	if doc.BlobKey() == "" {
		return Link{}, fmt.Errorf("document %s has no content: %w", id, domain.ErrFileNotFound)
	}

	url, err := s.blobs.SignedURL(ctx, doc.BlobKey(), s.urlTTL)
	if err != nil {
		return Link{}, fmt.Errorf("sign download url: %w: %w", domain.ErrUpstream, err)
	}

	title := doc.Title()
	if title == "" {
		title = placeholderTitle
	}

	return Link{
		DownloadURL: url,
		DocumentID:  doc.ID(),
		Title:       title,
		TTLSeconds:  int(s.urlTTL.Seconds()),
	}, nil
}
