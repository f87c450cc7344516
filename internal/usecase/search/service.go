// Package search coordinates deadline-bounded keyword lookups over the
// metadata index.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/docshelf/internal/domain"
	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
)

// Defaults for result capping and deadline headroom.
const (
	DefaultMaxResults   = 100
	DefaultSafetyMargin = 500 * time.Millisecond
)

// MinQueryLength is the minimum sanitized query length.
const MinQueryLength = 2

// Service validates queries and races the index scan against the caller's
// remaining time budget.
type Service struct {
	repo         Repository
	maxResults   int
	safetyMargin time.Duration
}

// New creates a search service with default limits.
func New(repo Repository) *Service {
	return &Service{
		repo:         repo,
		maxResults:   DefaultMaxResults,
		safetyMargin: DefaultSafetyMargin,
	}
}

// WithLimits configures the result cap and the deadline safety margin.
func (s *Service) WithLimits(maxResults int, safetyMargin time.Duration) *Service {
	if maxResults > 0 {
		s.maxResults = maxResults
	}
	if safetyMargin > 0 {
		s.safetyMargin = safetyMargin
	}
	return s
}

// Search sanitizes rawQuery (trim + lowercase, minimum 2 characters) and
// scans for records whose keyword list contains the token exactly. Matching
// is exact-token membership, not substring.
//
// When the caller's context carries a deadline, the scan runs under a child
// context expiring safetyMargin earlier; if that deadline fires the scan is
// cancelled (not abandoned) and the whole operation fails with
// domain.ErrTimeout, never partial results.
func (s *Service) Search(ctx context.Context, rawQuery string) ([]domdoc.Document, error) {
	query := strings.ToLower(strings.TrimSpace(rawQuery))
	if query == "" {
		return nil, fmt.Errorf("query parameter 'query' is required: %w", domain.ErrValidation)
	}
	if len(query) < MinQueryLength {
		return nil, fmt.Errorf(
			"query must be at least %d characters long: %w", MinQueryLength, domain.ErrValidation,
		)
	}

	scanCtx := ctx
	cancel := context.CancelFunc(func() {})
	if deadline, ok := ctx.Deadline(); ok {
		scanCtx, cancel = context.WithDeadline(ctx, deadline.Add(-s.safetyMargin))
	}
	defer cancel()

	type scanOutcome struct {
		docs []domdoc.Document
		err  error
	}
	done := make(chan scanOutcome, 1)

	go func() {
		docs, err := s.repo.FindByKeyword(scanCtx, query, s.maxResults)
		done <- scanOutcome{docs: docs, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, s.classifyScanError(out.err)
		}
		return out.docs, nil
	case <-scanCtx.Done():
		// The child context is cancelled, so the losing scan unwinds
		// instead of leaking.
		if errors.Is(scanCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("search: %w", domain.ErrTimeout)
		}
		return nil, fmt.Errorf("search cancelled: %w", scanCtx.Err())
	}
}

func (s *Service) classifyScanError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("search: %w", domain.ErrTimeout)
	case errors.Is(err, domain.ErrRateLimited):
		return err
	default:
		return fmt.Errorf("search index: %w: %w", domain.ErrUpstream, err)
	}
}
