// Package document persists document records in the metadata index.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docshelf/internal/db"
	"github.com/kailas-cloud/docshelf/internal/domain"
	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
)

// store is the consumer interface for document records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the metadata index over a hash store.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. keyPrefix namespaces all record keys.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Put stores a record keyed by its document ID. Records are write-once by
// contract; the repository does not enforce that.
func (r *Repo) Put(ctx context.Context, doc *domdoc.Document) error {
	key := r.key(doc.ID())
	fields, err := buildHashFields(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID(), err)
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, mapDBError(err))
	}
	return nil
}

// Get returns a record by document ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := r.key(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, mapDBError(err))
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return parseHashFields(id, m), nil
}

// FindByKeyword scans records whose keyword list contains token exactly,
// returning at most limit matches in index-native order. The caller's
// context bounds the scan; cancellation aborts the cursor walk.
func (r *Repo) FindByKeyword(ctx context.Context, token string, limit int) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s*: %w", r.prefix, mapDBError(err))
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", mapDBError(err))
	}

	matches := make([]domdoc.Document, 0, limit)
	for i, m := range maps {
		if len(m) == 0 {
			continue // key expired between SCAN and HGETALL
		}
		doc := parseHashFields(strings.TrimPrefix(keys[i], r.prefix), m)
		if !doc.HasKeyword(token) {
			continue
		}
		matches = append(matches, doc)
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}

// mapDBError translates store sentinels into the domain taxonomy.
func mapDBError(err error) error {
	if errors.Is(err, db.ErrThrottled) {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return err
}
