package chi

import (
	"bytes"
	"context"
	"fmt"
	mp "mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docshelf/internal/domain"
	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
	healthuc "github.com/kailas-cloud/docshelf/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docshelf/internal/usecase/ingest"
	retrieveuc "github.com/kailas-cloud/docshelf/internal/usecase/retrieve"
	searchuc "github.com/kailas-cloud/docshelf/internal/usecase/search"
)

// memBlob is an in-memory blob store whose signed URLs carry the TTL the
// same way a presigner would, via an X-Amz-Expires query parameter.
type memBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	pingErr error
}

func newMemBlob() *memBlob {
	return &memBlob{objects: make(map[string][]byte)}
}

func (b *memBlob) Put(_ context.Context, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = append([]byte(nil), data...)
	return nil
}

func (b *memBlob) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return "", fmt.Errorf("no such object %q", key)
	}
	return fmt.Sprintf("https://blobs.test/%s?X-Amz-Expires=%d", key, int(ttl.Seconds())), nil
}

func (b *memBlob) Ping(context.Context) error { return b.pingErr }

// memIndex is an in-memory metadata index.
type memIndex struct {
	mu      sync.Mutex
	records map[string]domdoc.Document
	pingErr error
	findErr error
}

func newMemIndex() *memIndex {
	return &memIndex{records: make(map[string]domdoc.Document)}
}

func (ix *memIndex) Put(_ context.Context, doc *domdoc.Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records[doc.ID()] = *doc
	return nil
}

func (ix *memIndex) Get(_ context.Context, id string) (domdoc.Document, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	doc, ok := ix.records[id]
	if !ok {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (ix *memIndex) FindByKeyword(_ context.Context, token string, limit int) ([]domdoc.Document, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.findErr != nil {
		return nil, ix.findErr
	}
	var out []domdoc.Document
	for _, doc := range ix.records {
		if doc.HasKeyword(token) {
			out = append(out, doc)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (ix *memIndex) Ping(context.Context) error { return ix.pingErr }

// vault bundles the fakes with a test server wired like production.
type vault struct {
	blobs *memBlob
	index *memIndex
	ts    *httptest.Server
}

type vaultOption func(*Server)

func withMaxFileSize(n int64) vaultOption {
	return func(s *Server) { s.ingest.WithLimits(n, nil) }
}

func newVault(t *testing.T, opts ...vaultOption) *vault {
	t.Helper()

	blobs := newMemBlob()
	index := newMemIndex()

	srv := NewServer(
		ingestuc.New(blobs, index),
		searchuc.New(index),
		retrieveuc.New(index, blobs),
		healthuc.New(index, blobs),
		zap.NewNop(),
	)
	for _, opt := range opts {
		opt(srv)
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(CORSMiddleware("*"))
	srv.Register(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return &vault{blobs: blobs, index: index, ts: ts}
}

// upload posts a multipart form and returns the response.
func (v *vault) upload(t *testing.T, fields map[string]string, filename string, data []byte) *http.Response {
	t.Helper()
	buf := &bytes.Buffer{}
	w := mp.NewWriter(buf)
	for k, val := range fields {
		if err := w.WriteField(k, val); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(v.ts.URL+"/upload", w.FormDataContentType(), buf)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	return resp
}

func (v *vault) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(v.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}
