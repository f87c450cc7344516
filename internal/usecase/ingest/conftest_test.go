package ingest

import (
	"bytes"
	"context"
	mp "mime/multipart"
	"testing"

	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
)

type mockBlobStore struct {
	putFn    func(ctx context.Context, key string, data []byte, contentType string) error
	putCalls int
	lastKey  string
	lastCT   string
	lastData []byte
}

func (m *mockBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.putCalls++
	m.lastKey = key
	m.lastCT = contentType
	m.lastData = data
	if m.putFn != nil {
		return m.putFn(ctx, key, data, contentType)
	}
	return nil
}

type mockDocumentWriter struct {
	putFn    func(ctx context.Context, doc *domdoc.Document) error
	putCalls int
	lastDoc  *domdoc.Document
}

func (m *mockDocumentWriter) Put(ctx context.Context, doc *domdoc.Document) error {
	m.putCalls++
	m.lastDoc = doc
	if m.putFn != nil {
		return m.putFn(ctx, doc)
	}
	return nil
}

// uploadBody builds a multipart request body and its Content-Type header.
func uploadBody(t *testing.T, fields map[string]string, filename string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := mp.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(fileData); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, w.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"title":    "Dune",
		"author":   "Frank Herbert",
		"keywords": "scifi, classic",
		"excerpt":  "A desert planet.",
	}
}
