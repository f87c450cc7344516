package document

import (
	"encoding/json"
	"fmt"
	"strconv"

	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
)

// Hash field names for a document record.
const (
	fieldTitle    = "title"
	fieldAuthor   = "author"
	fieldExcerpt  = "excerpt"
	fieldKeywords = "keywords"
	fieldBlobKey  = "blob_key"
	fieldSize     = "size_bytes"
	fieldUploaded = "upload_timestamp"
)

// buildHashFields converts a domain Document into a flat map for HSET.
// Keywords are JSON-encoded to keep tokens intact regardless of content.
func buildHashFields(doc *domdoc.Document) (map[string]string, error) {
	kw, err := json.Marshal(doc.Keywords())
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}
	return map[string]string{
		fieldTitle:    doc.Title(),
		fieldAuthor:   doc.Author(),
		fieldExcerpt:  doc.Excerpt(),
		fieldKeywords: string(kw),
		fieldBlobKey:  doc.BlobKey(),
		fieldSize:     strconv.FormatInt(doc.SizeBytes(), 10),
		fieldUploaded: strconv.FormatInt(doc.UploadedAt(), 10),
	}, nil
}

// parseHashFields converts a flat hash map back into a domain Document.
// Fields that fail to parse degrade to zero values rather than failing the
// whole record.
func parseHashFields(id string, m map[string]string) domdoc.Document {
	var keywords []string
	if raw := m[fieldKeywords]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &keywords)
	}

	size, _ := strconv.ParseInt(m[fieldSize], 10, 64)
	uploaded, _ := strconv.ParseInt(m[fieldUploaded], 10, 64)

	return domdoc.Reconstruct(
		id, m[fieldTitle], m[fieldAuthor], m[fieldExcerpt],
		keywords, m[fieldBlobKey], size, uploaded,
	)
}
