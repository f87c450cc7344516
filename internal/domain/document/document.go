package document

import (
	"fmt"
	"strings"
)

// Document is the persisted metadata record for one uploaded item
// (immutable value object). A record is created exactly once by the
// ingestion flow and never mutated afterwards.
type Document struct {
	id         string
	title      string
	author     string
	excerpt    string
	keywords   []string
	blobKey    string
	sizeBytes  int64
	uploadedAt int64 // unix millis
}

// New validates and creates a Document.
// Title, author and at least one keyword are required; excerpt is optional.
func New(
	id, title, author, excerpt string, keywords []string,
	blobKey string, sizeBytes, uploadedAt int64,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if strings.TrimSpace(title) == "" {
		return Document{}, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(author) == "" {
		return Document{}, fmt.Errorf("author is required")
	}
	if len(keywords) == 0 {
		return Document{}, fmt.Errorf("at least one keyword is required")
	}
	if sizeBytes < 0 {
		return Document{}, fmt.Errorf("size must not be negative")
	}

	return Document{
		id:         id,
		title:      strings.TrimSpace(title),
		author:     strings.TrimSpace(author),
		excerpt:    strings.TrimSpace(excerpt),
		keywords:   cloneStrings(keywords),
		blobKey:    blobKey,
		sizeBytes:  sizeBytes,
		uploadedAt: uploadedAt,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, title, author, excerpt string, keywords []string,
	blobKey string, sizeBytes, uploadedAt int64,
) Document {
	return Document{
		id: id, title: title, author: author, excerpt: excerpt,
		keywords: keywords, blobKey: blobKey, sizeBytes: sizeBytes, uploadedAt: uploadedAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Author returns the document author.
func (d *Document) Author() string { return d.author }

// Excerpt returns the optional excerpt.
func (d *Document) Excerpt() string { return d.excerpt }

// Keywords returns the keyword tokens in submission order.
func (d *Document) Keywords() []string { return d.keywords }

// BlobKey returns the blob store key holding the content.
func (d *Document) BlobKey() string { return d.blobKey }

// SizeBytes returns the stored content size.
func (d *Document) SizeBytes() int64 { return d.sizeBytes }

// UploadedAt returns the creation timestamp in unix milliseconds.
func (d *Document) UploadedAt() int64 { return d.uploadedAt }

// HasKeyword reports whether token is an exact member of the keyword list.
func (d *Document) HasKeyword(token string) bool {
	for _, k := range d.keywords {
		if k == token {
			return true
		}
	}
	return false
}

// ParseKeywords splits a raw comma-separated keyword string into tokens.
// Tokens are trimmed, lower-cased, and empties dropped; duplicates and
// submission order are preserved.
func ParseKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.TrimSpace(p))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	c := make([]string, len(s))
	copy(c, s)
	return c
}
