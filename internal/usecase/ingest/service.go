// Package ingest coordinates document uploads: multipart decode, validation,
// blob write, then metadata write.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docshelf/internal/domain"
	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
	"github.com/kailas-cloud/docshelf/internal/logger"
	"github.com/kailas-cloud/docshelf/internal/multipart"
)

// DefaultMaxFileSize caps uploads at 20 MiB.
const DefaultMaxFileSize = 20 << 20

// contentTypes maps allowed extensions to the content type stored with the blob.
var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"epub": "application/epub+zip",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

const fallbackContentType = "application/octet-stream"

// Service validates uploads and sequences the two store writes.
// It never retries: retry behavior lives in the store adapters.
type Service struct {
	blobs        BlobStore
	docs         DocumentWriter
	maxFileSize  int64
	allowedExts  []string
	sizeObserver prometheus.Observer
}

// New creates an ingestion service with default limits.
func New(blobs BlobStore, docs DocumentWriter) *Service {
	return &Service{
		blobs:       blobs,
		docs:        docs,
		maxFileSize: DefaultMaxFileSize,
		allowedExts: []string{"pdf", "epub", "docx"},
	}
}

// WithLimits configures the maximum file size and extension allow-list.
func (s *Service) WithLimits(maxFileSize int64, allowedExts []string) *Service {
	if maxFileSize > 0 {
		s.maxFileSize = maxFileSize
	}
	if len(allowedExts) > 0 {
		s.allowedExts = allowedExts
	}
	return s
}

// WithSizeObserver records accepted upload sizes.
func (s *Service) WithSizeObserver(o prometheus.Observer) *Service {
	s.sizeObserver = o
	return s
}

// Ingest decodes a multipart upload, validates it, writes the content blob
// and then the metadata record, and returns the generated document ID.
//
// Validation short-circuits before any store access. If the metadata write
// fails after the blob write succeeded, the blob is left orphaned: there is
// no compensating delete, only a warning with the orphaned key. The record
// therefore never becomes visible unless both writes completed.
func (s *Service) Ingest(ctx context.Context, body io.Reader, contentTypeHeader string) (string, error) {
	boundary, err := multipartBoundary(contentTypeHeader)
	if err != nil {
		return "", err
	}

	form, err := multipart.Decode(body, boundary, s.maxFileSize)
	if err != nil {
		if errors.Is(err, multipart.ErrFileTooLarge) {
			return "", fmt.Errorf(
				"file exceeds maximum size of %d bytes: %w", s.maxFileSize, domain.ErrPayloadTooLarge,
			)
		}
		return "", fmt.Errorf("failed to parse upload: %w: %w", domain.ErrValidation, err)
	}

	if form.File == nil || len(form.File.Data) == 0 {
		return "", fmt.Errorf("file is required: %w", domain.ErrValidation)
	}
	title := strings.TrimSpace(form.Fields["title"])
	if title == "" {
		return "", fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	author := strings.TrimSpace(form.Fields["author"])
	if author == "" {
		return "", fmt.Errorf("author is required: %w", domain.ErrValidation)
	}
	keywords := domdoc.ParseKeywords(form.Fields["keywords"])
	if len(keywords) == 0 {
		return "", fmt.Errorf("at least one keyword is required: %w", domain.ErrValidation)
	}
	excerpt := strings.TrimSpace(form.Fields["excerpt"])

	size := int64(len(form.File.Data))
	// The decoder already enforced the limit mid-stream; final guard.
	if size > s.maxFileSize {
		return "", fmt.Errorf(
			"file exceeds maximum size of %d bytes: %w", s.maxFileSize, domain.ErrPayloadTooLarge,
		)
	}

	ext := extension(form.File.Filename)
	if !s.extAllowed(ext) {
		return "", fmt.Errorf(
			"unsupported file type %q, allowed types: %s: %w",
			ext, strings.Join(s.allowedExts, ", "), domain.ErrValidation,
		)
	}

	// The ID doubles as the blob key and the record key.
	id := uuid.NewString() + "_" + sanitizeFilename(form.File.Filename)

	doc, err := domdoc.New(id, title, author, excerpt, keywords, id, size, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("%s: %w", err.Error(), domain.ErrValidation)
	}

	if err := s.blobs.Put(ctx, id, form.File.Data, contentTypeFor(ext)); err != nil {
		return "", fmt.Errorf("store content: %w: %w", domain.ErrUpstream, err)
	}

	if err := s.docs.Put(ctx, &doc); err != nil {
		// The blob stays behind unreferenced; a periodic sweep reconciles offline.
		logger.FromContext(ctx).Warn("metadata write failed, blob orphaned",
			zap.String("blob_key", id),
			zap.Error(err),
		)
		return "", fmt.Errorf("store metadata: %w: %w", domain.ErrUpstream, err)
	}

	if s.sizeObserver != nil {
		s.sizeObserver.Observe(float64(size))
	}

	return id, nil
}

// multipartBoundary validates the Content-Type header and extracts the boundary.
func multipartBoundary(header string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil || mediaType != "multipart/form-data" {
		return "", fmt.Errorf("Content-Type must be multipart/form-data: %w", domain.ErrValidation)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("multipart boundary is required: %w", domain.ErrValidation)
	}
	return boundary, nil
}

func (s *Service) extAllowed(ext string) bool {
	for _, a := range s.allowedExts {
		if ext == a {
			return true
		}
	}
	return false
}

// extension returns the lower-cased filename suffix without the dot.
func extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
}

// contentTypeFor maps an extension to the stored content type. The fallback
// cannot be reached after the allow-list check but is defined for completeness.
func contentTypeFor(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return fallbackContentType
}

// sanitizeFilename strips path separators and control characters so a hostile
// filename cannot smuggle structure into the storage key. The original
// filename is preserved only inside the generated ID, never as a path.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "file"
	}
	return cleaned
}
