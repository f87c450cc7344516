// Package chi provides the HTTP API on the go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docshelf/internal/domain"
	domdoc "github.com/kailas-cloud/docshelf/internal/domain/document"
	healthuc "github.com/kailas-cloud/docshelf/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docshelf/internal/usecase/ingest"
	retrieveuc "github.com/kailas-cloud/docshelf/internal/usecase/retrieve"
	searchuc "github.com/kailas-cloud/docshelf/internal/usecase/search"
)

// defaultSearchTimeout bounds a search request when no timeout is configured.
const defaultSearchTimeout = 10 * time.Second

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, r *http.Request, err error) bool

// Server exposes the upload/search/download API.
type Server struct {
	ingest        *ingestuc.Service
	search        *searchuc.Service
	retrieve      *retrieveuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	searchTimeout time.Duration
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	search *searchuc.Service,
	retrieve *retrieveuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:        ingest,
		search:        search,
		retrieve:      retrieve,
		health:        health,
		logger:        logger,
		searchTimeout: defaultSearchTimeout,
	}
	s.errorHandlers = []errorHandler{
		detailedHandler(domain.ErrValidation, http.StatusBadRequest),
		detailedHandler(domain.ErrPayloadTooLarge, http.StatusBadRequest),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrFileNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrTimeout, http.StatusRequestTimeout),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError),
		sentinelHandler(domain.ErrUpstream, http.StatusInternalServerError),
	}
	return s
}

// WithSearchTimeout configures the per-request search time budget.
func (s *Server) WithSearchTimeout(d time.Duration) *Server {
	if d > 0 {
		s.searchTimeout = d
	}
	return s
}

// Register mounts all routes on the router. Every route answers OPTIONS
// preflight with 200 and an empty body; the CORS header set itself is
// applied by CORSMiddleware on every response.
func (s *Server) Register(r chi.Router) {
	r.Post("/upload", s.Upload)
	r.Get("/search", s.Search)
	r.Get("/download", s.Download)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	for _, route := range []string{"/upload", "/search", "/download"} {
		r.Options(route, s.Preflight)
	}
}

// CORSMiddleware applies the fixed cross-origin header set to every response.
func CORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type,X-Amz-Date,Authorization,X-Api-Key")
			next.ServeHTTP(w, r)
		})
	}
}

// Preflight handles OPTIONS for the API routes.
func (s *Server) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Upload handles POST /upload.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	fileID, err := s.ingest.Ingest(r.Context(), r.Body, r.Header.Get("Content-Type"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:   "Upload successful",
		FileID:    fileID,
		RequestID: requestID(r),
	})
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	// The deadline models the caller's remaining time budget; the service
	// subtracts its safety margin from it.
	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	rawQuery := r.URL.Query().Get("query")
	docs, err := s.search.Search(ctx, rawQuery)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results := make([]documentResponse, 0, len(docs))
	for i := range docs {
		results = append(results, documentToResponse(&docs[i]))
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:   results,
		Count:     len(results),
		Query:     strings.ToLower(strings.TrimSpace(rawQuery)),
		RequestID: requestID(r),
	})
}

// Download handles GET /download.
func (s *Server) Download(w http.ResponseWriter, r *http.Request) {
	link, err := s.retrieve.Retrieve(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, downloadResponse{
		DownloadURL:   link.DownloadURL,
		DocumentID:    link.DocumentID,
		DocumentTitle: link.Title,
		ExpiresIn:     link.TTLSeconds,
		RequestID:     requestID(r),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("domain error", zap.String("request_id", requestID(r)), zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, r, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.String("request_id", requestID(r)), zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "internal error")
}

// sentinelHandler matches a single sentinel error and reports its safe
// message without exposing wrapped upstream detail.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, r, status, sentinel.Error())
		return true
	}
}

// detailedHandler matches a sentinel whose full message is safe for callers.
// Validation errors are locally constructed (missing fields, the allowed
// extension set, size limits) and must reach the client verbatim.
func detailedHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, r, status, err.Error())
		return true
	}
}

func requestID(r *http.Request) string {
	return chiMiddleware.GetReqID(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{
		Error:     message,
		RequestID: requestID(r),
	})
}

type uploadResponse struct {
	Message   string `json:"message"`
	FileID    string `json:"fileId"`
	RequestID string `json:"requestId"`
}

type documentResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Excerpt         string   `json:"excerpt,omitempty"`
	Keywords        []string `json:"keywords"`
	SizeBytes       int64    `json:"sizeBytes"`
	UploadTimestamp int64    `json:"uploadTimestamp"`
}

type searchResponse struct {
	Results   []documentResponse `json:"results"`
	Count     int                `json:"count"`
	Query     string             `json:"query"`
	RequestID string             `json:"requestId"`
}

type downloadResponse struct {
	DownloadURL   string `json:"downloadUrl"`
	DocumentID    string `json:"documentId"`
	DocumentTitle string `json:"documentTitle"`
	ExpiresIn     int    `json:"expiresIn"`
	RequestID     string `json:"requestId"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

func documentToResponse(doc *domdoc.Document) documentResponse {
	return documentResponse{
		ID:              doc.ID(),
		Title:           doc.Title(),
		Author:          doc.Author(),
		Excerpt:         doc.Excerpt(),
		Keywords:        doc.Keywords(),
		SizeBytes:       doc.SizeBytes(),
		UploadTimestamp: doc.UploadedAt(),
	}
}
