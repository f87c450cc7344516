// Package multipart decodes multipart/form-data payloads incrementally.
// The file part is size-capped while bytes arrive, so an oversized upload
// is rejected without ever being fully buffered.
package multipart

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
)

// ErrFileTooLarge signals that the file part crossed the size limit mid-stream.
var ErrFileTooLarge = errors.New("multipart: file exceeds size limit")

// maxFieldBytes bounds a single non-file form field.
const maxFieldBytes = 1 << 20

// chunkSize is the read granularity while accumulating the file part.
const chunkSize = 32 * 1024

// FilePart holds the single file attachment of a form.
type FilePart struct {
	Filename string
	Data     []byte
}

// Form is the decoded result: named fields plus at most one file part.
type Form struct {
	Fields map[string]string
	File   *FilePart
}

// Decode reads a multipart body to end-of-stream and returns the parsed form.
// Part order is not assumed: the file part may precede or follow named fields.
// The file part is accumulated in chunks and decoding aborts with
// ErrFileTooLarge as soon as maxFileSize is crossed. A malformed envelope
// (bad boundary, truncated part, unterminated stream) yields a decode error.
// Decode has no side effects beyond consuming the reader.
func Decode(body io.Reader, boundary string, maxFileSize int64) (*Form, error) {
	if boundary == "" {
		return nil, fmt.Errorf("multipart: boundary is required")
	}

	mr := multipart.NewReader(body, boundary)
	form := &Form{Fields: make(map[string]string)}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return nil, fmt.Errorf("multipart: read part: %w", err)
		}

		if part.FileName() != "" {
			data, err := readCapped(part, maxFileSize)
			closeErr := part.Close()
			if err != nil {
				return nil, err
			}
			if closeErr != nil {
				return nil, fmt.Errorf("multipart: close file part: %w", closeErr)
			}
			form.File = &FilePart{Filename: part.FileName(), Data: data}
			continue
		}

		name := part.FormName()
		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
		if err != nil {
			return nil, fmt.Errorf("multipart: read field %q: %w", name, err)
		}
		if err := part.Close(); err != nil {
			return nil, fmt.Errorf("multipart: close field %q: %w", name, err)
		}
		if len(value) > maxFieldBytes {
			return nil, fmt.Errorf("multipart: field %q exceeds %d bytes", name, maxFieldBytes)
		}
		form.Fields[name] = string(value)
	}
}

// readCapped accumulates r in fixed-size chunks, failing the moment the
// total crosses maxSize. It never buffers more than maxSize+chunkSize bytes.
func readCapped(r io.Reader, maxSize int64) ([]byte, error) {
	var data []byte
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			if int64(len(data)) > maxSize {
				return nil, ErrFileTooLarge
			}
		}
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		if err != nil {
			return nil, fmt.Errorf("multipart: read file part: %w", err)
		}
	}
}
