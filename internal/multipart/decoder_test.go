package multipart

import (
	"bytes"
	"errors"
	"io"
	mp "mime/multipart"
	"strings"
	"testing"
)

func buildForm(t *testing.T, fields map[string]string, filename string, fileData []byte, fileFirst bool) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := mp.NewWriter(buf)

	writeFile := func() {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(fileData); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}

	if fileFirst && filename != "" {
		writeFile()
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if !fileFirst && filename != "" {
		writeFile()
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, w.Boundary()
}

func TestDecode_FieldsAndFile(t *testing.T) {
	fields := map[string]string{"title": "Dune", "author": "Herbert"}
	body, boundary := buildForm(t, fields, "dune.pdf", []byte("%PDF-1.4 content"), false)

	form, err := Decode(body, boundary, 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Fields["title"] != "Dune" || form.Fields["author"] != "Herbert" {
		t.Errorf("unexpected fields: %v", form.Fields)
	}
	if form.File == nil {
		t.Fatal("expected file part")
	}
	if form.File.Filename != "dune.pdf" {
		t.Errorf("unexpected filename %q", form.File.Filename)
	}
	if string(form.File.Data) != "%PDF-1.4 content" {
		t.Errorf("unexpected file data %q", form.File.Data)
	}
}

func TestDecode_FilePartBeforeFields(t *testing.T) {
	fields := map[string]string{"title": "Dune"}
	body, boundary := buildForm(t, fields, "dune.pdf", []byte("data"), true)

	form, err := Decode(body, boundary, 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.File == nil || form.Fields["title"] != "Dune" {
		t.Error("decoder must not assume part order")
	}
}

func TestDecode_NoFilePart(t *testing.T) {
	body, boundary := buildForm(t, map[string]string{"title": "Dune"}, "", nil, false)

	form, err := Decode(body, boundary, 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.File != nil {
		t.Error("expected no file part")
	}
}

func TestDecode_MissingBoundary(t *testing.T) {
	if _, err := Decode(strings.NewReader("data"), "", 1<<20); err == nil {
		t.Error("expected error for missing boundary")
	}
}

func TestDecode_TruncatedStream(t *testing.T) {
	body, boundary := buildForm(t, map[string]string{"title": "Dune"}, "dune.pdf", bytes.Repeat([]byte("x"), 4096), false)
	truncated := body.Bytes()[:body.Len()/2]

	if _, err := Decode(bytes.NewReader(truncated), boundary, 1<<20); err == nil {
		t.Error("expected error for truncated stream")
	}
}

// countingReader tracks how many bytes were consumed from the source.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func TestDecode_OversizeFileAbortsEarly(t *testing.T) {
	const limit = 64 * 1024
	fileData := bytes.Repeat([]byte("a"), 8*1024*1024) // 8 MiB, far over the limit
	body, boundary := buildForm(t, nil, "big.pdf", fileData, false)
	total := int64(body.Len())

	cr := &countingReader{r: body}
	_, err := Decode(cr, boundary, limit)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}

	// The decoder must stop reading shortly after the limit is crossed,
	// not consume the whole stream.
	if cr.n >= total {
		t.Errorf("decoder consumed the full %d-byte stream", total)
	}
	if cr.n > limit+256*1024 {
		t.Errorf("decoder read %d bytes, want close to the %d-byte limit", cr.n, limit)
	}
}

func TestDecode_FileAtExactLimit(t *testing.T) {
	const limit = 4096
	body, boundary := buildForm(t, nil, "exact.pdf", bytes.Repeat([]byte("b"), limit), false)

	form, err := Decode(body, boundary, limit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(form.File.Data) != limit {
		t.Errorf("expected %d bytes, got %d", limit, len(form.File.Data))
	}
}
