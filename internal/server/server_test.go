package server

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupfinder/internal/config"
	"dupfinder/internal/detect"
	"dupfinder/internal/logger"
)

// textExtractor treats every upload as a single page of plain text.
type textExtractor struct{}

func (textExtractor) Extract(_ context.Context, path string) (map[int]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return map[int]string{1: string(raw)}, nil
}

type upload struct {
	name    string
	content string
}

func newTestServer(t *testing.T, maxUpload int64) http.Handler {
	t.Helper()
	cfg := config.Default()
	if maxUpload > 0 {
		cfg.MaxUploadBytes = maxUpload
	}
	engine := detect.New(cfg, logger.Nop())
	engine.Extractor = textExtractor{}
	engine.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return New(engine, cfg, logger.Nop()).Handler()
}

func multipartRequest(t *testing.T, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/upload"`)
	assert.Contains(t, rec.Body.String(), "Maximum upload size: 16 MB.")
}

func TestUnknownPath(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadWithoutFiles(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, 0).ServeHTTP(rec, multipartRequest(t))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No files selected")
}

func TestUploadNotMultipart(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("files=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	newTestServer(t, 0).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No files selected")
}

func TestUploadRejectsNonPDF(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, 0).ServeHTTP(rec, multipartRequest(t,
		upload{name: "notes.txt", content: "hello"},
		upload{name: "image.png", content: "png"},
	))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid file type: notes.txt. Only PDF files are allowed.")
	assert.Contains(t, rec.Body.String(), "Invalid file type: image.png. Only PDF files are allowed.")
}

func TestUploadTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, 1<<20).ServeHTTP(rec, multipartRequest(t,
		upload{name: "big.pdf", content: strings.Repeat("x", 2<<20)},
	))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload too large. The limit is 1 MB.")
}

func TestUploadReturnsReport(t *testing.T) {
	shared := "This is a test document for duplicate detection."
	rec := httptest.NewRecorder()
	newTestServer(t, 0).ServeHTTP(rec, multipartRequest(t,
		upload{name: "first report.pdf", content: shared},
		upload{name: "second.pdf", content: "Something else entirely here.\n" + shared},
		upload{name: "skip.docx", content: "ignored"},
	))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="duplicate_report_20260102_030405.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("X-Duplicate-Count"))
	assert.Equal(t, "Analysis complete! Found 2 duplicate sentences.", rec.Header().Get("X-Analysis-Message"))
	assert.Equal(t, "Invalid file type: skip.docx. Only PDF files are allowed.", rec.Header().Get("X-Analysis-Warnings"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "DUPLICATE SENTENCES REPORT\n"))
	assert.Contains(t, body, "Generated on: 2026-01-02 03:04:05")
	assert.Contains(t, body, "   - File: first_report.pdf, Pages: 1\n")
	assert.Contains(t, body, "   - File: second.pdf, Pages: 1\n")
}

func TestUploadSameNameTwice(t *testing.T) {
	shared := "Both uploads share one long sentence."
	rec := httptest.NewRecorder()
	newTestServer(t, 0).ServeHTTP(rec, multipartRequest(t,
		upload{name: "same.pdf", content: shared},
		upload{name: "same.pdf", content: shared},
	))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Analysis-Warnings"))
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("   Found in %d locations:\n   - File: same.pdf, Pages: 1\n", 2))
}
