package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dupfinder/internal/config"
	"dupfinder/internal/detect"
	"dupfinder/internal/ingest"
	"dupfinder/internal/logger"
	"dupfinder/internal/workspace"
)

//go:embed templates/index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// UploadExtensions are the only file types accepted over HTTP.
var UploadExtensions = []string{".pdf"}

const (
	formField      = "files"
	countHeader    = "X-Duplicate-Count"
	messageHeader  = "X-Analysis-Message"
	warningHeader  = "X-Analysis-Warnings"
	multipartInMem = 8 << 20
)

type Server struct {
	engine    *detect.Engine
	maxUpload int64
	log       *logger.Logger
}

func New(engine *detect.Engine, cfg config.Config, log *logger.Logger) *Server {
	return &Server{engine: engine, maxUpload: cfg.MaxUploadBytes, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Log(logger.LevelInfo, "HTTP", "Listening", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		s.tooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartInMem); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.tooLarge(w)
			return
		}
		s.render(w, http.StatusBadRequest, "No files selected")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[formField]
	var selected []*multipart.FileHeader
	for _, fh := range headers {
		if fh.Filename != "" {
			selected = append(selected, fh)
		}
	}
	if len(selected) == 0 {
		s.render(w, http.StatusBadRequest, "No files selected")
		return
	}

	var (
		valid    []*multipart.FileHeader
		messages []string
	)
	for _, fh := range selected {
		if ingest.AllowedFile(fh.Filename, UploadExtensions...) {
			valid = append(valid, fh)
			continue
		}
		messages = append(messages, fmt.Sprintf("Invalid file type: %s. Only PDF files are allowed.", fh.Filename))
	}
	if len(valid) == 0 {
		s.render(w, http.StatusBadRequest, messages...)
		return
	}

	tmpDir, err := os.MkdirTemp("", "dupfinder-upload-*")
	if err != nil {
		s.render(w, http.StatusInternalServerError, "Error processing files: "+err.Error())
		return
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.log.Log(logger.LevelRisk, "HTTP", "Temp cleanup failed", err.Error())
		}
	}()

	inputs := make([]detect.Input, 0, len(valid))
	for i, fh := range valid {
		in, err := saveUpload(tmpDir, i, fh)
		if err != nil {
			s.render(w, http.StatusInternalServerError, "Error processing files: "+err.Error())
			return
		}
		inputs = append(inputs, in)
	}

	result, err := s.engine.Run(r.Context(), inputs)
	if err != nil {
		s.render(w, http.StatusInternalServerError, "Error processing files: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", workspace.ReportFileName(result.GeneratedAt)))
	w.Header().Set(countHeader, strconv.Itoa(result.Count))
	w.Header().Set(messageHeader, fmt.Sprintf("Analysis complete! Found %d duplicate sentences.", result.Count))
	// skipped uploads travel with the download, one message per file
	if len(messages) > 0 {
		w.Header().Set(warningHeader, strings.Join(messages, "; "))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, result.Report); err != nil {
		s.log.Log(logger.LevelRisk, "HTTP", "Writing report failed", err.Error())
	}
}

// saveUpload stores one upload as tmpDir/<i>/<safe name> so equal names in a
// single request do not overwrite each other.
func saveUpload(tmpDir string, i int, fh *multipart.FileHeader) (detect.Input, error) {
	name := workspace.SecureFilename(fh.Filename)
	if name == "" {
		name = fmt.Sprintf("upload_%d.pdf", i+1)
	}
	dir := filepath.Join(tmpDir, strconv.Itoa(i))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return detect.Input{}, fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, name)

	src, err := fh.Open()
	if err != nil {
		return detect.Input{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return detect.Input{}, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return detect.Input{}, fmt.Errorf("save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return detect.Input{}, fmt.Errorf("close upload file: %w", err)
	}
	return detect.Input{Filename: name, Path: path}, nil
}

func (s *Server) tooLarge(w http.ResponseWriter) {
	s.render(w, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("Upload too large. The limit is %d MB.", s.maxUpload>>20))
}

func (s *Server) render(w http.ResponseWriter, status int, messages ...string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := struct {
		Messages    []string
		MaxUploadMB int64
	}{Messages: messages, MaxUploadMB: s.maxUpload >> 20}
	if err := indexTmpl.Execute(w, data); err != nil {
		s.log.Log(logger.LevelRisk, "HTTP", "Rendering index failed", err.Error())
	}
}
