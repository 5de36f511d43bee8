// Package download streams finished export artifacts to HTTP clients with
// support for single byte ranges.
package download

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by Serve when the artifact is no longer on disk.
var ErrNotFound = errors.New("artifact not found")

// contentTypes covers artifact formats the mime table does not know.
var contentTypes = map[string]string{
	".edl": "text/plain; charset=utf-8",
}

type Server struct {
	logger *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{logger: logger}
}

// Serve writes the file at path as an attachment named name. Nothing is
// written to w when it returns ErrNotFound.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	if stat.IsDir() {
		return ErrNotFound
	}
	size := stat.Size()

	if name == "" {
		name = filepath.Base(path)
	}

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", contentType(path))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("Last-Modified", stat.ModTime().UTC().Format(http.TimeFormat))

	rng, err := ParseRange(r.Header.Get("Range"), size)
	if errors.Is(err, ErrUnsatisfiable) {
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		h.Set("Content-Type", "text/plain; charset=utf-8")
		h.Del("Content-Disposition")
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		io.WriteString(w, "range not satisfiable\n")
		return nil
	}
	// A malformed Range header is ignored and the whole file is sent.
	if rng == nil || ifRangeStale(r, stat.ModTime()) {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			s.copy(w, file, size)
		}
		return nil
	}

	if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
		return fmt.Errorf("seek artifact: %w", err)
	}
	h.Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	h.Set("Content-Range", rng.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method != http.MethodHead {
		s.copy(w, file, rng.Length())
	}
	return nil
}

func (s *Server) copy(w io.Writer, r io.Reader, n int64) {
	if _, err := io.CopyN(w, r, n); err != nil && s.logger != nil {
		s.logger.Debug("artifact download interrupted", "error", err)
	}
}

// ifRangeStale reports whether an If-Range date precondition no longer
// holds, in which case the full file is sent instead of a range.
func ifRangeStale(r *http.Request, modified time.Time) bool {
	v := r.Header.Get("If-Range")
	if v == "" {
		return false
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return true
	}
	return modified.Truncate(time.Second).After(t)
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
