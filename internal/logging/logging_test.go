package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := WithProjectID(WithComponent(New(&buf, "info"), "project"), "p-1")

	logger.Debug("hidden")
	logger.Info("saved", "tracks", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "saved" {
		t.Errorf("msg = %v, want saved", entry["msg"])
	}
	if entry["component"] != "project" || entry["project_id"] != "p-1" {
		t.Errorf("missing attributes: %v", entry)
	}
	if entry["tracks"] != float64(2) {
		t.Errorf("tracks = %v, want 2", entry["tracks"])
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "****"},
		{"12345678", "****"},
		{"abcdefghijkl", "abcd...ijkl"},
	}
	for _, tc := range tests {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := SanitizePath(filepath.Join(home, "Videos", "intro.mp4"))
	want := "~" + string(filepath.Separator) + filepath.Join("Videos", "intro.mp4")
	if got != want {
		t.Errorf("SanitizePath = %q, want %q", got, want)
	}

	if got := SanitizePath("/srv/media/a.mp4"); got != "/srv/media/a.mp4" {
		t.Errorf("SanitizePath outside home = %q", got)
	}
}
