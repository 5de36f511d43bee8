package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points HOME at a temp dir and clears every AUTOVID_* variable.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		EnvConfigFile, EnvPort, EnvLogLevel, EnvDataDir, EnvCreditsURL,
		EnvCreditsToken, EnvUploadMaxSeconds, EnvExportPollSeconds, EnvAllowedOrigins,
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNew_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != "info" {
		t.Errorf("LogLevel() = %q, want info", cfg.LogLevel())
	}
	if want := filepath.Join(home, ".autovid"); cfg.DataDir() != want {
		t.Errorf("DataDir() = %q, want %q", cfg.DataDir(), want)
	}
	if want := filepath.Join(home, ".autovid", "autovid.db"); cfg.DBPath() != want {
		t.Errorf("DBPath() = %q, want %q", cfg.DBPath(), want)
	}
	if cfg.UploadMaxDuration() != 60 {
		t.Errorf("UploadMaxDuration() = %v, want 60", cfg.UploadMaxDuration())
	}
	if cfg.ExportPollInterval() != 2*time.Second {
		t.Errorf("ExportPollInterval() = %v, want 2s", cfg.ExportPollInterval())
	}
	if cfg.CreditsURL() != "" {
		t.Errorf("CreditsURL() = %q, want empty", cfg.CreditsURL())
	}

	path, loaded := cfg.Path()
	if loaded {
		t.Error("expected no config file to be loaded")
	}
	if want := filepath.Join(home, ".config", "autovid", "config.toml"); path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `
[server]
port = 9000
log_level = "debug"
data_dir = "`+filepath.ToSlash(filepath.Join(dir, "data"))+`"

allowed_origins = ["https://studio.example.com"]

[credits]
url = "https://credits.example.com/"

[export]
fps = 29.97
`)
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvCreditsToken, "secret-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != 9100 {
		t.Errorf("Port() = %d, want env override 9100", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	if cfg.DataDir() != filepath.Join(dir, "data") {
		t.Errorf("DataDir() = %q", cfg.DataDir())
	}
	if cfg.CreditsURL() != "https://credits.example.com" {
		t.Errorf("CreditsURL() = %q", cfg.CreditsURL())
	}
	if cfg.CreditsToken() != "secret-token" {
		t.Errorf("CreditsToken() = %q", cfg.CreditsToken())
	}
	if got := cfg.AllowedOrigins(); len(got) != 1 || got[0] != "https://studio.example.com" {
		t.Errorf("AllowedOrigins() = %v", got)
	}
	if cfg.ExportFPS() != 29.97 {
		t.Errorf("ExportFPS() = %v, want 29.97", cfg.ExportFPS())
	}
	if _, loaded := cfg.Path(); !loaded {
		t.Error("expected config file to be loaded")
	}
}

func TestNew_ConfigFileFromEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "autovid.toml")
	writeFile(t, path, "[upload]\nmax_seconds = 90\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UploadMaxDuration() != 90 {
		t.Errorf("UploadMaxDuration() = %v, want 90", cfg.UploadMaxDuration())
	}
}

func TestLoad_AllowedOriginsFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvAllowedOrigins, " https://a.example.com, ,https://b.example.com ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := cfg.AllowedOrigins()
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("AllowedOrigins() = %v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "port not a number", env: map[string]string{EnvPort: "abc"}},
		{name: "port out of range", env: map[string]string{EnvPort: "70000"}},
		{name: "bad log level", env: map[string]string{EnvLogLevel: "loud"}},
		{name: "zero poll interval", env: map[string]string{EnvExportPollSeconds: "-1"}},
		{name: "unknown key", file: "[server]\nbind = \"0.0.0.0\"\n"},
		{name: "malformed toml", file: "[server\nport = 1\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			path := ""
			if tc.file != "" {
				path = filepath.Join(t.TempDir(), "config.toml")
				writeFile(t, path, tc.file)
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCreateSample_LoadsCleanly(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}

	if err := CreateSample(path); err == nil {
		t.Error("expected CreateSample to refuse overwriting")
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	got, err := ExpandPath("~/projects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, "projects"); got != want {
		t.Errorf("ExpandPath = %q, want %q", got, want)
	}

	if got, _ := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q, want empty", got)
	}
}
