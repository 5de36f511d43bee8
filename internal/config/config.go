// Package config provides configuration management for the AutoVid editor.
// Values come from built-in defaults, then an optional TOML file, then
// environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	// Default values
	DefaultPort              = 8787
	DefaultLogLevel          = "info"
	DefaultDataDir           = ".autovid"
	DefaultUploadMaxSeconds  = 60
	DefaultExportPollSeconds = 2
	DefaultExportFPS         = 30.0

	// Environment variable names
	EnvConfigFile        = "AUTOVID_CONFIG"
	EnvPort              = "AUTOVID_PORT"
	EnvLogLevel          = "AUTOVID_LOG_LEVEL"
	EnvDataDir           = "AUTOVID_DATA_DIR"
	EnvCreditsURL        = "AUTOVID_CREDITS_URL"
	EnvCreditsToken      = "AUTOVID_CREDITS_TOKEN"
	EnvUploadMaxSeconds  = "AUTOVID_UPLOAD_MAX_SECONDS"
	EnvExportPollSeconds = "AUTOVID_EXPORT_POLL_SECONDS"
	EnvAllowedOrigins    = "AUTOVID_ALLOWED_ORIGINS"

	// Database filename
	DBFilename = "autovid.db"

	// LockFilename guards the data directory against a second server.
	LockFilename = "autovid.lock"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ExportDir() string
	LockPath() string
	CreditsURL() string
	CreditsToken() string
	UploadMaxDuration() float64
	ExportPollInterval() time.Duration
	ExportFPS() float64
	AllowedOrigins() []string
}

// fileConfig is the TOML layout. Zero values mean "not set".
type fileConfig struct {
	Server struct {
		Port     int    `toml:"port"`
		LogLevel string `toml:"log_level"`
		DataDir  string `toml:"data_dir"`
		// AllowedOrigins extends the loopback origins allowed by CORS.
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"server"`
	Credits struct {
		URL   string `toml:"url"`
		Token string `toml:"token"`
	} `toml:"credits"`
	Upload struct {
		MaxSeconds int `toml:"max_seconds"`
	} `toml:"upload"`
	Export struct {
		PollSeconds int     `toml:"poll_seconds"`
		FPS         float64 `toml:"fps"`
	} `toml:"export"`
}

// EnvConfig holds resolved configuration.
type EnvConfig struct {
	port              int
	logLevel          string
	dataDir           string
	creditsURL        string
	creditsToken      string
	uploadMaxSeconds  int
	exportPollSeconds int
	exportFPS         float64
	allowedOrigins    []string

	path       string
	fileLoaded bool
}

// New resolves configuration using the file named by AUTOVID_CONFIG, or the
// default location when unset. A missing file is not an error.
func New() (*EnvConfig, error) {
	return Load(os.Getenv(EnvConfigFile))
}

// Load resolves configuration from defaults, the TOML file at path (or the
// default path when empty) and the environment, then validates it.
func Load(path string) (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:              DefaultPort,
		logLevel:          DefaultLogLevel,
		dataDir:           defaultDataDir(),
		uploadMaxSeconds:  DefaultUploadMaxSeconds,
		exportPollSeconds: DefaultExportPollSeconds,
		exportFPS:         DefaultExportFPS,
	}

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	cfg.path = resolved

	if exists {
		if err := cfg.applyFile(resolved); err != nil {
			return nil, err
		}
		cfg.fileLoaded = true
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) applyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var fc fileConfig
	if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Server.Port != 0 {
		c.port = fc.Server.Port
	}
	if fc.Server.LogLevel != "" {
		c.logLevel = fc.Server.LogLevel
	}
	if fc.Server.DataDir != "" {
		dir, err := ExpandPath(fc.Server.DataDir)
		if err != nil {
			return err
		}
		c.dataDir = dir
	}
	if len(fc.Server.AllowedOrigins) > 0 {
		c.allowedOrigins = fc.Server.AllowedOrigins
	}
	if fc.Credits.URL != "" {
		c.creditsURL = strings.TrimRight(fc.Credits.URL, "/")
	}
	if fc.Credits.Token != "" {
		c.creditsToken = fc.Credits.Token
	}
	if fc.Upload.MaxSeconds != 0 {
		c.uploadMaxSeconds = fc.Upload.MaxSeconds
	}
	if fc.Export.PollSeconds != 0 {
		c.exportPollSeconds = fc.Export.PollSeconds
	}
	if fc.Export.FPS != 0 {
		c.exportFPS = fc.Export.FPS
	}
	return nil
}

func (c *EnvConfig) applyEnv() error {
	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		dir, err := ExpandPath(dd)
		if err != nil {
			return err
		}
		c.dataDir = dir
	}

	if u := os.Getenv(EnvCreditsURL); u != "" {
		c.creditsURL = strings.TrimRight(u, "/")
	}
	if tok := os.Getenv(EnvCreditsToken); tok != "" {
		c.creditsToken = tok
	}

	if s := os.Getenv(EnvUploadMaxSeconds); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvUploadMaxSeconds, err)
		}
		c.uploadMaxSeconds = n
	}

	if s := os.Getenv(EnvExportPollSeconds); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvExportPollSeconds, err)
		}
		c.exportPollSeconds = n
	}

	if s := os.Getenv(EnvAllowedOrigins); s != "" {
		c.allowedOrigins = nil
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.allowedOrigins = append(c.allowedOrigins, o)
			}
		}
	}
	return nil
}

// Validate reports the first out-of-range value.
func (c *EnvConfig) Validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.port)
	}
	switch strings.ToLower(c.logLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", c.logLevel)
	}
	if c.uploadMaxSeconds <= 0 {
		return fmt.Errorf("upload max seconds must be positive, got %d", c.uploadMaxSeconds)
	}
	if c.exportPollSeconds <= 0 {
		return fmt.Errorf("export poll seconds must be positive, got %d", c.exportPollSeconds)
	}
	if c.exportFPS <= 0 {
		return fmt.Errorf("export fps must be positive, got %v", c.exportFPS)
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ExportDir is where finished EDL files are written.
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

func (c *EnvConfig) LockPath() string {
	return filepath.Join(c.dataDir, LockFilename)
}

// CreditsURL is the base URL of the credit service. Empty selects the stub
// client that approves every charge.
func (c *EnvConfig) CreditsURL() string {
	return c.creditsURL
}

func (c *EnvConfig) CreditsToken() string {
	return c.creditsToken
}

// UploadMaxDuration is the longest clip, in seconds, accepted for uploaded
// file media.
func (c *EnvConfig) UploadMaxDuration() float64 {
	return float64(c.uploadMaxSeconds)
}

func (c *EnvConfig) ExportPollInterval() time.Duration {
	return time.Duration(c.exportPollSeconds) * time.Second
}

func (c *EnvConfig) ExportFPS() float64 {
	return c.exportFPS
}

// AllowedOrigins lists browser origins, besides loopback ones, that may call
// the API.
func (c *EnvConfig) AllowedOrigins() []string {
	return c.allowedOrigins
}

// Path returns the config file location that was consulted and whether it
// existed.
func (c *EnvConfig) Path() (string, bool) {
	return c.path, c.fileLoaded
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/autovid/config.toml")
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		def, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = def
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes the sample configuration file to path. It refuses to
// overwrite an existing file.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
