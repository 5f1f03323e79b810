package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// ScheduleURL is the schedule XML endpoint.
	ScheduleURL string `yaml:"schedule_url" json:"schedule_url"`

	// Room is the default exact-match room filter applied on fetch.
	// Empty means all rooms.
	Room string `yaml:"room" json:"room"`

	// RefreshCron is a cron-style schedule string (e.g. "*/30 * * * *")
	// driving periodic re-fetch of the schedule document.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DebounceMs is the window in milliseconds within which rapid
	// refresh triggers collapse to a single fetch.
	DebounceMs int `yaml:"debounce_ms" json:"debounce_ms"`

	// CacheDir is the base directory for the HTTP fetch cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is the minimum log level ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		ScheduleURL: "https://fosdem.org/2026/schedule/xml",
		Room:        "",
		RefreshCron: "*/30 * * * *",
		DebounceMs:  400,
		CacheDir:    "./var/schedule-cache",
		LogLevel:    "info",
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so
// that partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.ScheduleURL == "" {
		c.ScheduleURL = "https://fosdem.org/2026/schedule/xml"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.DebounceMs <= 0 {
		c.DebounceMs = 400
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/schedule-cache"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Debounce returns the debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with
//     0600 perms and returned.
//   - If the file exists, it is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config yaml")
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fosdemcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
