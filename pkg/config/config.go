// Package config loads leadview settings from a YAML file, a .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/phoenixcrm/leadview/pkg/analysis"
	"github.com/phoenixcrm/leadview/pkg/model"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig   = "LEADVIEW_CONFIG"
	EnvBackend  = "BACKEND_URL"
	EnvToken    = "LEADVIEW_TOKEN"
	EnvTimeout  = "LEADVIEW_TIMEOUT"
	EnvLogPath  = "LEADVIEW_LOG"
	EnvSnapshot = "LEADVIEW_SNAPSHOT"
)

const (
	DefaultBackendURL = "http://localhost:8000"
	DefaultTimeout    = 10 * time.Second
)

// Config holds user settings.
type Config struct {
	BackendURL   string        `yaml:"backend_url"`
	Token        string        `yaml:"token"`
	Timeout      time.Duration `yaml:"timeout"`
	DefaultSort  string        `yaml:"default_sort"`
	DefaultStage string        `yaml:"default_stage"`
	SnapshotPath string        `yaml:"snapshot_path"`
	LogPath      string        `yaml:"log_path"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BackendURL:   DefaultBackendURL,
		Timeout:      DefaultTimeout,
		DefaultSort:  string(analysis.SortByName),
		DefaultStage: model.StageAll,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/leadview/config.yaml, falling back to
// the platform config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "leadview", "config.yaml")
}

// Load builds the effective configuration. An explicit path must exist; the
// default location is optional. A .env file in the working directory is
// loaded into the environment first without overriding variables that are
// already set.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		if p := os.Getenv(EnvConfig); p != "" {
			path, explicit = p, true
		} else {
			path = DefaultPath()
		}
	}

	cfg := Default()
	if path != "" {
		loaded, err := LoadFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config file on top of the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up via getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvBackend); v != "" {
		c.BackendURL = v
	}
	if v := getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = d
	}
	if v := getenv(EnvLogPath); v != "" {
		c.LogPath = v
	}
	if v := getenv(EnvSnapshot); v != "" {
		c.SnapshotPath = v
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var problems []string

	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("backend_url %q is not an absolute URL", c.BackendURL))
		}
	}
	if c.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("timeout must be positive, got %s", c.Timeout))
	}
	if c.DefaultSort != "" && !analysis.SortKey(c.DefaultSort).IsKnown() {
		problems = append(problems, fmt.Sprintf("default_sort %q is not one of %s", c.DefaultSort, sortKeyList()))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Query returns the initial view selection described by the config.
func (c Config) Query() analysis.Query {
	q := analysis.DefaultQuery()
	if c.DefaultSort != "" {
		q.SortBy = analysis.SortKey(c.DefaultSort)
	}
	if c.DefaultStage != "" {
		q.Stage = c.DefaultStage
	}
	return q
}

func sortKeyList() string {
	keys := make([]string, len(analysis.SortKeys))
	for i, k := range analysis.SortKeys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}
