// Package config loads taskboard settings.
//
// Values are layered in priority order:
// 1. Built-in defaults
// 2. Config file (~/.config/taskboard/config.toml unless a path is given)
// 3. Environment variables (TASKBOARD_*)
//
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"taskboard/app"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig selects where the task snapshot lives.
type StorageConfig struct {
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
	Key     string `toml:"key"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File defaults to taskboard.log in the data dir, see LogFile.
	File   string `toml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "taskboard")
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			DataDir: dataDir,
			Key:     app.DefaultKey,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(homeDir, ".config", "taskboard", "config.toml"), nil
}

// Load reads the config file at path, then applies environment overrides.
// With an empty path the default location is used and may be missing; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		p, perr := DefaultPath()
		if perr != nil {
			return nil, perr
		}
		cfg, err = loadFile(p, true)
	} else {
		cfg, err = LoadFrom(path)
	}
	if err != nil {
		return nil, err
	}
	loadFromEnv(cfg)
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom loads configuration from a specific file on top of the defaults.
// The file must exist.
func LoadFrom(path string) (*Config, error) {
	return loadFile(path, false)
}

func loadFile(path string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TASKBOARD_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("TASKBOARD_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("TASKBOARD_KEY"); v != "" {
		cfg.Storage.Key = v
	}
	if v := os.Getenv("TASKBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TASKBOARD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TASKBOARD_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

// Finalize expands paths and checks the values. Call it again after
// applying flags.
func (c *Config) Finalize() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	c.Storage.DataDir = expandPath(c.Storage.DataDir)
	c.Log.File = expandPath(c.Log.File)

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// LogFile is the configured log file, or taskboard.log in the data dir when
// none is set.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.Storage.DataDir, "taskboard.log")
}

// SQLitePath is the database file used by the sqlite backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Storage.DataDir, "taskboard.db")
}

// expandPath expands ~ and environment variables in paths.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
