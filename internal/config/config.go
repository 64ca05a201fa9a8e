// Package config provides configuration management for the DocVault backend.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default config file name inside the data dir.
	ConfigFileName = "config.yaml"
	// AppDirName is the per-user application directory name.
	AppDirName = "DocVault"
)

// Config holds the backend configuration. Values resolve in order:
// built-in defaults, then the YAML file, then DOCVAULT_* environment
// variables.
type Config struct {
	// DataDir holds the sqlite database and config file.
	DataDir string `yaml:"data_dir"`

	// AttachmentsDir is the base directory of the attachment file store.
	// Defaults to <data_dir>/attachments.
	AttachmentsDir string `yaml:"attachments_dir"`

	// ListenAddr is the localhost address the desktop bridge binds to.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogConsole selects human-readable log output instead of JSON.
	LogConsole bool `yaml:"log_console"`

	// ThumbnailSize is the bounding box edge for attachment thumbnails.
	ThumbnailSize int `yaml:"thumbnail_size"`
}

// DefaultDataDir returns the per-user application data directory.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(base, AppDirName)
}

// Default returns a Config populated with defaults.
func Default() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		DataDir:        dataDir,
		AttachmentsDir: filepath.Join(dataDir, "attachments"),
		ListenAddr:     "127.0.0.1:8090",
		LogLevel:       "info",
		LogConsole:     false,
		ThumbnailSize:  256,
	}
}

// Load reads the config file at path (if it exists) on top of defaults and
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if cfg.AttachmentsDir == "" {
		cfg.AttachmentsDir = filepath.Join(cfg.DataDir, "attachments")
	}
	if cfg.ThumbnailSize <= 0 {
		cfg.ThumbnailSize = 256
	}
	return cfg, nil
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnv overrides fields from DOCVAULT_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("DOCVAULT_DATA_DIR"); v != "" {
		c.DataDir = v
		c.AttachmentsDir = filepath.Join(v, "attachments")
	}
	if v := os.Getenv("DOCVAULT_ATTACHMENTS_DIR"); v != "" {
		c.AttachmentsDir = v
	}
	if v := os.Getenv("DOCVAULT_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("DOCVAULT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DOCVAULT_LOG_CONSOLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogConsole = b
		}
	}
}
