// Package config loads application configuration from an optional TOML file
// overlaid by environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration. Environment variables win over
// the config file, which wins over defaults.
type Config struct {
	ListenAddr  string
	DBPath      string
	APODBaseURL string
	HTTPTimeout time.Duration
	SecretKey   []byte // 32-byte AES-256 key, or nil when key storage is disabled.
}

const (
	defaultListenAddr  = "127.0.0.1:8080"
	defaultDBPath      = "apodpanel.db"
	defaultHTTPTimeout = 30 * time.Second
)

// fileConfig is the TOML shape of the optional config file.
type fileConfig struct {
	ListenAddr  string `toml:"listen_addr"`
	DBPath      string `toml:"db_path"`
	APODBaseURL string `toml:"apod_base_url"`
	HTTPTimeout string `toml:"http_timeout"`
}

// Load reads configuration and returns a validated Config. All settings are
// optional: the panel starts on the shared DEMO_KEY with sane defaults when
// nothing is configured. APODPANEL_SECRET_KEY, when set, must be 64 hex
// characters (32 bytes); without it the key store is disabled.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  defaultListenAddr,
		DBPath:      defaultDBPath,
		HTTPTimeout: defaultHTTPTimeout,
	}

	if path, ok := os.LookupEnv("APODPANEL_CONFIG_FILE"); ok && path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if v, ok := os.LookupEnv("APODPANEL_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("APODPANEL_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("APODPANEL_APOD_URL"); ok {
		cfg.APODBaseURL = v
	}
	if v, ok := os.LookupEnv("APODPANEL_HTTP_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("APODPANEL_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.HTTPTimeout = parsed
	}

	if v := strings.TrimSpace(os.Getenv("APODPANEL_SECRET_KEY")); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("APODPANEL_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("APODPANEL_SECRET_KEY must be 64 hex characters (32 bytes), got %d bytes", len(key))
		}
		cfg.SecretKey = key
	}

	return cfg, nil
}

// HasSecretKey reports whether encrypted key storage is enabled.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) == 32
}

// applyFile overlays settings from a TOML config file. A missing file is not
// an error when the path came from the default; callers pass explicit paths
// so here it is.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if v := strings.TrimSpace(raw.ListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(raw.DBPath); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(raw.APODBaseURL); v != "" {
		cfg.APODBaseURL = v
	}
	if v := strings.TrimSpace(raw.HTTPTimeout); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config file http_timeout has invalid duration %q: %w", v, err)
		}
		cfg.HTTPTimeout = parsed
	}

	return nil
}
