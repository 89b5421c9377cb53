// Package config loads application configuration from environment variables
// and an optional YAML file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	ListenAddr     string        `yaml:"listen_addr"`
	DBPath         string        `yaml:"db_path"`
	SecretKey      string        `yaml:"secret_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
}

// ErrMissingAPIBaseURL is returned when no upstream API is configured.
var ErrMissingAPIBaseURL = errors.New("SMARTQ_API_BASE_URL is required")

func defaults() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		DBPath:         "smartq.db",
		RequestTimeout: 15 * time.Second,
		LogLevel:       "info",
	}
}

// Load reads configuration and returns a validated Config.
//
// Values are resolved in order: built-in defaults, the YAML file named by
// SMARTQ_CONFIG (if set), then environment variables. SMARTQ_API_BASE_URL
// is required. Optional variables with defaults: SMARTQ_LISTEN_ADDR
// (127.0.0.1:8080), SMARTQ_DB_PATH (smartq.db), SMARTQ_REQUEST_TIMEOUT (15s),
// SMARTQ_LOG_LEVEL (info). SMARTQ_SECRET_KEY is optional; without it the
// refresh credential is not persisted.
func Load() (*Config, error) {
	cfg := defaults()

	if path, ok := os.LookupEnv("SMARTQ_CONFIG"); ok && path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if v, ok := os.LookupEnv("SMARTQ_API_BASE_URL"); ok {
		cfg.APIBaseURL = v
	}
	if v, ok := os.LookupEnv("SMARTQ_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("SMARTQ_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("SMARTQ_SECRET_KEY"); ok {
		cfg.SecretKey = v
	}
	if v, ok := os.LookupEnv("SMARTQ_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("SMARTQ_REQUEST_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SMARTQ_REQUEST_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.RequestTimeout = parsed
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SMARTQ_API_BASE_URL %q is not an absolute URL", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("SMARTQ_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if _, err := c.EncryptionKey(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// EncryptionKey decodes SecretKey into a 32-byte AES-256 key. It returns
// (nil, nil) when no key is configured.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.SecretKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("SMARTQ_SECRET_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("SMARTQ_SECRET_KEY must be 64 hex characters (32 bytes), got %d bytes", len(key))
	}
	return key, nil
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("SMARTQ_LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
	return level, nil
}
