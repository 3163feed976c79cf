// Package config loads the QRET host configuration from YAML.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/qret/internal/validator"
	"gopkg.in/yaml.v3"
)

// Config is the complete host configuration.
type Config struct {
	LogLevel  string  `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string  `yaml:"log_format" validate:"omitempty,oneof=text json"`
	Server    Server  `yaml:"server"`
	Store     Store   `yaml:"store"`
	Redis     Redis   `yaml:"redis"`
	Catalog   Catalog `yaml:"catalog"`
	Fixtures  Files   `yaml:"fixtures"`
	Session   Session `yaml:"session"`
}

// Server configures the HTTP host.
type Server struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// Store selects the snapshot store.
type Store struct {
	Kind string        `yaml:"kind" validate:"required,oneof=memory file redis"`
	Path string        `yaml:"path" validate:"required_if=Kind file"`
	TTL  time.Duration `yaml:"ttl" validate:"min=0"`

	// Mask lists regular expressions over invoice fields ("customer.email",
	// "payment.last4") whose values are masked before storage.
	Mask []string `yaml:"mask"`
	// EncryptionKey is a base64 AES-256 key. When set snapshots are sealed at rest.
	EncryptionKey string `yaml:"encryption_key" validate:"omitempty,base64"`
}

// Key decodes EncryptionKey. It returns nil when encryption is off.
func (s Store) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("store.encryption_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Redis configures the redis store and distributed locks.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
	Prefix   string `yaml:"prefix"`
	Lock     bool   `yaml:"lock"`
}

// Catalog selects the price authority.
type Catalog struct {
	Source string `yaml:"source" validate:"required,oneof=fixture loam xlsx"`
	Path   string `yaml:"path"`
	Sheet  string `yaml:"sheet"`
}

// Files points at optional data files. Empty means the built-in demo.
type Files struct {
	Path string `yaml:"path"`
}

// Session configures the session manager.
type Session struct {
	StrictPhases bool          `yaml:"strict_phases"`
	LockTTL      time.Duration `yaml:"lock_ttl" validate:"min=0"`
}

// Default returns a configuration that runs entirely in memory on demo data.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Server:    Server{Addr: "localhost:8080"},
		Store:     Store{Kind: "memory", Path: ".qret/sessions"},
		Redis:     Redis{Addr: "localhost:6379", Prefix: "qret:session:"},
		Catalog:   Catalog{Source: "fixture"},
		Session:   Session{LockTTL: 30 * time.Second},
	}
}

// Load reads path on top of Default. ${VAR} references are expanded from
// the environment. A missing file is not an error when optional is true.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return err
	}
	if c.Catalog.Source != "fixture" && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required for source %s", c.Catalog.Source)
	}
	if (c.Store.Kind == "redis" || c.Redis.Lock) && c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if _, err := c.Store.Key(); err != nil {
		return err
	}
	return nil
}
