// Package config loads the mlens configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up in the working directory when no file is given.
const DefaultPath = "mlens.yaml"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the structure of mlens.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	XGBoost XGBoostConfig `yaml:"xgboost" json:"xgboost"`
	Presets PresetsConfig `yaml:"presets" json:"presets"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type CacheConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
	// Compress gzips traces before they are stored.
	Compress bool `yaml:"compress" json:"compress"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
}

// XGBoostConfig points the boosting step at a remote service. Empty means local.
type XGBoostConfig struct {
	RemoteURL string `yaml:"remote_url" json:"remote_url"`
}

type PresetsConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", TickInterval: 500 * time.Millisecond},
		Log:    LogConfig{Level: "info", Format: "text"},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Redis:   RedisConfig{Addr: "localhost:6379", TTL: time.Hour, Prefix: "mlens:trace:"},
		},
	}
}

// Load reads a configuration file (YAML or JSON) on top of Default.
// A missing file is not an error when path is DefaultPath or empty.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != "" && path != DefaultPath
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := Parse(data, filepath.Ext(path), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes data into cfg. Fields absent from data keep their values.
func Parse(data []byte, ext string, cfg *Config) error {
	if strings.ToLower(ext) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config json: %w", err)
		}
		return nil
	}
	// Default to YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config yaml: %w", err)
	}
	return nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalid, c.Cache.Backend)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	if c.Server.TickInterval < 0 {
		return fmt.Errorf("%w: negative tick interval", ErrInvalid)
	}
	if c.Cache.Redis.TTL < 0 {
		return fmt.Errorf("%w: negative redis ttl", ErrInvalid)
	}
	return nil
}
