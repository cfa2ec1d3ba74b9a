package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	API    APIConfig    `yaml:"api"`
	Sync   SyncConfig   `yaml:"sync"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds settings for the local HTTP/WebSocket surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// APIConfig holds settings for the remote backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Token is usually supplied via SUMMITGO_API_TOKEN, not the YAML file.
	Token string `yaml:"token"`
}

// SyncConfig holds settings for the offline sync engine.
type SyncConfig struct {
	// ProbeInterval is how often the connectivity monitor re-checks
	// reachability while running.
	ProbeInterval Duration `yaml:"probe_interval"`
}

// CacheConfig holds settings for the local read-view cache.
type CacheConfig struct {
	TTL Duration `yaml:"ttl"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: "127.0.0.1:8177"},
		DB:     DBConfig{Path: "data/summitgo.db"},
		API:    APIConfig{BaseURL: "https://api.summitlog.app"},
		Sync:   SyncConfig{ProbeInterval: Duration(15 * time.Second)},
		Cache:  CacheConfig{TTL: Duration(24 * time.Hour)},
		Log:    LogConfig{Path: "logs/summitgo.log", Level: "INFO"},
	}
}

// Load reads the config file, applying defaults for missing fields and
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Run on defaults; the file is optional.
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url must not be empty")
	}
	return cfg, nil
}

// applyEnv overlays secrets and overrides from the environment
// (typically loaded from .env by the entrypoint).
func applyEnv(cfg *Config) {
	if v := os.Getenv("SUMMITGO_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("SUMMITGO_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
}

// GenerateDefault writes a default config file for the user to edit.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
