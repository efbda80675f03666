// Package config provides configuration loading and structs for the simrec pipeline and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers accepted by StoreConfig.Driver.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	BasePath       string        `yaml:"base_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// RateLimitRequests per RateLimitWindow per client IP. Negative disables limiting.
	RateLimitRequests  int           `yaml:"rate_limit_requests"`
	RateLimitWindow    time.Duration `yaml:"rate_limit_window"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
}

// StoreConfig selects and tunes the recommendation store backend.
type StoreConfig struct {
	Driver          string        `yaml:"driver"`
	Path            string        `yaml:"path"`
	ReverseIndex    bool          `yaml:"reverse_index"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// SimilarityConfig holds neighbor list construction settings.
type SimilarityConfig struct {
	TopN    int `yaml:"top_n"`
	Workers int `yaml:"workers"`
}

// RecommendConfig holds query defaults for the recommendation service.
type RecommendConfig struct {
	DefaultN int `yaml:"default_n"`
	MaxN     int `yaml:"max_n"`
	// Datasets restricts queries to these namespaces. Empty allows any namespace in the store.
	Datasets []string `yaml:"datasets"`
}

// PipelineConfig holds batch job settings.
type PipelineConfig struct {
	ArtifactDir string `yaml:"artifact_dir"`
	Workers     int    `yaml:"workers"`
	Watch       bool   `yaml:"watch"`
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	cfg.expandPaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load when path exists. When it does not, it returns the
// defaults with environment overrides applied, so the CLI runs without a config file.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		var cfg Config
		ApplyEnv(&cfg)
		ApplyDefaults(&cfg)
		cwd, _ := os.Getwd()
		cfg.expandPaths(cwd)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return Load(path)
}

// Save writes the config to path, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports configuration values that cannot be served.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverBadger, DriverSQLite:
	default:
		return fmt.Errorf("invalid store driver %q (want %s, %s or %s)", c.Store.Driver, DriverMemory, DriverBadger, DriverSQLite)
	}
	if c.Recommend.DefaultN > c.Recommend.MaxN {
		return fmt.Errorf("recommend.default_n (%d) exceeds recommend.max_n (%d)", c.Recommend.DefaultN, c.Recommend.MaxN)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with '/': %q", c.Server.BasePath)
	}
	for _, ds := range c.Recommend.Datasets {
		if strings.Contains(ds, ":") {
			return fmt.Errorf("dataset name must not contain ':': %q", ds)
		}
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (c *Config) expandPaths(configDir string) {
	if c.Store.Driver != DriverMemory {
		c.Store.Path = expandPath(c.Store.Path, configDir)
	}
	c.Embedding.ModelPath = expandPath(c.Embedding.ModelPath, configDir)
	c.Pipeline.ArtifactDir = expandPath(c.Pipeline.ArtifactDir, configDir)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
