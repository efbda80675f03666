package config

import (
	"runtime"
	"time"
)

// DefaultConfigPath is used by the CLI when --config is not given.
const DefaultConfigPath = "/usr/local/etc/simrec/config.yaml"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BasePath == "" {
		cfg.Server.BasePath = "/dataset-recsys"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.RateLimitRequests == 0 {
		cfg.Server.RateLimitRequests = 120
	}
	if cfg.Server.RateLimitWindow == 0 {
		cfg.Server.RateLimitWindow = time.Minute
	}
	if cfg.Server.CORSAllowedOrigins == nil {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverBadger
	}
	if cfg.Store.Path == "" && cfg.Store.Driver != DriverMemory {
		switch cfg.Store.Driver {
		case DriverSQLite:
			cfg.Store.Path = "/usr/local/var/simrec/data/db/recommendations.db"
		default:
			cfg.Store.Path = "/usr/local/var/simrec/data/badger"
		}
	}
	if cfg.Store.BreakerFailures == 0 {
		cfg.Store.BreakerFailures = 5
	}
	if cfg.Store.BreakerTimeout == 0 {
		cfg.Store.BreakerTimeout = 30 * time.Second
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/simrec/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 512
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Similarity.TopN == 0 {
		cfg.Similarity.TopN = 20
	}
	if cfg.Similarity.Workers == 0 {
		cfg.Similarity.Workers = runtime.NumCPU()
	}
	if cfg.Recommend.DefaultN == 0 {
		cfg.Recommend.DefaultN = 10
	}
	if cfg.Recommend.MaxN == 0 {
		cfg.Recommend.MaxN = 20
	}
	if cfg.Pipeline.ArtifactDir == "" {
		cfg.Pipeline.ArtifactDir = "/usr/local/var/simrec/data/artifacts"
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = runtime.NumCPU()
	}
}
