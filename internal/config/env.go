package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvStoreDriver = "SIMREC_STORE_DRIVER"
	EnvStorePath   = "SIMREC_STORE_PATH"
	EnvServerHost  = "SIMREC_SERVER_HOST"
	EnvServerPort  = "SIMREC_SERVER_PORT"
	EnvDatasets    = "SIMREC_DATASETS"
	EnvDebug       = "SIMREC_DEBUG"
)

// LoadDotEnv loads the nearest .env file found walking up from dir. Variables already
// set in the environment are not overwritten. Returns the loaded path, or "" when none exists.
func LoadDotEnv(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, godotenv.Load(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// ApplyEnv overrides cfg with any SIMREC_* variables that are set. Unparseable
// numeric or boolean values are ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvStoreDriver); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvServerHost); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv(EnvDatasets); v != "" {
		cfg.Recommend.Datasets = splitList(v)
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
