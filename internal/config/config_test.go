package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 5s
store:
  driver: memory
recommend:
  datasets: ["mathe", "zbmath"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("request_timeout = %v, want 5s", cfg.Server.RequestTimeout)
	}
	if cfg.Store.Driver != DriverMemory || cfg.Store.Path != "" {
		t.Errorf("memory driver should not get a path: %+v", cfg.Store)
	}
	if len(cfg.Recommend.Datasets) != 2 || cfg.Recommend.Datasets[1] != "zbmath" {
		t.Errorf("datasets = %v", cfg.Recommend.Datasets)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: sqlite
  path: "./data/recs.db"
pipeline:
  artifact_dir: "./artifacts"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "recs.db"); cfg.Store.Path != want {
		t.Errorf("store path = %s, want %s", cfg.Store.Path, want)
	}
	if want := filepath.Join(dir, "artifacts"); cfg.Pipeline.ArtifactDir != want {
		t.Errorf("artifact_dir = %s, want %s", cfg.Pipeline.ArtifactDir, want)
	}
}

func TestLoad_invalidDriver(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: redis\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/dataset-recsys" {
		t.Errorf("default base path: got %s", cfg.Server.BasePath)
	}
	if cfg.Store.Driver != DriverBadger || cfg.Store.Path == "" {
		t.Errorf("default store: got %+v", cfg.Store)
	}
	if cfg.Similarity.TopN != 20 {
		t.Errorf("default top_n: got %d", cfg.Similarity.TopN)
	}
	if cfg.Recommend.DefaultN != 10 || cfg.Recommend.MaxN != 20 {
		t.Errorf("default n: got default=%d max=%d", cfg.Recommend.DefaultN, cfg.Recommend.MaxN)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 1 || cfg.Server.CORSAllowedOrigins[0] != "*" {
		t.Errorf("default cors origins: got %v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Pipeline.Workers <= 0 || cfg.Similarity.Workers <= 0 {
		t.Error("worker counts should default to a positive value")
	}
}

func TestApplyDefaults_sqlitePath(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Driver: DriverSQLite}}
	ApplyDefaults(cfg)
	if filepath.Ext(cfg.Store.Path) != ".db" {
		t.Errorf("sqlite default path should be a .db file: %s", cfg.Store.Path)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }, true},
		{"default above max", func(c *Config) { c.Recommend.DefaultN = 30 }, true},
		{"base path without slash", func(c *Config) { c.Server.BasePath = "api" }, true},
		{"dataset with colon", func(c *Config) { c.Recommend.Datasets = []string{"a:b"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvStoreDriver, "SQLite")
	t.Setenv(EnvStorePath, "/tmp/x.db")
	t.Setenv(EnvServerHost, "0.0.0.0")
	t.Setenv(EnvServerPort, "9999")
	t.Setenv(EnvDatasets, "mathe, zbmath,,")
	t.Setenv(EnvDebug, "true")

	cfg := &Config{}
	ApplyEnv(cfg)
	if cfg.Store.Driver != DriverSQLite || cfg.Store.Path != "/tmp/x.db" {
		t.Errorf("store overrides: got %+v", cfg.Store)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9999 {
		t.Errorf("server overrides: got %+v", cfg.Server)
	}
	if len(cfg.Recommend.Datasets) != 2 || cfg.Recommend.Datasets[0] != "mathe" || cfg.Recommend.Datasets[1] != "zbmath" {
		t.Errorf("datasets override: got %v", cfg.Recommend.Datasets)
	}
	if !cfg.Debug {
		t.Error("debug override should be true")
	}
}

func TestApplyEnv_badPortIgnored(t *testing.T) {
	t.Setenv(EnvServerPort, "not-a-port")
	cfg := &Config{Server: ServerConfig{Port: 1234}}
	ApplyEnv(cfg)
	if cfg.Server.Port != 1234 {
		t.Errorf("port = %d, want unchanged 1234", cfg.Server.Port)
	}
}

func TestLoadDotEnv_walksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("SIMREC_DOTENV_TEST=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIMREC_DOTENV_TEST", "")
	os.Unsetenv("SIMREC_DOTENV_TEST")

	path, err := LoadDotEnv(nested)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(root, ".env") {
		t.Errorf("loaded %q, want root .env", path)
	}
	if got := os.Getenv("SIMREC_DOTENV_TEST"); got != "loaded" {
		t.Errorf("SIMREC_DOTENV_TEST = %q, want loaded", got)
	}
}

func TestLoadOrDefault_missingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected defaults, got port %d", cfg.Server.Port)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server: ServerConfig{Host: "localhost", Port: 9090, RequestTimeout: 7 * time.Second},
		Store:  StoreConfig{Driver: DriverSQLite, Path: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Server.RequestTimeout != 7*time.Second {
		t.Errorf("loaded timeout: got %v", loaded.Server.RequestTimeout)
	}
	if loaded.Store.Path != "/tmp/db" {
		t.Errorf("loaded store path: got %s", loaded.Store.Path)
	}
}
