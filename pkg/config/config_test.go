package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.LiveSearch.MaxDiscoveryResults != 50 {
		t.Errorf("MaxDiscoveryResults = %d", cfg.LiveSearch.MaxDiscoveryResults)
	}
	if cfg.LiveSearch.MaxParallelFetches != 8 {
		t.Errorf("MaxParallelFetches = %d", cfg.LiveSearch.MaxParallelFetches)
	}
	if cfg.LiveSearch.PerPageTimeout != 10*time.Second {
		t.Errorf("PerPageTimeout = %v", cfg.LiveSearch.PerPageTimeout)
	}
	if cfg.Search.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.Search.CacheTTL)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	body := "server:\n  port: 9999\nlogging:\n  level: warn\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("Search.DefaultLimit = %d", cfg.Search.DefaultLimit)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TS_SERVER_PORT", "7070")
	t.Setenv("TS_REDIS_ADDR", "redis.internal:6379")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("missing config file accepted")
	}
}
