package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roadsafety/roadguard/config"
	"github.com/roadsafety/roadguard/domain/identity"
)

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roadguard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg := writeAndLoad(t, `
server:
  host: "127.0.0.1"
  port: 9090
  trust_proxy_headers: true

database:
  driver: "sqlite"
  dsn: "test.db"

rate_limit:
  window_secs: 1800
  tier_limits:
    free: 50
    developer: 1000

usage:
  batch_size: 25
  flush_interval: 5s

logging:
  level: "debug"
  format: "console"
`)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if !cfg.Server.TrustProxyHeaders {
		t.Error("TrustProxyHeaders should be true")
	}
	if cfg.Window() != 30*time.Minute {
		t.Errorf("Window = %v, want 30m", cfg.Window())
	}
	if cfg.Usage.BatchSize != 25 {
		t.Errorf("BatchSize = %d", cfg.Usage.BatchSize)
	}
	if cfg.Usage.FlushInterval != 5*time.Second {
		t.Errorf("FlushInterval = %v", cfg.Usage.FlushInterval)
	}

	limits := cfg.TierLimits()
	if limits[identity.TierFree] != 50 || limits[identity.TierDeveloper] != 1000 {
		t.Errorf("tier limits = %v", limits)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, `
server:
  port: 8081
`)

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default host = %s", cfg.Server.Host)
	}
	if cfg.RateLimit.WindowSecs != 3600 {
		t.Errorf("default window = %d, want 3600", cfg.RateLimit.WindowSecs)
	}
	if cfg.Auth.CacheTTL != 5*time.Minute {
		t.Errorf("default cache ttl = %v, want 5m", cfg.Auth.CacheTTL)
	}
	if cfg.Usage.BatchSize != 100 {
		t.Errorf("default batch size = %d", cfg.Usage.BatchSize)
	}
	if cfg.Usage.FlushInterval != 10*time.Second {
		t.Errorf("default flush interval = %v", cfg.Usage.FlushInterval)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default metrics path = %s", cfg.Metrics.Path)
	}
	if cfg.Server.TrustProxyHeaders {
		t.Error("proxy headers must not be trusted by default")
	}
	if cfg.Database.DSN != "roadguard.db" {
		t.Errorf("default dsn = %s", cfg.Database.DSN)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_ROADGUARD_DSN", "/var/lib/rg.db")

	cfg := writeAndLoad(t, `
database:
  dsn: "${TEST_ROADGUARD_DSN}"
`)

	if cfg.Database.DSN != "/var/lib/rg.db" {
		t.Errorf("dsn = %s, want expanded env value", cfg.Database.DSN)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROADGUARD_SERVER_PORT", "9999")
	t.Setenv("ROADGUARD_RATELIMIT_WINDOW", "60")
	t.Setenv("ROADGUARD_LOG_LEVEL", "warn")

	cfg := writeAndLoad(t, `
server:
  port: 8080
logging:
  level: "info"
`)

	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, env override should win", cfg.Server.Port)
	}
	if cfg.RateLimit.WindowSecs != 60 {
		t.Errorf("window = %d, want 60", cfg.RateLimit.WindowSecs)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %s, want warn", cfg.Logging.Level)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad driver", "database:\n  driver: postgres\n"},
		{"bad level", "logging:\n  level: verbose\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"unknown tier", "rate_limit:\n  tier_limits:\n    platinum: 10\n"},
		{"zero tier limit", "rate_limit:\n  tier_limits:\n    free: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			os.WriteFile(path, []byte(tt.content), 0o644)
			if _, err := config.Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROADGUARD_DATABASE_DSN", "env.db")
	t.Setenv("ROADGUARD_TRUST_PROXY", "yes")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Database.DSN != "env.db" {
		t.Errorf("dsn = %s", cfg.Database.DSN)
	}
	if !cfg.Server.TrustProxyHeaders {
		t.Error("trust proxy should parse 'yes'")
	}
}

func TestAddr(t *testing.T) {
	cfg := writeAndLoad(t, "server:\n  host: localhost\n  port: 8088\n")
	if cfg.Addr() != "localhost:8088" {
		t.Errorf("Addr = %s", cfg.Addr())
	}
}
