package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadsafety/roadguard/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roadguard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func validConfig() string {
	return `
server:
  port: 8080
rate_limit:
  window_secs: 3600
`
}

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.RateLimit.WindowSecs != 3600 {
		t.Errorf("WindowSecs = %d", got.RateLimit.WindowSecs)
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	defer h.Stop()

	newContent := `
server:
  port: 8080
rate_limit:
  window_secs: 60
  tier_limits:
    free: 10
`
	if err := os.WriteFile(path, []byte(newContent), 0o644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	cfg := h.Get()
	if cfg.RateLimit.WindowSecs != 60 {
		t.Errorf("reloaded WindowSecs = %d, want 60", cfg.RateLimit.WindowSecs)
	}
	if cfg.RateLimit.TierLimits["free"] != 10 {
		t.Errorf("reloaded tier limit = %d, want 10", cfg.RateLimit.TierLimits["free"])
	}
}

func TestHolder_ReloadKeepsOldConfigOnError(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	defer h.Stop()

	os.WriteFile(path, []byte("logging:\n  level: bogus\n"), 0o644)

	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error for invalid config")
	}
	if h.Get().RateLimit.WindowSecs != 3600 {
		t.Error("old config should survive a failed reload")
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var gotWindow int
	h.OnChange(func(c *config.Config) {
		mu.Lock()
		gotWindow = c.RateLimit.WindowSecs
		mu.Unlock()
	})

	os.WriteFile(path, []byte("rate_limit:\n  window_secs: 120\n"), 0o644)
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotWindow != 120 {
		t.Errorf("callback window = %d, want 120", gotWindow)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	defer h.Stop()

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile: %v", err)
	}

	reloaded := make(chan struct{}, 1)
	h.OnChange(func(*config.Config) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	os.WriteFile(path, []byte("rate_limit:\n  window_secs: 90\n"), 0o644)

	select {
	case <-reloaded:
		if h.Get().RateLimit.WindowSecs != 90 {
			t.Errorf("WindowSecs = %d, want 90", h.Get().RateLimit.WindowSecs)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("file change never triggered a reload")
	}
}

func TestNewStaticHolder(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	h := config.NewStaticHolder(cfg, zerolog.Nop())
	defer h.Stop()

	if h.Get() != cfg {
		t.Error("static holder should return the wrapped config")
	}
	if err := h.Reload(); err != nil {
		t.Errorf("static Reload should be a no-op: %v", err)
	}
}
