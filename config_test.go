package resque_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/xraph/resque"
)

func TestDefaultConfig(t *testing.T) {
	cfg := resque.DefaultConfig()
	if cfg.Server != "localhost:6379" || cfg.Namespace != "resque" {
		t.Errorf("defaults = %+v", cfg)
	}
	if !slices.Equal(cfg.Queues, []string{"*"}) {
		t.Errorf("Queues = %v", cfg.Queues)
	}
	if cfg.Interval != 5*time.Second || cfg.StatusRetention != 24*time.Hour {
		t.Errorf("durations = %s, %s", cfg.Interval, cfg.StatusRetention)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resque.yaml")
	data := []byte(`server: redis.internal:6380
database: 3
namespace: app
queues: [high, low]
interval: 250ms
log_format: json
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := resque.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server != "redis.internal:6380" || cfg.Database != 3 || cfg.Namespace != "app" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !slices.Equal(cfg.Queues, []string{"high", "low"}) {
		t.Errorf("Queues = %v", cfg.Queues)
	}
	if cfg.Interval != 250*time.Millisecond {
		t.Errorf("Interval = %s", cfg.Interval)
	}
	if cfg.StatusRetention != 24*time.Hour {
		t.Errorf("unset field lost its default: %s", cfg.StatusRetention)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Errorf("log = %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	if _, err := resque.LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("log_format: xml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := resque.LoadConfig(bad); !errors.Is(err, resque.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}

	broken := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("queues: [a, b\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := resque.LoadConfig(broken); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RESQUE_SERVER", "10.0.0.5:6379")
	t.Setenv("RESQUE_DB", "4")
	t.Setenv("RESQUE_NAMESPACE", "staging")
	t.Setenv("RESQUE_QUEUES", "mail, ,default")
	t.Setenv("RESQUE_INTERVAL", "2")
	t.Setenv("RESQUE_STATUS_RETENTION", "1h")
	t.Setenv("RESQUE_LOG_LEVEL", "debug")

	cfg := resque.DefaultConfig()
	resque.FromEnv(&cfg)

	if cfg.Server != "10.0.0.5:6379" || cfg.Database != 4 || cfg.Namespace != "staging" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !slices.Equal(cfg.Queues, []string{"mail", "default"}) {
		t.Errorf("Queues = %v", cfg.Queues)
	}
	if cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %s", cfg.Interval)
	}
	if cfg.StatusRetention != time.Hour {
		t.Errorf("StatusRetention = %s", cfg.StatusRetention)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Errorf("log = %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestFromEnv_IgnoresUnparseable(t *testing.T) {
	t.Setenv("RESQUE_DB", "three")
	t.Setenv("RESQUE_INTERVAL", "soon")

	cfg := resque.DefaultConfig()
	resque.FromEnv(&cfg)
	if cfg.Database != 0 || cfg.Interval != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
}
