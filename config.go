package resque

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/resque/status"
	"github.com/xraph/resque/store"
	"github.com/xraph/resque/worker"
)

// Config holds configuration for a Resque instance and its workers.
type Config struct {
	// Server is the store address: "host:port", a comma separated node
	// list, "unix:/path" or a redis:// URL.
	Server string `yaml:"server"`

	// Database is the logical database index.
	Database int `yaml:"database"`

	// Namespace prefixes every key. Default: "resque".
	Namespace string `yaml:"namespace"`

	// Queues is the list workers poll, in priority order. "*" means every
	// known queue.
	Queues []string `yaml:"queues"`

	// Interval is how long an idle worker sleeps between polls.
	Interval time.Duration `yaml:"interval"`

	// StatusRetention is the TTL applied on every job status write.
	StatusRetention time.Duration `yaml:"status_retention"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server:          store.DefaultAddr,
		Namespace:       store.DefaultNamespace,
		Queues:          []string{worker.AllQueues},
		Interval:        worker.DefaultInterval,
		StatusRetention: status.DefaultRetention,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Database < 0 {
		return fmt.Errorf("%w: negative database %d", ErrInvalidConfig, c.Database)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: negative interval %s", ErrInvalidConfig, c.Interval)
	}
	if c.StatusRetention < 0 {
		return fmt.Errorf("%w: negative status retention %s", ErrInvalidConfig, c.StatusRetention)
	}
	for _, q := range c.Queues {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("%w: empty queue name", ErrInvalidConfig)
		}
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := store.ParseBackend(c.Server, c.Database); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig reads a YAML file over DefaultConfig. Durations use Go
// syntax ("5s", "24h").
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("resque: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("resque: parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv overlays RESQUE_* environment variables onto cfg. Unparseable
// values are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("RESQUE_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("RESQUE_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database = n
		}
	}
	if v := os.Getenv("RESQUE_NAMESPACE"); v != "" {
		cfg.Namespace = v
	}
	if v := os.Getenv("RESQUE_QUEUES"); v != "" {
		cfg.Queues = nil
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Queues = append(cfg.Queues, p)
			}
		}
	}
	if v := os.Getenv("RESQUE_INTERVAL"); v != "" {
		if d, err := parseSeconds(v); err == nil {
			cfg.Interval = d
		}
	}
	if v := os.Getenv("RESQUE_STATUS_RETENTION"); v != "" {
		if d, err := parseSeconds(v); err == nil {
			cfg.StatusRetention = d
		}
	}
	if v := os.Getenv("RESQUE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RESQUE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// parseSeconds accepts a Go duration or a bare number of seconds.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}
