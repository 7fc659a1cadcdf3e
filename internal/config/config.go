// Package config loads the flowplan configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
	"gopkg.in/yaml.v3"
)

// Planner kinds.
const (
	PlannerHTTP    = "http"
	PlannerProcess = "process"
)

// Cache kinds.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Environment variables that override file values.
const (
	EnvPlannerURL = "FLOWPLAN_PLANNER_URL"
	EnvRedisAddr  = "FLOWPLAN_REDIS_ADDR"
	EnvLogLevel   = "FLOWPLAN_LOG_LEVEL"
	EnvCacheKey   = "FLOWPLAN_CACHE_KEY"
)

// Duration is a time.Duration that decodes from strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

// UnmarshalJSON implements json.Unmarshaler. Numbers are taken as seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
		return nil
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Planner selects and configures the planner adapter.
type Planner struct {
	Kind    string   `yaml:"kind" json:"kind"`
	URL     string   `yaml:"url,omitempty" json:"url,omitempty"`
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	// Process planners: either a command here or a named entry from PlannersFile.
	Command      string   `yaml:"command,omitempty" json:"command,omitempty"`
	Args         []string `yaml:"args,omitempty" json:"args,omitempty"`
	Name         string   `yaml:"name,omitempty" json:"name,omitempty"`
	PlannersFile string   `yaml:"planners_file,omitempty" json:"planners_file,omitempty"`
	// RateLimit is planner calls per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
	Burst     int     `yaml:"burst,omitempty" json:"burst,omitempty"`
}

// Cache configures the plan cache.
type Cache struct {
	Kind     string   `yaml:"kind" json:"kind"`
	Addr     string   `yaml:"addr,omitempty" json:"addr,omitempty"`
	Password string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int      `yaml:"db,omitempty" json:"db,omitempty"`
	TTL      Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
	Prefix   string   `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	// EncryptionKey is a base64 AES-256 key; plans are stored encrypted when set.
	EncryptionKey string `yaml:"encryption_key,omitempty" json:"encryption_key,omitempty"`
	// Lock deduplicates concurrent planner calls for the same problem (redis only).
	Lock bool `yaml:"lock,omitempty" json:"lock,omitempty"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Config is the full configuration file.
type Config struct {
	Planner   Planner      `yaml:"planner" json:"planner"`
	Cache     Cache        `yaml:"cache" json:"cache"`
	Options   options.Tags `yaml:"options" json:"options"`
	Lookahead int          `yaml:"lookahead,omitempty" json:"lookahead,omitempty"`
	Catalog   string       `yaml:"catalog,omitempty" json:"catalog,omitempty"`
	Log       Log          `yaml:"log" json:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Planner: Planner{Kind: PlannerHTTP, Timeout: Duration(30 * time.Second)},
		Cache:   Cache{Kind: CacheNone},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads path (YAML or JSON by extension) over the defaults and applies
// environment overrides. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := decode(path, data, &cfg); err != nil {
				return Config{}, err
			}
			cfg.resolve(filepath.Dir(path))
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse json config: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse yaml config: %w", err)
	}
	return nil
}

// resolve makes file references relative to the config file's directory.
func (c *Config) resolve(base string) {
	if c.Planner.PlannersFile != "" && !filepath.IsAbs(c.Planner.PlannersFile) {
		c.Planner.PlannersFile = filepath.Join(base, c.Planner.PlannersFile)
	}
	if c.Catalog != "" && !filepath.IsAbs(c.Catalog) {
		c.Catalog = filepath.Join(base, c.Catalog)
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvPlannerURL); v != "" {
		c.Planner.URL = v
		if c.Planner.Kind == "" {
			c.Planner.Kind = PlannerHTTP
		}
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Cache.Kind = CacheRedis
		c.Cache.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvCacheKey); v != "" {
		c.Cache.EncryptionKey = v
	}
}

// Validate rejects unknown kinds and impossible values.
func (c Config) Validate() error {
	switch c.Planner.Kind {
	case PlannerHTTP, PlannerProcess, "":
	default:
		return c.reject("planner.kind", c.Planner.Kind, "expected http or process")
	}
	switch c.Cache.Kind {
	case CacheNone, CacheMemory, CacheRedis, "":
	default:
		return c.reject("cache.kind", c.Cache.Kind, "expected none, memory or redis")
	}
	if c.Lookahead < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidLookahead, c.Lookahead)
	}
	if c.Planner.RateLimit < 0 {
		return c.reject("planner.rate_limit", strconv.FormatFloat(c.Planner.RateLimit, 'g', -1, 64), "must not be negative")
	}
	return nil
}

func (c Config) reject(axis, value, reason string) error {
	return &domain.ConfigurationError{Axis: axis, Tags: []string{value}, Reason: reason}
}

// Compilation converts the configured option tags into a typed set.
func (c Config) Compilation() (options.Set, error) {
	return c.Options.Parse()
}
