package usage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/penwyp/go-usage-board/internal/core/cache"
	"github.com/penwyp/go-usage-board/internal/core/daterange"
	"github.com/penwyp/go-usage-board/internal/data/aggregator"
	"github.com/penwyp/go-usage-board/internal/data/client"
)

// Output formats understood by the dashboard command
const (
	OutputTable   = "table"
	OutputJSON    = "json"
	OutputCSV     = "csv"
	OutputSummary = "summary"
)

// Environment variables that override the config file
const (
	EnvAPI      = "USAGE_BOARD_API"
	EnvCacheTTL = "USAGE_BOARD_CACHE_TTL"
	EnvTimezone = "USAGE_BOARD_TIMEZONE"
)

// Config contains configuration for the usage dashboard
type Config struct {
	// Backend
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Cache
	CacheTTL      time.Duration
	CacheCapacity int

	// Selection
	Range  string
	Engine string
	Page   int

	// Display
	Output   string
	Timezone string
}

// DefaultConfig returns a Config with every default filled in
func DefaultConfig() Config {
	cfg := Config{}
	_ = cfg.Validate()
	return cfg
}

// Validate fills in defaults and rejects values the dashboard cannot serve
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = client.DefaultBaseURL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = client.DefaultTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = cache.DefaultTTL
	}
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = cache.DefaultCapacity
	}
	if c.Range == "" {
		c.Range = daterange.Last7Days.Short()
	}
	if c.Engine == "" {
		c.Engine = string(aggregator.FilterAll)
	}
	if c.Page <= 0 {
		c.Page = 1
	}
	if c.Output == "" {
		c.Output = OutputTable
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}

	if _, err := daterange.Parse(c.Range); err != nil {
		return err
	}
	if _, err := aggregator.ParseFilter(c.Engine); err != nil {
		return err
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputCSV, OutputSummary:
	default:
		return fmt.Errorf("unknown output format %q (valid: table, json, csv, summary)", c.Output)
	}
	return nil
}

// LoadResult is a loaded Config plus non-fatal problems found in the file
type LoadResult struct {
	Config   Config
	Warnings []string
}

type tomlFile struct {
	API     *tomlAPI     `toml:"api"`
	Cache   *tomlCache   `toml:"cache"`
	Display *tomlDisplay `toml:"display"`
}

type tomlAPI struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

type tomlCache struct {
	TTL      string `toml:"ttl"`
	Capacity int    `toml:"capacity"`
}

type tomlDisplay struct {
	Range    string `toml:"range"`
	Engine   string `toml:"engine"`
	Output   string `toml:"output"`
	Timezone string `toml:"timezone"`
}

// LoadFrom reads a TOML config file. A missing file yields the defaults.
func LoadFrom(path string) (*LoadResult, error) {
	result := &LoadResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Config = DefaultConfig()
			return result, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var tf tomlFile
	meta, err := toml.Decode(string(data), &tf)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	for _, key := range meta.Undecoded() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key.String()))
	}

	cfg := &result.Config
	if tf.API != nil {
		cfg.APIBaseURL = tf.API.BaseURL
		if cfg.HTTPTimeout, err = parseDuration("api.timeout", tf.API.Timeout); err != nil {
			return nil, err
		}
	}
	if tf.Cache != nil {
		if cfg.CacheTTL, err = parseDuration("cache.ttl", tf.Cache.TTL); err != nil {
			return nil, err
		}
		cfg.CacheCapacity = tf.Cache.Capacity
	}
	if tf.Display != nil {
		cfg.Range = tf.Display.Range
		cfg.Engine = tf.Display.Engine
		cfg.Output = tf.Display.Output
		cfg.Timezone = tf.Display.Timezone
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return result, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

// ApplyEnv loads the first existing .env file from envPaths into the
// process environment, then overrides cfg from USAGE_BOARD_* variables.
// Variables already set in the environment win over .env values.
func ApplyEnv(cfg *Config, envPaths ...string) error {
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvAPI)); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimezone)); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheTTL)); v != "" {
		ttl, err := parseEnvDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvCacheTTL, err)
		}
		cfg.CacheTTL = ttl
	}
	return nil
}

// parseEnvDuration accepts Go durations ("5m") or bare seconds ("300").
func parseEnvDuration(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a duration nor a number of seconds", v)
	}
	return time.Duration(secs) * time.Second, nil
}
