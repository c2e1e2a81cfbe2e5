package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/racetime/internal/units"
)

// EnvPrefix prefixes every environment override, e.g. RACETIME_LISTEN.
const EnvPrefix = "RACETIME_"

// Config holds runtime settings for the CLI and the server. Fields are
// pointers so a partial file leaves the rest at their defaults; the Get*
// methods apply those defaults.
type Config struct {
	Listen       *string `json:"listen,omitempty" yaml:"listen,omitempty"`
	DisplayUnits *string `json:"display_units,omitempty" yaml:"display_units,omitempty"`

	// Result cache
	CacheEntries *int    `json:"cache_entries,omitempty" yaml:"cache_entries,omitempty"`
	CacheDB      *string `json:"cache_db,omitempty" yaml:"cache_db,omitempty"` // sqlite path, ":memory:" keeps it in-process

	// Compute endpoints, requests per second per server; 0 disables limiting
	RateLimit *float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	RateBurst *int     `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`

	// Logging
	LogLevel  *string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat *string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
	LogOutput *string `json:"log_output,omitempty" yaml:"log_output,omitempty"`

	// Charts
	ChartWidthIn      *float64 `json:"chart_width_in,omitempty" yaml:"chart_width_in,omitempty"`
	ChartHeightIn     *float64 `json:"chart_height_in,omitempty" yaml:"chart_height_in,omitempty"`
	EchartsAssetsHost *string  `json:"echarts_assets_host,omitempty" yaml:"echarts_assets_host,omitempty"`
}

// EmptyConfig returns a Config with all fields unset.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a .json, .yaml or .yml file.
// The file must be under 1MB. Fields omitted from the file keep their
// defaults, so partial configs are safe.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from RACETIME_* variables found by lookup
// (normally os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst **string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = &v
		}
	}
	str("LISTEN", &c.Listen)
	str("DISPLAY_UNITS", &c.DisplayUnits)
	str("CACHE_DB", &c.CacheDB)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("LOG_OUTPUT", &c.LogOutput)
	str("ECHARTS_ASSETS_HOST", &c.EchartsAssetsHost)

	if v, ok := lookup(EnvPrefix + "CACHE_ENTRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_ENTRIES: %w", EnvPrefix, err)
		}
		c.CacheEntries = &n
	}
	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", EnvPrefix, err)
		}
		c.RateLimit = &f
	}
	return c.Validate()
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.DisplayUnits != nil && !units.IsValid(*c.DisplayUnits) {
		return fmt.Errorf("display_units must be one of %s, got %q", units.GetValidUnitsString(), *c.DisplayUnits)
	}
	if c.CacheEntries != nil && *c.CacheEntries < 0 {
		return fmt.Errorf("cache_entries must be non-negative, got %d", *c.CacheEntries)
	}
	if c.RateLimit != nil && *c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative, got %f", *c.RateLimit)
	}
	if c.RateBurst != nil && *c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1, got %d", *c.RateBurst)
	}
	if c.ChartWidthIn != nil && *c.ChartWidthIn <= 0 {
		return fmt.Errorf("chart_width_in must be positive, got %f", *c.ChartWidthIn)
	}
	if c.ChartHeightIn != nil && *c.ChartHeightIn <= 0 {
		return fmt.Errorf("chart_height_in must be positive, got %f", *c.ChartHeightIn)
	}
	if c.LogFormat != nil {
		switch *c.LogFormat {
		case "text", "json":
		default:
			return fmt.Errorf("log_format must be text or json, got %q", *c.LogFormat)
		}
	}
	return nil
}

// GetListen returns the HTTP listen address or the default.
func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return ":8080"
	}
	return *c.Listen
}

// GetDisplayUnits returns the speed units used for summaries.
func (c *Config) GetDisplayUnits() string {
	if c.DisplayUnits == nil {
		return units.KMPH
	}
	return *c.DisplayUnits
}

// GetCacheEntries returns the in-memory cache capacity. Zero disables it.
func (c *Config) GetCacheEntries() int {
	if c.CacheEntries == nil {
		return 128
	}
	return *c.CacheEntries
}

// GetCacheDB returns the sqlite DSN of the backing result store.
func (c *Config) GetCacheDB() string {
	if c.CacheDB == nil || *c.CacheDB == "" {
		return ":memory:"
	}
	return *c.CacheDB
}

// GetRateLimit returns the compute request rate limit. Zero means unlimited.
func (c *Config) GetRateLimit() float64 {
	if c.RateLimit == nil {
		return 0
	}
	return *c.RateLimit
}

// GetRateBurst returns how many compute requests may arrive at once.
func (c *Config) GetRateBurst() int {
	if c.RateBurst == nil {
		return 5
	}
	return *c.RateBurst
}

// GetLogLevel returns the log level or the default.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == nil {
		return "info"
	}
	return *c.LogLevel
}

// GetLogFormat returns the log format or the default.
func (c *Config) GetLogFormat() string {
	if c.LogFormat == nil {
		return "text"
	}
	return *c.LogFormat
}

// GetLogOutput returns the log destination or the default.
func (c *Config) GetLogOutput() string {
	if c.LogOutput == nil {
		return "stderr"
	}
	return *c.LogOutput
}

// GetChartWidthIn returns the PNG chart width in inches.
func (c *Config) GetChartWidthIn() float64 {
	if c.ChartWidthIn == nil {
		return 10
	}
	return *c.ChartWidthIn
}

// GetChartHeightIn returns the PNG chart height in inches.
func (c *Config) GetChartHeightIn() float64 {
	if c.ChartHeightIn == nil {
		return 4
	}
	return *c.ChartHeightIn
}

// GetEchartsAssetsHost returns where the HTML charts load echarts.js from.
func (c *Config) GetEchartsAssetsHost() string {
	if c.EchartsAssetsHost == nil || *c.EchartsAssetsHost == "" {
		return "https://go-echarts.github.io/go-echarts-assets/assets/"
	}
	return *c.EchartsAssetsHost
}
