// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/riskboard/internal/archive"
	"github.com/aristath/riskboard/internal/dashboard"
	"github.com/aristath/riskboard/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the cache database (always absolute)
	LogLevel       string
	Port           int
	DevMode        bool
	RequestTimeout time.Duration

	Risk    RiskConfig
	Yahoo   YahooConfig
	Cache   CacheConfig
	Archive ArchiveConfig

	SessionIdleTimeout time.Duration
	SignalsSeed        int64 // 0 = seeded from the clock
}

// RiskConfig holds the default selection and engine settings
type RiskConfig struct {
	Tickers        []string
	Benchmark      string
	Start          string
	End            string
	PeriodsPerYear int
	RollingWindow  int
	Confidences    []float64
}

// YahooConfig holds upstream market data settings
type YahooConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// CacheConfig holds the persistent price cache settings
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ArchiveConfig holds snapshot bucket settings (config package version)
type ArchiveConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// ToArchiveConfig converts config.ArchiveConfig to archive.Config
func (c ArchiveConfig) ToArchiveConfig() archive.Config {
	return archive.Config{
		Bucket:          c.Bucket,
		Endpoint:        c.Endpoint,
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Prefix:          c.Prefix,
	}
}

// DefaultSelection returns the configured selection for new sessions
func (c *Config) DefaultSelection() dashboard.Selection {
	return dashboard.Selection{
		Tickers:   append([]string(nil), c.Risk.Tickers...),
		Benchmark: c.Risk.Benchmark,
		Start:     c.Risk.Start,
		End:       c.Risk.End,
	}
}

// DatabasePath is the sqlite file of the persistent cache
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "riskboard.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("RISKBOARD_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("GO_PORT", 8001),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 60*time.Second),
		Risk: RiskConfig{
			Tickers:        getEnvAsList("RISK_TICKERS", dashboard.DefaultTickers),
			Benchmark:      strings.ToUpper(getEnv("RISK_BENCHMARK", dashboard.DefaultBenchmark)),
			Start:          getEnv("RISK_START", dashboard.DefaultStart),
			End:            getEnv("RISK_END", dashboard.DefaultEnd),
			PeriodsPerYear: getEnvAsInt("RISK_PERIODS_PER_YEAR", 252),
			RollingWindow:  getEnvAsInt("RISK_ROLLING_WINDOW", 30),
			Confidences:    getEnvAsFloatList("RISK_CONFIDENCE_LEVELS", []float64{0.95, 0.99}),
		},
		Yahoo: YahooConfig{
			BaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:    getEnvAsDuration("YAHOO_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvAsInt("YAHOO_MAX_RETRIES", 3),
		},
		Cache: CacheConfig{
			Enabled: getEnvAsBool("PRICE_CACHE_ENABLED", true),
			TTL:     getEnvAsDuration("PRICE_CACHE_TTL", 24*time.Hour),
		},
		Archive: ArchiveConfig{
			Bucket:          getEnv("ARCHIVE_BUCKET", ""),
			Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
			Region:          getEnv("ARCHIVE_REGION", "auto"),
			AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("ARCHIVE_PREFIX", "riskboard"),
		},
		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SignalsSeed:        int64(getEnvAsInt("SIGNALS_SEED", 0)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the services cannot run with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}
	if len(c.Risk.Tickers) == 0 {
		return fmt.Errorf("RISK_TICKERS must name at least one ticker")
	}
	if c.Risk.Benchmark == "" {
		return fmt.Errorf("RISK_BENCHMARK is required")
	}
	if _, err := domain.NewDateRange(c.Risk.Start, c.Risk.End); err != nil {
		return fmt.Errorf("invalid RISK_START/RISK_END: %w", err)
	}
	if c.Risk.PeriodsPerYear <= 0 {
		return fmt.Errorf("RISK_PERIODS_PER_YEAR must be positive, got %d", c.Risk.PeriodsPerYear)
	}
	if c.Risk.RollingWindow < 2 {
		return fmt.Errorf("RISK_ROLLING_WINDOW must be at least 2, got %d", c.Risk.RollingWindow)
	}
	if len(c.Risk.Confidences) == 0 {
		return fmt.Errorf("RISK_CONFIDENCE_LEVELS must list at least one level")
	}
	for _, conf := range c.Risk.Confidences {
		if conf <= 0 || conf >= 1 {
			return fmt.Errorf("confidence level %v is outside (0, 1)", conf)
		}
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must be positive")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if (c.Archive.AccessKeyID == "") != (c.Archive.SecretAccessKey == "") {
		return fmt.Errorf("ARCHIVE_ACCESS_KEY_ID and ARCHIVE_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, upper-casing each entry
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvAsFloatList falls back to the default when any entry fails to parse
func getEnvAsFloatList(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return append([]float64(nil), defaultValue...)
	}
	var out []float64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return append([]float64(nil), defaultValue...)
		}
		out = append(out, f)
	}
	return out
}
