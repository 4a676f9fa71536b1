package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Screening thresholds
	Screening ScreeningConfig

	// Freshness store
	Store StoreConfig

	// Redis
	Redis RedisConfig

	// Upstream provider
	Yahoo YahooConfig

	// Scheduler
	Schedule    string // cron spec (with seconds)
	TickersFile string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// ScreeningConfig holds predicate thresholds and pipeline sizing
type ScreeningConfig struct {
	ROEThreshold           float64
	VolatilityThreshold    float64
	FreshnessWindowDays    int
	DebtRatioThreshold     float64
	GoodwillRatioThreshold float64
	Workers                int
}

// StoreConfig selects the freshness store backend
type StoreConfig struct {
	Driver string // sqlite, postgres
	Path   string // sqlite file
	URL    string // postgres DATABASE_URL

	// Connection Pool (postgres)
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	Enabled     bool
	SnapshotTTL time.Duration
}

// YahooConfig holds the financial data provider configuration
type YahooConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	HistoryYears      int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Screening: ScreeningConfig{
			ROEThreshold:           getEnvAsFloat("ROE_THRESHOLD", 0.15),
			VolatilityThreshold:    getEnvAsFloat("VOLATILITY_THRESHOLD", 0.5),
			FreshnessWindowDays:    getEnvAsInt("FRESHNESS_WINDOW_DAYS", 365),
			DebtRatioThreshold:     getEnvAsFloat("DEBT_RATIO_THRESHOLD", 2.4),
			GoodwillRatioThreshold: getEnvAsFloat("GOODWILL_RATIO_THRESHOLD", 0.4),
			Workers:                getEnvAsInt("SCREEN_WORKERS", 8),
		},

		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", "sqlite"),
			Path:            getEnv("STORE_PATH", "moat.db"),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			Enabled:     getEnvAsBool("REDIS_ENABLED", false),
			SnapshotTTL: getEnvAsDuration("REDIS_SNAPSHOT_TTL", "24h"),
		},

		Yahoo: YahooConfig{
			BaseURL:           getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
			RequestsPerSecond: getEnvAsFloat("YAHOO_RPS", 2),
			Timeout:           getEnvAsDuration("YAHOO_TIMEOUT", "30s"),
			HistoryYears:      getEnvAsInt("YAHOO_HISTORY_YEARS", 5),
		},

		Schedule:    getEnv("SCREEN_SCHEDULE", "0 0 18 * * 1-5"),
		TickersFile: getEnv("TICKERS_FILE", "tickers.txt"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for sqlite")
		}
	case "postgres":
		if c.Store.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: sqlite, postgres")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return c.Screening.Validate()
}

// Validate checks screening thresholds
func (s ScreeningConfig) Validate() error {
	if s.ROEThreshold < 0 {
		return fmt.Errorf("ROE_THRESHOLD must be >= 0")
	}
	if s.VolatilityThreshold <= 0 {
		return fmt.Errorf("VOLATILITY_THRESHOLD must be > 0")
	}
	if s.FreshnessWindowDays < 0 {
		return fmt.Errorf("FRESHNESS_WINDOW_DAYS must be >= 0")
	}
	if s.DebtRatioThreshold <= 0 {
		return fmt.Errorf("DEBT_RATIO_THRESHOLD must be > 0")
	}
	if s.GoodwillRatioThreshold <= 0 {
		return fmt.Errorf("GOODWILL_RATIO_THRESHOLD must be > 0")
	}
	if s.Workers <= 0 {
		return fmt.Errorf("SCREEN_WORKERS must be > 0")
	}
	return nil
}

// DefaultScreening returns the thresholds used when nothing is configured
func DefaultScreening() ScreeningConfig {
	return ScreeningConfig{
		ROEThreshold:           0.15,
		VolatilityThreshold:    0.5,
		FreshnessWindowDays:    365,
		DebtRatioThreshold:     2.4,
		GoodwillRatioThreshold: 0.4,
		Workers:                8,
	}
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
