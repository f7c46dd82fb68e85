package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (only needed by the postgres cache backend)
	Database DatabaseConfig

	// Redis (redis cache backend + shared rate limiting)
	Redis RedisConfig

	// Provider response cache
	Cache CacheConfig

	// Valuation defaults
	Valuation ValuationConfig
	Weights   WeightsConfig

	// Data providers
	FMP     FMPConfig
	Finnhub FinnhubConfig
	SEC     SECConfig
	Yahoo   YahooConfig

	// Scheduled cache warm-up
	Warmup WarmupConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Cache backends
const (
	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

// CacheConfig selects the cache backend and the TTL of provider data
type CacheConfig struct {
	Backend string
	TTL     time.Duration
	Prefix  string
}

// ValuationConfig holds DCF defaults and batch parallelism
type ValuationConfig struct {
	DefaultSource  string
	DiscountRate   float64
	GrowthRate     float64
	TerminalGrowth float64 // falls back to GrowthRate when unset
	Years          int
	Workers        int
	ProfilePath    string // optional YAML profile overriding the values above
}

// WeightsConfig holds the composite score weights
type WeightsConfig struct {
	PE       float64
	PB       float64
	FCFYield float64
	ROE      float64
}

// FMPConfig holds Financial Modeling Prep configuration
type FMPConfig struct {
	APIKey    string
	BaseURL   string
	RateLimit float64 // requests per second
}

// FinnhubConfig holds Finnhub configuration
type FinnhubConfig struct {
	APIKey    string
	BaseURL   string
	RateLimit float64
}

// SECConfig holds SEC EDGAR configuration
// SEC requires a descriptive User-Agent with a contact address
type SECConfig struct {
	UserAgent  string
	BaseURL    string
	TickersURL string
	RateLimit  float64
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	BaseURL   string
	HTMLURL   string
	RateLimit float64
}

// WarmupConfig holds the cache warm-up job configuration
type WarmupConfig struct {
	Schedule string // cron expression with seconds
	Source   string
	Tickers  []string
}

// Valuation defaults used when the environment does not set them
// ⭐ SSOT: DCF 기본값과 점수 가중치 기본값은 여기서만
const (
	DefaultDiscountRate = 0.10
	DefaultGrowthRate   = 0.02
	DefaultYears        = 10

	DefaultWeightPE       = 0.3
	DefaultWeightPB       = 0.2
	DefaultWeightFCFYield = 0.3
	DefaultWeightROE      = 0.2
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	growth := getEnvAsFloat("VALUATION_GROWTH_RATE", DefaultGrowthRate)

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Cache: CacheConfig{
			Backend: strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
			TTL:     getEnvAsDuration("CACHE_TTL", "24h"),
			Prefix:  getEnv("CACHE_PREFIX", "volur"),
		},

		Valuation: ValuationConfig{
			DefaultSource:  getEnv("VALUATION_SOURCE", "yfinance"),
			DiscountRate:   getEnvAsFloat("VALUATION_DISCOUNT_RATE", DefaultDiscountRate),
			GrowthRate:     growth,
			TerminalGrowth: getEnvAsFloat("VALUATION_TERMINAL_GROWTH", growth),
			Years:          getEnvAsInt("VALUATION_YEARS", DefaultYears),
			Workers:        getEnvAsInt("VALUATION_WORKERS", 4),
			ProfilePath:    getEnv("VALUATION_PROFILE", ""),
		},

		Weights: WeightsConfig{
			PE:       getEnvAsFloat("SCORE_WEIGHT_PE", DefaultWeightPE),
			PB:       getEnvAsFloat("SCORE_WEIGHT_PB", DefaultWeightPB),
			FCFYield: getEnvAsFloat("SCORE_WEIGHT_FCF_YIELD", DefaultWeightFCFYield),
			ROE:      getEnvAsFloat("SCORE_WEIGHT_ROE", DefaultWeightROE),
		},

		FMP: FMPConfig{
			APIKey:    getEnv("FMP_API_KEY", ""),
			BaseURL:   getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
			RateLimit: getEnvAsFloat("FMP_RATE_LIMIT", 5),
		},

		Finnhub: FinnhubConfig{
			APIKey:    getEnv("FINNHUB_API_KEY", ""),
			BaseURL:   getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			RateLimit: getEnvAsFloat("FINNHUB_RATE_LIMIT", 1),
		},

		SEC: SECConfig{
			UserAgent:  getEnv("SEC_USER_AGENT", "volur/0.1 admin@example.com"),
			BaseURL:    getEnv("SEC_BASE_URL", "https://data.sec.gov"),
			TickersURL: getEnv("SEC_TICKERS_URL", "https://www.sec.gov/files/company_tickers.json"),
			RateLimit:  getEnvAsFloat("SEC_RATE_LIMIT", 8), // SEC fair access: 10 req/sec
		},

		Yahoo: YahooConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			HTMLURL:   getEnv("YAHOO_HTML_URL", "https://finance.yahoo.com"),
			RateLimit: getEnvAsFloat("YAHOO_RATE_LIMIT", 2),
		},

		Warmup: WarmupConfig{
			Schedule: getEnv("WARMUP_SCHEDULE", "0 0 */6 * * *"),
			Source:   getEnv("WARMUP_SOURCE", ""),
			Tickers:  getEnvAsList("WARMUP_TICKERS"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case CacheBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis, postgres")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	v := c.Valuation
	if v.DiscountRate <= 0 || v.DiscountRate >= 1 {
		return fmt.Errorf("VALUATION_DISCOUNT_RATE must be in (0, 1)")
	}
	if v.GrowthRate < 0 || v.GrowthRate >= v.DiscountRate {
		return fmt.Errorf("VALUATION_GROWTH_RATE must be in [0, discount rate)")
	}
	if v.TerminalGrowth < 0 || v.TerminalGrowth >= v.DiscountRate {
		return fmt.Errorf("VALUATION_TERMINAL_GROWTH must be in [0, discount rate)")
	}
	if v.Years < 1 {
		return fmt.Errorf("VALUATION_YEARS must be at least 1")
	}
	if v.Workers < 1 {
		return fmt.Errorf("VALUATION_WORKERS must be at least 1")
	}

	w := c.Weights
	if w.PE < 0 || w.PB < 0 || w.FCFYield < 0 || w.ROE < 0 {
		return fmt.Errorf("score weights must be non-negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
