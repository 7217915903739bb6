package config

import (
	"os"
	"strconv"
	"time"

	"mairesult/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// HTTP configuration
	ListenAddr string
	APIToken   string

	// Store configuration
	DBFile string

	// Presentation configuration
	LogoURL        string
	PlaceholderImg string

	// Redis publisher configuration (disabled when RedisAddr is empty)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache view cache configuration (disabled when MemcacheAddr is empty)
	MemcacheAddr string
	ViewCacheTTL time.Duration

	// Register endpoint configuration
	RegisterIngestURL string
	RegisterBearer    string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	viewCacheTTL, _ := strconv.Atoi(getEnv("VIEW_CACHE_TTL_SECONDS", "60"))

	return Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		APIToken:             getEnv("API_TOKEN", "changeme"),
		DBFile:               getEnv("DB_FILE", "db.json"),
		LogoURL:              getEnv("LOGO_URL", ""),
		PlaceholderImg:       getEnv("PLACEHOLDER_IMG", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "results"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		ViewCacheTTL:         time.Duration(viewCacheTTL) * time.Second,
		RegisterIngestURL:    getEnv("REGISTER_INGEST_URL", ""),
		RegisterBearer:       getEnv("REGISTER_BEARER", ""),
		Environment:          getEnv("MAIRESULT_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return errors.NewConfiguration("API_TOKEN must not be empty", nil)
	}
	if c.Environment == "production" && c.APIToken == "changeme" {
		return errors.NewConfiguration("API_TOKEN must be changed from the default in production", nil)
	}
	if c.DBFile == "" {
		return errors.NewConfiguration("DB_FILE must not be empty", nil)
	}
	if c.RedisStreamCount < 1 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
