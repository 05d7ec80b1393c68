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
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (source API only)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Upstream recommendation API
	Source SourceConfig

	// Dashboard behaviour
	Dashboard DashboardConfig

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

	// Sliding window applied to /api/llm_analysis
	AnalysisLimit  int
	AnalysisWindow time.Duration
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

// SourceConfig describes where the dashboard fetches recommendations from
type SourceConfig struct {
	BaseURL             string
	RecommendationCount int
	Timeout             time.Duration
	RateLimit           float64 // outbound requests per second, 0 disables
}

// DashboardConfig holds dashboard server settings
type DashboardConfig struct {
	RefreshSchedule string  // cron expression, empty disables the refresh job
	ApplyRateLimit  float64 // filter applications per second
	ApplyRateBurst  int
	PresetsFile     string // optional TOML file of named filter presets
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			Enabled:        getEnvAsBool("REDIS_ENABLED", false),
			AnalysisLimit:  getEnvAsInt("ANALYSIS_RATE_LIMIT", 30),
			AnalysisWindow: getEnvAsDuration("ANALYSIS_RATE_WINDOW", "1m"),
		},

		// Upstream
		Source: SourceConfig{
			BaseURL:             getEnv("SOURCE_BASE_URL", "http://localhost:5000"),
			RecommendationCount: getEnvAsInt("SOURCE_RECOMMENDATION_COUNT", 10),
			Timeout:             getEnvAsDuration("SOURCE_TIMEOUT", "30s"),
			RateLimit:           getEnvAsFloat("SOURCE_RATE_LIMIT", 10),
		},

		// Dashboard
		Dashboard: DashboardConfig{
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */15 * * * *"),
			ApplyRateLimit:  getEnvAsFloat("APPLY_RATE_LIMIT", 5),
			ApplyRateBurst:  getEnvAsInt("APPLY_RATE_BURST", 10),
			PresetsFile:     getEnv("FILTER_PRESETS_FILE", ""),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Source.BaseURL == "" {
		return fmt.Errorf("SOURCE_BASE_URL is required")
	}

	if c.Source.RecommendationCount <= 0 {
		return fmt.Errorf("SOURCE_RECOMMENDATION_COUNT must be positive")
	}

	return nil
}

// RequireDatabase reports an error when DATABASE_URL is missing.
// Only the commands that talk to PostgreSQL call it.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

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
