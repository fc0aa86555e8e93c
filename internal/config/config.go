package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string // PostgreSQL; when empty the user store falls back to SQLite
	SQLitePath  string
	RedisURL    string

	// Auth
	JWTSecret     string
	TokenTTL      time.Duration
	AdminUsername string // seed user created on first boot
	AdminPassword string

	// Dispatch
	TaskQueue    string // Redis list shared with the worker pool
	DefaultAgent string
	ContextSize  int // messages of conversation context per job

	// Retention and delivery
	LedgerTTL      time.Duration // per-user conversation log expiry
	ResponseTTL    time.Duration // pending-response expiry, shorter than LedgerTTL
	StreamInterval time.Duration // tick interval of the stream adapter
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		Env:            getEnv("ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/brainweb.db"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:      getEnv("JWT_SECRET_KEY", "change-this-in-production-please"),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		TaskQueue:      getEnv("TASK_QUEUE", "brain:tasks"),
		DefaultAgent:   getEnv("DEFAULT_AGENT", "archivist"),
		ContextSize:    getEnvInt("CONTEXT_SIZE", 6),
		LedgerTTL:      time.Duration(getEnvInt("LEDGER_TTL_HOURS", 24)) * time.Hour,
		ResponseTTL:    time.Duration(getEnvInt("RESPONSE_TTL_MINUTES", 60)) * time.Minute,
		StreamInterval: time.Duration(getEnvInt("STREAM_INTERVAL_MS", 300)) * time.Millisecond,
	}

	// In production, require real secrets and a reachable Redis
	if cfg.Env == "production" {
		if os.Getenv("JWT_SECRET_KEY") == "" {
			panic("JWT_SECRET_KEY is required in production")
		}
		if os.Getenv("REDIS_URL") == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
