package config

import (
	"os"
	"strconv"
	"time"
)

// Store drivers understood by cmd/server and cmd/seed.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreMySQL  = "mysql"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	StoreDriver string
	MySQLDSN    string
	BadgerPath  string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string
	LogLevel    string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Timezone decides which calendar day counts as "today" for upcoming/ongoing checks.
	Timezone string

	SearchDebounce       time.Duration
	DashboardRefreshCron string
	ResetTokenTTL        time.Duration
	AuthRateLimit        int
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		StoreDriver: getEnv("STORE_DRIVER", StoreMySQL),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/technofest?charset=utf8mb4&parseTime=True&loc=Local"),
		BadgerPath:  getEnv("BADGER_PATH", "./var/store"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),

		Timezone: getEnv("TIMEZONE", "Local"),

		SearchDebounce:       getEnvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		DashboardRefreshCron: getEnv("DASHBOARD_REFRESH_CRON", "@every 1m"),
		ResetTokenTTL:        getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		AuthRateLimit:        getEnvInt("AUTH_RATE_LIMIT", 10),
	}
}

// Location resolves Timezone, falling back to time.Local for unknown names.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GoogleEnabled reports whether Google sign-in credentials are configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}
