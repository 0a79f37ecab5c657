// Package config reads server settings from the environment and an optional
// .env file. Command-line flags may override them afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all server settings.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string

	// TimeZone names the zone event dates and times are read in.
	TimeZone string
	Location *time.Location

	TokenTTL time.Duration

	// Redis is optional; without it locks are process-local.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	// RabbitMQ is optional; without it notifications are dropped.
	RabbitURL      string
	RabbitExchange string

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:          getEnv("EVENTIFY_DB", "eventify.db"),
		Addr:            getEnv("EVENTIFY_ADDR", ":8080"),
		AdminUser:       getEnv("EVENTIFY_ADMIN", "admin"),
		LogPath:         getEnv("EVENTIFY_LOG", ""),
		TimeZone:        getEnv("EVENTIFY_TZ", "UTC"),
		TokenTTL:        getDuration("EVENTIFY_TOKEN_TTL", 24*time.Hour),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getInt("REDIS_DB", 0),
		LockTTL:         getDuration("LOCK_TTL", 10*time.Second),
		RabbitURL:       getEnv("RABBIT_URL", ""),
		RabbitExchange:  getEnv("RABBIT_EXCHANGE", "eventify.bookings"),
		LoginRateLimit:  getInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getDuration("LOGIN_RATE_WINDOW", time.Minute),
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve checks the settings and loads the time zone. Call it again after
// changing fields.
func (c *Config) Resolve() error {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("loading time zone %q: %w", c.TimeZone, err)
	}
	c.Location = loc

	if c.LoginRateLimit < 1 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be at least 1")
	}
	if c.LoginRateWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
