package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	Locks   LockConfig
	Summary SummaryConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
}

type AuthConfig struct {
	SessionTTL time.Duration
	// Bootstrap admin created on first start when the users table is empty.
	AdminEmail    string
	AdminPassword string
}

type LockConfig struct {
	TTL time.Duration
}

type SummaryConfig struct {
	WorkerCount int
	BufferSize  int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 25),
		},
		Auth: AuthConfig{
			SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
			AdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
		Locks: LockConfig{
			TTL: getEnvDuration("EDIT_LOCK_TTL", 5*time.Minute),
		},
		Summary: SummaryConfig{
			WorkerCount: getEnvInt("SUMMARY_WORKER_COUNT", 2),
			BufferSize:  getEnvInt("SUMMARY_BUFFER_SIZE", 64),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/drms.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Auth.SessionTTL < time.Minute {
		return fmt.Errorf("session TTL must be at least 1 minute")
	}
	if c.Locks.TTL < 10*time.Second {
		return fmt.Errorf("edit lock TTL must be at least 10 seconds")
	}
	if c.Summary.WorkerCount < 1 {
		return fmt.Errorf("summary worker count must be at least 1")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("bootstrap admin email and password must be set together")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
