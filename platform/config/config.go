// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetMigrationsEnabled() bool
}

// StoreConfig provides settings shared by all repositories.
type StoreConfig interface {
	GetStoreCallTimeout() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// DunningConfig provides settings for invoice relance dispatch.
type DunningConfig interface {
	GetDunningWebhookURL() string
	GetDunningWebhookSecret() string
	GetDunningDispatchTimeout() time.Duration
	GetDunningSweepInterval() time.Duration
	IsDunningAutoRelanceEnabled() bool
	IsDunningWebhookEnabled() bool
}

// SMTPConfig provides settings for the SMTP relance fallback channel.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromEmail() string
	GetSMTPFromName() string
	IsSMTPEnabled() bool
}

// InvalidationConfig provides settings for cache-invalidation fan-out.
type InvalidationConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetInvalidationChannel() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	MigrationsEnabled      bool
	StoreCallTimeout       time.Duration
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	RateLimitRPS           float64
	RateLimitBurst         int
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	DunningWebhookURL      string
	DunningWebhookSecret   string
	DunningDispatchTimeout time.Duration
	DunningSweepInterval   time.Duration
	DunningAutoRelance     bool
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	SMTPFromEmail          string
	SMTPFromName           string
	InvalidationChannel    string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetMigrationsEnabled() bool { return c.MigrationsEnabled }

// StoreConfig implementation
func (c *Config) GetStoreCallTimeout() time.Duration { return c.StoreCallTimeout }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// DunningConfig implementation
func (c *Config) GetDunningWebhookURL() string             { return c.DunningWebhookURL }
func (c *Config) GetDunningWebhookSecret() string          { return c.DunningWebhookSecret }
func (c *Config) GetDunningDispatchTimeout() time.Duration { return c.DunningDispatchTimeout }
func (c *Config) GetDunningSweepInterval() time.Duration   { return c.DunningSweepInterval }
func (c *Config) IsDunningAutoRelanceEnabled() bool        { return c.DunningAutoRelance }
func (c *Config) IsDunningWebhookEnabled() bool            { return c.DunningWebhookURL != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string      { return c.SMTPHost }
func (c *Config) GetSMTPPort() int         { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string  { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string  { return c.SMTPPassword }
func (c *Config) GetSMTPFromEmail() string { return c.SMTPFromEmail }
func (c *Config) GetSMTPFromName() string  { return c.SMTPFromName }
func (c *Config) IsSMTPEnabled() bool      { return c.SMTPHost != "" && c.SMTPFromEmail != "" }

// InvalidationConfig implementation
func (c *Config) GetInvalidationChannel() string { return c.InvalidationChannel }

// Load reads configuration from the environment, after loading an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		MigrationsEnabled:      strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		StoreCallTimeout:       mustDuration(getEnv("STORE_CALL_TIMEOUT", "5s")),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitRPS:           mustFloat(getEnv("RATE_LIMIT_RPS", "20")),
		RateLimitBurst:         mustInt(getEnv("RATE_LIMIT_BURST", "40")),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		DunningWebhookURL:      getEnv("DUNNING_WEBHOOK_URL", ""),
		DunningWebhookSecret:   getEnv("DUNNING_WEBHOOK_SECRET", ""),
		DunningDispatchTimeout: mustDuration(getEnv("DUNNING_DISPATCH_TIMEOUT", "15s")),
		DunningSweepInterval:   mustDuration(getEnv("DUNNING_SWEEP_INTERVAL", "1h")),
		DunningAutoRelance:     strings.EqualFold(getEnv("DUNNING_AUTO_RELANCE", "false"), "true"),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail:          getEnv("SMTP_FROM_EMAIL", ""),
		SMTPFromName:           getEnv("SMTP_FROM_NAME", "Axivity"),
		InvalidationChannel:    getEnv("INVALIDATION_CHANNEL", "crm:invalidate"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.StoreCallTimeout <= 0 {
		return nil, fmt.Errorf("STORE_CALL_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DunningAutoRelance && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when DUNNING_AUTO_RELANCE is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
