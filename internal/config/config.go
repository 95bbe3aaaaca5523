package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Webhook delivery protocol: each delivery POSTs the status
	// WebhookRepeatCount times with WebhookRetryDelay in between.
	// The repeat is redundant delivery, not backoff.
	WebhookRepeatCount int
	WebhookRetryDelay  time.Duration
	WebhookTimeout     time.Duration

	// StatusKeyPrefix builds the external "key"/"name" payload fields.
	StatusKeyPrefix string

	// WebBaseURL is the public base of the translation UI, used for the
	// canonical commit URLs embedded in payloads.
	WebBaseURL string

	// Delivery worker pool and per-target outbound rate limit.
	DeliveryWorkers int
	RateLimit       int

	// Queue capacity for pending notification jobs.
	QueueCapacity int

	// Delivery record retention.
	CleanupInterval   time.Duration
	DeliveryRetention time.Duration
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		WebhookRepeatCount: getInt("WEBHOOK_REPEAT_COUNT", 3),
		WebhookRetryDelay:  getDuration("WEBHOOK_RETRY_DELAY", 10*time.Second),
		WebhookTimeout:     getDuration("WEBHOOK_TIMEOUT", 10*time.Second),

		StatusKeyPrefix: getEnv("STATUS_KEY_PREFIX", "TRANSHUB"),
		WebBaseURL:      getEnv("WEB_BASE_URL", "http://localhost:8080"),

		DeliveryWorkers: getInt("DELIVERY_WORKERS", 5),
		RateLimit:       getInt("RATE_LIMIT_PER_TARGET", 10),

		QueueCapacity: getInt("QUEUE_CAPACITY", 1024),

		CleanupInterval:   getDuration("CLEANUP_INTERVAL", time.Hour),
		DeliveryRetention: getDuration("DELIVERY_RETENTION", 30*24*time.Hour),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
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
