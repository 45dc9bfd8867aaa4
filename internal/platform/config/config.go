// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers selectable through STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSpanner  = "spanner"
)

// Config is the complete runtime configuration.
type Config struct {
	StoreDriver string
	DatabaseURL string

	SpannerProjectID   string
	SpannerInstanceID  string
	SpannerDatabaseID  string
	SpannerMinSessions uint64
	SpannerMaxSessions uint64

	RedisAddr       string
	ProductCacheTTL time.Duration

	ElasticsearchURLs []string
	SearchIndex       string

	KafkaBrokers       []string
	KafkaTopic         string
	OutboxPollInterval time.Duration

	HTTPPort        int
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	AdminToken      string
}

// Load reads the configuration from environment variables.
// Optional integrations (Redis, Elasticsearch, Kafka) stay disabled when
// their address variables are empty.
func Load() (Config, error) {
	cfg := Config{
		StoreDriver:       getEnv("STORE_DRIVER", DriverMemory),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SpannerProjectID:  getEnv("SPANNER_PROJECT_ID", "local-project"),
		SpannerInstanceID: getEnv("SPANNER_INSTANCE_ID", "local-instance"),
		SpannerDatabaseID: getEnv("SPANNER_DATABASE_ID", "storefront"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		ElasticsearchURLs: splitList(getEnv("ELASTICSEARCH_URLS", "")),
		SearchIndex:       getEnv("SEARCH_INDEX", "products"),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "storefront.events"),
		AdminToken:        getEnv("ADMIN_TOKEN", ""),
	}

	var errs []error

	switch cfg.StoreDriver {
	case DriverMemory, DriverSpanner:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}

	var err error
	if cfg.ProductCacheTTL, err = time.ParseDuration(getEnv("PRODUCT_CACHE_TTL", "5m")); err != nil {
		errs = append(errs, fmt.Errorf("parsing PRODUCT_CACHE_TTL: %w", err))
	}
	if cfg.OutboxPollInterval, err = time.ParseDuration(getEnv("OUTBOX_POLL_INTERVAL", "2s")); err != nil {
		errs = append(errs, fmt.Errorf("parsing OUTBOX_POLL_INTERVAL: %w", err))
	}
	if cfg.SpannerMinSessions, err = strconv.ParseUint(getEnv("SPANNER_MIN_SESSIONS", "0"), 10, 64); err != nil {
		errs = append(errs, fmt.Errorf("parsing SPANNER_MIN_SESSIONS: %w", err))
	}
	if cfg.SpannerMaxSessions, err = strconv.ParseUint(getEnv("SPANNER_MAX_SESSIONS", "0"), 10, 64); err != nil {
		errs = append(errs, fmt.Errorf("parsing SPANNER_MAX_SESSIONS: %w", err))
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "30s")); err != nil {
		errs = append(errs, fmt.Errorf("parsing SHUTDOWN_TIMEOUT: %w", err))
	}
	if cfg.HTTPPort, err = strconv.Atoi(getEnv("HTTP_PORT", "8080")); err != nil {
		errs = append(errs, fmt.Errorf("parsing HTTP_PORT: %w", err))
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "INFO"))); err != nil {
		errs = append(errs, fmt.Errorf("parsing LOG_LEVEL: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
