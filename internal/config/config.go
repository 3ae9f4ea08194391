package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/puros/pkg/config"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration for the Puros API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`

	// HTTP server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Feed paging
	FeedDefaultPageSize int `env:"FEED_DEFAULT_PAGE_SIZE" envDefault:"20"`
	FeedMaxPageSize     int `env:"FEED_MAX_PAGE_SIZE" envDefault:"100"`

	// Storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"puros"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"puros"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"puros"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Redis. An empty host disables the follow-stats cache and keeps
	// notification dedup in memory.
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	FollowStatsTTL       time.Duration `env:"FOLLOW_STATS_TTL" envDefault:"60s"`
	NotifyIdempotencyTTL time.Duration `env:"NOTIFY_IDEMPOTENCY_TTL" envDefault:"24h"`

	// Kafka. With no brokers, events are handled in process.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Auth
	JWTSecret   string `env:"AUTH_JWT_SECRET" envDefault:"puros-dev-secret"`
	JWTAudience string `env:"AUTH_JWT_AUDIENCE"`

	// Email. Without an API key, messages are logged instead of sent.
	ResendAPIKey      string `env:"RESEND_API_KEY"`
	EmailFrom         string `env:"EMAIL_FROM" envDefault:"Puros <notifications@puros.app>"`
	EmailAPIURL       string `env:"EMAIL_API_URL" envDefault:"https://api.resend.com/emails"`
	NotifyConcurrency int    `env:"NOTIFY_CONCURRENCY" envDefault:"8"`
	PublicBaseURL     string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`

	// Object storage. Without OBJECT_STORE_URL, uploads are kept in memory
	// and served under MEDIA_BASE_URL.
	ObjectStoreURL string `env:"OBJECT_STORE_URL"`
	ObjectStoreKey string `env:"OBJECT_STORE_KEY"`
	MediaBaseURL   string `env:"MEDIA_BASE_URL" envDefault:"http://localhost:8080/media"`

	// Circuit breaker settings for outbound HTTP calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load puros config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StorageDriver {
	case StoragePostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}
	if c.FeedDefaultPageSize < 1 || c.FeedDefaultPageSize > c.FeedMaxPageSize {
		return fmt.Errorf("FEED_DEFAULT_PAGE_SIZE must be between 1 and FEED_MAX_PAGE_SIZE (%d), got %d", c.FeedMaxPageSize, c.FeedDefaultPageSize)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %f", c.RateLimitRPS)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 bytes in production")
	}
	if c.NotifyConcurrency < 1 {
		return fmt.Errorf("NOTIFY_CONCURRENCY must be positive, got %d", c.NotifyConcurrency)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	for name, rawURL := range map[string]string{
		"PUBLIC_BASE_URL":  c.PublicBaseURL,
		"MEDIA_BASE_URL":   c.MediaBaseURL,
		"EMAIL_API_URL":    c.EmailAPIURL,
		"OBJECT_STORE_URL": c.ObjectStoreURL,
	} {
		if rawURL == "" {
			continue
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisEnabled reports whether a Redis host is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// KafkaEnabled reports whether Kafka brokers are configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
