package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/sakachris/ecom-frontend/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	// Upstream commerce API
	UpstreamBaseURL   string        `env:"UPSTREAM_BASE_URL" envDefault:"http://localhost:8000/api"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	UpstreamUserAgent string        `env:"UPSTREAM_USER_AGENT" envDefault:"Mozilla/5.0 (compatible; ecom-frontend)"`
	CircuitBreaker    bool          `env:"UPSTREAM_CIRCUIT_BREAKER" envDefault:"true"`

	// Session store
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// Browser-facing behavior
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	SecureCookies  bool     `env:"SECURE_COOKIES" envDefault:"false"`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSample   float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"0.1"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	u, err := url.Parse(c.UpstreamBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL %q is not an absolute URL", c.UpstreamBaseURL)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Environment == "production" && !c.SecureCookies {
		return fmt.Errorf("SECURE_COOKIES must be enabled in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
