package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Sessions
	Session SessionConfig

	// Server
	Port        string
	CORSOrigins []string
	Env         string
	AppURL      string

	// Mail queue; an empty AMQPURL logs recovery mail instead of queueing it
	Mail MailConfig

	RateLimit RateLimitConfig
	Dashboard DashboardConfig

	// Live update sockets; zero disables the per-user cap
	WSMaxConnectionsPerUser int
}

// SessionConfig holds session token signing parameters
type SessionConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// MailConfig holds the RabbitMQ settings of the outgoing mail queue
type MailConfig struct {
	AMQPURL  string
	Exchange string
	Queue    string
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// DashboardConfig tunes snapshot assembly
type DashboardConfig struct {
	RecentLimit         int
	RecentFollowsPeriod bool
	QueryConcurrency    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	env := envReader{getenv: getenv}

	cfg := &Config{
		DatabaseURL:    env.str("DATABASE_URL", ""),
		MigrateOnStart: env.boolean("MIGRATE_ON_START", false),
		Session: SessionConfig{
			Secret:   env.str("SESSION_SECRET", ""),
			Issuer:   env.str("SESSION_ISSUER", "moremoney"),
			Audience: env.str("SESSION_AUDIENCE", "moremoney-web"),
			TTL:      env.duration("SESSION_TTL", 24*time.Hour),
		},
		Port:        env.str("PORT", "8080"),
		CORSOrigins: splitList(env.str("CORS_ORIGINS", "http://localhost:3000")),
		Env:         env.str("ENV", "development"),
		AppURL:      env.str("APP_URL", "http://localhost:3000"),
		Mail: MailConfig{
			AMQPURL:  env.str("AMQP_URL", ""),
			Exchange: env.str("MAIL_EXCHANGE", ""),
			Queue:    env.str("MAIL_QUEUE", "moremoney.mail"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: env.integer("RATE_LIMIT_PER_MINUTE", 120),
			Burst:     env.integer("RATE_LIMIT_BURST", 20),
		},
		Dashboard: DashboardConfig{
			RecentLimit:         env.integer("DASHBOARD_RECENT_LIMIT", 5),
			RecentFollowsPeriod: env.boolean("DASHBOARD_RECENT_FOLLOWS_PERIOD", false),
			QueryConcurrency:    env.integer("DASHBOARD_QUERY_CONCURRENCY", 4),
		},
		WSMaxConnectionsPerUser: env.integer("WS_MAX_CONNECTIONS_PER_USER", 5),
	}

	if env.err != nil {
		return nil, env.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.IsProduction() && len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	if c.Dashboard.QueryConcurrency <= 0 {
		return fmt.Errorf("DASHBOARD_QUERY_CONCURRENCY must be positive")
	}
	if c.WSMaxConnectionsPerUser < 0 {
		return fmt.Errorf("WS_MAX_CONNECTIONS_PER_USER must not be negative")
	}
	return nil
}

// envReader reads typed values and keeps the first parse error
type envReader struct {
	getenv func(string) string
	err    error
}

func (r *envReader) str(key, defaultValue string) string {
	if value := strings.TrimSpace(r.getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func (r *envReader) integer(key string, defaultValue int) int {
	raw := r.str(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func (r *envReader) boolean(key string, defaultValue bool) bool {
	raw := r.str(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func (r *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func (r *envReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
