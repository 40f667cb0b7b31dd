package makola

import (
	"fmt"
	"strings"
	"time"

	"github.com/makolaconnect/makola/guard"
	"github.com/makolaconnect/makola/jwt"
	"github.com/makolaconnect/makola/media"
	"github.com/makolaconnect/makola/password"
	"github.com/makolaconnect/makola/session"
)

// Config is the full engine configuration. internal/config loads it with
// viper; the mapstructure tags name the YAML keys.
type Config struct {
	Session  SessionConfig   `mapstructure:"session"`
	Routes   guard.Routes    `mapstructure:"routes"`
	Token    jwt.Config      `mapstructure:"token"`
	Password password.Config `mapstructure:"password"`
	Audit    AuditConfig     `mapstructure:"audit"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Media    MediaConfig     `mapstructure:"media"`
	Throttle ThrottleConfig  `mapstructure:"throttle"`
}

// SessionConfig controls session persistence and the per-client registry.
// A zero PersistTTL keeps records until logout.
type SessionConfig struct {
	RedisPrefix  string        `mapstructure:"redis_prefix"`
	PersistTTL   time.Duration `mapstructure:"persist_ttl"`
	MaxClients   int           `mapstructure:"max_clients"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full"`
}

type MetricsConfig struct {
	Enabled                 bool `mapstructure:"enabled"`
	EnableLatencyHistograms bool `mapstructure:"enable_latency_histograms"`
}

// ThrottleConfig limits failed logins per identifier, and per client IP when
// PerIP is set, within a fixed window.
type ThrottleConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
	PerIP       bool          `mapstructure:"per_ip"`
}

// MediaConfig selects the upload backend. With Enabled false uploads are
// kept in memory and served under S3.PublicBaseURL.
type MediaConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	S3      media.S3Config `mapstructure:"s3"`
}

// DefaultConfig returns development defaults. Token.PrivateKey has no
// default and must be supplied.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: session.DefaultRedisPrefix,
			MaxClients:  session.DefaultMaxClients,
		},
		Routes: guard.DefaultRoutes(),
		Token: jwt.Config{
			TTL:           24 * time.Hour,
			SigningMethod: jwt.MethodHS256,
			Issuer:        "makola",
		},
		Password: password.DefaultConfig(),
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Media: MediaConfig{
			S3: media.S3Config{PublicBaseURL: "/media"},
		},
		Throttle: ThrottleConfig{
			Enabled:     true,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
// Token keys are checked when the token manager is built.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return fmt.Errorf("%w: session.redis_prefix is required", ErrInvalidConfig)
	}
	if c.Session.PersistTTL < 0 {
		return fmt.Errorf("%w: session.persist_ttl must be >= 0", ErrInvalidConfig)
	}
	if c.Session.MaxClients <= 0 {
		return fmt.Errorf("%w: session.max_clients must be > 0", ErrInvalidConfig)
	}
	if err := c.Routes.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Token.TTL <= 0 {
		return fmt.Errorf("%w: token.ttl must be > 0", ErrInvalidConfig)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: audit.buffer_size must be > 0", ErrInvalidConfig)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: latency histograms require metrics.enabled", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Media.S3.PublicBaseURL) == "" {
		return fmt.Errorf("%w: media.s3.public_base_url is required", ErrInvalidConfig)
	}
	if c.Media.Enabled && strings.TrimSpace(c.Media.S3.Bucket) == "" {
		return fmt.Errorf("%w: media.s3.bucket is required when media is enabled", ErrInvalidConfig)
	}
	if c.Throttle.Enabled && (c.Throttle.MaxAttempts <= 0 || c.Throttle.Window <= 0) {
		return fmt.Errorf("%w: throttle.max_attempts and throttle.window must be > 0", ErrInvalidConfig)
	}
	return nil
}
