// Package config loads the server configuration with viper from an optional
// YAML file and MAKOLA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/makolaconnect/makola"
	"github.com/makolaconnect/makola/internal/logger"
)

const envPrefix = "MAKOLA"

// Config is the engine configuration plus process settings. Engine keys sit
// at the top level (session, routes, token, ...).
type Config struct {
	makola.Config `mapstructure:",squash"`

	Server   ServerConfig  `mapstructure:"server"`
	Redis    RedisConfig   `mapstructure:"redis"`
	Log      logger.Config `mapstructure:"log"`
	Accounts []SeedAccount `mapstructure:"accounts"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Release         bool          `mapstructure:"release"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SeedAccount is enrolled in the in-memory directory at startup.
type SeedAccount struct {
	ID       string `mapstructure:"id"`
	UserType string `mapstructure:"user_type"`
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Phone    string `mapstructure:"phone"`
	Password string `mapstructure:"password"`
}

// Load reads path when given, otherwise makola.yaml from . or ./config if
// present. Environment variables override both, e.g.
// MAKOLA_TOKEN_PRIVATE_KEY or MAKOLA_REDIS_ADDR.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("makola")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks process settings, then the engine configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("config: redis.addr is required")
	}
	return c.Config.Validate()
}

func setDefaults(v *viper.Viper) {
	d := makola.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.release", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("session.redis_prefix", d.Session.RedisPrefix)
	v.SetDefault("session.persist_ttl", d.Session.PersistTTL)
	v.SetDefault("session.max_clients", d.Session.MaxClients)
	v.SetDefault("session.cookie_secure", d.Session.CookieSecure)

	v.SetDefault("routes.login", d.Routes.Login)
	v.SetDefault("routes.home", d.Routes.Home)
	v.SetDefault("routes.seller_dashboard", d.Routes.SellerDashboard)
	v.SetDefault("routes.kayayo_dashboard", d.Routes.KayayoDashboard)
	v.SetDefault("routes.rider_dashboard", d.Routes.RiderDashboard)

	v.SetDefault("token.ttl", d.Token.TTL)
	v.SetDefault("token.signing_method", string(d.Token.SigningMethod))
	v.SetDefault("token.private_key", "")
	v.SetDefault("token.public_key", "")
	v.SetDefault("token.issuer", d.Token.Issuer)
	v.SetDefault("token.leeway", d.Token.Leeway)

	v.SetDefault("password.memory", d.Password.Memory)
	v.SetDefault("password.time", d.Password.Time)
	v.SetDefault("password.parallelism", d.Password.Parallelism)
	v.SetDefault("password.salt_length", d.Password.SaltLength)
	v.SetDefault("password.key_length", d.Password.KeyLength)
	v.SetDefault("password.min_length", d.Password.MinLength)

	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.buffer_size", d.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", d.Audit.DropIfFull)

	v.SetDefault("throttle.enabled", d.Throttle.Enabled)
	v.SetDefault("throttle.max_attempts", d.Throttle.MaxAttempts)
	v.SetDefault("throttle.window", d.Throttle.Window)
	v.SetDefault("throttle.per_ip", d.Throttle.PerIP)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.enable_latency_histograms", d.Metrics.EnableLatencyHistograms)

	v.SetDefault("media.enabled", d.Media.Enabled)
	v.SetDefault("media.s3.bucket", d.Media.S3.Bucket)
	v.SetDefault("media.s3.region", d.Media.S3.Region)
	v.SetDefault("media.s3.endpoint", d.Media.S3.Endpoint)
	v.SetDefault("media.s3.access_key_id", d.Media.S3.AccessKeyID)
	v.SetDefault("media.s3.secret_access_key", d.Media.S3.SecretAccessKey)
	v.SetDefault("media.s3.public_base_url", d.Media.S3.PublicBaseURL)
}
