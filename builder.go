package makola

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/makolaconnect/makola/auth"
	"github.com/makolaconnect/makola/internal/rate"
	"github.com/makolaconnect/makola/jwt"
	"github.com/makolaconnect/makola/media"
	"github.com/makolaconnect/makola/password"
	"github.com/makolaconnect/makola/session"
)

// Builder assembles an Engine. A Builder builds once.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	logger    *zap.Logger
	auditSink AuditSink
	directory auth.Directory
	uploader  media.Uploader

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the client backing session persistence.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithDirectory sets the account directory Login authenticates against.
func (b *Builder) WithDirectory(directory auth.Directory) *Builder {
	b.directory = directory
	return b
}

// WithUploader overrides the uploader selected by Config.Media.
func (b *Builder) WithUploader(uploader media.Uploader) *Builder {
	b.uploader = uploader
	return b
}

// Build validates the configuration and wires the engine. Missing redis or
// directory is ErrNotWired.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrNotWired)
	}
	if b.directory == nil {
		return nil, fmt.Errorf("%w: account directory required", ErrNotWired)
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens, err := jwt.NewManager(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	hasher, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	authenticator, err := auth.NewAuthenticator(b.directory, hasher, tokens, logger.Named("auth"))
	if err != nil {
		return nil, err
	}

	uploader := b.uploader
	if uploader == nil {
		if uploader, err = newUploader(cfg.Media, logger); err != nil {
			return nil, err
		}
	}

	var limiter *rate.Limiter
	if cfg.Throttle.Enabled {
		limiter, err = rate.New(b.redis, rate.Config{
			Prefix:      cfg.Session.RedisPrefix,
			MaxAttempts: cfg.Throttle.MaxAttempts,
			Window:      cfg.Throttle.Window,
			PerIP:       cfg.Throttle.PerIP,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	e := &Engine{
		config:        cfg,
		logger:        logger,
		authenticator: authenticator,
		tokens:        tokens,
		limiter:       limiter,
		uploader:      uploader,
		metrics:       NewMetrics(cfg.Metrics),
		audit:         newAuditDispatcher(cfg.Audit, b.auditSink, logger.Named("audit")),
	}

	e.sessions, err = session.NewRegistry(
		session.RedisFactory(b.redis, cfg.Session.RedisPrefix, cfg.Session.PersistTTL),
		session.WithMaxClients(cfg.Session.MaxClients),
		session.WithRegistryLogger(logger.Named("sessions")),
		session.WithStoreOptions(
			session.WithLogger(logger.Named("session")),
			session.WithObserver(e),
		),
	)
	if err != nil {
		e.audit.Close()
		return nil, err
	}

	b.built = true
	return e, nil
}

func newUploader(cfg MediaConfig, logger *zap.Logger) (media.Uploader, error) {
	if !cfg.Enabled {
		return media.NewMemoryUploader(cfg.S3.PublicBaseURL), nil
	}
	u, err := media.NewS3Uploader(context.Background(), cfg.S3, logger.Named("media"))
	if err != nil {
		return nil, err
	}
	return u, nil
}
