package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/makolaconnect/makola"
	"github.com/makolaconnect/makola/auth"
	"github.com/makolaconnect/makola/internal/config"
	otelexport "github.com/makolaconnect/makola/metrics/export/otel"
	"github.com/makolaconnect/makola/password"
	"github.com/makolaconnect/makola/session"
)

const meterName = "github.com/makolaconnect/makola"

// App owns every long-lived resource of the server process.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	redis    *redis.Client
	engine   *makola.Engine
	exporter *otelexport.Exporter
	server   *http.Server
}

// New connects to redis, builds the engine and the router.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Sessions degrade to memory-only while redis is down.
		logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	directory, err := SeedDirectory(cfg.Password, cfg.Accounts)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	engine, err := makola.New().
		WithConfig(cfg.Config).
		WithRedis(rdb).
		WithLogger(logger).
		WithDirectory(directory).
		WithAuditSink(makola.NewZapSink(logger)).
		Build()
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	exporter, err := otelexport.New(otel.Meter(meterName), engine)
	if err != nil {
		engine.Close()
		_ = rdb.Close()
		return nil, err
	}

	if cfg.Server.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		redis:    rdb,
		engine:   engine,
		exporter: exporter,
		server: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      NewRouter(engine, rdb, logger),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}

func (a *App) close() {
	if err := a.exporter.Close(); err != nil {
		a.logger.Warn("otel exporter close failed", zap.Error(err))
	}
	a.engine.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("redis close failed", zap.Error(err))
	}
}

// SeedDirectory returns an in-memory directory holding accounts.
func SeedDirectory(cfg password.Config, accounts []config.SeedAccount) (*auth.MemoryDirectory, error) {
	hasher, err := password.NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	dir, err := auth.NewMemoryDirectory(hasher)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		role, ok := session.ParseUserType(acc.UserType)
		if !ok {
			return nil, fmt.Errorf("app: account %s: unknown user type %q", acc.ID, acc.UserType)
		}
		user := session.User{
			ID:       acc.ID,
			UserType: role,
			Name:     acc.Name,
			Email:    acc.Email,
			Phone:    acc.Phone,
		}
		for _, identifier := range []string{acc.Email, acc.Phone} {
			if strings.TrimSpace(identifier) == "" {
				continue
			}
			if err := dir.Enroll(user, identifier, acc.Password); err != nil {
				return nil, fmt.Errorf("app: account %s: %w", acc.ID, err)
			}
		}
	}
	return dir, nil
}
