package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config tunes the login throttle.
type Config struct {
	Prefix      string
	MaxAttempts int
	Window      time.Duration
	PerIP       bool
}

// Limiter counts failed logins in redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New returns a Limiter over client.
func New(client redis.UniversalClient, cfg Config) (*Limiter, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil redis client", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		return nil, fmt.Errorf("%w: prefix is required", ErrInvalidConfig)
	}
	if cfg.MaxAttempts <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: max attempts and window must be > 0", ErrInvalidConfig)
	}
	return &Limiter{redis: client, config: cfg}, nil
}

// Check returns ErrThrottled when identifier, or ip with PerIP set, already
// used up its budget. It does not count an attempt.
func (l *Limiter) Check(ctx context.Context, identifier, ip string) error {
	for _, key := range l.keys(identifier, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxAttempts) {
			return ErrThrottled
		}
	}
	return nil
}

// Fail records one failed attempt.
func (l *Limiter) Fail(ctx context.Context, identifier, ip string) error {
	for _, key := range l.keys(identifier, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the identifier's counter after a successful login. The IP
// counter is left alone so one good account cannot unlock a sprayed IP.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, l.identifierKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failures counted for identifier in the open window.
func (l *Limiter) Attempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, l.identifierKey(identifier)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

func (l *Limiter) keys(identifier, ip string) []string {
	keys := []string{l.identifierKey(identifier)}
	if l.config.PerIP && ip != "" {
		keys = append(keys, l.config.Prefix+":lti:"+ip)
	}
	return keys
}

func (l *Limiter) identifierKey(identifier string) string {
	return l.config.Prefix + ":lt:" + identifier
}
