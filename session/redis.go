package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session slots in Redis.
const DefaultRedisPrefix = "mk"

// RedisPersistence stores the two session slots of one client under
// "<prefix>:<clientID>:token" and "<prefix>:<clientID>:user".
type RedisPersistence struct {
	redis    redis.UniversalClient
	tokenKey string
	userKey  string
	ttl      time.Duration
}

// NewRedisPersistence scopes persistence to clientID. A ttl of zero keeps
// the slots until they are removed.
func NewRedisPersistence(client redis.UniversalClient, prefix, clientID string, ttl time.Duration) *RedisPersistence {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	base := prefix + ":" + clientID + ":"
	return &RedisPersistence{
		redis:    client,
		tokenKey: base + "token",
		userKey:  base + "user",
		ttl:      ttl,
	}
}

// RedisFactory returns a PersistenceFactory bound to one Redis client.
func RedisFactory(client redis.UniversalClient, prefix string, ttl time.Duration) PersistenceFactory {
	return func(clientID string) Persistence {
		return NewRedisPersistence(client, prefix, clientID, ttl)
	}
}

func (r *RedisPersistence) Read(ctx context.Context) (Record, error) {
	vals, err := r.redis.MGet(ctx, r.tokenKey, r.userKey).Result()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var rec Record
	if len(vals) == 2 {
		rec.Token, _ = vals[0].(string)
		rec.User, _ = vals[1].(string)
	}
	return rec, nil
}

func (r *RedisPersistence) Write(ctx context.Context, rec Record) error {
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tokenKey, rec.Token, r.ttl)
		pipe.Set(ctx, r.userKey, rec.User, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (r *RedisPersistence) Remove(ctx context.Context) error {
	err := r.redis.Del(ctx, r.tokenKey, r.userKey).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
