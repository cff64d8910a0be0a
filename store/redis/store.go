// Package redis implements store.Store on top of go-redis. Queues are
// plain Redis lists, the known-queue and worker registries are sets, and
// status records and counters are strings, so the keyspace is readable by
// any other Resque-compatible client.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redis.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/resque/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithOwnedClient makes Close close the underlying client. Stores created
// by Dial own their client.
func WithOwnedClient() Option {
	return func(s *Store) { s.owned = true }
}

// Store implements store.Store backed by Redis.
type Store struct {
	client goredis.UniversalClient
	logger *slog.Logger
	owned  bool
}

// New creates a new Redis-backed store. Unless WithOwnedClient is given,
// the caller owns the client lifecycle.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.UniversalClient { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return wrap("ping", "", ping(ctx, s.client))
}

// Close closes the client when the store owns it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// wrap maps goredis.Nil to store.ErrNil and everything else to a
// *store.Error.
func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, goredis.Nil) {
		return store.ErrNil
	}
	if errors.Is(err, goredis.ErrClosed) {
		err = store.ErrClosed
	}
	return store.Wrap(op, key, err)
}

// ──────────────────────────────────────────────────
// Lists
// ──────────────────────────────────────────────────

func (s *Store) RPush(ctx context.Context, key string, values ...string) (int64, error) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	n, err := s.client.RPush(ctx, key, args...).Result()
	return n, wrap("rpush", key, err)
}

func (s *Store) LPop(ctx context.Context, key string) (string, error) {
	v, err := s.client.LPop(ctx, key).Result()
	return v, wrap("lpop", key, err)
}

func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	return n, wrap("llen", key, err)
}

func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vs, err := s.client.LRange(ctx, key, start, stop).Result()
	return vs, wrap("lrange", key, err)
}

// ──────────────────────────────────────────────────
// Sets
// ──────────────────────────────────────────────────

func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	return wrap("sadd", key, s.client.SAdd(ctx, key, toAny(members)...).Err())
}

func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	return wrap("srem", key, s.client.SRem(ctx, key, toAny(members)...).Err())
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	ms, err := s.client.SMembers(ctx, key).Result()
	return ms, wrap("smembers", key, err)
}

func (s *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	return ok, wrap("sismember", key, err)
}

// ──────────────────────────────────────────────────
// Strings & keys
// ──────────────────────────────────────────────────

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	return v, wrap("get", key, err)
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return wrap("set", key, s.client.Set(ctx, key, value, ttl).Err())
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	// A Ring routes a command by its first key only.
	if _, ok := s.client.(*goredis.Ring); ok && len(keys) > 1 {
		for _, key := range keys {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return wrap("del", key, err)
			}
		}
		return nil
	}
	return wrap("del", "", s.client.Del(ctx, keys...).Err())
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	return n > 0, wrap("exists", key, err)
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return wrap("expire", key, s.client.Expire(ctx, key, ttl).Err())
}

func (s *Store) IncrBy(ctx context.Context, key string, by int64) (int64, error) {
	n, err := s.client.IncrBy(ctx, key, by).Result()
	return n, wrap("incrby", key, err)
}

func (s *Store) DecrBy(ctx context.Context, key string, by int64) (int64, error) {
	n, err := s.client.DecrBy(ctx, key, by).Result()
	return n, wrap("decrby", key, err)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, v := range ss {
		out[i] = v
	}
	return out
}
