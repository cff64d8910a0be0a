// Package store defines the key-value primitives the queue is built on.
// Every backend (Redis, in-memory) implements Store; higher layers never
// talk to a driver directly. Keys passed to a Store are relative: the
// namespace prefix is applied by WithNamespace.
package store

import (
	"context"
	"time"
)

// Store is the operation surface issued against the external key-value
// store. Lists are FIFO when pushed with RPush and popped with LPop.
type Store interface {
	// RPush appends values to the tail of the list at key and returns
	// the new length.
	RPush(ctx context.Context, key string, values ...string) (int64, error)

	// LPop removes and returns the head of the list at key. Returns
	// ErrNil when the list is empty or missing.
	LPop(ctx context.Context, key string) (string, error)

	// LLen returns the length of the list at key (0 if missing).
	LLen(ctx context.Context, key string) (int64, error)

	// LRange returns list elements between start and stop, inclusive.
	// Negative indexes count from the tail.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// Get returns the string value at key or ErrNil.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value at key. A positive ttl sets an expiry, zero keeps
	// the key until deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	IncrBy(ctx context.Context, key string, by int64) (int64, error)
	DecrBy(ctx context.Context, key string, by int64) (int64, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// Dialer opens a new connection to the backend. The broker calls it once
// per execution context.
type Dialer func(ctx context.Context, b Backend) (Store, error)

// Connector hands out the connection for the calling execution context.
// *broker.Broker is the production implementation.
type Connector interface {
	Connection(ctx context.Context) (Store, error)
}

// Static is a Connector that always returns the same connection.
type Static struct{ Store }

// Connection implements Connector.
func (s Static) Connection(context.Context) (Store, error) { return s.Store, nil }
