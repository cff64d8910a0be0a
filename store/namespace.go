package store

import (
	"context"
	"strings"
	"time"
)

// DefaultNamespace is the key prefix used when none is configured.
const DefaultNamespace = "resque"

// Compile-time interface check.
var _ Store = (*Namespaced)(nil)

// Namespaced prefixes every key with "{namespace}:" before delegating.
type Namespaced struct {
	next   Store
	prefix string
}

// WithNamespace wraps s so all keys live under ns. An empty ns uses
// DefaultNamespace.
func WithNamespace(s Store, ns string) *Namespaced {
	return &Namespaced{next: s, prefix: NormalizeNamespace(ns) + ":"}
}

// NormalizeNamespace strips a trailing colon and substitutes
// DefaultNamespace for an empty prefix.
func NormalizeNamespace(ns string) string {
	ns = strings.TrimSuffix(ns, ":")
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// Namespace returns the prefix without the trailing colon.
func (n *Namespaced) Namespace() string { return strings.TrimSuffix(n.prefix, ":") }

// Unwrap returns the underlying connection.
func (n *Namespaced) Unwrap() Store { return n.next }

func (n *Namespaced) key(k string) string { return n.prefix + k }

func (n *Namespaced) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = n.prefix + k
	}
	return out
}

func (n *Namespaced) RPush(ctx context.Context, key string, values ...string) (int64, error) {
	return n.next.RPush(ctx, n.key(key), values...)
}

func (n *Namespaced) LPop(ctx context.Context, key string) (string, error) {
	return n.next.LPop(ctx, n.key(key))
}

func (n *Namespaced) LLen(ctx context.Context, key string) (int64, error) {
	return n.next.LLen(ctx, n.key(key))
}

func (n *Namespaced) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return n.next.LRange(ctx, n.key(key), start, stop)
}

func (n *Namespaced) SAdd(ctx context.Context, key string, members ...string) error {
	return n.next.SAdd(ctx, n.key(key), members...)
}

func (n *Namespaced) SRem(ctx context.Context, key string, members ...string) error {
	return n.next.SRem(ctx, n.key(key), members...)
}

func (n *Namespaced) SMembers(ctx context.Context, key string) ([]string, error) {
	return n.next.SMembers(ctx, n.key(key))
}

func (n *Namespaced) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return n.next.SIsMember(ctx, n.key(key), member)
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.next.Get(ctx, n.key(key))
}

func (n *Namespaced) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return n.next.Set(ctx, n.key(key), value, ttl)
}

func (n *Namespaced) Del(ctx context.Context, keys ...string) error {
	return n.next.Del(ctx, n.keys(keys)...)
}

func (n *Namespaced) Exists(ctx context.Context, key string) (bool, error) {
	return n.next.Exists(ctx, n.key(key))
}

func (n *Namespaced) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return n.next.Expire(ctx, n.key(key), ttl)
}

func (n *Namespaced) IncrBy(ctx context.Context, key string, by int64) (int64, error) {
	return n.next.IncrBy(ctx, n.key(key), by)
}

func (n *Namespaced) DecrBy(ctx context.Context, key string, by int64) (int64, error) {
	return n.next.DecrBy(ctx, n.key(key), by)
}

func (n *Namespaced) Ping(ctx context.Context) error { return n.next.Ping(ctx) }

func (n *Namespaced) Close() error { return n.next.Close() }
