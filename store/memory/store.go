// Package memory is an in-process implementation of store.Store with the
// same list, set, string and expiry semantics as Redis. A Server holds the
// data; every Dial returns an independent connection handle to it, so
// per-execution-context connection behaviour can be exercised without a
// running Redis. Intended for unit testing and development.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/resque/store"
)

// Compile-time interface check.
var _ store.Store = (*Conn)(nil)

type kind int

const (
	kindString kind = iota
	kindList
	kindSet
)

type entry struct {
	kind     kind
	str      string
	list     []string
	set      map[string]struct{}
	expireAt time.Time
}

// Server is a shared in-memory keyspace. Safe for concurrent access.
type Server struct {
	mu   sync.Mutex
	dbs  map[int]map[string]*entry
	now  func() time.Time
	dial atomic.Int64
}

// NewServer returns an empty Server.
func NewServer() *Server {
	return &Server{
		dbs: make(map[int]map[string]*entry),
		now: time.Now,
	}
}

// SetClock replaces the time source used for expiry. Tests use it to
// advance past a TTL without sleeping.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Dialer returns a store.Dialer that opens connections to s. The
// backend's database index selects the keyspace.
func (s *Server) Dialer() store.Dialer {
	return func(_ context.Context, b store.Backend) (store.Store, error) {
		return s.Dial(b.DB), nil
	}
}

// Dial opens a connection to database db.
func (s *Server) Dial(db int) *Conn {
	s.dial.Add(1)
	return &Conn{srv: s, db: db}
}

// Dials reports how many connections have been opened.
func (s *Server) Dials() int { return int(s.dial.Load()) }

// Keys returns every live key in database db, sorted.
func (s *Server) Keys(db int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ks := s.keyspace(db)
	out := make([]string, 0, len(ks))
	for k := range ks {
		if s.live(ks, k) != nil {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// TTL returns the remaining lifetime of key, or 0 when it has none.
func (s *Server) TTL(db int, key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(s.keyspace(db), key)
	if e == nil || e.expireAt.IsZero() {
		return 0
	}
	return e.expireAt.Sub(s.now())
}

func (s *Server) keyspace(db int) map[string]*entry {
	ks, ok := s.dbs[db]
	if !ok {
		ks = make(map[string]*entry)
		s.dbs[db] = ks
	}
	return ks
}

// live returns the entry at key, evicting it first if it has expired.
func (s *Server) live(ks map[string]*entry, key string) *entry {
	e, ok := ks[key]
	if !ok {
		return nil
	}
	if !e.expireAt.IsZero() && !s.now().Before(e.expireAt) {
		delete(ks, key)
		return nil
	}
	return e
}

// ──────────────────────────────────────────────────
// Conn
// ──────────────────────────────────────────────────

// Conn is one connection to a Server.
type Conn struct {
	srv    *Server
	db     int
	closed atomic.Bool
}

// do runs fn with the server lock held on this connection's keyspace.
func (c *Conn) do(op, key string, fn func(ks map[string]*entry) error) error {
	if c.closed.Load() {
		return &store.Error{Op: op, Key: key, Err: store.ErrClosed}
	}
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	return fn(c.srv.keyspace(c.db))
}

func wrongType(op, key string) error {
	return &store.Error{Op: op, Key: key, Err: errWrongType}
}

// Ping fails once the connection is closed.
func (c *Conn) Ping(_ context.Context) error {
	return c.do("ping", "", func(map[string]*entry) error { return nil })
}

// Close marks the connection closed. The server's data is untouched.
func (c *Conn) Close() error {
	c.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool { return c.closed.Load() }

// ──────────────────────────────────────────────────
// Lists
// ──────────────────────────────────────────────────

func (c *Conn) RPush(_ context.Context, key string, values ...string) (int64, error) {
	var n int64
	err := c.do("rpush", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			e = &entry{kind: kindList}
			ks[key] = e
		} else if e.kind != kindList {
			return wrongType("rpush", key)
		}
		e.list = append(e.list, values...)
		n = int64(len(e.list))
		return nil
	})
	return n, err
}

func (c *Conn) LPop(_ context.Context, key string) (string, error) {
	var v string
	err := c.do("lpop", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			return store.ErrNil
		}
		if e.kind != kindList {
			return wrongType("lpop", key)
		}
		v = e.list[0]
		e.list = e.list[1:]
		if len(e.list) == 0 {
			delete(ks, key)
		}
		return nil
	})
	return v, err
}

func (c *Conn) LLen(_ context.Context, key string) (int64, error) {
	var n int64
	err := c.do("llen", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			return nil
		}
		if e.kind != kindList {
			return wrongType("llen", key)
		}
		n = int64(len(e.list))
		return nil
	})
	return n, err
}

func (c *Conn) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	var out []string
	err := c.do("lrange", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			return nil
		}
		if e.kind != kindList {
			return wrongType("lrange", key)
		}
		n := int64(len(e.list))
		if start < 0 {
			start = max(n+start, 0)
		}
		if stop < 0 {
			stop = n + stop
		}
		if stop >= n {
			stop = n - 1
		}
		if start > stop {
			return nil
		}
		out = slices.Clone(e.list[start : stop+1])
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────
// Sets
// ──────────────────────────────────────────────────

func (c *Conn) SAdd(_ context.Context, key string, members ...string) error {
	return c.do("sadd", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			e = &entry{kind: kindSet, set: make(map[string]struct{})}
			ks[key] = e
		} else if e.kind != kindSet {
			return wrongType("sadd", key)
		}
		for _, m := range members {
			e.set[m] = struct{}{}
		}
		return nil
	})
}

func (c *Conn) SRem(_ context.Context, key string, members ...string) error {
	return c.do("srem", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			return nil
		}
		if e.kind != kindSet {
			return wrongType("srem", key)
		}
		for _, m := range members {
			delete(e.set, m)
		}
		if len(e.set) == 0 {
			delete(ks, key)
		}
		return nil
	})
}

func (c *Conn) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	err := c.do("smembers", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			return nil
		}
		if e.kind != kindSet {
			return wrongType("smembers", key)
		}
		out = make([]string, 0, len(e.set))
		for m := range e.set {
			out = append(out, m)
		}
		// Redis returns set members unordered; sorting keeps tests stable.
		slices.Sort(out)
		return nil
	})
	return out, err
}

func (c *Conn) SIsMember(_ context.Context, key, member string) (bool, error) {
	var ok bool
	err := c.do("sismember", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			return nil
		}
		if e.kind != kindSet {
			return wrongType("sismember", key)
		}
		_, ok = e.set[member]
		return nil
	})
	return ok, err
}

// ──────────────────────────────────────────────────
// Strings & keys
// ──────────────────────────────────────────────────

func (c *Conn) Get(_ context.Context, key string) (string, error) {
	var v string
	err := c.do("get", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			return store.ErrNil
		}
		if e.kind != kindString {
			return wrongType("get", key)
		}
		v = e.str
		return nil
	})
	return v, err
}

func (c *Conn) Set(_ context.Context, key, value string, ttl time.Duration) error {
	return c.do("set", key, func(ks map[string]*entry) error {
		e := &entry{kind: kindString, str: value}
		if ttl > 0 {
			e.expireAt = c.srv.now().Add(ttl)
		}
		ks[key] = e
		return nil
	})
}

func (c *Conn) Del(_ context.Context, keys ...string) error {
	return c.do("del", "", func(ks map[string]*entry) error {
		for _, k := range keys {
			delete(ks, k)
		}
		return nil
	})
}

func (c *Conn) Exists(_ context.Context, key string) (bool, error) {
	var ok bool
	err := c.do("exists", key, func(ks map[string]*entry) error {
		ok = c.srv.live(ks, key) != nil
		return nil
	})
	return ok, err
}

func (c *Conn) Expire(_ context.Context, key string, ttl time.Duration) error {
	return c.do("expire", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			return nil
		}
		if ttl <= 0 {
			delete(ks, key)
			return nil
		}
		e.expireAt = c.srv.now().Add(ttl)
		return nil
	})
}

func (c *Conn) IncrBy(_ context.Context, key string, by int64) (int64, error) {
	var n int64
	err := c.do("incrby", key, func(ks map[string]*entry) error {
		e := c.srv.live(ks, key)
		if e == nil {
			e = &entry{kind: kindString, str: "0"}
			ks[key] = e
		} else if e.kind != kindString {
			return wrongType("incrby", key)
		}
		cur, err := strconv.ParseInt(e.str, 10, 64)
		if err != nil {
			return &store.Error{Op: "incrby", Key: key, Err: errNotInteger}
		}
		n = cur + by
		e.str = strconv.FormatInt(n, 10)
		return nil
	})
	return n, err
}

func (c *Conn) DecrBy(ctx context.Context, key string, by int64) (int64, error) {
	return c.IncrBy(ctx, key, -by)
}
