package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/resque/backoff"
	"github.com/xraph/resque/store"
)

// ErrConnectionFailed is returned when every dial attempt fails.
var ErrConnectionFailed = errors.New("resque/redis: connection failed")

// DialOption configures Dialer.
type DialOption func(*dialOptions)

type dialOptions struct {
	poolSize      int
	retryAttempts int
	retryBackoff  backoff.Strategy
	dialTimeout   time.Duration
	readTimeout   time.Duration
	writeTimeout  time.Duration
	storeOpts     []Option
}

func defaultDialOptions() *dialOptions {
	return &dialOptions{
		poolSize:      4,
		retryAttempts: 3,
		retryBackoff:  backoff.NewLinear(time.Second, 0),
		dialTimeout:   5 * time.Second,
		readTimeout:   3 * time.Second,
		writeTimeout:  3 * time.Second,
	}
}

// WithPoolSize sets the per-connection pool size. Default: 4
func WithPoolSize(n int) DialOption {
	return func(o *dialOptions) { o.poolSize = n }
}

// WithRetry configures dial retries. Default: 3 attempts, 1s base
// interval growing linearly.
func WithRetry(attempts int, interval time.Duration) DialOption {
	return func(o *dialOptions) {
		o.retryAttempts = attempts
		o.retryBackoff = backoff.NewLinear(interval, 0)
	}
}

// WithBackoff replaces the wait strategy between dial attempts.
func WithBackoff(s backoff.Strategy) DialOption {
	return func(o *dialOptions) { o.retryBackoff = s }
}

// WithTimeouts sets dial, read and write timeouts.
func WithTimeouts(dial, read, write time.Duration) DialOption {
	return func(o *dialOptions) {
		o.dialTimeout = dial
		o.readTimeout = read
		o.writeTimeout = write
	}
}

// WithStoreOptions passes options to every Store the dialer creates.
func WithStoreOptions(opts ...Option) DialOption {
	return func(o *dialOptions) { o.storeOpts = append(o.storeOpts, opts...) }
}

// Dialer returns a store.Dialer that opens a new go-redis client for the
// backend (see NewClient). The returned Store owns its client.
func Dialer(opts ...DialOption) store.Dialer {
	o := defaultDialOptions()
	for _, opt := range opts {
		opt(o)
	}
	return func(ctx context.Context, b store.Backend) (store.Store, error) {
		client, err := newClient(b, o)
		if err != nil {
			return nil, &store.Error{Op: "dial", Key: b.String(), Err: err}
		}
		if err := connect(ctx, client, o.retryAttempts, o.retryBackoff); err != nil {
			_ = client.Close()
			return nil, &store.Error{Op: "dial", Key: b.String(), Err: err}
		}
		return New(client, append([]Option{WithOwnedClient()}, o.storeOpts...)...), nil
	}
}

// NewClient builds the go-redis client for b without connecting.
//
//   - a redis:// or rediss:// URL is parsed by goredis.ParseURL, so TLS,
//     username and query options such as pool_size or dial_timeout are
//     honoured; dial options fill whatever the URL leaves unset
//   - several addresses give a Ring sharding keys across independent
//     servers, each using b.DB
//   - anything else gives a plain client over b.Network
func NewClient(b store.Backend, opts ...DialOption) (goredis.UniversalClient, error) {
	o := defaultDialOptions()
	for _, opt := range opts {
		opt(o)
	}
	return newClient(b, o)
}

func newClient(b store.Backend, o *dialOptions) (goredis.UniversalClient, error) {
	if b.URL != "" {
		ro, err := goredis.ParseURL(b.URL)
		if err != nil {
			return nil, fmt.Errorf("resque/redis: parse url: %w", err)
		}
		ro.DB = b.DB
		if ro.PoolSize == 0 {
			ro.PoolSize = o.poolSize
		}
		if ro.DialTimeout == 0 {
			ro.DialTimeout = o.dialTimeout
		}
		if ro.ReadTimeout == 0 {
			ro.ReadTimeout = o.readTimeout
		}
		if ro.WriteTimeout == 0 {
			ro.WriteTimeout = o.writeTimeout
		}
		return goredis.NewClient(ro), nil
	}

	addrs := b.Addrs
	if len(addrs) == 0 {
		addrs = []string{store.DefaultAddr}
	}
	if len(addrs) > 1 {
		if b.Network == "unix" {
			return nil, errors.New("resque/redis: unix sockets cannot be sharded")
		}
		shards := make(map[string]string, len(addrs))
		for _, addr := range addrs {
			shards[addr] = addr
		}
		return goredis.NewRing(&goredis.RingOptions{
			Addrs:        shards,
			DB:           b.DB,
			PoolSize:     o.poolSize,
			DialTimeout:  o.dialTimeout,
			ReadTimeout:  o.readTimeout,
			WriteTimeout: o.writeTimeout,
		}), nil
	}

	network := b.Network
	if network == "" {
		network = "tcp"
	}
	return goredis.NewClient(&goredis.Options{
		Network:      network,
		Addr:         addrs[0],
		DB:           b.DB,
		PoolSize:     o.poolSize,
		DialTimeout:  o.dialTimeout,
		ReadTimeout:  o.readTimeout,
		WriteTimeout: o.writeTimeout,
	}), nil
}

// connect pings until it succeeds, waiting between attempts as strategy
// says.
func connect(ctx context.Context, client goredis.UniversalClient, attempts int, strategy backoff.Strategy) error {
	attempts = max(attempts, 1)

	var lastErr error
	for i := range attempts {
		if lastErr = ping(ctx, client); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if waitErr := wait(ctx, strategy.Delay(i+1)); waitErr != nil {
			return errors.Join(ErrConnectionFailed, waitErr)
		}
	}
	return fmt.Errorf("%w: %w", ErrConnectionFailed, lastErr)
}

// ping checks every shard of a Ring and the single server otherwise.
func ping(ctx context.Context, client goredis.UniversalClient) error {
	if ring, ok := client.(*goredis.Ring); ok {
		return ring.ForEachShard(ctx, func(ctx context.Context, shard *goredis.Client) error {
			return shard.Ping(ctx).Err()
		})
	}
	return client.Ping(ctx).Err()
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
