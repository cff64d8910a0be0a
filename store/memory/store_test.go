package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/resque/store"
)

// ──────────────────────────────────────────────────
// Lifecycle tests
// ──────────────────────────────────────────────────

func TestConn_CloseRejectsCalls(t *testing.T) {
	t.Parallel()
	srv := NewServer()
	c := srv.Dial(0)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	_ = c.Close()

	err := c.Ping(ctx)
	if !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if !store.IsStoreError(err) {
		t.Fatalf("expected *store.Error, got %T", err)
	}
}

func TestServer_ConnectionsShareData(t *testing.T) {
	t.Parallel()
	srv := NewServer()
	ctx := context.Background()

	a, b := srv.Dial(0), srv.Dial(0)
	if _, err := a.RPush(ctx, "q", "x"); err != nil {
		t.Fatalf("RPush: %v", err)
	}
	v, err := b.LPop(ctx, "q")
	if err != nil || v != "x" {
		t.Fatalf("LPop = %q, %v; want x", v, err)
	}
	if srv.Dials() != 2 {
		t.Errorf("expected 2 dials, got %d", srv.Dials())
	}
}

func TestServer_DatabasesAreIsolated(t *testing.T) {
	t.Parallel()
	srv := NewServer()
	ctx := context.Background()

	_ = srv.Dial(0).Set(ctx, "k", "zero", 0)
	if _, err := srv.Dial(1).Get(ctx, "k"); !errors.Is(err, store.ErrNil) {
		t.Fatalf("expected ErrNil in db 1, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Lists
// ──────────────────────────────────────────────────

func TestLists_FIFO(t *testing.T) {
	t.Parallel()
	c := NewServer().Dial(0)
	ctx := context.Background()

	n, err := c.RPush(ctx, "q", "a", "b", "c")
	if err != nil || n != 3 {
		t.Fatalf("RPush = %d, %v", n, err)
	}
	for _, want := range []string{"a", "b", "c"} {
		got, err := c.LPop(ctx, "q")
		if err != nil {
			t.Fatalf("LPop: %v", err)
		}
		if got != want {
			t.Errorf("LPop = %q, want %q", got, want)
		}
	}
	if _, err := c.LPop(ctx, "q"); !errors.Is(err, store.ErrNil) {
		t.Fatalf("expected ErrNil on empty list, got %v", err)
	}
	if l, _ := c.LLen(ctx, "q"); l != 0 {
		t.Errorf("LLen = %d, want 0", l)
	}
}

func TestLists_LRange(t *testing.T) {
	t.Parallel()
	c := NewServer().Dial(0)
	ctx := context.Background()
	_, _ = c.RPush(ctx, "l", "0", "1", "2", "3")

	tests := []struct {
		start, stop int64
		want        []string
	}{
		{0, -1, []string{"0", "1", "2", "3"}},
		{1, 2, []string{"1", "2"}},
		{-2, -1, []string{"2", "3"}},
		{2, 10, []string{"2", "3"}},
		{3, 1, nil},
	}
	for _, tt := range tests {
		got, err := c.LRange(ctx, "l", tt.start, tt.stop)
		if err != nil {
			t.Fatalf("LRange(%d,%d): %v", tt.start, tt.stop, err)
		}
		if len(got) != len(tt.want) {
			t.Errorf("LRange(%d,%d) = %v, want %v", tt.start, tt.stop, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("LRange(%d,%d)[%d] = %q, want %q", tt.start, tt.stop, i, got[i], tt.want[i])
			}
		}
	}
}

func TestLists_WrongType(t *testing.T) {
	t.Parallel()
	c := NewServer().Dial(0)
	ctx := context.Background()
	_ = c.Set(ctx, "s", "v", 0)

	if _, err := c.RPush(ctx, "s", "x"); !store.IsStoreError(err) {
		t.Fatalf("expected store error, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Sets
// ──────────────────────────────────────────────────

func TestSets(t *testing.T) {
	t.Parallel()
	c := NewServer().Dial(0)
	ctx := context.Background()

	_ = c.SAdd(ctx, "s", "b", "a", "b")
	members, err := c.SMembers(ctx, "s")
	if err != nil {
		t.Fatalf("SMembers: %v", err)
	}
	if len(members) != 2 || members[0] != "a" || members[1] != "b" {
		t.Fatalf("SMembers = %v, want [a b]", members)
	}

	if ok, _ := c.SIsMember(ctx, "s", "a"); !ok {
		t.Error("expected a to be a member")
	}
	_ = c.SRem(ctx, "s", "a", "b")
	if ok, _ := c.Exists(ctx, "s"); ok {
		t.Error("expected empty set to be removed")
	}
}

// ──────────────────────────────────────────────────
// Strings, counters & expiry
// ──────────────────────────────────────────────────

func TestCounters(t *testing.T) {
	t.Parallel()
	c := NewServer().Dial(0)
	ctx := context.Background()

	if n, _ := c.IncrBy(ctx, "n", 5); n != 5 {
		t.Errorf("IncrBy = %d, want 5", n)
	}
	if n, _ := c.DecrBy(ctx, "n", 2); n != 3 {
		t.Errorf("DecrBy = %d, want 3", n)
	}
	v, _ := c.Get(ctx, "n")
	if v != "3" {
		t.Errorf("Get = %q, want 3", v)
	}

	_ = c.Set(ctx, "bad", "x", 0)
	if _, err := c.IncrBy(ctx, "bad", 1); err == nil {
		t.Error("expected error incrementing a non-integer")
	}
}

func TestExpiry(t *testing.T) {
	t.Parallel()
	srv := NewServer()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv.SetClock(func() time.Time { return now })
	c := srv.Dial(0)
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", time.Minute)
	if ttl := srv.TTL(0, "k"); ttl != time.Minute {
		t.Fatalf("TTL = %v, want 1m", ttl)
	}

	now = now.Add(time.Minute)
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Fatal("expected key to expire")
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, store.ErrNil) {
		t.Fatalf("expected ErrNil, got %v", err)
	}
}

func TestExpire_RefreshesTTL(t *testing.T) {
	t.Parallel()
	srv := NewServer()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv.SetClock(func() time.Time { return now })
	c := srv.Dial(0)
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", time.Minute)
	now = now.Add(30 * time.Second)
	_ = c.Expire(ctx, "k", time.Hour)
	if ttl := srv.TTL(0, "k"); ttl != time.Hour {
		t.Fatalf("TTL = %v, want 1h", ttl)
	}
}
