package store_test

import (
	"testing"

	"github.com/xraph/resque/store"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name    string
		server  string
		db      int
		network string
		addrs   []string
		wantDB  int
	}{
		{"empty defaults to localhost", "", 0, "tcp", []string{"localhost:6379"}, 0},
		{"host and port", "cache:6380", 2, "tcp", []string{"cache:6380"}, 2},
		{"host only", "cache", 0, "tcp", []string{"cache:6379"}, 0},
		{"multi node", "a:1, b:2", 0, "tcp", []string{"a:1", "b:2"}, 0},
		{"unix socket", "unix:/tmp/redis.sock", 1, "unix", []string{"/tmp/redis.sock"}, 1},
		{"unix url", "unix:///tmp/redis.sock", 0, "unix", []string{"/tmp/redis.sock"}, 0},
		{"url with db", "redis://:secret@cache:6390/4", 0, "tcp", []string{"cache:6390"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := store.ParseBackend(tt.server, tt.db)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b.Network != tt.network {
				t.Errorf("Network = %q, want %q", b.Network, tt.network)
			}
			if b.DB != tt.wantDB {
				t.Errorf("DB = %d, want %d", b.DB, tt.wantDB)
			}
			if len(b.Addrs) != len(tt.addrs) {
				t.Fatalf("Addrs = %v, want %v", b.Addrs, tt.addrs)
			}
			for i := range b.Addrs {
				if b.Addrs[i] != tt.addrs[i] {
					t.Errorf("Addrs[%d] = %q, want %q", i, b.Addrs[i], tt.addrs[i])
				}
			}
		})
	}
}

func TestParseBackend_Invalid(t *testing.T) {
	for _, server := range []string{"unix:", " , ", "redis://host/notanumber"} {
		if _, err := store.ParseBackend(server, 0); err == nil {
			t.Errorf("ParseBackend(%q) expected error", server)
		}
	}
}

func TestBackend_StringHidesPassword(t *testing.T) {
	b, err := store.ParseBackend("redis://:hunter2@cache:6379/1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.URL != "redis://:hunter2@cache:6379/1" {
		t.Errorf("URL = %q", b.URL)
	}
	if got := b.String(); got != "tcp://cache:6379/1" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseBackend_TLSURL(t *testing.T) {
	const server = "rediss://user:pw@cache.example.com:6380/1"
	b, err := store.ParseBackend(server, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.TLS() || b.URL != server {
		t.Errorf("TLS() = %v, URL = %q", b.TLS(), b.URL)
	}
	if b.DB != 1 || len(b.Addrs) != 1 || b.Addrs[0] != "cache.example.com:6380" {
		t.Errorf("backend = %+v", b)
	}
	if got := b.String(); got != "tls://cache.example.com:6380/1" {
		t.Errorf("String() = %q", got)
	}
}
