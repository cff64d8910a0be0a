package store

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultAddr is used when no server is configured.
const DefaultAddr = "localhost:6379"

// Backend describes the connection target.
type Backend struct {
	// Network is "tcp" or "unix".
	Network string

	// Addrs holds one host:port (or socket path) per node. More than one
	// entry selects a multi-node client.
	Addrs []string

	// DB is the logical database index.
	DB int

	// URL is the raw redis:// or rediss:// server string. Dialers take
	// credentials, TLS and query options from it; Addrs and DB mirror its
	// host and database.
	URL string
}

// TLS reports whether the backend was given as a rediss:// URL.
func (b Backend) TLS() bool { return strings.HasPrefix(b.URL, "rediss://") }

// ParseBackend turns a server string into a Backend. Accepted forms:
//
//	""                          localhost:6379
//	"host:port"                 single node
//	"host1:6379,host2:6379"     multi-node, keys sharded across independent servers
//	"unix:/path/redis.sock"     unix socket
//	"redis://:pw@host:port/2"   URL, path selects the database
//	"rediss://u:pw@host:6380"   URL over TLS
//
// The db argument is used unless the server is a URL carrying its own
// database path.
func ParseBackend(server string, db int) (Backend, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return Backend{Network: "tcp", Addrs: []string{DefaultAddr}, DB: db}, nil
	}

	if strings.HasPrefix(server, "unix:") {
		path := strings.TrimPrefix(strings.TrimPrefix(server, "unix:"), "//")
		if path == "" {
			return Backend{}, fmt.Errorf("resque/store: empty unix socket path in %q", server)
		}
		return Backend{Network: "unix", Addrs: []string{path}, DB: db}, nil
	}

	if strings.HasPrefix(server, "redis://") || strings.HasPrefix(server, "rediss://") {
		return parseURL(server, db)
	}

	var addrs []string
	for _, part := range strings.Split(server, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, ":") {
			part += ":6379"
		}
		addrs = append(addrs, part)
	}
	if len(addrs) == 0 {
		return Backend{}, fmt.Errorf("resque/store: no addresses in %q", server)
	}
	return Backend{Network: "tcp", Addrs: addrs, DB: db}, nil
}

func parseURL(raw string, db int) (Backend, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Backend{}, fmt.Errorf("resque/store: parse url: %w", err)
	}
	b := Backend{Network: "tcp", DB: db, URL: raw}
	host := u.Host
	if host == "" {
		host = DefaultAddr
	} else if u.Port() == "" {
		host += ":6379"
	}
	b.Addrs = []string{host}
	if p := strings.Trim(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Backend{}, fmt.Errorf("resque/store: invalid database %q", p)
		}
		b.DB = n
	}
	return b, nil
}

// String renders the backend for logs. Credentials are never included.
func (b Backend) String() string {
	scheme := b.Network
	if b.TLS() {
		scheme = "tls"
	}
	return fmt.Sprintf("%s://%s/%d", scheme, strings.Join(b.Addrs, ","), b.DB)
}
