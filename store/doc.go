// Package store defines the key-value primitives every component issues
// against the backing server: list push/pop/length/range, set
// add/remove/members, string get/set/delete/expire and integer counters.
//
// # Available Backends
//
//   - store/redis: Redis through go-redis, single node or cluster
//   - store/memory: in-process server with the same semantics, for tests
//     and local use
//
// # Key prefixing
//
// Components use relative keys such as "queue:mail". [WithNamespace] wraps
// a Store so every key becomes "{namespace}:{key}":
//
//	s := store.WithNamespace(conn, "resque")
//	s.RPush(ctx, "queue:mail", payload) // writes resque:queue:mail
//
// # Errors
//
// Access failures are reported as *[Error]; a missing key or an empty list
// yields [ErrNil].
package store
