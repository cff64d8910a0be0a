package worker

import (
	"context"
	"slices"

	"github.com/xraph/resque/store"
)

// WorkersKey is the set of registered worker ids.
const WorkersKey = "workers"

// Key returns the key holding a worker's "working on" record.
func Key(id string) string { return "worker:" + id }

// StartedKey returns the key holding a worker's start time.
func StartedKey(id string) string { return "worker:" + id + ":started" }

// List returns the ids of all registered workers, sorted.
func List(ctx context.Context, conns store.Connector) ([]string, error) {
	c, err := conns.Connection(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := c.SMembers(ctx, WorkersKey)
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

// Exists reports whether id is registered.
func Exists(ctx context.Context, conns store.Connector, id string) (bool, error) {
	c, err := conns.Connection(ctx)
	if err != nil {
		return false, err
	}
	return c.SIsMember(ctx, WorkersKey, id)
}

// Working returns the "working on" record of worker id, nil when it is
// idle.
func Working(ctx context.Context, conns store.Connector, id string) (*Record, error) {
	c, err := conns.Connection(ctx)
	if err != nil {
		return nil, err
	}
	return readRecord(ctx, c, id)
}
