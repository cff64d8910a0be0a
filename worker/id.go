package worker

import (
	"fmt"
	"strconv"
	"strings"
)

// Identity is the parsed form of a worker id.
type Identity struct {
	Host   string
	PID    int
	Queues []string
}

// String renders the id as {host}:{pid}:{q1,q2,...}.
func (i Identity) String() string {
	return i.Host + ":" + strconv.Itoa(i.PID) + ":" + strings.Join(i.Queues, ",")
}

// ParseID splits a worker id into host, pid and queues.
func ParseID(id string) (Identity, error) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return Identity{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %q: pid: %w", ErrInvalidID, id, err)
	}
	var queues []string
	if parts[2] != "" {
		queues = strings.Split(parts[2], ",")
	}
	return Identity{Host: parts[0], PID: pid, Queues: queues}, nil
}
