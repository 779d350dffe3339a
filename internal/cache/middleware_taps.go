package cache

import (
	"fmt"

	"github.com/cc-backend/cached/internal/proto"
)

// Enqueuer is the contract a sink (WAL or Replicator) exposes to a tap
// middleware. It is satisfied by *wal.Sink and *replica.Sink without either
// package importing cache — the taps only need to enqueue, never to know
// how a sink drains its queue.
type Enqueuer interface {
	Enqueue(cmd proto.Command) error
}

// WALTap enqueues mutating commands onto the WAL sink's queue before
// forwarding the request, so the WAL is always a superset of what the
// store eventually reflects in memory. A failed enqueue (the sink's
// worker has terminated) fails the request instead of silently
// dropping the mutation.
func WALTap(sink Enqueuer) Middleware {
	return tap("wal", sink)
}

// ReplicatorTap enqueues mutating commands onto the Replicator sink's
// queue before forwarding the request, under the same rules as WALTap.
func ReplicatorTap(sink Enqueuer) Middleware {
	return tap("replicator", sink)
}

func tap(name string, sink Enqueuer) Middleware {
	return func(cmd proto.Command, next Next) ([]byte, error) {
		if cmd.Mutating() {
			if err := sink.Enqueue(cmd); err != nil {
				return nil, fmt.Errorf("%s: %w: %v", name, ErrSinkUnavailable, err)
			}
		}
		return next(cmd)
	}
}
