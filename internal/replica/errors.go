package replica

import "errors"

// ErrBackpressure is returned by Enqueue when the bounded replication
// queue is full. A tap middleware must fail the request rather than
// silently drop the mutation.
var ErrBackpressure = errors.New("replica: queue full")

// ErrClosed is returned by Enqueue once the sink has been closed.
var ErrClosed = errors.New("replica: sink closed")
