package cache

import "errors"

// ErrSinkUnavailable is wrapped by the WAL-tap and Replicator-tap
// middlewares when their sink's queue cannot accept an enqueue (the
// sink has been closed or its worker has terminated, or the replicator's
// bounded queue is full). This must fail the request — taps
// never silently drop a mutation.
var ErrSinkUnavailable = errors.New("cache: sink unavailable")
