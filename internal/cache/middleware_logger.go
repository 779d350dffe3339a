package cache

import (
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/cc-backend/cached/internal/proto"
)

// Logger records the wall-clock duration of the rest of the chain and, when
// verbose, emits a textual representation of the command and elapsed time.
// It wraps the whole request latency, so its timing covers WAL enqueue and
// replication enqueue as well as the store operation itself. It has no
// error semantics of its own.
func Logger(verbose bool) Middleware {
	return func(cmd proto.Command, next Next) ([]byte, error) {
		start := time.Now()
		resp, err := next(cmd)
		if verbose {
			cclog.Debugf("[CACHED]> %s (%s)", cmd, time.Since(start))
		}
		return resp, err
	}
}
