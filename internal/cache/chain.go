package cache

import "github.com/cc-backend/cached/internal/proto"

// Next is the continuation a Middleware must invoke exactly once (unless it
// short-circuits, which none of the current middlewares do).
type Next func(cmd proto.Command) ([]byte, error)

// Middleware wraps a command's execution. It may inspect cmd, perform a
// side effect, and must then either call next(cmd) exactly once and return
// its result, or return its own payload without calling next.
type Middleware func(cmd proto.Command, next Next) ([]byte, error)

// Chain composes an ordered list of middlewares around a terminal handler.
// Execution is outer-to-inner on the request path (Chain's first
// middleware sees the command first) and inner-to-outer on the return
// path. The default composition is
// [Logger, WAL-tap, Replicator-tap] -> Handler.
type Chain struct {
	entry Next
}

// NewChain builds a Chain. middlewares[0] is outermost.
func NewChain(terminal Next, middlewares ...Middleware) *Chain {
	entry := terminal
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		next := entry
		entry = func(cmd proto.Command) ([]byte, error) {
			return mw(cmd, next)
		}
	}
	return &Chain{entry: entry}
}

// Handle runs cmd through the full chain.
func (c *Chain) Handle(cmd proto.Command) ([]byte, error) {
	return c.entry(cmd)
}
