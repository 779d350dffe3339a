// Package cache implements the command dispatch and the middleware
// chain that wraps it: an ordered list of interceptors — Logger,
// WAL-tap, Replicator-tap by default — each of which may observe a command,
// perform a side effect, and must call the next stage exactly once.
package cache

import (
	"github.com/cc-backend/cached/internal/proto"
	"github.com/cc-backend/cached/internal/store"
)

// Handle is the terminal dispatch: given a Command it invokes the
// matching Store operation and returns the response payload. It never
// fails — the Store's operations are infallible by construction — and
// non-storage commands (Empty, Error, Recv, and a zero-sized Keys)
// simply return no bytes.
func Handle(s *store.Store, cmd proto.Command) []byte {
	switch cmd.Kind {
	case proto.KindGet:
		v, _ := s.Get(cmd.Key)
		return v
	case proto.KindSet:
		prev, _ := s.Set(cmd.Key, cmd.Value)
		return prev
	case proto.KindDelete:
		prev, _ := s.Delete(cmd.Key)
		return prev
	case proto.KindKeys:
		return s.Keys(cmd.Take, cmd.Skip)
	default:
		return nil
	}
}

// Terminal returns a Next bound to s, suitable as the innermost stage of a Chain.
func Terminal(s *store.Store) Next {
	return func(cmd proto.Command) ([]byte, error) {
		return Handle(s, cmd), nil
	}
}
