// Package reactor implements the connection acceptor and per-connection
// request/response loop. A single-threaded, readiness-driven reactor
// lets one thread multiplex many sockets without a thread per
// connection; Go's netpoller already performs that multiplexing
// underneath ordinary blocking net.Conn calls, so this implementation is
// one goroutine per accepted connection rather than a hand-rolled
// epoll/kqueue loop (see DESIGN.md, Open Question decisions, for the
// full rationale). The contract that matters — per-connection FIFO
// response ordering, protocol/I-O/sink error classification, no silent
// drops — is preserved exactly.
package reactor

import (
	"errors"
	"net"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/cc-backend/cached/internal/cache"
	"golang.org/x/time/rate"
)

// Recorder receives connection-lifecycle and command counters. It is
// optional: without WithRecorder the Server's recorder stays nil, every
// call site skips it, and the reactor runs with no observability overhead.
type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	CommandHandled(kind string)
}

// Server owns the listening socket and the connection table implicit in
// the set of goroutines it has spawned. It has no exported mutable
// state once constructed — every accepted connection is independent and
// shares only the Chain and Store reached through it.
type Server struct {
	ln       net.Listener
	chain    *cache.Chain
	limiter  *rate.Limiter
	recorder Recorder
}

// Option configures optional Server behavior.
type Option func(*Server)

// WithAcceptRate installs a token-bucket limiter on the accept loop: at
// most ratePerSec new connections per second, with burst allowed to
// spike up to burst at once. A non-positive ratePerSec disables limiting
// (the zero value of Configuration.Debug.MaxAcceptRate).
func WithAcceptRate(ratePerSec float64, burst int) Option {
	return func(s *Server) {
		if ratePerSec <= 0 {
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
}

// WithRecorder installs a metrics Recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// New binds addr and returns a Server ready for Serve. Binding failure
// is fatal to startup: there is nothing left for the caller to serve.
func New(addr string, chain *cache.Chain, opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{ln: ln, chain: chain}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addr returns the bound listener address, useful when addr was given
// as "host:0" for an ephemeral port (tests).
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until the listener is closed, handling each
// on its own goroutine. A listener-level Accept failure is fatal and is
// returned to the caller — it terminates the server, since a listener
// that stops accepting has nothing more to offer; net.ErrClosed from an
// intentional Close is reported as nil.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if s.limiter != nil && !s.limiter.Allow() {
			cclog.Warnf("[CACHED]> accept rate exceeded, dropping connection from %s", conn.RemoteAddr())
			conn.Close()
			continue
		}

		if s.recorder != nil {
			s.recorder.ConnectionOpened()
		}
		go s.handle(conn)
	}
}

// Close stops the accept loop. In-flight connections are left to finish
// on their own; draining live connections on shutdown is not
// implemented.
func (s *Server) Close() error {
	return s.ln.Close()
}
