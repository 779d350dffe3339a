// Package replica implements the replication sink: a bounded-queue,
// best-effort fan-out of mutating commands to a fixed set of peer cached
// instances. Replication is fire-and-forget — there is no correlation
// between a replicated frame and any response — and a peer that is
// unreachable is isolated from the others rather than stalling the
// whole fan-out.
package replica

import (
	"fmt"
	"sync"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/cc-backend/cached/internal/proto"
)

// replicationID is the fixed correlation id stamped on every replicated
// frame. Replicas never reply, so there is nothing to correlate a
// response back to; a constant id makes that explicit on the wire
// instead of incrementing a counter nobody reads.
const replicationID = 0

// queueCapacity bounds the number of commands buffered for fan-out before
// Enqueue starts reporting backpressure to its caller.
const queueCapacity = 100

// StatusHook is notified every time a peer connection transitions up or
// down, so internal/metrics can publish it as a gauge without this
// package importing prometheus.
type StatusHook func(addr string, up bool)

// Sink fans mutating commands out to an ordered list of peers. The peer
// order is the order addresses were given at Open and is preserved for
// the lifetime of the sink so that replication order is deterministic.
type Sink struct {
	peers      []*peer
	queue      chan proto.Command
	done       chan struct{}
	closeCh    chan struct{}
	statusHook StatusHook

	mu     sync.Mutex
	closed bool
}

// Option configures optional Sink behavior.
type Option func(*Sink)

// WithStatusHook installs a StatusHook, invoked once synchronously per
// peer at Open (all up) and again on every subsequent up/down
// transition.
func WithStatusHook(hook StatusHook) Option {
	return func(s *Sink) { s.statusHook = hook }
}

// Open dials every address in addrs. A dial failure for ANY peer is
// fatal to startup: the replicator has no degraded set to fall back to,
// it either replicates to the configured set or the operator fixes the
// configuration. Once running, a peer that later drops is isolated and
// retried by the scheduled reconnect sweep instead of failing the sink.
func Open(addrs []string, opts ...Option) (*Sink, error) {
	peers := make([]*peer, 0, len(addrs))
	for _, addr := range addrs {
		conn, err := dial(addr)
		if err != nil {
			for _, p := range peers {
				if c := p.get(); c != nil {
					c.Close()
				}
			}
			return nil, fmt.Errorf("replica: dial %s: %w", addr, err)
		}
		peers = append(peers, newPeer(addr, conn))
	}

	s := &Sink{
		peers:   peers,
		queue:   make(chan proto.Command, queueCapacity),
		done:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.statusHook != nil {
		for _, p := range peers {
			s.statusHook(p.addr, true)
		}
	}

	go s.run()
	startReconnectSweep(s)
	return s, nil
}

// Enqueue hands a mutating command to the fan-out queue. It never blocks:
// a full queue reports ErrBackpressure immediately rather than stalling
// the caller's request path. The closed check and the send share s.mu so
// Close can never close s.queue between the two (which would otherwise
// panic this send).
func (s *Sink) Enqueue(cmd proto.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	select {
	case s.queue <- cmd:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close stops accepting new commands, lets the fan-out goroutine drain
// what is already queued, and tears down every peer connection.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.closeCh)
	close(s.queue)
	s.mu.Unlock()

	<-s.done

	for _, p := range s.peers {
		if conn := p.get(); conn != nil {
			conn.Close()
		}
	}
}

func (s *Sink) run() {
	defer close(s.done)

	for cmd := range s.queue {
		frame := proto.NewFrame(replicationID, cmd)

		for _, p := range s.peers {
			conn := p.get()
			if conn == nil {
				continue
			}

			if err := proto.Encode(conn, frame); err != nil {
				cclog.Errorf("[CACHED]> replication write to %s failed, marking peer down: %s", p.addr, err)
				p.markDown()
				if s.statusHook != nil {
					s.statusHook(p.addr, false)
				}
			}
		}
	}
}
