package replica

import (
	"net"
	"sync"
	"time"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// peer tracks one replication target. conn is nil whenever the peer is
// considered down; the reconnect sweep is the only thing that dials it
// back up. A dead peer is never removed from the table, only its
// connection comes and goes.
type peer struct {
	addr string

	mu        sync.Mutex
	conn      net.Conn
	backoff   time.Duration
	nextRetry time.Time
}

func newPeer(addr string, conn net.Conn) *peer {
	return &peer{addr: addr, conn: conn, backoff: initialBackoff}
}

func dial(addr string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}

// get returns the peer's current connection, or nil if it is down.
func (p *peer) get() net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn
}

// markDown closes and clears the connection and schedules the next retry
// with exponential backoff, capped at maxBackoff.
func (p *peer) markDown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.nextRetry = time.Now().Add(p.backoff)
	if p.backoff *= 2; p.backoff > maxBackoff {
		p.backoff = maxBackoff
	}
}

// dueForRetry reports whether the peer is down and its backoff has elapsed.
func (p *peer) dueForRetry(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn == nil && !now.Before(p.nextRetry)
}

// reconnect attempts to dial the peer back up. On success it resets the
// backoff so a future drop starts counting from initialBackoff again.
func (p *peer) reconnect() error {
	conn, err := dial(p.addr)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.backoff = initialBackoff
	p.mu.Unlock()
	return nil
}
