package wal

import (
	"sync"

	"github.com/cc-backend/cached/internal/proto"
)

// queue is an unbounded FIFO of mutating commands, blocking on pop when
// empty and waking on push or close. A mutex+sync.Cond producer/consumer
// is used instead of a fixed-capacity channel so an Enqueue call never
// fails merely because the backlog is deep.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []proto.Command
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue) push(cmd proto.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errClosed
	}
	q.items = append(q.items, cmd)
	q.cond.Signal()
	return nil
}

// pop blocks until an item is available or the queue is closed and drained.
func (q *queue) pop() (proto.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return proto.Command{}, false
	}
	cmd := q.items[0]
	q.items = q.items[1:]
	return cmd, true
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

func (q *queue) length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
