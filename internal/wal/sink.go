// Package wal implements the write-ahead log sink and startup replay.
// The sink owns an append-only file and a dedicated goroutine that
// drains an unbounded queue of mutating commands, serializing each as a
// (u64 LE length, payload) record and flushing after every write. Recovery
// replays such a file into a fresh Store before the server starts serving.
package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/cc-backend/cached/internal/proto"
)

// errClosed is returned by Enqueue once the sink's worker has terminated,
// either because Close was called or because a write failed fatally.
var errClosed = errors.New("wal: sink closed")

// Sink appends mutating commands to a local file in the order they are
// enqueued. It guarantees only that records enter the OS write buffer
// in enqueue order — no per-record fsync.
type Sink struct {
	queue  *queue
	file   *os.File
	writer *bufio.Writer
	done   chan struct{}
}

// Open opens (creating if necessary) the WAL file at path in append mode
// and starts its background writer goroutine. A failure to open the file
// is fatal to server startup.
func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}

	s := &Sink{
		queue:  newQueue(),
		file:   f,
		writer: bufio.NewWriter(f),
		done:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Enqueue hands a mutating command to the sink's queue. It only fails once
// the sink has terminated (Close, or a prior write error) — satisfying the
// cache package's Enqueuer contract.
func (s *Sink) Enqueue(cmd proto.Command) error {
	return s.queue.push(cmd)
}

// QueueDepth reports the number of commands currently buffered for the
// writer goroutine, for internal/metrics to publish as a gauge.
func (s *Sink) QueueDepth() int {
	return s.queue.length()
}

// Close stops accepting new records, lets the worker drain what is already
// queued, and waits for it to exit.
func (s *Sink) Close() {
	s.queue.close()
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)
	defer s.file.Close()

	for {
		cmd, ok := s.queue.pop()
		if !ok {
			return
		}

		if err := s.appendRecord(cmd); err != nil {
			cclog.Errorf("[CACHED]> WAL write failed, sink terminating: %s", err)
			s.queue.close()
			return
		}
	}
}

func (s *Sink) appendRecord(cmd proto.Command) error {
	payload, err := proto.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("wal: encode record: %w", err)
	}

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(payload)))

	if _, err := s.writer.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wal: write length prefix: %w", err)
	}
	if _, err := s.writer.Write(payload); err != nil {
		return fmt.Errorf("wal: write payload: %w", err)
	}
	return s.writer.Flush()
}
