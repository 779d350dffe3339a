package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cc-backend/cached/internal/proto"
	"github.com/cc-backend/cached/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkAppendAndRecover(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	sink, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, sink.Enqueue(proto.Set("foo", []byte{1, 2, 3})))
	require.NoError(t, sink.Enqueue(proto.Set("bar", []byte("v"))))
	require.NoError(t, sink.Enqueue(proto.Delete("bar")))
	sink.Close()

	s := store.New()
	n, err := Recover(path, s)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, v)

	_, ok = s.Get("bar")
	assert.False(t, ok)
}

func TestRecoverMissingFileIsNoop(t *testing.T) {
	s := store.New()
	n, err := Recover(filepath.Join(t.TempDir(), "does-not-exist.log"), s)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRecoverDiscardsTruncatedTrailingRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	sink, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, sink.Enqueue(proto.Set("complete", []byte("v"))))
	sink.Close()

	// Append a truncated record: a length prefix claiming more bytes than follow.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{100, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s := store.New()
	n, err := Recover(path, s)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := s.Get("complete")
	assert.True(t, ok)
}

func TestEnqueueFailsAfterClose(t *testing.T) {
	dir := t.TempDir()
	sink, err := Open(filepath.Join(dir, "wal.log"))
	require.NoError(t, err)
	sink.Close()

	err = sink.Enqueue(proto.Set("k", []byte("v")))
	assert.Error(t, err)
}

func TestSinkSerializesInEnqueueOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")
	sink, err := Open(path)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, sink.Enqueue(proto.Set("k", []byte{byte(i)})))
	}
	sink.Close()

	s := store.New()
	n, err := Recover(path, s)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	v, _ := s.Get("k")
	assert.Equal(t, []byte{49}, v, "last enqueued write must win, proving replay order matches enqueue order")
}
