package reactor

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/cc-backend/cached/internal/cache"
	"github.com/cc-backend/cached/internal/proto"
	"github.com/cc-backend/cached/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	opened, closed int
	commands       []string
}

func (r *countingRecorder) ConnectionOpened()       { r.opened++ }
func (r *countingRecorder) ConnectionClosed()       { r.closed++ }
func (r *countingRecorder) CommandHandled(k string) { r.commands = append(r.commands, k) }

func startTestServer(t *testing.T, opts ...Option) (*Server, *store.Store) {
	t.Helper()
	s := store.New()
	chain := cache.NewChain(cache.Terminal(s))
	srv, err := New("127.0.0.1:0", chain, opts...)
	require.NoError(t, err)

	go srv.Serve()
	t.Cleanup(func() { srv.Close() })
	return srv, s
}

func dialAndRoundTrip(t *testing.T, addr string, id uint64, cmd proto.Command) proto.Frame {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, proto.Encode(conn, proto.NewFrame(id, cmd)))
	resp, err := proto.Decode(conn)
	require.NoError(t, err)
	return resp
}

func TestServerRoundTripsSetGetDelete(t *testing.T) {
	srv, _ := startTestServer(t)
	addr := srv.Addr().String()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, proto.Encode(conn, proto.NewFrame(1, proto.Set("foo", []byte{1, 2, 3}))))
	resp, err := proto.Decode(conn)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.ID)
	assert.Equal(t, proto.KindRecv, resp.Command.Kind)

	require.NoError(t, proto.Encode(conn, proto.NewFrame(2, proto.Get("foo"))))
	resp, err = proto.Decode(conn)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), resp.ID)
	assert.Equal(t, []byte{1, 2, 3}, resp.Command.Value)

	require.NoError(t, proto.Encode(conn, proto.NewFrame(3, proto.Delete("foo"))))
	resp, err = proto.Decode(conn)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, resp.Command.Value)
}

func TestServerPreservesPerConnectionFIFO(t *testing.T) {
	srv, _ := startTestServer(t)
	addr := srv.Addr().String()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	for i := uint64(1); i <= 20; i++ {
		require.NoError(t, proto.Encode(conn, proto.NewFrame(i, proto.Set("k", []byte{byte(i)}))))
	}
	for i := uint64(1); i <= 20; i++ {
		resp, err := proto.Decode(conn)
		require.NoError(t, err)
		assert.Equal(t, i, resp.ID)
	}
}

func TestServerClosesConnectionOnUnsupportedVersion(t *testing.T) {
	srv, _ := startTestServer(t)
	addr := srv.Addr().String()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	bad := proto.NewFrame(1, proto.Get("x"))
	bad.Version = 2
	require.NoError(t, proto.Encode(conn, bad))

	_, err = proto.Decode(conn)
	assert.Error(t, err, "server must close without replying on an unsupported version")
}

var errSinkDown = errors.New("sink down")

type failingEnqueuer struct{}

func (failingEnqueuer) Enqueue(proto.Command) error { return errSinkDown }

func TestServerRepliesErrorAndClosesWhenSinkUnavailable(t *testing.T) {
	s := store.New()
	chain := cache.NewChain(cache.Terminal(s), cache.WALTap(failingEnqueuer{}))
	srv, err := New("127.0.0.1:0", chain)
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, proto.Encode(conn, proto.NewFrame(1, proto.Set("k", []byte("v")))))
	resp, err := proto.Decode(conn)
	require.NoError(t, err)
	assert.Equal(t, proto.KindError, resp.Command.Kind)

	_, err = proto.Decode(conn)
	assert.Error(t, err, "connection must be closed after a sink-unavailable Error reply")
}

func TestServerRecordsConnectionAndCommandCounters(t *testing.T) {
	rec := &countingRecorder{}
	srv, _ := startTestServer(t, WithRecorder(rec))
	addr := srv.Addr().String()

	resp := dialAndRoundTrip(t, addr, 1, proto.Get("x"))
	assert.Equal(t, proto.KindRecv, resp.Command.Kind)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.opened)
	assert.Contains(t, rec.commands, "GET")
}
