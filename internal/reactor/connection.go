package reactor

import (
	"bufio"
	"errors"
	"io"
	"net"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/cc-backend/cached/internal/proto"
)

// connWriteBuffer sizes the per-connection outbound buffer: responses
// are staged here and flushed with bufio.Writer, whose Flush already
// loops internally until either everything is written or the
// underlying conn.Write reports a real error — there is no short-write
// case left exposed to this package the way there would be against a
// raw non-blocking socket.
const connWriteBuffer = 4096

func (s *Server) handle(conn net.Conn) {
	defer func() {
		conn.Close()
		if s.recorder != nil {
			s.recorder.ConnectionClosed()
		}
	}()

	out := bufio.NewWriterSize(conn, connWriteBuffer)

	for {
		req, err := proto.Decode(conn)
		if err != nil {
			logConnectionTeardown(conn, err)
			return
		}

		resp, shouldClose := s.dispatch(req)
		if err := proto.Encode(out, resp); err != nil {
			cclog.Warnf("[CACHED]> write failed to %s, dropping connection: %s", conn.RemoteAddr(), err)
			return
		}
		if err := out.Flush(); err != nil {
			cclog.Warnf("[CACHED]> flush failed to %s, dropping connection: %s", conn.RemoteAddr(), err)
			return
		}

		if shouldClose {
			return
		}
	}
}

// dispatch runs req's command through the chain and classifies the
// result. It never returns an error itself: every outcome is either a
// response frame to send, or an instruction to close the connection
// (with or without first sending an Error frame).
func (s *Server) dispatch(req proto.Frame) (resp proto.Frame, shouldClose bool) {
	payload, err := s.chain.Handle(req.Command)
	if err != nil {
		// Class 5: sink-unavailable. Reply with an Error command, then
		// close — taps never silently drop a mutation, and neither does
		// the client get to believe one was accepted.
		cclog.Errorf("[CACHED]> sink unavailable handling %s: %s", req.Command, err)
		return proto.Response(req, proto.Err([]byte(err.Error()))), true
	}

	if s.recorder != nil {
		s.recorder.CommandHandled(req.Command.Kind.String())
	}
	return proto.Response(req, proto.Recv(payload)), false
}

// logConnectionTeardown classifies a Decode failure and logs
// accordingly. Every case reclaims the connection silently (no
// response is ever sent for a failed decode) — Protocol and
// I/O-peer-closed both just return from handle, the only difference is
// what gets logged.
func logConnectionTeardown(conn net.Conn, err error) {
	switch {
	case errors.Is(err, io.EOF):
		// Class 3: I/O-peer-closed between frames. Routine, not logged.
	case errors.Is(err, io.ErrUnexpectedEOF):
		// Class 1: truncated frame from a peer that is still mid-stream
		// at the socket level but never completed this one.
		cclog.Debugf("[CACHED]> truncated frame from %s, closing connection", conn.RemoteAddr())
	case errors.Is(err, proto.ErrUnsupportedVersion), errors.Is(err, proto.ErrUnknownCommand):
		// Class 1: protocol violation. Close silently — no Error
		// response for a version/decode failure.
		cclog.Debugf("[CACHED]> protocol error from %s: %s", conn.RemoteAddr(), err)
	default:
		cclog.Warnf("[CACHED]> read error from %s: %s", conn.RemoteAddr(), err)
	}
}
