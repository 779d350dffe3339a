package proto

import "errors"

// ErrUnknownCommand is returned by Decode when the frame body names a
// command discriminant this version of the codec does not recognize.
// This is a protocol violation: the caller closes the connection with
// no response, the same as a version mismatch or a truncated frame.
var ErrUnknownCommand = errors.New("proto: unknown command discriminant")

// ErrUnsupportedVersion is returned by Decode when a frame's version byte
// is not the one this codec understands. The caller must close the
// connection without writing a response.
var ErrUnsupportedVersion = errors.New("proto: unsupported version")
