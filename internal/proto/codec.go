package proto

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/linkedin/goavro/v2"
)

// lengthPrefixSize is the width of the length prefix on the wire, fixed
// at 8 bytes so two instances of this codec are always interoperable
// regardless of host word size (see DESIGN.md, Open Question
// decisions).
const lengthPrefixSize = 8

// commandSchema describes Command as a flat Avro record. Every field is
// always present; a given Kind only gives meaning to a subset of them.
// This gives self-describing binary serialization: strings and byte
// arrays are length-prefixed inside the Avro encoding itself, so decode
// never needs to know a field's size up front.
const commandSchema = `{
	"type": "record",
	"name": "Command",
	"fields": [
		{"name": "kind",  "type": "int"},
		{"name": "key",   "type": "string"},
		{"name": "value", "type": "bytes"},
		{"name": "take",  "type": "long"},
		{"name": "skip",  "type": "long"}
	]
}`

var commandCodec *goavro.Codec

func init() {
	c, err := goavro.NewCodec(commandSchema)
	if err != nil {
		// The schema is a compile-time constant; a failure here is a
		// programming error, not a runtime condition callers can recover from.
		panic(fmt.Sprintf("proto: invalid command schema: %v", err))
	}
	commandCodec = c
}

func commandToNative(c Command) map[string]interface{} {
	value := c.Value
	if value == nil {
		value = []byte{}
	}
	return map[string]interface{}{
		"kind":  int32(c.Kind),
		"key":   c.Key,
		"value": value,
		"take":  int64(c.Take),
		"skip":  int64(c.Skip),
	}
}

func nativeToCommand(native interface{}) (Command, error) {
	fields, ok := native.(map[string]interface{})
	if !ok {
		return Command{}, fmt.Errorf("proto: decoded command has unexpected shape %T", native)
	}

	kind := Kind(fields["kind"].(int32))
	switch kind {
	case KindEmpty, KindGet, KindSet, KindDelete, KindKeys, KindError, KindRecv:
	default:
		return Command{}, ErrUnknownCommand
	}

	return Command{
		Kind:  kind,
		Key:   fields["key"].(string),
		Value: fields["value"].([]byte),
		Take:  uint64(fields["take"].(int64)),
		Skip:  uint64(fields["skip"].(int64)),
	}, nil
}

// encodeBody serializes a Frame's version byte, id, and Avro-encoded
// command into one contiguous buffer.
func encodeBody(f Frame) ([]byte, error) {
	cmdBytes, err := commandCodec.BinaryFromNative(nil, commandToNative(f.Command))
	if err != nil {
		return nil, fmt.Errorf("proto: encode command: %w", err)
	}

	body := make([]byte, 0, 1+8+len(cmdBytes))
	body = append(body, f.Version)

	var idBuf [8]byte
	binary.LittleEndian.PutUint64(idBuf[:], f.ID)
	body = append(body, idBuf[:]...)
	body = append(body, cmdBytes...)
	return body, nil
}

func decodeBody(body []byte) (Frame, error) {
	if len(body) < 9 {
		return Frame{}, fmt.Errorf("proto: frame body too short (%d bytes)", len(body))
	}

	version := body[0]
	id := binary.LittleEndian.Uint64(body[1:9])

	if version != CurrentVersion {
		return Frame{Version: version, ID: id}, ErrUnsupportedVersion
	}

	native, _, err := commandCodec.NativeFromBinary(body[9:])
	if err != nil {
		return Frame{Version: version, ID: id}, fmt.Errorf("proto: decode command: %w", err)
	}

	cmd, err := nativeToCommand(native)
	if err != nil {
		return Frame{Version: version, ID: id}, err
	}

	return Frame{Version: version, ID: id, Command: cmd}, nil
}

// EncodeCommand serializes a bare Command (no Frame envelope) using the same
// Avro codec as the wire protocol. This is the WAL record payload format:
// a serialized mutating command, not a Frame.
func EncodeCommand(cmd Command) ([]byte, error) {
	b, err := commandCodec.BinaryFromNative(nil, commandToNative(cmd))
	if err != nil {
		return nil, fmt.Errorf("proto: encode command: %w", err)
	}
	return b, nil
}

// DecodeCommand is the inverse of EncodeCommand.
func DecodeCommand(buf []byte) (Command, error) {
	native, _, err := commandCodec.NativeFromBinary(buf)
	if err != nil {
		return Command{}, fmt.Errorf("proto: decode command: %w", err)
	}
	return nativeToCommand(native)
}

// Encode writes f to w as length-prefix || body in a single Write call, so a
// length is never left on the wire without its body.
func Encode(w io.Writer, f Frame) error {
	body, err := encodeBody(f)
	if err != nil {
		return err
	}

	buf := make([]byte, lengthPrefixSize+len(body))
	binary.LittleEndian.PutUint64(buf[:lengthPrefixSize], uint64(len(body)))
	copy(buf[lengthPrefixSize:], body)

	_, err = w.Write(buf)
	return err
}

// Decode reads exactly one Frame from r: the 8-byte length prefix, then
// exactly that many body bytes, looping internally until each part is
// complete (io.ReadFull). A zero-byte read at either stage surfaces as
// io.EOF (the peer closed cleanly between frames); a partial read that then
// hits EOF surfaces as io.ErrUnexpectedEOF (a truncated frame from a peer
// that is still, at the socket level, mid-stream) — the reactor treats the
// two differently.
func Decode(r io.Reader) (Frame, error) {
	var lenBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Frame{}, err
	}

	n := binary.LittleEndian.Uint64(lenBuf[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, err
	}

	return decodeBody(body)
}
