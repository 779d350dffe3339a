package proto

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []Command{
		Empty(),
		Get("foo"),
		Set("foo", []byte{0x01, 0x02, 0x03}),
		Set("empty-value", nil),
		Delete("foo"),
		Keys(10, 0),
		Err([]byte("boom")),
		Recv([]byte("payload")),
	}

	for _, cmd := range cases {
		req := NewFrame(42, cmd)

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, req))

		got, err := Decode(&buf)
		require.NoError(t, err)

		assert.Equal(t, req.Version, got.Version)
		assert.Equal(t, req.ID, got.ID)
		assert.Equal(t, cmd.Kind, got.Command.Kind)
		assert.Equal(t, cmd.Key, got.Command.Key)
		assert.Equal(t, cmd.Take, got.Command.Take)
		assert.Equal(t, cmd.Skip, got.Command.Skip)
		if len(cmd.Value) == 0 {
			assert.Empty(t, got.Command.Value)
		} else {
			assert.Equal(t, cmd.Value, got.Command.Value)
		}
	}
}

func TestResponsePreservesVersionAndID(t *testing.T) {
	req := NewFrame(7, Get("k"))
	resp := Response(req, Recv([]byte("v")))

	assert.Equal(t, req.Version, resp.Version)
	assert.Equal(t, req.ID, resp.ID)
	assert.Equal(t, KindRecv, resp.Command.Kind)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	f := NewFrame(1, Get("k"))
	f.Version = 2

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))

	_, err := Decode(&buf)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeEmptyStreamIsEOF(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeTruncatedFrameIsUnexpectedEOF(t *testing.T) {
	req := NewFrame(1, Set("k", []byte("value")))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, req))

	truncated := buf.Bytes()[:buf.Len()-2]

	_, err := Decode(bytes.NewReader(truncated))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}
