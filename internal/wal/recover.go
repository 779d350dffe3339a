package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/cc-backend/cached/internal/proto"
	"github.com/cc-backend/cached/internal/store"
)

// Recover replays the WAL file at path into s, applying each record
// directly to the store and bypassing the middleware chain entirely — a
// replayed mutation must not be re-logged or re-replicated. A missing
// file is not an error: recovery is then a no-op. A truncated
// trailing record (a short read on either the length or the body, or a
// record that fails to deserialize) is silently discarded, defending
// against a crash mid-append.
func Recover(path string, s *store.Store) (applied int, err error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	for {
		var lenBuf [8]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			break
		}

		n := binary.LittleEndian.Uint64(lenBuf[:])
		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			break
		}

		cmd, err := proto.DecodeCommand(payload)
		if err != nil {
			break
		}

		applyDirect(s, cmd)
		applied++
	}

	cclog.Infof("[CACHED]> WAL recovery replayed %d record(s) from %q in %s", applied, path, time.Since(start))
	return applied, nil
}

func applyDirect(s *store.Store, cmd proto.Command) {
	switch cmd.Kind {
	case proto.KindSet:
		s.Set(cmd.Key, cmd.Value)
	case proto.KindDelete:
		s.Delete(cmd.Key)
	}
}
