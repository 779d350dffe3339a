package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetKeys() {
	Keys = Configuration{
		Server:  true,
		Addr:    "127.0.0.1:9000",
		WAL:     "./wal.log",
		Debug:   DebugConfig{AcceptBurst: 1},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestInitMissingFileKeepsDefaults(t *testing.T) {
	resetKeys()
	Init(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Equal(t, "127.0.0.1:9000", Keys.Addr)
	assert.Equal(t, "./wal.log", Keys.WAL)
}

func TestInitOverridesFromFile(t *testing.T) {
	resetKeys()
	path := writeConfig(t, `{
		"addr": "0.0.0.0:9001",
		"wal": "/var/lib/cached/wal.log",
		"replica": ["10.0.0.1:9000", "10.0.0.2:9000"],
		"verbose": true
	}`)

	Init(path)

	assert.Equal(t, "0.0.0.0:9001", Keys.Addr)
	assert.Equal(t, "/var/lib/cached/wal.log", Keys.WAL)
	assert.Equal(t, []string{"10.0.0.1:9000", "10.0.0.2:9000"}, Keys.Replicas)
	assert.True(t, Keys.Verbose)
}

func TestLoadEnvOverridesAddr(t *testing.T) {
	resetKeys()
	t.Setenv("ADDR", "127.0.0.1:9999")
	t.Setenv("CACHE_REPLICAS", "a:1, b:2")

	LoadEnv()

	assert.Equal(t, "127.0.0.1:9999", Keys.Addr)
	assert.Equal(t, []string{"a:1", "b:2"}, Keys.Replicas)
}
