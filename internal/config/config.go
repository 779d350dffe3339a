// Package config implements startup configuration intake: a JSON file
// validated against a JSON Schema, decoded into Configuration with
// unknown fields rejected, with .env overrides applied first.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// Configuration is the external interface supplied to the server at
// startup, plus the ambient Debug/Metrics knobs this repository adds on
// top of it.
type Configuration struct {
	Server   bool     `json:"server"`
	Addr     string   `json:"addr"`
	Verbose  bool     `json:"verbose"`
	WAL      string   `json:"wal"`
	Replicas []string `json:"replica"`
	Test     bool     `json:"test"`

	// User/Group, once non-empty, are dropped to after the listener
	// binds (internal/runtimeenv.DropPrivileges(Keys)) — useful when
	// Addr binds a privileged port.
	User  string `json:"user"`
	Group string `json:"group"`

	Debug   DebugConfig   `json:"debug"`
	Metrics MetricsConfig `json:"metrics"`
}

// DebugConfig holds operational knobs that have no bearing on the
// protocol's observable behavior.
type DebugConfig struct {
	// EnableGops starts a github.com/google/gops/agent listener for live
	// process inspection, matching cmd/cc-backend's -gops flag and
	// pkg/metricstore's Debug.EnableGops field.
	EnableGops bool `json:"gops"`

	// MaxAcceptRate bounds new connections accepted per second; zero
	// disables the limiter.
	MaxAcceptRate float64 `json:"maxAcceptRate"`
	AcceptBurst   int     `json:"acceptBurst"`
}

// MetricsConfig controls the optional Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// Keys holds the active configuration, defaulted the way
// pkg/metricstore/config.go defaults its package-level Keys var, then
// overwritten field-by-field by Init when a config file is present.
var Keys = Configuration{
	Server:  true,
	Addr:    "127.0.0.1:9000",
	Verbose: false,
	WAL:     "./wal.log",
	Debug: DebugConfig{
		MaxAcceptRate: 0,
		AcceptBurst:   1,
	},
	Metrics: MetricsConfig{
		Enabled: false,
		Addr:    "127.0.0.1:9100",
	},
}

// Init loads .env overrides, then reads and validates the JSON config
// file at path (if present) into Keys. A missing file is not an error —
// the defaults above apply as-is, mirroring cc-backend's Init. Any other
// read, schema, or decode failure is fatal to startup.
func Init(path string) {
	LoadEnv()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		cclog.Fatalf("config: reading %s: %s", path, err)
	}

	if err := Validate(raw); err != nil {
		cclog.Fatalf("%s", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		cclog.Fatalf("config: decoding %s: %s", path, err)
	}

	if Keys.Addr == "" {
		cclog.Fatal("config: addr must not be empty")
	}
}
