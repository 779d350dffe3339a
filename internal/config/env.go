package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/joho/godotenv"
)

// LoadEnv loads a local .env file (if present) and applies a small set
// of overrides onto Keys before the JSON config file is read, the way
// cc-backend's deployment tooling seeds config.json defaults from an
// .env in local development. A missing .env is not an error.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		cclog.Warnf("config: could not load .env: %s", err)
	}

	if v, ok := os.LookupEnv("ADDR"); ok {
		Keys.Addr = v
	}
	if v, ok := os.LookupEnv("WAL_PATH"); ok {
		Keys.WAL = v
	}
	if v, ok := os.LookupEnv("CACHE_REPLICAS"); ok {
		Keys.Replicas = splitNonEmpty(v, ",")
	}
	if v, ok := os.LookupEnv("VERBOSE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			Keys.Verbose = b
		}
	}
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
