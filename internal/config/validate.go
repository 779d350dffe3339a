package config

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compiledSchema caches the compiled form of Schema. Init runs Validate on
// every server start, but this package has exactly one schema, so there is
// no reason to recompile it on each call the way a helper serving several
// ad-hoc schemas would have to.
var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// Validate checks instance against the compiled Schema. Unlike a
// process-fatal helper, it returns an error and leaves the decision of
// whether a validation failure is fatal to its caller — Init treats it as
// fatal; a future config-reload path would not have to.
func Validate(instance json.RawMessage) error {
	compileOnce.Do(func() {
		compiledSchema, compileErr = jsonschema.CompileString("cached-config.json", Schema)
	})
	if compileErr != nil {
		return fmt.Errorf("config: invalid schema: %w", compileErr)
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return fmt.Errorf("config: invalid JSON: %w", err)
	}

	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
