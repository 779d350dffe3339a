package config

// Schema is the JSON Schema every config file is validated against
// before being decoded.
const Schema = `{
	"type": "object",
	"properties": {
		"server":  { "type": "boolean" },
		"addr":    { "type": "string", "minLength": 1 },
		"verbose": { "type": "boolean" },
		"wal":     { "type": "string", "minLength": 1 },
		"replica": {
			"type": "array",
			"items": { "type": "string", "minLength": 1 }
		},
		"test":  { "type": "boolean" },
		"user":  { "type": "string" },
		"group": { "type": "string" },
		"debug": {
			"type": "object",
			"properties": {
				"gops":          { "type": "boolean" },
				"maxAcceptRate": { "type": "number", "minimum": 0 },
				"acceptBurst":   { "type": "integer", "minimum": 1 }
			}
		},
		"metrics": {
			"type": "object",
			"properties": {
				"enabled": { "type": "boolean" },
				"addr":    { "type": "string" }
			}
		}
	}
}`
