package graph

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/schema"
	"github.com/dyna-dot/gaffer/store"
	"github.com/dyna-dot/gaffer/view"
)

// Config describes one graph. It is a plain immutable value: construct it
// with composite literals or MergeConfig, never mutate a shared instance.
type Config struct {
	GraphID     string
	Description string

	// Schema and Properties may be nil when Library holds a pair for
	// GraphID, or when ParentSchemaID/ParentPropertiesID name one.
	Schema     *schema.Schema
	Properties *store.Properties

	// ParentSchemaID and ParentPropertiesID name library entries whose
	// schema/properties this graph inherits. Explicit Schema/Properties
	// are merged over (schemas) or replace (properties) the parent's.
	ParentSchemaID     string
	ParentPropertiesID string

	// View is the default applied to operations without one. Nil means
	// derive the default from the schema's full group set.
	View *view.View

	// Store is the backing store. Nil means build one from Properties
	// (see store.PropStoreClass); a federation is passed here directly.
	Store store.Store

	Hooks   []Hook
	Library Library
	Logger  *slog.Logger
}

// MergeConfig returns a new Config taking every set field of b over a.
// Neither input is modified.
func MergeConfig(a, b Config) Config {
	merged := a
	if b.GraphID != "" {
		merged.GraphID = b.GraphID
	}
	if b.Description != "" {
		merged.Description = b.Description
	}
	if b.Schema != nil {
		merged.Schema = b.Schema
	}
	if b.Properties != nil {
		merged.Properties = b.Properties
	}
	if b.ParentSchemaID != "" {
		merged.ParentSchemaID = b.ParentSchemaID
	}
	if b.ParentPropertiesID != "" {
		merged.ParentPropertiesID = b.ParentPropertiesID
	}
	if b.View != nil {
		merged.View = b.View
	}
	if b.Store != nil {
		merged.Store = b.Store
	}
	if len(b.Hooks) > 0 {
		merged.Hooks = b.Hooks
	}
	if b.Library != nil {
		merged.Library = b.Library
	}
	if b.Logger != nil {
		merged.Logger = b.Logger
	}
	return merged
}

// configSchema validates graph configuration documents before decoding.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["graphId"],
  "additionalProperties": false,
  "properties": {
    "graphId": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "schemaPath": {"type": "string"},
    "propertiesPath": {"type": "string"},
    "parentSchemaId": {"type": "string"},
    "parentPropertiesId": {"type": "string"},
    "viewPath": {"type": "string"},
    "hooks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "enum": ["ChainLogger", "ChainLimiter"]},
          "maxOperations": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

// configDocument is the on-disk shape of a graph configuration.
type configDocument struct {
	GraphID            string `json:"graphId"`
	Description        string `json:"description"`
	SchemaPath         string `json:"schemaPath"`
	PropertiesPath     string `json:"propertiesPath"`
	ParentSchemaID     string `json:"parentSchemaId"`
	ParentPropertiesID string `json:"parentPropertiesId"`
	ViewPath           string `json:"viewPath"`
	Hooks              []struct {
		Name          string `json:"name"`
		MaxOperations int    `json:"maxOperations"`
	} `json:"hooks"`
}

// LoadConfig reads and validates a JSON graph configuration document,
// loading any schema/properties/view documents it references. Paths in the
// document are resolved relative to the current working directory.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WrapFatal(err, "GraphConfig", "LoadConfig", "read configuration")
	}
	return ParseConfig(data)
}

// ParseConfig validates and decodes a JSON graph configuration document.
func ParseConfig(data []byte) (Config, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return Config{}, errors.WrapInvalid(err, "GraphConfig", "ParseConfig", "validate configuration")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return Config{}, errors.WrapInvalid(errors.ErrInvalidConfig, "GraphConfig", "ParseConfig",
			strings.Join(details, "; "))
	}

	var doc configDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Config{}, errors.WrapInvalid(err, "GraphConfig", "ParseConfig", "decode configuration")
	}

	cfg := Config{
		GraphID:            doc.GraphID,
		Description:        doc.Description,
		ParentSchemaID:     doc.ParentSchemaID,
		ParentPropertiesID: doc.ParentPropertiesID,
	}

	if doc.SchemaPath != "" {
		schemaBytes, err := os.ReadFile(doc.SchemaPath)
		if err != nil {
			return Config{}, errors.WrapFatal(err, "GraphConfig", "ParseConfig", "read schema document")
		}
		if cfg.Schema, err = schema.FromJSON(schemaBytes); err != nil {
			return Config{}, errors.WrapInvalid(err, "GraphConfig", "ParseConfig", "parse schema document")
		}
	}
	if doc.PropertiesPath != "" {
		if cfg.Properties, err = store.LoadProperties(doc.PropertiesPath); err != nil {
			return Config{}, err
		}
	}
	if doc.ViewPath != "" {
		viewBytes, err := os.ReadFile(doc.ViewPath)
		if err != nil {
			return Config{}, errors.WrapFatal(err, "GraphConfig", "ParseConfig", "read view document")
		}
		if cfg.View, err = view.FromJSON(viewBytes); err != nil {
			return Config{}, errors.WrapInvalid(err, "GraphConfig", "ParseConfig", "parse view document")
		}
	}

	for _, h := range doc.Hooks {
		switch h.Name {
		case "ChainLogger":
			cfg.Hooks = append(cfg.Hooks, &ChainLogger{})
		case "ChainLimiter":
			max := h.MaxOperations
			if max == 0 {
				max = 1
			}
			cfg.Hooks = append(cfg.Hooks, &ChainLimiter{MaxOperations: max})
		}
	}
	return cfg, nil
}
