// Package schema describes, per store, the authoritative set of valid entity
// and edge groups. A schema is immutable for the lifetime of a query; merge
// and clone always return new values.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dyna-dot/gaffer/errors"
)

// ElementDefinition describes one named element group.
type ElementDefinition struct {
	Description string `json:"description,omitempty"`
	// Properties maps property names to their declared type names.
	Properties map[string]string `json:"properties,omitempty"`
}

// Schema is the authoritative set of valid entity/edge group names for one
// store, with per-group definitions.
type Schema struct {
	Entities map[string]ElementDefinition `json:"entities,omitempty"`
	Edges    map[string]ElementDefinition `json:"edges,omitempty"`
}

// New creates an empty schema.
func New() *Schema {
	return &Schema{
		Entities: make(map[string]ElementDefinition),
		Edges:    make(map[string]ElementDefinition),
	}
}

// FromJSON parses a schema document.
func FromJSON(data []byte) (*Schema, error) {
	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errors.WrapInvalid(err, "Schema", "FromJSON", "parse schema document")
	}
	return s, nil
}

// ToJSON serialises the schema document.
func (s *Schema) ToJSON() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.WrapFatal(err, "Schema", "ToJSON", "marshal schema document")
	}
	return data, nil
}

// EntityGroups returns the sorted set of entity group names.
func (s *Schema) EntityGroups() []string {
	return sortedKeys(s.Entities)
}

// EdgeGroups returns the sorted set of edge group names.
func (s *Schema) EdgeGroups() []string {
	return sortedKeys(s.Edges)
}

// HasEntityGroup reports whether the named entity group exists.
func (s *Schema) HasEntityGroup(group string) bool {
	_, ok := s.Entities[group]
	return ok
}

// HasEdgeGroup reports whether the named edge group exists.
func (s *Schema) HasEdgeGroup(group string) bool {
	_, ok := s.Edges[group]
	return ok
}

// IsEmpty reports whether the schema declares no groups at all.
func (s *Schema) IsEmpty() bool {
	return len(s.Entities) == 0 && len(s.Edges) == 0
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := New()
	for g, def := range s.Entities {
		out.Entities[g] = def.clone()
	}
	for g, def := range s.Edges {
		out.Edges[g] = def.clone()
	}
	return out
}

func (d ElementDefinition) clone() ElementDefinition {
	out := ElementDefinition{Description: d.Description}
	if d.Properties != nil {
		out.Properties = make(map[string]string, len(d.Properties))
		for k, v := range d.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// Merge combines two schemas into a new value. Group definitions from b
// override a's on conflict. Neither input is modified.
func Merge(a, b *Schema) *Schema {
	out := a.Clone()
	if out == nil {
		out = New()
	}
	if b == nil {
		return out
	}
	for g, def := range b.Entities {
		out.Entities[g] = def.clone()
	}
	for g, def := range b.Edges {
		out.Edges[g] = def.clone()
	}
	return out
}

// Validate checks structural validity of the schema: no empty group names
// and no group declared as both an entity and an edge.
func (s *Schema) Validate() error {
	for g := range s.Entities {
		if g == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Schema", "Validate",
				"entity group with empty name")
		}
	}
	for g := range s.Edges {
		if g == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Schema", "Validate",
				"edge group with empty name")
		}
		if _, dup := s.Entities[g]; dup {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Schema", "Validate",
				fmt.Sprintf("group %s declared as both entity and edge", g))
		}
	}
	return nil
}

func sortedKeys(m map[string]ElementDefinition) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
