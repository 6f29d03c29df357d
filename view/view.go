// Package view provides the declarative filter/transform specification a
// caller applies over named entity and edge groups. Views merge as pure
// functions and never mutate a shared default.
package view

import (
	"encoding/json"
	"sort"

	"github.com/dyna-dot/gaffer/element"
	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/schema"
)

// FilterPredicate is one declarative property filter within a view
// definition. Predicates are applied by the backing store.
type FilterPredicate struct {
	Property  string `json:"property"`
	Predicate string `json:"predicate"` // "exists", "eq", "gt", "lt"
	Value     any    `json:"value,omitempty"`
}

// ElementDefinition declares the filtering/transformation for one group.
// A zero definition means "include the group unfiltered".
type ElementDefinition struct {
	// Properties restricts which properties stores return. Empty means all.
	Properties []string `json:"properties,omitempty"`
	// Filters are property predicates an element must satisfy.
	Filters []FilterPredicate `json:"filters,omitempty"`
}

func (d ElementDefinition) clone() ElementDefinition {
	out := ElementDefinition{}
	if d.Properties != nil {
		out.Properties = append([]string(nil), d.Properties...)
	}
	if d.Filters != nil {
		out.Filters = append([]FilterPredicate(nil), d.Filters...)
	}
	return out
}

// merge overlays b on top of d: b's properties/filters take precedence,
// falling back to d's where b declares none.
func (d ElementDefinition) merge(b ElementDefinition) ElementDefinition {
	out := d.clone()
	if len(b.Properties) > 0 {
		out.Properties = append([]string(nil), b.Properties...)
	}
	if len(b.Filters) > 0 {
		out.Filters = append([]FilterPredicate(nil), b.Filters...)
	}
	return out
}

// GlobalDefinition is a wildcard/cross-group definition. It applies to every
// group named in Groups, or to every group in the view when Groups is empty.
// Global definitions must be expanded into concrete per-group rules before a
// view is dispatched.
type GlobalDefinition struct {
	Groups []string `json:"groups,omitempty"`
	ElementDefinition
}

// View declares, per element kind, which named groups are visible and what
// filtering applies. A view with no groups for either kind is treated as
// unset and deferred to a default.
type View struct {
	Entities map[string]ElementDefinition `json:"entities,omitempty"`
	Edges    map[string]ElementDefinition `json:"edges,omitempty"`

	GlobalElements []GlobalDefinition `json:"globalElements,omitempty"`
	GlobalEntities []GlobalDefinition `json:"globalEntities,omitempty"`
	GlobalEdges    []GlobalDefinition `json:"globalEdges,omitempty"`

	expanded bool
}

// New creates an empty view.
func New() *View {
	return &View{
		Entities: make(map[string]ElementDefinition),
		Edges:    make(map[string]ElementDefinition),
	}
}

// Groups builds a group map with empty definitions for the given names.
// Convenience for composing views in place of the removed builder API:
//
//	v := &view.View{Edges: view.Groups("BasicEdge")}
func Groups(names ...string) map[string]ElementDefinition {
	m := make(map[string]ElementDefinition, len(names))
	for _, n := range names {
		m[n] = ElementDefinition{}
	}
	return m
}

// FromJSON parses a view document. An empty document produces an unset view.
func FromJSON(data []byte) (*View, error) {
	v := New()
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, errors.WrapInvalid(err, "View", "FromJSON", "parse view document")
	}
	return v, nil
}

// ToJSON serialises the view document.
func (v *View) ToJSON() ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapFatal(err, "View", "ToJSON", "marshal view document")
	}
	return data, nil
}

// HasGroups reports whether the view declares any group for either kind.
// A view without groups is "unset" and defers to a default view.
func (v *View) HasGroups() bool {
	if v == nil {
		return false
	}
	return len(v.Entities) > 0 || len(v.Edges) > 0
}

// EntityGroups returns the sorted entity group names the view declares.
func (v *View) EntityGroups() []string {
	return sortedKeys(v.Entities)
}

// EdgeGroups returns the sorted edge group names the view declares.
func (v *View) EdgeGroups() []string {
	return sortedKeys(v.Edges)
}

// IncludesGroup reports whether the view makes the given kind/group visible.
func (v *View) IncludesGroup(kind element.Kind, group string) bool {
	if v == nil {
		return false
	}
	switch kind {
	case element.KindEntity:
		_, ok := v.Entities[group]
		return ok
	case element.KindEdge:
		_, ok := v.Edges[group]
		return ok
	default:
		return false
	}
}

// Definition returns the element definition for the given kind/group.
func (v *View) Definition(kind element.Kind, group string) (ElementDefinition, bool) {
	if v == nil {
		return ElementDefinition{}, false
	}
	if kind == element.KindEntity {
		d, ok := v.Entities[group]
		return d, ok
	}
	d, ok := v.Edges[group]
	return d, ok
}

// Clone returns a deep copy of the view.
func (v *View) Clone() *View {
	if v == nil {
		return nil
	}
	out := New()
	for g, d := range v.Entities {
		out.Entities[g] = d.clone()
	}
	for g, d := range v.Edges {
		out.Edges[g] = d.clone()
	}
	out.GlobalElements = cloneGlobals(v.GlobalElements)
	out.GlobalEntities = cloneGlobals(v.GlobalEntities)
	out.GlobalEdges = cloneGlobals(v.GlobalEdges)
	out.expanded = v.expanded
	return out
}

func cloneGlobals(in []GlobalDefinition) []GlobalDefinition {
	if in == nil {
		return nil
	}
	out := make([]GlobalDefinition, len(in))
	for i, g := range in {
		out[i] = GlobalDefinition{
			Groups:            append([]string(nil), g.Groups...),
			ElementDefinition: g.ElementDefinition.clone(),
		}
	}
	return out
}

// Merge combines two views into a new value: union of entity groups, union
// of edge groups, with b's per-group definitions overriding a's on conflict.
// Global definitions are concatenated. Neither input is modified.
func Merge(a, b *View) *View {
	out := a.Clone()
	if out == nil {
		out = New()
	}
	out.expanded = false
	if b == nil {
		return out
	}
	for g, d := range b.Entities {
		out.Entities[g] = d.clone()
	}
	for g, d := range b.Edges {
		out.Edges[g] = d.clone()
	}
	out.GlobalElements = append(out.GlobalElements, cloneGlobals(b.GlobalElements)...)
	out.GlobalEntities = append(out.GlobalEntities, cloneGlobals(b.GlobalEntities)...)
	out.GlobalEdges = append(out.GlobalEdges, cloneGlobals(b.GlobalEdges)...)
	return out
}

// ExpandGlobalDefinitions resolves wildcard/cross-group definitions into
// concrete per-group rules. It must run after the final merge and before
// dispatch; a second call is a no-op so a view is never expanded twice.
func (v *View) ExpandGlobalDefinitions() {
	if v == nil || v.expanded {
		return
	}
	v.expanded = true

	apply := func(groups map[string]ElementDefinition, globals []GlobalDefinition) {
		for _, g := range globals {
			targets := g.Groups
			if len(targets) == 0 {
				targets = make([]string, 0, len(groups))
				for name := range groups {
					targets = append(targets, name)
				}
			}
			for _, name := range targets {
				def, ok := groups[name]
				if !ok {
					continue // global definitions never add groups
				}
				groups[name] = def.merge(g.ElementDefinition)
			}
		}
	}

	apply(v.Entities, v.GlobalElements)
	apply(v.Edges, v.GlobalElements)
	apply(v.Entities, v.GlobalEntities)
	apply(v.Edges, v.GlobalEdges)

	v.GlobalElements = nil
	v.GlobalEntities = nil
	v.GlobalEdges = nil
}

// MissingGroup identifies one view group absent from a schema.
type MissingGroup struct {
	Kind  element.Kind
	Group string
}

// MissingGroups returns every group named in the view that does not exist in
// the schema, entity groups first then edge groups, each in sorted order.
// An empty result means the view is valid against the schema.
func (v *View) MissingGroups(s *schema.Schema) []MissingGroup {
	if v == nil {
		return nil
	}
	var missing []MissingGroup
	for _, g := range v.EntityGroups() {
		if !s.HasEntityGroup(g) {
			missing = append(missing, MissingGroup{Kind: element.KindEntity, Group: g})
		}
	}
	for _, g := range v.EdgeGroups() {
		if !s.HasEdgeGroup(g) {
			missing = append(missing, MissingGroup{Kind: element.KindEdge, Group: g})
		}
	}
	return missing
}

// FromSchema builds the default view containing every group in the schema.
func FromSchema(s *schema.Schema) *View {
	v := New()
	for _, g := range s.EntityGroups() {
		v.Entities[g] = ElementDefinition{}
	}
	for _, g := range s.EdgeGroups() {
		v.Edges[g] = ElementDefinition{}
	}
	return v
}

func sortedKeys(m map[string]ElementDefinition) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
