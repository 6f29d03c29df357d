// Package element provides the data model shared by every store: entities
// attached to a single vertex and directed edges between two vertices, each
// belonging to a named group with free-form properties.
package element

import (
	"fmt"
	"reflect"
)

// Kind discriminates the two element shapes.
type Kind string

const (
	// KindEntity is a node-like element attached to one vertex.
	KindEntity Kind = "Entity"
	// KindEdge is a relationship-like element between two vertices.
	KindEdge Kind = "Edge"
)

// Properties holds the free-form key/value payload of an element.
type Properties map[string]any

// Clone returns a shallow copy of the properties map.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Element is any graph element. Implementations are Entity and Edge.
type Element interface {
	// Group returns the named element group this element belongs to.
	Group() string
	// Kind reports whether this is an entity or an edge.
	Kind() Kind
	// Props returns the element's property map. May be nil.
	Props() Properties
}

// Entity is a node-like element.
type Entity struct {
	GroupName  string     `json:"group"`
	Vertex     any        `json:"vertex"`
	Properties Properties `json:"properties,omitempty"`
}

// NewEntity creates an entity in the given group attached to vertex.
func NewEntity(group string, vertex any) *Entity {
	return &Entity{GroupName: group, Vertex: vertex}
}

// Group returns the entity group name.
func (e *Entity) Group() string { return e.GroupName }

// Kind returns KindEntity.
func (e *Entity) Kind() Kind { return KindEntity }

// Props returns the entity properties.
func (e *Entity) Props() Properties { return e.Properties }

func (e *Entity) String() string {
	return fmt.Sprintf("Entity{group=%s, vertex=%v}", e.GroupName, e.Vertex)
}

// Edge is a relationship-like element between a source and destination vertex.
type Edge struct {
	GroupName   string     `json:"group"`
	Source      any        `json:"source"`
	Destination any        `json:"destination"`
	Directed    bool       `json:"directed"`
	Properties  Properties `json:"properties,omitempty"`
}

// NewEdge creates a directed edge in the given group from source to destination.
func NewEdge(group string, source, destination any) *Edge {
	return &Edge{GroupName: group, Source: source, Destination: destination, Directed: true}
}

// Group returns the edge group name.
func (e *Edge) Group() string { return e.GroupName }

// Kind returns KindEdge.
func (e *Edge) Kind() Kind { return KindEdge }

// Props returns the edge properties.
func (e *Edge) Props() Properties { return e.Properties }

func (e *Edge) String() string {
	return fmt.Sprintf("Edge{group=%s, source=%v, destination=%v, directed=%t}",
		e.GroupName, e.Source, e.Destination, e.Directed)
}

// Equal reports structural equality between two elements. Identity is
// value-based: two elements from different stores with the same group,
// vertices and properties are the same element.
func Equal(a, b Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() || a.Group() != b.Group() {
		return false
	}
	switch ae := a.(type) {
	case *Entity:
		if be, ok := b.(*Entity); ok {
			return reflect.DeepEqual(ae.Vertex, be.Vertex) &&
				reflect.DeepEqual(ae.Properties, be.Properties)
		}
	case *Edge:
		if be, ok := b.(*Edge); ok {
			return ae.Directed == be.Directed &&
				reflect.DeepEqual(ae.Source, be.Source) &&
				reflect.DeepEqual(ae.Destination, be.Destination) &&
				reflect.DeepEqual(ae.Properties, be.Properties)
		}
	}
	return reflect.DeepEqual(a, b)
}

// VertexEqual reports whether two vertex values identify the same vertex.
// Numeric values compare by value regardless of Go type, so a vertex decoded
// from a JSON document as float64 still matches the int it was stored as.
// Non-numeric values compare structurally.
func VertexEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
