package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyna-dot/gaffer/element"
)

func TestFilterVisibility(t *testing.T) {
	v := &View{Edges: Groups("BasicEdge")}

	_, ok := v.Filter(element.NewEntity("BasicEntity", "a"))
	assert.False(t, ok)

	edge, ok := v.Filter(element.NewEdge("BasicEdge", "a", "b"))
	assert.True(t, ok)
	assert.Equal(t, "BasicEdge", edge.Group())
}

func TestFilterPredicates(t *testing.T) {
	v := &View{
		Entities: map[string]ElementDefinition{
			"E": {Filters: []FilterPredicate{{Property: "count", Predicate: "gt", Value: 5}}},
		},
	}

	low := &element.Entity{GroupName: "E", Vertex: "a", Properties: element.Properties{"count": 3}}
	high := &element.Entity{GroupName: "E", Vertex: "b", Properties: element.Properties{"count": 9}}

	_, ok := v.Filter(low)
	assert.False(t, ok)

	_, ok = v.Filter(high)
	assert.True(t, ok)
}

func TestFilterPredicateKinds(t *testing.T) {
	props := element.Properties{"name": "x", "count": 4}

	tests := []struct {
		name string
		f    FilterPredicate
		want bool
	}{
		{"exists hit", FilterPredicate{Property: "name", Predicate: "exists"}, true},
		{"exists miss", FilterPredicate{Property: "ghost", Predicate: "exists"}, false},
		{"eq hit", FilterPredicate{Property: "name", Predicate: "eq", Value: "x"}, true},
		{"eq miss", FilterPredicate{Property: "name", Predicate: "eq", Value: "y"}, false},
		{"lt hit", FilterPredicate{Property: "count", Predicate: "lt", Value: 10}, true},
		{"gt miss", FilterPredicate{Property: "count", Predicate: "gt", Value: 10}, false},
		{"non numeric comparison rejected", FilterPredicate{Property: "name", Predicate: "gt", Value: 1}, false},
		{"unknown predicate fails closed", FilterPredicate{Property: "name", Predicate: "like"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.matches(props))
		})
	}
}

func TestFilterProjectionDoesNotMutateInput(t *testing.T) {
	v := &View{
		Edges: map[string]ElementDefinition{
			"F": {Properties: []string{"w"}},
		},
	}

	in := &element.Edge{
		GroupName:   "F",
		Source:      "a",
		Destination: "b",
		Properties:  element.Properties{"w": 1.5, "secret": "x"},
	}

	out, ok := v.Filter(in)
	require.True(t, ok)

	outEdge := out.(*element.Edge)
	assert.Equal(t, element.Properties{"w": 1.5}, outEdge.Properties)
	// original retains all properties
	assert.Contains(t, in.Properties, "secret")
}
