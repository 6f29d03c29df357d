package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityAccessors(t *testing.T) {
	e := NewEntity("BasicEntity", "a")
	e.Properties = Properties{"count": 1}

	assert.Equal(t, "BasicEntity", e.Group())
	assert.Equal(t, KindEntity, e.Kind())
	assert.Equal(t, Properties{"count": 1}, e.Props())
}

func TestEdgeAccessors(t *testing.T) {
	e := NewEdge("BasicEdge", "a", "b")

	assert.Equal(t, "BasicEdge", e.Group())
	assert.Equal(t, KindEdge, e.Kind())
	assert.True(t, e.Directed)
	assert.Nil(t, e.Props())
}

func TestEqualIsValueBased(t *testing.T) {
	tests := []struct {
		name string
		a, b Element
		want bool
	}{
		{
			name: "same entity from different sources",
			a:    NewEntity("G", "v1"),
			b:    NewEntity("G", "v1"),
			want: true,
		},
		{
			name: "different vertex",
			a:    NewEntity("G", "v1"),
			b:    NewEntity("G", "v2"),
			want: false,
		},
		{
			name: "different group",
			a:    NewEntity("G", "v1"),
			b:    NewEntity("H", "v1"),
			want: false,
		},
		{
			name: "entity vs edge",
			a:    NewEntity("G", "v1"),
			b:    NewEdge("G", "v1", "v2"),
			want: false,
		},
		{
			name: "same edge",
			a:    NewEdge("G", "a", "b"),
			b:    NewEdge("G", "a", "b"),
			want: true,
		},
		{
			name: "edge direction matters",
			a:    NewEdge("G", "a", "b"),
			b:    NewEdge("G", "b", "a"),
			want: false,
		},
		{
			name: "properties compared by value",
			a:    &Entity{GroupName: "G", Vertex: "v", Properties: Properties{"n": 1}},
			b:    &Entity{GroupName: "G", Vertex: "v", Properties: Properties{"n": 1}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestPropertiesClone(t *testing.T) {
	p := Properties{"a": 1}
	c := p.Clone()
	c["a"] = 2

	assert.Equal(t, 1, p["a"])
	assert.Nil(t, Properties(nil).Clone())
}

// foreignEntity is an Element implementation from outside this package.
type foreignEntity struct{ vertex any }

func (f *foreignEntity) Group() string     { return "G" }
func (f *foreignEntity) Kind() Kind        { return KindEntity }
func (f *foreignEntity) Props() Properties { return nil }

func TestEqualToleratesForeignImplementations(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.False(t, Equal(NewEntity("G", "v"), &foreignEntity{vertex: "v"}))
		assert.False(t, Equal(NewEdge("G", "a", "b"), &foreignEntity{vertex: "v"}))
	})
	assert.True(t, Equal(&foreignEntity{vertex: "v"}, &foreignEntity{vertex: "v"}))
}

func TestVertexEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same strings", "v", "v", true},
		{"different strings", "v", "w", false},
		{"int vs float64", 7, float64(7), true},
		{"int64 vs int", int64(7), 7, true},
		{"numeric mismatch", 7, 8.0, false},
		{"number vs string", 7, "7", false},
		{"slices compared structurally", []any{"a", 1.0}, []any{"a", 1.0}, true},
		{"nils", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VertexEqual(tt.a, tt.b))
		})
	}
}
