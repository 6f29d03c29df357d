package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	doc := []byte(`{
		"entities": {
			"BasicEntity": {"properties": {"count": "int"}}
		},
		"edges": {
			"BasicEdge": {"description": "a to b"}
		}
	}`)

	s, err := FromJSON(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"BasicEntity"}, s.EntityGroups())
	assert.Equal(t, []string{"BasicEdge"}, s.EdgeGroups())
	assert.True(t, s.HasEntityGroup("BasicEntity"))
	assert.False(t, s.HasEdgeGroup("BasicEntity"))
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	_, err := FromJSON([]byte("{not json"))
	require.Error(t, err)
}

func TestMergeOverridesAndUnions(t *testing.T) {
	a := New()
	a.Entities["E1"] = ElementDefinition{Description: "from a"}
	a.Edges["F1"] = ElementDefinition{}

	b := New()
	b.Entities["E1"] = ElementDefinition{Description: "from b"}
	b.Entities["E2"] = ElementDefinition{}

	merged := Merge(a, b)

	assert.Equal(t, []string{"E1", "E2"}, merged.EntityGroups())
	assert.Equal(t, []string{"F1"}, merged.EdgeGroups())
	assert.Equal(t, "from b", merged.Entities["E1"].Description)

	// inputs untouched
	assert.Equal(t, "from a", a.Entities["E1"].Description)
	assert.Len(t, b.Edges, 0)
}

func TestMergeNilInputs(t *testing.T) {
	b := New()
	b.Edges["F"] = ElementDefinition{}

	merged := Merge(nil, b)
	assert.Equal(t, []string{"F"}, merged.EdgeGroups())

	merged = Merge(b, nil)
	assert.Equal(t, []string{"F"}, merged.EdgeGroups())
}

func TestCloneIsDeep(t *testing.T) {
	s := New()
	s.Entities["E"] = ElementDefinition{Properties: map[string]string{"p": "string"}}

	c := s.Clone()
	c.Entities["E"].Properties["p"] = "int"
	c.Entities["E2"] = ElementDefinition{}

	assert.Equal(t, "string", s.Entities["E"].Properties["p"])
	assert.False(t, s.HasEntityGroup("E2"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *Schema
		wantErr bool
	}{
		{
			name:  "valid",
			build: func() *Schema { s := New(); s.Entities["E"] = ElementDefinition{}; return s },
		},
		{
			name:    "empty entity group name",
			build:   func() *Schema { s := New(); s.Entities[""] = ElementDefinition{}; return s },
			wantErr: true,
		},
		{
			name: "group in both kinds",
			build: func() *Schema {
				s := New()
				s.Entities["G"] = ElementDefinition{}
				s.Edges["G"] = ElementDefinition{}
				return s
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoundTripJSON(t *testing.T) {
	s := New()
	s.Edges["F"] = ElementDefinition{Description: "edge"}

	data, err := s.ToJSON()
	require.NoError(t, err)

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.True(t, back.HasEdgeGroup("F"))
}
