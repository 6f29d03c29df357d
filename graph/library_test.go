package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/schema"
	"github.com/dyna-dot/gaffer/store"
)

func libraries(t *testing.T) map[string]Library {
	t.Helper()
	fileLib, err := NewFileLibrary(t.TempDir())
	require.NoError(t, err)
	return map[string]Library{
		"memory": NewMemoryLibrary(),
		"file":   fileLib,
	}
}

func TestLibraryRoundTrip(t *testing.T) {
	for name, lib := range libraries(t) {
		t.Run(name, func(t *testing.T) {
			props := store.PropertiesFrom(map[string]string{store.PropStoreClass: "mapstore"})
			require.NoError(t, lib.Add("g1", testSchema(), props))

			sch, gotProps, err := lib.Get("g1")
			require.NoError(t, err)
			assert.True(t, sch.HasEdgeGroup("BasicEdge"))
			assert.Equal(t, "mapstore", gotProps.StoreClass())
		})
	}
}

func TestLibraryUnknownGraph(t *testing.T) {
	for name, lib := range libraries(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := lib.Get("missing")
			assert.ErrorIs(t, err, errors.ErrKeyNotFound)
		})
	}
}

func TestLibraryAddIsAppendOnly(t *testing.T) {
	for name, lib := range libraries(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, lib.Add("g1", testSchema(), nil))

			// identical content is a no-op
			require.NoError(t, lib.Add("g1", testSchema(), nil))

			// different content is rejected
			other := schema.New()
			other.Entities["Other"] = schema.ElementDefinition{}
			err := lib.Add("g1", other, nil)
			assert.ErrorIs(t, err, errors.ErrLibraryMismatch)
		})
	}
}

func TestLibraryRejectsMissingSchema(t *testing.T) {
	for name, lib := range libraries(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, lib.Add("g1", nil, nil), errors.ErrMissingSchema)
			assert.ErrorIs(t, lib.Add("", testSchema(), nil), errors.ErrGraphIDRequired)
		})
	}
}
