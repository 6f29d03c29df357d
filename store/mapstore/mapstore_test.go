package mapstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyna-dot/gaffer/element"
	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/schema"
	"github.com/dyna-dot/gaffer/store"
	"github.com/dyna-dot/gaffer/view"
)

func testSchema() *schema.Schema {
	s := schema.New()
	s.Entities["BasicEntity"] = schema.ElementDefinition{}
	s.Edges["BasicEdge"] = schema.ElementDefinition{}
	return s
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("graphA", testSchema(), nil)
	require.NoError(t, err)
	return s
}

func TestNewRequiresIDAndSchema(t *testing.T) {
	_, err := New("", testSchema(), nil)
	assert.Error(t, err)

	_, err = New("g", nil, nil)
	assert.Error(t, err)
}

func TestAddThenGetAll(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Execute(ctx, operation.NewChain(
		operation.NewAddElements(element.NewEdge("BasicEdge", "a", "b")),
	), store.User{ID: "tester"})
	require.NoError(t, err)

	got, err := s.Execute(ctx, operation.NewChain(
		operation.NewGetAllElements(&view.View{Edges: view.Groups("BasicEdge")}),
	), store.User{ID: "tester"})
	require.NoError(t, err)

	elements, err := operation.Collect(got)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "BasicEdge", elements[0].Group())
}

func TestViewHidesUnrelatedGroups(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Execute(ctx, operation.NewChain(
		operation.NewAddElements(element.NewEntity("BasicEntity", "a")),
	), store.User{})
	require.NoError(t, err)

	got, err := s.Execute(ctx, operation.NewChain(
		operation.NewGetAllElements(&view.View{Edges: view.Groups("BasicEdge")}),
	), store.User{})
	require.NoError(t, err)

	elements, err := operation.Collect(got)
	require.NoError(t, err)
	assert.Empty(t, elements)
}

func TestNilViewDefaultsToFullSchema(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Execute(ctx, operation.NewChain(operation.NewAddElements(
		element.NewEntity("BasicEntity", "a"),
		element.NewEdge("BasicEdge", "a", "b"),
	)), store.User{})
	require.NoError(t, err)

	got, err := s.Execute(ctx, operation.NewChain(operation.NewGetAllElements(nil)), store.User{})
	require.NoError(t, err)

	elements, err := operation.Collect(got)
	require.NoError(t, err)
	assert.Len(t, elements, 2)
}

func TestGetElementsBySeed(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Execute(ctx, operation.NewChain(operation.NewAddElements(
		element.NewEntity("BasicEntity", "a"),
		element.NewEntity("BasicEntity", "b"),
		element.NewEdge("BasicEdge", "a", "c"),
		element.NewEdge("BasicEdge", "x", "y"),
	)), store.User{})
	require.NoError(t, err)

	got, err := s.Execute(ctx, operation.NewChain(operation.NewGetElements(nil, "a")), store.User{})
	require.NoError(t, err)

	elements, err := operation.Collect(got)
	require.NoError(t, err)
	// entity on "a" plus edge touching "a"
	assert.Len(t, elements, 2)
}

func TestAddRejectsGroupOutsideSchema(t *testing.T) {
	s := newStore(t)

	_, err := s.Execute(context.Background(), operation.NewChain(
		operation.NewAddElements(element.NewEntity("Ghost", "a")),
	), store.User{})
	assert.Error(t, err)
}

func TestEmptyChainRejected(t *testing.T) {
	s := newStore(t)
	_, err := s.Execute(context.Background(), operation.NewChain(), store.User{})
	assert.Error(t, err)
}

func TestExecuteAfterCloseFails(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Close())

	_, err := s.Execute(context.Background(), operation.NewChain(operation.NewGetAllElements(nil)), store.User{})
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Execute(ctx, operation.NewChain(operation.NewGetAllElements(nil)), store.User{})
	assert.Error(t, err)
}
