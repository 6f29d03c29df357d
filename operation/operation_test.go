package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyna-dot/gaffer/element"
	"github.com/dyna-dot/gaffer/view"
)

func TestOptionRead(t *testing.T) {
	op := NewGetAllElements(nil)

	_, ok := Option(op, "missing")
	assert.False(t, ok)

	op.SetOption("k", "v")
	got, ok := Option(op, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestChainName(t *testing.T) {
	c := NewChain(NewAddElements(), NewGetAllElements(nil))
	assert.Equal(t, "Chain[operation.AddElements->operation.GetAllElements]", c.Name())
}

func TestChainCloneIsDeep(t *testing.T) {
	v := &view.View{Edges: view.Groups("BasicEdge")}
	op := NewGetAllElements(v)
	op.SetOption("k", "v")
	c := NewChain(op)
	c.SetOption("chainOpt", "1")

	clone := c.Clone()

	// mutate the clone in every dimension
	cloneOp := clone.Operations[0].(*GetAllElements)
	cloneOp.SetOption("k", "changed")
	cloneOp.View().Edges["Extra"] = view.ElementDefinition{}
	clone.SetOption("chainOpt", "2")

	assert.Equal(t, "v", op.Opts["k"])
	assert.Equal(t, []string{"BasicEdge"}, op.View().EdgeGroups())
	assert.Equal(t, "1", c.Opts["chainOpt"])
}

func TestChainViewCarriers(t *testing.T) {
	c := NewChain(NewAddElements(), NewGetAllElements(nil), NewGetElements(nil, "a"))
	carriers := c.ViewCarriers()

	require.Len(t, carriers, 2)
	assert.Equal(t, "operation.GetAllElements", carriers[0].Name())
	assert.Equal(t, "operation.GetElements", carriers[1].Name())
}

type closableOp struct {
	GetAllElements
	closed bool
}

func (c *closableOp) Close() error {
	c.closed = true
	return nil
}

func TestChainCloseReleasesOperations(t *testing.T) {
	op := &closableOp{}
	c := NewChain(op)

	require.NoError(t, c.Close())
	assert.True(t, op.closed)
}

func TestOperationNames(t *testing.T) {
	assert.Equal(t, "operation.GetAllElements", NewGetAllElements(nil).Name())
	assert.Equal(t, "operation.GetElements", NewGetElements(nil).Name())
	assert.Equal(t, "operation.AddElements", NewAddElements().Name())
}

func TestGetElementsCloneCopiesSeeds(t *testing.T) {
	op := NewGetElements(nil, "a", "b")
	clone := op.Clone().(*GetElements)
	clone.Seeds[0] = "changed"

	assert.Equal(t, "a", op.Seeds[0])
}

func TestAddElementsCloneCopiesSlice(t *testing.T) {
	op := NewAddElements(element.NewEntity("E", "v"))
	clone := op.Clone().(*AddElements)
	clone.Elements[0] = element.NewEntity("E", "other")

	assert.Equal(t, "v", op.Elements[0].(*element.Entity).Vertex)
}
