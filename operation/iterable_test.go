package operation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyna-dot/gaffer/element"
)

func elems(vertices ...string) []element.Element {
	out := make([]element.Element, len(vertices))
	for i, v := range vertices {
		out[i] = element.NewEntity("E", v)
	}
	return out
}

func TestEmptyIterable(t *testing.T) {
	it := Empty()
	_, ok := it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Close())
}

func TestSliceIterable(t *testing.T) {
	it := FromSlice(elems("a", "b"))

	got, err := Collect(it)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSliceIterableStopsAfterClose(t *testing.T) {
	it := FromSlice(elems("a", "b"))
	_, ok := it.Next()
	require.True(t, ok)

	require.NoError(t, it.Close())
	_, ok = it.Next()
	assert.False(t, ok)
}

type trackingIterable struct {
	Iterable
	closed bool
}

func (tr *trackingIterable) Close() error {
	tr.closed = true
	return tr.Iterable.Close()
}

func TestConcatPreservesOrderAcrossSources(t *testing.T) {
	it := Concat(FromSlice(elems("a1", "a2")), FromSlice(elems("b1")))

	got, err := Collect(it)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a1", got[0].(*element.Entity).Vertex)
	assert.Equal(t, "a2", got[1].(*element.Entity).Vertex)
	assert.Equal(t, "b1", got[2].(*element.Entity).Vertex)
}

func TestConcatCloseClosesEveryUnderlying(t *testing.T) {
	a := &trackingIterable{Iterable: FromSlice(elems("a"))}
	b := &trackingIterable{Iterable: FromSlice(elems("b"))}
	it := Concat(a, b)

	// pull a single element, so b is never iterated
	_, ok := it.Next()
	require.True(t, ok)

	require.NoError(t, it.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)

	_, ok = it.Next()
	assert.False(t, ok)
}

func TestLazyOpensOnFirstPullOnly(t *testing.T) {
	opened := 0
	it := Lazy(func() (Iterable, error) {
		opened++
		return FromSlice(elems("a")), nil
	})

	assert.Equal(t, 0, opened)

	_, ok := it.Next()
	assert.True(t, ok)
	_, ok = it.Next()
	assert.False(t, ok)
	assert.Equal(t, 1, opened)
	assert.NoError(t, it.Close())
}

func TestLazyNeverOpensWhenClosedFirst(t *testing.T) {
	opened := false
	it := Lazy(func() (Iterable, error) {
		opened = true
		return FromSlice(nil), nil
	})

	require.NoError(t, it.Close())
	_, ok := it.Next()
	assert.False(t, ok)
	assert.False(t, opened)
}

func TestCollectSurfacesLazyOpenError(t *testing.T) {
	boom := errors.New("boom")
	it := Lazy(func() (Iterable, error) { return nil, boom })

	_, err := Collect(it)
	assert.ErrorIs(t, err, boom)
}

// failingIterable ends mid-stream with an error instead of a clean stop.
type failingIterable struct {
	elements []element.Element
	pos      int
	err      error
	closed   bool
}

func (f *failingIterable) Next() (element.Element, bool) {
	if f.closed || f.pos >= len(f.elements) {
		return nil, false
	}
	el := f.elements[f.pos]
	f.pos++
	return el, true
}

func (f *failingIterable) Err() error   { return f.err }
func (f *failingIterable) Close() error { f.closed = true; return nil }

func TestCollectSurfacesStreamError(t *testing.T) {
	streamErr := errors.New("cursor broke")
	it := &failingIterable{elements: elems("a"), err: streamErr}

	_, err := Collect(it)
	require.Error(t, err)
	assert.ErrorIs(t, err, streamErr)
	assert.True(t, it.closed)
}

func TestConcatPropagatesStreamError(t *testing.T) {
	streamErr := errors.New("cursor broke")
	merged := Concat(
		FromSlice(elems("a")),
		&failingIterable{err: streamErr},
	)

	_, err := Collect(merged)
	assert.ErrorIs(t, err, streamErr)
}

func TestLazyPropagatesInnerStreamError(t *testing.T) {
	streamErr := errors.New("cursor broke")
	it := Lazy(func() (Iterable, error) {
		return &failingIterable{err: streamErr}, nil
	})

	_, err := Collect(it)
	assert.ErrorIs(t, err, streamErr)
}

func TestErrNilForPlainIterables(t *testing.T) {
	assert.NoError(t, Err(FromSlice(elems("a"))))
	assert.NoError(t, Err(Empty()))
}
