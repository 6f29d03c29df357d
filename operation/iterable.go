package operation

import (
	"sync"

	"github.com/dyna-dot/gaffer/element"
	"github.com/dyna-dot/gaffer/errors"
)

// Iterable is a lazily-evaluated, closable sequence of elements. Callers
// must Close the iterable even if it is never fully iterated.
type Iterable interface {
	// Next returns the next element, or ok=false when the sequence is
	// exhausted or closed.
	Next() (element.Element, bool)
	// Close releases every resource backing the sequence. Safe to call
	// more than once.
	Close() error
}

// Empty returns an iterable yielding nothing.
func Empty() Iterable { return emptyIterable{} }

type emptyIterable struct{}

func (emptyIterable) Next() (element.Element, bool) { return nil, false }
func (emptyIterable) Close() error                  { return nil }

// FromSlice wraps a materialised slice as an Iterable.
func FromSlice(elements []element.Element) Iterable {
	return &sliceIterable{elements: elements}
}

type sliceIterable struct {
	elements []element.Element
	pos      int
	closed   bool
}

func (s *sliceIterable) Next() (element.Element, bool) {
	if s.closed || s.pos >= len(s.elements) {
		return nil, false
	}
	el := s.elements[s.pos]
	s.pos++
	return el, true
}

func (s *sliceIterable) Close() error {
	s.closed = true
	return nil
}

// Lazy defers opening an underlying iterable until the first Next call.
// Closing before the first pull skips opening entirely and the open
// function is never invoked.
func Lazy(open func() (Iterable, error)) Iterable {
	return &lazyIterable{open: open}
}

type lazyIterable struct {
	open    func() (Iterable, error)
	inner   Iterable
	openErr error
	closed  bool
}

func (l *lazyIterable) Next() (element.Element, bool) {
	if l.closed || l.openErr != nil {
		return nil, false
	}
	if l.inner == nil {
		l.inner, l.openErr = l.open()
		if l.openErr != nil {
			return nil, false
		}
	}
	return l.inner.Next()
}

// Err returns the error raised when opening the underlying iterable, or the
// underlying iterable's own stream error.
func (l *lazyIterable) Err() error {
	if l.openErr != nil {
		return l.openErr
	}
	return Err(l.inner)
}

func (l *lazyIterable) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	if l.inner != nil {
		return l.inner.Close()
	}
	return nil
}

// Concat chains iterables into one lazy sequence. Iteration pulls from one
// underlying iterable at a time, in order. Close closes every underlying
// iterable, including those never iterated, and reports the first close
// failure without masking the rest.
func Concat(iterables ...Iterable) Iterable {
	return &concatIterable{iterables: iterables}
}

type concatIterable struct {
	mu        sync.Mutex
	iterables []Iterable
	pos       int
	closed    bool
}

func (c *concatIterable) Next() (element.Element, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false
	}
	for c.pos < len(c.iterables) {
		if el, ok := c.iterables[c.pos].Next(); ok {
			return el, true
		}
		c.pos++
	}
	return nil, false
}

// Err returns the first stream error among the underlying iterables.
func (c *concatIterable) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range c.iterables {
		if err := Err(it); err != nil {
			return err
		}
	}
	return nil
}

func (c *concatIterable) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	for _, it := range c.iterables {
		if err := it.Close(); err != nil && firstErr == nil {
			firstErr = errors.WrapTransient(err, "Iterable", "Close", "close underlying result")
		}
	}
	return firstErr
}

// errorCarrier is implemented by iterables that can fail mid-stream instead
// of ending cleanly.
type errorCarrier interface {
	Err() error
}

// Err returns the stream error carried by the iterable, if it carries one.
func Err(it Iterable) error {
	if c, ok := it.(errorCarrier); ok {
		return c.Err()
	}
	return nil
}

// Collect drains an iterable into a slice and closes it. A stream error
// reported through Err surfaces instead of the partial slice.
func Collect(it Iterable) ([]element.Element, error) {
	defer it.Close()

	var out []element.Element
	for {
		el, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, el)
	}
	if err := Err(it); err != nil {
		return nil, err
	}
	return out, nil
}

// CloseQuietly closes an iterable when failure to close must not mask a
// primary error already being propagated.
func CloseQuietly(it Iterable) {
	if it != nil {
		_ = it.Close()
	}
}
