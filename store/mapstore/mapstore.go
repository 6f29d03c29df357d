// Package mapstore provides an in-memory Store backed by a mutex-guarded
// element slice. It is the reference constituent store for federations and
// for tests; it keeps the store's native return order (insertion order).
package mapstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dyna-dot/gaffer/element"
	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/schema"
	"github.com/dyna-dot/gaffer/store"
	"github.com/dyna-dot/gaffer/view"
)

// Store is an in-memory element store.
type Store struct {
	graphID    string
	schema     *schema.Schema
	properties *store.Properties
	logger     *slog.Logger

	mu       sync.RWMutex
	elements []element.Element
	closed   bool
}

// New creates a map store for the given graph id and schema.
func New(graphID string, sch *schema.Schema, props *store.Properties) (*Store, error) {
	if graphID == "" {
		return nil, errors.WrapInvalid(errors.ErrGraphIDRequired, "mapstore", "New", "create store")
	}
	if sch == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingSchema, "mapstore", "New", "create store")
	}
	if err := sch.Validate(); err != nil {
		return nil, err
	}
	if props == nil {
		props = store.NewProperties()
	}
	return &Store{
		graphID:    graphID,
		schema:     sch.Clone(),
		properties: props.Clone(),
		logger:     slog.Default().With("component", "mapstore", "graphId", graphID),
	}, nil
}

// GraphID returns the store's graph identifier.
func (s *Store) GraphID() string { return s.graphID }

// Schema returns the store's schema.
func (s *Store) Schema() *schema.Schema { return s.schema }

// Properties returns the store's configuration.
func (s *Store) Properties() *store.Properties { return s.properties }

// Execute runs the chain's operations in order. Get operations replace the
// current result; a chain ending in a void operation returns a nil Iterable.
func (s *Store) Execute(ctx context.Context, chain *operation.Chain, _ store.User) (operation.Iterable, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, errors.WrapFatal(errors.ErrStoreNotInitialised, "mapstore", "Execute", "store closed")
	}
	if chain == nil || len(chain.Operations) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyChain, "mapstore", "Execute", "run chain")
	}

	var result operation.Iterable
	for _, op := range chain.Operations {
		if err := ctx.Err(); err != nil {
			operation.CloseQuietly(result)
			return nil, errors.WrapTransient(err, "mapstore", "Execute", "context cancelled")
		}

		var err error
		switch o := op.(type) {
		case *operation.AddElements:
			err = s.addElements(o)
			result = nil
		case *operation.GetAllElements:
			operation.CloseQuietly(result)
			result = s.getElements(o.View(), nil)
		case *operation.GetElements:
			operation.CloseQuietly(result)
			result = s.getElements(o.View(), o.Seeds)
		default:
			err = errors.WrapInvalid(errors.ErrUnsupportedOp, "mapstore", "Execute", op.Name())
		}
		if err != nil {
			operation.CloseQuietly(result)
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) addElements(op *operation.AddElements) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, el := range op.Elements {
		if el == nil {
			return errors.WrapInvalid(errors.ErrInvalidChain, "mapstore", "addElements", "nil element")
		}
		if !s.groupInSchema(el) {
			return errors.WrapInvalid(errors.ErrInvalidChain, "mapstore", "addElements",
				fmt.Sprintf("%s group %s not in schema", el.Kind(), el.Group()))
		}
	}
	s.elements = append(s.elements, op.Elements...)
	s.logger.Debug("added elements", "count", len(op.Elements))
	return nil
}

func (s *Store) groupInSchema(el element.Element) bool {
	if el.Kind() == element.KindEntity {
		return s.schema.HasEntityGroup(el.Group())
	}
	return s.schema.HasEdgeGroup(el.Group())
}

// getElements snapshots matching elements under the read lock and returns
// them as a slice-backed iterable, preserving insertion order.
func (s *Store) getElements(v *view.View, seeds []any) operation.Iterable {
	if v == nil {
		v = view.FromSchema(s.schema)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []element.Element
	for _, el := range s.elements {
		if seeds != nil && !matchesSeed(el, seeds) {
			continue
		}
		if filtered, ok := v.Filter(el); ok {
			out = append(out, filtered)
		}
	}
	return operation.FromSlice(out)
}

func matchesSeed(el element.Element, seeds []any) bool {
	for _, seed := range seeds {
		switch e := el.(type) {
		case *element.Entity:
			if element.VertexEqual(e.Vertex, seed) {
				return true
			}
		case *element.Edge:
			if element.VertexEqual(e.Source, seed) || element.VertexEqual(e.Destination, seed) {
				return true
			}
		}
	}
	return false
}

// Close releases the store. Further Execute calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.elements = nil
	return nil
}
