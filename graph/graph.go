// Package graph is the execution façade: it resolves each operation's view
// against the graph's default, runs ordered pre/post hooks around dispatch,
// and guarantees every chain and partial result is closed on failure. The
// backing store may be a single store or a federation.
package graph

import (
	"context"
	"log/slog"

	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/schema"
	"github.com/dyna-dot/gaffer/store"
	"github.com/dyna-dot/gaffer/store/mapstore"
	"github.com/dyna-dot/gaffer/store/sqlstore"
	"github.com/dyna-dot/gaffer/view"
)

// Graph wraps a store with view resolution and a hook pipeline.
type Graph struct {
	graphID     string
	description string
	schema      *schema.Schema
	store       store.Store
	defaultView *view.View
	hooks       []Hook
	logger      *slog.Logger
	jobs        *jobTracker
}

// New builds a graph from its configuration. Schema and properties missing
// from the config are resolved through the library (by the graph's own id,
// or by parent ids); the resolved pair is registered back into the library.
func New(cfg Config) (*Graph, error) {
	if cfg.GraphID == "" {
		return nil, errors.WrapInvalid(errors.ErrGraphIDRequired, "Graph", "New", "build graph")
	}

	sch, props, err := resolveSchemaAndProperties(cfg)
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Graph", "New", "validate schema")
	}

	st := cfg.Store
	if st == nil {
		if st, err = newStore(cfg.GraphID, sch, props); err != nil {
			return nil, err
		}
	}

	if cfg.Library != nil {
		if err := cfg.Library.Add(cfg.GraphID, sch, props); err != nil {
			return nil, err
		}
	}

	defaultView := cfg.View
	if defaultView == nil {
		defaultView = view.FromSchema(sch)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Graph{
		graphID:     cfg.GraphID,
		description: cfg.Description,
		schema:      sch,
		store:       st,
		defaultView: defaultView,
		hooks:       append([]Hook(nil), cfg.Hooks...),
		logger:      logger.With("component", "Graph", "graphId", cfg.GraphID),
		jobs:        newJobTracker(),
	}, nil
}

// resolveSchemaAndProperties fills the config's schema/properties from the
// library. Precedence: explicit config value, then parent id, then the
// graph's own library entry. An explicit schema merges over a parent schema.
func resolveSchemaAndProperties(cfg Config) (*schema.Schema, *store.Properties, error) {
	sch := cfg.Schema
	props := cfg.Properties

	if cfg.Library != nil {
		if cfg.ParentSchemaID != "" {
			parentSchema, _, err := cfg.Library.Get(cfg.ParentSchemaID)
			if err != nil {
				return nil, nil, err
			}
			if sch != nil {
				sch = schema.Merge(parentSchema, sch)
			} else {
				sch = parentSchema
			}
		}
		if cfg.ParentPropertiesID != "" && props == nil {
			_, parentProps, err := cfg.Library.Get(cfg.ParentPropertiesID)
			if err != nil {
				return nil, nil, err
			}
			props = parentProps
		}
		if sch == nil || props == nil {
			librarySchema, libraryProps, err := cfg.Library.Get(cfg.GraphID)
			if err == nil {
				if sch == nil {
					sch = librarySchema
				}
				if props == nil {
					props = libraryProps
				}
			} else if !errors.Is(err, errors.ErrKeyNotFound) {
				return nil, nil, err
			}
		}
	}

	if sch == nil {
		return nil, nil, errors.WrapInvalid(errors.ErrMissingSchema, "Graph", "New", cfg.GraphID)
	}
	if props == nil {
		props = store.NewProperties()
	}
	return sch, props, nil
}

// newStore builds a backing store from the configured store class.
func newStore(graphID string, sch *schema.Schema, props *store.Properties) (store.Store, error) {
	switch props.StoreClass() {
	case "", "mapstore":
		return mapstore.New(graphID, sch, props)
	case "sqlstore":
		return sqlstore.New(graphID, sch, props)
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Graph", "newStore",
			"unknown store class "+props.StoreClass())
	}
}

// GraphID returns the graph's identifier.
func (g *Graph) GraphID() string { return g.graphID }

// Description returns the configured description.
func (g *Graph) Description() string { return g.description }

// Schema returns the graph's schema.
func (g *Graph) Schema() *schema.Schema { return g.schema }

// DefaultView returns the view applied to operations that carry none.
func (g *Graph) DefaultView() *view.View { return g.defaultView }

// Execute resolves views, runs the hook pipeline around store dispatch, and
// returns the (possibly hook-transformed) result. On any failure the chain
// and any partial result are closed before the error propagates; no partial
// result is ever returned.
func (g *Graph) Execute(ctx context.Context, chain *operation.Chain, user store.User) (operation.Iterable, error) {
	if chain == nil || len(chain.Operations) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyChain, "Graph", "Execute", "run chain")
	}

	g.resolveViews(chain)

	for _, hook := range g.hooks {
		if err := hook.PreExecute(ctx, chain, user); err != nil {
			g.closeQuietly(chain, nil)
			return nil, errors.Wrap(err, "Graph", "Execute", "pre-execute hook "+hook.Name())
		}
	}

	result, err := g.store.Execute(ctx, chain, user)
	if err != nil {
		g.closeQuietly(chain, result)
		return nil, err
	}

	for _, hook := range g.hooks {
		transformed, herr := hook.PostExecute(ctx, result, chain, user)
		if herr != nil {
			// the result handed to the failing hook must still be
			// released, along with anything it returned
			if transformed != nil && transformed != result {
				operation.CloseQuietly(transformed)
			}
			g.closeQuietly(chain, result)
			return nil, errors.Wrap(herr, "Graph", "Execute", "post-execute hook "+hook.Name())
		}
		result = transformed
	}
	return result, nil
}

// resolveViews writes the effective view onto every view-carrying operation:
// absent means the default, present without groups means the default merged
// with the operation's filters, otherwise the operation's view stands. The
// effective view has its global definitions expanded exactly once.
func (g *Graph) resolveViews(chain *operation.Chain) {
	for _, vc := range chain.ViewCarriers() {
		var effective *view.View
		switch v := vc.View(); {
		case v == nil:
			effective = g.defaultView.Clone()
		case !v.HasGroups():
			effective = view.Merge(g.defaultView, v)
		default:
			effective = v
		}
		effective.ExpandGlobalDefinitions()
		vc.SetView(effective)
	}
}

func (g *Graph) closeQuietly(chain *operation.Chain, result operation.Iterable) {
	operation.CloseQuietly(result)
	if err := chain.Close(); err != nil {
		g.logger.Warn("failed to close chain", "chain", chain.Name(), "error", err)
	}
}

// Close releases the backing store.
func (g *Graph) Close() error {
	return g.store.Close()
}
