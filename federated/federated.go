// Package federated implements a Store that is a composite of N registered
// constituent stores. Executing a chain selects a subset of graphs,
// validates every view against each selected schema, dispatches clones of
// the chain concurrently, and merges the per-graph answers into one lazy
// closable result in registration order.
package federated

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dyna-dot/gaffer/element"
	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/metric"
	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/schema"
	"github.com/dyna-dot/gaffer/store"
)

// Chain option keys understood by the federated store.
const (
	// KeyOperationGraphIDs restricts execution to a comma-separated list
	// of graph ids. Absent means all registered graphs.
	KeyOperationGraphIDs = "gaffer.federatedstore.operation.graphIds"
	// KeySkipFailedExecute, when "true", tolerates dispatch failures on
	// individual graphs and merges the answers of those that succeeded.
	// Best-effort is an explicit per-chain choice, never the default.
	KeySkipFailedExecute = "gaffer.federatedstore.operation.skipFailedFederatedStoreExecute"
)

// Store fans operation chains out to selected constituent graphs.
type Store struct {
	graphID    string
	properties *store.Properties
	registry   *registry
	logger     *slog.Logger
	metrics    *metric.Metrics
}

// Option configures a federated store.
type Option func(*Store)

// WithMetrics instruments the store with the registry's core metrics.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Store) {
		if reg != nil {
			s.metrics = reg.Metrics
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With("component", "FederatedStore")
		}
	}
}

// New creates an empty federation.
func New(graphID string, props *store.Properties, opts ...Option) (*Store, error) {
	if graphID == "" {
		return nil, errors.WrapInvalid(errors.ErrGraphIDRequired, "FederatedStore", "New", "create store")
	}
	if props == nil {
		props = store.NewProperties()
	}
	s := &Store{
		graphID:    graphID,
		properties: props.Clone(),
		registry:   newRegistry(),
		logger:     slog.Default().With("component", "FederatedStore", "graphId", graphID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Add registers a constituent graph. Graph ids are unique within the
// federation and registration is append-only.
func (s *Store) Add(graphID string, st store.Store) error {
	if graphID == "" {
		return errors.WrapInvalid(errors.ErrGraphIDRequired, "FederatedStore", "Add", "register graph")
	}
	if st == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "FederatedStore", "Add", "nil store")
	}
	if err := s.registry.add(graphID, st); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RegisteredGraphs.Set(float64(s.registry.size()))
	}
	s.logger.Debug("registered constituent graph", "constituent", graphID)
	return nil
}

// GraphID returns the federation's own graph identifier.
func (s *Store) GraphID() string { return s.graphID }

// Properties returns the federation's configuration.
func (s *Store) Properties() *store.Properties { return s.properties }

// GraphIDs returns the registered constituent graph ids in registration order.
func (s *Store) GraphIDs() []string { return s.registry.graphIDs() }

// Schema returns the merged schema across every constituent graph.
func (s *Store) Schema() *schema.Schema {
	merged := schema.New()
	for _, reg := range s.registry.all() {
		merged = schema.Merge(merged, reg.store.Schema())
	}
	return merged
}

// Execute runs the chain against the selected constituent graphs and merges
// their answers. For a result-bearing chain the merged Iterable concatenates
// per-graph results in registration order and stays lazy; closing it closes
// every per-graph result, iterated or not. For a void chain Execute returns
// a nil Iterable.
func (s *Store) Execute(ctx context.Context, chain *operation.Chain, user store.User) (operation.Iterable, error) {
	if chain == nil || len(chain.Operations) == 0 {
		s.countChain("error")
		return nil, errors.WrapInvalid(errors.ErrEmptyChain, "FederatedStore", "Execute", "run chain")
	}

	selected, err := s.selectGraphs(chain)
	if err != nil {
		s.countChain("error")
		return nil, err
	}

	if err := validateChain(chain, selected); err != nil {
		s.countChain("validation_error")
		return nil, err
	}

	results, err := s.dispatch(ctx, chain, user, selected)
	if err != nil {
		s.countChain("error")
		return nil, err
	}

	s.countChain("success")
	return s.merge(chain, results), nil
}

// selectGraphs resolves the chain's graph restriction to a registration
// subset. The option is read from the chain itself first, then from its
// operations, so callers may set it at either level.
func (s *Store) selectGraphs(chain *operation.Chain) ([]*registration, error) {
	csv, ok := optionFromChain(chain, KeyOperationGraphIDs)
	if !ok || strings.TrimSpace(csv) == "" {
		return s.registry.all(), nil
	}

	var wanted []string
	for _, id := range strings.Split(csv, ",") {
		if id = strings.TrimSpace(id); id != "" {
			wanted = append(wanted, id)
		}
	}
	// an option carrying only separators and whitespace restricts nothing
	if len(wanted) == 0 {
		return s.registry.all(), nil
	}
	return s.registry.selectGraphs(wanted)
}

func optionFromChain(chain *operation.Chain, key string) (string, bool) {
	if v, ok := chain.Opts[key]; ok {
		return v, true
	}
	for _, op := range chain.Operations {
		if v, ok := operation.Option(op, key); ok {
			return v, true
		}
	}
	return "", false
}

// graphResult is one graph's contribution, in selection (registration)
// order. Exactly one of result/err is meaningful; both nil is a void chain.
type graphResult struct {
	graphID string
	result  operation.Iterable
	err     error
}

// dispatch executes a clone of the chain against every selected graph
// concurrently, acting as a fan-out/fan-in barrier: it waits for every
// per-graph task before merging or failing. A failure on one graph never
// cancels siblings already running; unless the chain opts into best-effort
// execution, any failure closes every opened result and aborts.
func (s *Store) dispatch(ctx context.Context, chain *operation.Chain, user store.User,
	selected []*registration) ([]graphResult, error) {

	s.logger.Debug("dispatching chain", "chain", chain.Name(), "graphs", len(selected))
	results := make([]graphResult, len(selected))

	var g errgroup.Group
	for i, reg := range selected {
		i, reg := i, reg
		g.Go(func() error {
			start := time.Now()
			clone := chain.Clone()
			partitionAddElements(clone, reg.store.Schema())
			res, err := reg.store.Execute(ctx, clone, user)
			if s.metrics != nil {
				s.metrics.DispatchDuration.WithLabelValues(reg.graphID).
					Observe(time.Since(start).Seconds())
			}
			if err != nil {
				if s.metrics != nil {
					s.metrics.GraphFailures.WithLabelValues(reg.graphID).Inc()
				}
				err = errors.Wrap(err, "FederatedStore", "dispatch",
					fmt.Sprintf("execute on graph %s", reg.graphID))
			}
			results[i] = graphResult{graphID: reg.graphID, result: res, err: err}
			return nil
		})
	}
	// closures record per-graph outcomes instead of returning errors, so
	// Wait is purely the barrier
	_ = g.Wait()

	skipFailed, _ := optionFromChain(chain, KeySkipFailedExecute)
	if skipFailed == "true" {
		return s.dropFailed(results), nil
	}

	var failed []string
	var firstErr error
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, r.graphID)
			if firstErr == nil {
				firstErr = r.err
			}
		}
	}
	if firstErr == nil {
		return results, nil
	}

	// release everything opened before propagating
	for _, r := range results {
		operation.CloseQuietly(r.result)
	}
	if err := chain.Close(); err != nil {
		s.logger.Warn("failed to close chain after dispatch error", "error", err)
	}
	if len(failed) > 1 {
		return nil, errors.WrapTransient(firstErr, "FederatedStore", "dispatch",
			fmt.Sprintf("graphs [%s]", strings.Join(failed, ",")))
	}
	return nil, firstErr
}

// partitionAddElements narrows every AddElements in the (already cloned)
// chain to the elements the graph's schema can hold, so ingest into a
// federation routes each element to the graphs that know its group.
func partitionAddElements(chain *operation.Chain, sch *schema.Schema) {
	for _, op := range chain.Operations {
		add, ok := op.(*operation.AddElements)
		if !ok {
			continue
		}
		kept := add.Elements[:0]
		for _, el := range add.Elements {
			if el == nil {
				continue
			}
			inSchema := sch.HasEntityGroup(el.Group())
			if el.Kind() == element.KindEdge {
				inSchema = sch.HasEdgeGroup(el.Group())
			}
			if inSchema {
				kept = append(kept, el)
			}
		}
		add.Elements = kept
	}
}

func (s *Store) dropFailed(results []graphResult) []graphResult {
	kept := results[:0]
	for _, r := range results {
		if r.err != nil {
			s.logger.Warn("skipping failed constituent graph", "constituent", r.graphID, "error", r.err)
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// merge concatenates per-graph results in registration order. No cross-graph
// deduplication: the same element held by two graphs appears twice. A void
// chain merges to nil: all graphs succeeded or dispatch already reported
// which did not.
func (s *Store) merge(chain *operation.Chain, results []graphResult) operation.Iterable {
	if isVoidChain(chain) {
		for _, r := range results {
			operation.CloseQuietly(r.result)
		}
		return nil
	}

	var iterables []operation.Iterable
	for _, r := range results {
		if r.result != nil {
			iterables = append(iterables, r.result)
		}
	}

	merged := operation.Concat(iterables...)
	if s.metrics == nil {
		return merged
	}
	s.metrics.OpenResults.Inc()
	return &gaugedIterable{Iterable: merged, gaugeDec: s.metrics.OpenResults.Dec}
}

// isVoidChain reports whether the chain produces no result stream: its last
// operation is not result-bearing.
func isVoidChain(chain *operation.Chain) bool {
	last := chain.Operations[len(chain.Operations)-1]
	_, isAdd := last.(*operation.AddElements)
	return isAdd
}

// gaugedIterable decrements the open-results gauge exactly once on close.
type gaugedIterable struct {
	operation.Iterable
	gaugeDec func()
	done     bool
}

// Err exposes the merged result's stream error.
func (g *gaugedIterable) Err() error {
	return operation.Err(g.Iterable)
}

func (g *gaugedIterable) Close() error {
	if !g.done {
		g.done = true
		g.gaugeDec()
	}
	return g.Iterable.Close()
}

func (s *Store) countChain(status string) {
	if s.metrics != nil {
		s.metrics.ChainsExecuted.WithLabelValues(status).Inc()
	}
}

// Close closes every constituent store, reporting the first failure.
func (s *Store) Close() error {
	var firstErr error
	for _, reg := range s.registry.all() {
		if err := reg.store.Close(); err != nil && firstErr == nil {
			firstErr = errors.WrapTransient(err, "FederatedStore", "Close",
				fmt.Sprintf("close graph %s", reg.graphID))
		}
	}
	return firstErr
}
