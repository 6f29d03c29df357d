package federated

import (
	"fmt"
	"sync"

	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/store"
)

// registration is one constituent graph: a graph id bound to a live store.
type registration struct {
	graphID string
	store   store.Store
}

// registry holds constituent graphs in registration order. Registration
// normally happens at setup time; the read-write lock keeps late Add calls
// safe against concurrent query dispatch.
type registry struct {
	mu      sync.RWMutex
	ordered []*registration
	byID    map[string]*registration
}

func newRegistry() *registry {
	return &registry{byID: make(map[string]*registration)}
}

// add registers a graph. Registration is append-only: re-registering an
// existing id is an error, never an implicit overwrite.
func (r *registry) add(graphID string, st store.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[graphID]; exists {
		return errors.WrapInvalid(errors.ErrGraphExists, "FederatedStore", "Add", graphID)
	}
	reg := &registration{graphID: graphID, store: st}
	r.ordered = append(r.ordered, reg)
	r.byID[graphID] = reg
	return nil
}

// size returns the number of registered graphs.
func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// graphIDs returns ids in registration order.
func (r *registry) graphIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.ordered))
	for i, reg := range r.ordered {
		ids[i] = reg.graphID
	}
	return ids
}

// all returns every registration in registration order.
func (r *registry) all() []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*registration(nil), r.ordered...)
}

// select returns the registrations whose id appears in wanted, in
// registration order (not the order ids were listed). Selecting a
// nonexistent id is an error.
func (r *registry) selectGraphs(wanted []string) ([]*registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wantedSet := make(map[string]bool, len(wanted))
	for _, id := range wanted {
		if _, ok := r.byID[id]; !ok {
			return nil, errors.WrapInvalid(errors.ErrGraphNotFound, "FederatedStore", "selectGraphs",
				fmt.Sprintf("graphId %s", id))
		}
		wantedSet[id] = true
	}

	var out []*registration
	for _, reg := range r.ordered {
		if wantedSet[reg.graphID] {
			out = append(out, reg)
		}
	}
	return out, nil
}
