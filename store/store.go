// Package store defines the contract between the execution core and any
// backing store: the Store interface a constituent graph implements, the
// properties document that configures one, and the user on whose behalf a
// chain executes.
package store

import (
	"context"

	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/schema"
)

// User identifies the caller executing an operation chain. Stores and hooks
// may use the auths for visibility decisions; the core only threads it
// through.
type User struct {
	ID    string   `json:"id"`
	Auths []string `json:"auths,omitempty"`
}

// Store is one backing store answering operation chains. Implementations
// own physical storage and element encoding; the core only orchestrates
// which stores answer and how answers combine.
//
// Execute returns a lazily-evaluated result for result-bearing chains and a
// nil Iterable for void chains. The caller owns the returned Iterable and
// must close it.
type Store interface {
	// GraphID returns the identifier this store is registered under.
	GraphID() string
	// Schema returns the authoritative group set for this store.
	Schema() *schema.Schema
	// Properties returns the configuration this store was built with.
	Properties() *Properties
	// Execute runs the chain against this store.
	Execute(ctx context.Context, chain *operation.Chain, user User) (operation.Iterable, error)
	// Close releases the store's resources.
	Close() error
}
