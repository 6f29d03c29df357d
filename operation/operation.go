// Package operation defines the unit of query work submitted to a store: a
// named operation with string options and, where relevant, an attached view.
// Operations compose into a Chain, which is the unit of execution and the
// unit closed on failure.
package operation

import (
	"github.com/dyna-dot/gaffer/view"
)

// Operation is a named unit of work with string options. Stores may mutate
// or optimise operations during execution, so every dispatch to an
// independent store works on a Clone.
type Operation interface {
	// Name returns the qualified operation name used in validation
	// reports, e.g. "operation.GetAllElements".
	Name() string
	// Options returns the operation's option map. May be nil.
	Options() map[string]string
	// SetOption sets a single option, allocating the map if needed.
	SetOption(key, value string)
	// Clone returns a deep copy of the operation.
	Clone() Operation
}

// ViewCarrier is implemented by operations that carry a view. The façade
// resolves the effective view onto the operation before dispatch.
type ViewCarrier interface {
	Operation
	View() *view.View
	SetView(*view.View)
}

// Closer is implemented by operations holding releasable resources, for
// example a streaming input. Chain.Close releases every such operation.
type Closer interface {
	Close() error
}

// options is the shared option-map behaviour embedded by every operation.
type options struct {
	Opts map[string]string `json:"options,omitempty"`
}

func (o *options) Options() map[string]string { return o.Opts }

func (o *options) SetOption(key, value string) {
	if o.Opts == nil {
		o.Opts = make(map[string]string)
	}
	o.Opts[key] = value
}

func (o *options) cloneOptions() options {
	if o.Opts == nil {
		return options{}
	}
	out := make(map[string]string, len(o.Opts))
	for k, v := range o.Opts {
		out[k] = v
	}
	return options{Opts: out}
}

// Option reads a single option from an operation, with ok reporting
// whether it was present.
func Option(op Operation, key string) (string, bool) {
	opts := op.Options()
	if opts == nil {
		return "", false
	}
	v, ok := opts[key]
	return v, ok
}
