package operation

import (
	"strings"
)

// Chain is an ordered sequence of operations where the output of one feeds
// the next. The chain as a whole is the unit submitted for execution and the
// unit closed on failure.
type Chain struct {
	Operations []Operation
	options
}

// NewChain builds a chain over the given operations, in order.
func NewChain(ops ...Operation) *Chain {
	return &Chain{Operations: ops}
}

// Name returns a readable description of the chain, e.g.
// "Chain[operation.AddElements->operation.GetAllElements]".
func (c *Chain) Name() string {
	names := make([]string, len(c.Operations))
	for i, op := range c.Operations {
		names[i] = op.Name()
	}
	return "Chain[" + strings.Join(names, "->") + "]"
}

// Clone deep-copies the chain, its options and every operation, so one
// store's mutation or optimisation of operations never affects another
// store's run.
func (c *Chain) Clone() *Chain {
	out := &Chain{options: c.cloneOptions()}
	out.Operations = make([]Operation, len(c.Operations))
	for i, op := range c.Operations {
		out.Operations[i] = op.Clone()
	}
	return out
}

// Close releases every resource held by the chain's operations. It is safe
// to call on an already-closed chain.
func (c *Chain) Close() error {
	var firstErr error
	for _, op := range c.Operations {
		if closer, ok := op.(Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ViewCarriers returns, in order, every operation in the chain that carries
// a view.
func (c *Chain) ViewCarriers() []ViewCarrier {
	var out []ViewCarrier
	for _, op := range c.Operations {
		if vc, ok := op.(ViewCarrier); ok {
			out = append(out, vc)
		}
	}
	return out
}
