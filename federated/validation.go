package federated

import (
	"strings"

	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/schema"
)

// ValidationError reports a view the selected graphs cannot answer. Its
// message text is part of the compatibility contract and must not change
// shape.
type ValidationError struct {
	// GraphIDs lists the selected graphs, in registration order.
	GraphIDs []string
	// Blocks holds one preformatted report per failing operation, in
	// chain order.
	Blocks []string
}

// Error renders the canonical validation failure text:
//
//	Operation chain is invalid. Validation errors: \n
//	View is not valid for graphIds:[<ids>]\n
//	View for operation <name> is not valid. \n
//	<Kind> group <group> does not exist in the schema
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("Operation chain is invalid. Validation errors: \n")
	b.WriteString("View is not valid for graphIds:[")
	b.WriteString(strings.Join(e.GraphIDs, ","))
	b.WriteString("]\n")
	b.WriteString(strings.Join(e.Blocks, "\n"))
	return b.String()
}

// Unwrap marks validation failures as invalid-input errors.
func (e *ValidationError) Unwrap() error { return errors.ErrInvalidChain }

// validateChain checks every view-carrying operation against the merged
// schema of the selected graphs: a group is answerable if any selected graph
// holds it. Validation is all-or-nothing: every operation is evaluated
// before deciding, and any failure aborts the whole chain before any store
// is queried.
func validateChain(chain *operation.Chain, selected []*registration) error {
	merged := schema.New()
	ids := make([]string, len(selected))
	for i, reg := range selected {
		merged = schema.Merge(merged, reg.store.Schema())
		ids[i] = reg.graphID
	}

	var blocks []string
	for _, vc := range chain.ViewCarriers() {
		v := vc.View()
		if v == nil {
			continue
		}
		missing := v.MissingGroups(merged)
		if len(missing) == 0 {
			continue
		}

		var b strings.Builder
		b.WriteString("View for operation ")
		b.WriteString(vc.Name())
		b.WriteString(" is not valid. \n")
		for i, m := range missing {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(string(m.Kind))
			b.WriteString(" group ")
			b.WriteString(m.Group)
			b.WriteString(" does not exist in the schema")
		}
		blocks = append(blocks, b.String())
	}

	if len(blocks) == 0 {
		return nil
	}
	return &ValidationError{GraphIDs: ids, Blocks: blocks}
}
