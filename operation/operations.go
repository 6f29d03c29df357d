package operation

import (
	"github.com/dyna-dot/gaffer/element"
	"github.com/dyna-dot/gaffer/view"
)

// GetAllElements returns every element visible through its view.
type GetAllElements struct {
	ElementView *view.View `json:"view,omitempty"`
	options
}

// NewGetAllElements creates a GetAllElements with an optional view.
func NewGetAllElements(v *view.View) *GetAllElements {
	return &GetAllElements{ElementView: v}
}

// Name returns the qualified operation name.
func (*GetAllElements) Name() string { return "operation.GetAllElements" }

// View returns the attached view, nil when unset.
func (g *GetAllElements) View() *view.View { return g.ElementView }

// SetView attaches the resolved view.
func (g *GetAllElements) SetView(v *view.View) { g.ElementView = v }

// Clone returns a deep copy.
func (g *GetAllElements) Clone() Operation {
	return &GetAllElements{
		ElementView: g.ElementView.Clone(),
		options:     g.cloneOptions(),
	}
}

// GetElements returns the elements related to a set of seed vertices,
// filtered through its view. An entity matches a seed equal to its vertex;
// an edge matches a seed equal to its source or destination.
type GetElements struct {
	Seeds       []any      `json:"seeds,omitempty"`
	ElementView *view.View `json:"view,omitempty"`
	options
}

// NewGetElements creates a GetElements over the given seeds.
func NewGetElements(v *view.View, seeds ...any) *GetElements {
	return &GetElements{Seeds: seeds, ElementView: v}
}

// Name returns the qualified operation name.
func (*GetElements) Name() string { return "operation.GetElements" }

// View returns the attached view, nil when unset.
func (g *GetElements) View() *view.View { return g.ElementView }

// SetView attaches the resolved view.
func (g *GetElements) SetView(v *view.View) { g.ElementView = v }

// Clone returns a deep copy.
func (g *GetElements) Clone() Operation {
	return &GetElements{
		Seeds:       append([]any(nil), g.Seeds...),
		ElementView: g.ElementView.Clone(),
		options:     g.cloneOptions(),
	}
}

// AddElements ingests elements into a store. It is a void operation: a chain
// ending in AddElements produces no result stream.
type AddElements struct {
	Elements []element.Element `json:"elements,omitempty"`
	options
}

// NewAddElements creates an AddElements over the given input.
func NewAddElements(elements ...element.Element) *AddElements {
	return &AddElements{Elements: elements}
}

// Name returns the qualified operation name.
func (*AddElements) Name() string { return "operation.AddElements" }

// Clone returns a deep copy. Elements themselves are immutable by contract
// so the input slice is copied, not the elements.
func (a *AddElements) Clone() Operation {
	return &AddElements{
		Elements: append([]element.Element(nil), a.Elements...),
		options:  a.cloneOptions(),
	}
}
