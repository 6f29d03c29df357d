package view

import (
	"fmt"

	"github.com/dyna-dot/gaffer/element"
)

// Filter applies the view to a single element: visibility, predicates, then
// property projection. It returns the (possibly transformed) element and
// whether it passed. The input element is never mutated.
func (v *View) Filter(el element.Element) (element.Element, bool) {
	if el == nil {
		return nil, false
	}
	def, ok := v.Definition(el.Kind(), el.Group())
	if !ok {
		return nil, false
	}
	for _, f := range def.Filters {
		if !f.matches(el.Props()) {
			return nil, false
		}
	}
	if len(def.Properties) == 0 {
		return el, true
	}
	return project(el, def.Properties), true
}

func (f FilterPredicate) matches(props element.Properties) bool {
	val, exists := props[f.Property]
	switch f.Predicate {
	case "exists":
		return exists
	case "eq":
		return exists && val == f.Value
	case "gt":
		return exists && compareNumeric(val, f.Value) > 0
	case "lt":
		return exists && compareNumeric(val, f.Value) < 0
	default:
		// Unknown predicates fail closed.
		return false
	}
}

// compareNumeric compares two values as float64 where possible. Returns 0
// for incomparable values so gt/lt both reject them.
func compareNumeric(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0
	}
	switch {
	case af > bf:
		return 1
	case af < bf:
		return -1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

func project(el element.Element, keep []string) element.Element {
	kept := make(element.Properties, len(keep))
	props := el.Props()
	for _, k := range keep {
		if val, ok := props[k]; ok {
			kept[k] = val
		}
	}

	switch e := el.(type) {
	case *element.Entity:
		out := *e
		out.Properties = kept
		return &out
	case *element.Edge:
		out := *e
		out.Properties = kept
		return &out
	default:
		panic(fmt.Sprintf("unknown element type %T", el))
	}
}
