// Package join provides the tuple-join operator family used by operation
// chains to correlate two keyed collections. Joins are pure transformations:
// no side effects, safely re-runnable over the same inputs.
package join

import (
	"reflect"

	"github.com/dyna-dot/gaffer/errors"
)

// Kind is the join strategy. Full is not a distinct primitive: it is the
// composition of an inner pass with the two directional outer passes.
type Kind int

const (
	// Inner emits one tuple per matched (left, right) pair.
	Inner Kind = iota
	// Outer emits tuples only for keys with no match on the opposite side.
	Outer
	// Full composes Inner with Outer on both sides.
	Full
)

// String returns the join kind name.
func (k Kind) String() string {
	switch k {
	case Inner:
		return "inner"
	case Outer:
		return "outer"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Side selects which collection is iterated as the keyed side; matches are
// collected from the opposite side.
type Side int

const (
	// Left iterates the left collection.
	Left Side = iota
	// Right iterates the right collection.
	Right
)

// Tuple slot names. A tuple maps each side's slot to either a single item, a
// match list, or a nil placeholder, depending on join kind and result mode.
const (
	SlotLeft  = "LEFT"
	SlotRight = "RIGHT"
)

// Tuple is one join result: a mapping from side slots to values.
type Tuple map[string]any

// KeyFunc extracts the correlation key from an item. Two items match iff
// their extracted keys are equal under value equality.
type KeyFunc func(item any) any

// Identity keys each item by itself.
func Identity(item any) any { return item }

// joinFunc is the strategy pair bound to a join kind: one function per
// result mode, each mapping (key item, matches, slot names) to tuples.
type joinFunc struct {
	// flattened returns zero or more tuples for one keyed item.
	flattened func(item any, matches []any, keyName, matchingValuesName string) []Tuple
	// aggregated returns at most one tuple; ok=false is the explicit
	// "no result" signal.
	aggregated func(item any, matches []any, keyName, matchingValuesName string) (Tuple, bool)
}

var joinFuncs = map[Kind]joinFunc{
	Inner: {
		flattened: func(item any, matches []any, keyName, matchingValuesName string) []Tuple {
			tuples := make([]Tuple, 0, len(matches))
			for _, m := range matches {
				tuples = append(tuples, Tuple{keyName: item, matchingValuesName: m})
			}
			return tuples
		},
		aggregated: func(item any, matches []any, keyName, matchingValuesName string) (Tuple, bool) {
			if len(matches) == 0 {
				return nil, false
			}
			return Tuple{keyName: item, matchingValuesName: matches}, true
		},
	},
	Outer: {
		flattened: func(item any, matches []any, keyName, matchingValuesName string) []Tuple {
			if len(matches) > 0 {
				return nil
			}
			return []Tuple{{keyName: item, matchingValuesName: nil}}
		},
		aggregated: func(item any, matches []any, keyName, matchingValuesName string) (Tuple, bool) {
			if len(matches) > 0 {
				return nil, false
			}
			return Tuple{keyName: item, matchingValuesName: matches}, true
		},
	},
}

// Execute runs a join of the given kind over the two collections.
//
// The keyed side is iterated in order; for each of its items the opposite
// side's items with an equal key form the match list, and the kind's
// strategy decides what tuples the item contributes. Matching is
// order-independent grouping by key, not a sorted merge.
//
// For Full the side argument is ignored: the result is the inner pass
// followed by the left and right outer passes.
func Execute(kind Kind, side Side, flatten bool, left, right []any, key KeyFunc) ([]Tuple, error) {
	if key == nil {
		key = Identity
	}

	switch kind {
	case Inner, Outer:
		return run(joinFuncs[kind], side, flatten, left, right, key), nil
	case Full:
		out := run(joinFuncs[Inner], Left, flatten, left, right, key)
		out = append(out, run(joinFuncs[Outer], Left, flatten, left, right, key)...)
		out = append(out, run(joinFuncs[Outer], Right, flatten, left, right, key)...)
		return out, nil
	default:
		return nil, errors.WrapInvalid(errors.ErrUnknownJoinType, "Join", "Execute", kind.String())
	}
}

func run(fn joinFunc, side Side, flatten bool, left, right []any, key KeyFunc) []Tuple {
	keyed, other := left, right
	keyName, matchingValuesName := SlotLeft, SlotRight
	if side == Right {
		keyed, other = right, left
		keyName, matchingValuesName = SlotRight, SlotLeft
	}

	index := indexByKey(other, key)

	var out []Tuple
	for _, item := range keyed {
		matches := index.lookup(key(item))
		if flatten {
			out = append(out, fn.flattened(item, matches, keyName, matchingValuesName)...)
			continue
		}
		if tuple, ok := fn.aggregated(item, matches, keyName, matchingValuesName); ok {
			out = append(out, tuple)
		}
	}
	return out
}

// keyIndex groups items by extracted key. Comparable keys use a map;
// non-comparable keys (slices, maps) fall back to linear DeepEqual search so
// structurally equal keys from different sources still match.
type keyIndex struct {
	buckets map[any][]any
	slow    []slowBucket
}

type slowBucket struct {
	key   any
	items []any
}

func indexByKey(items []any, key KeyFunc) *keyIndex {
	idx := &keyIndex{buckets: make(map[any][]any)}
	for _, item := range items {
		k := key(item)
		if isComparable(k) {
			idx.buckets[k] = append(idx.buckets[k], item)
			continue
		}
		if b := idx.slowBucket(k); b != nil {
			b.items = append(b.items, item)
			continue
		}
		idx.slow = append(idx.slow, slowBucket{key: k, items: []any{item}})
	}
	return idx
}

func (idx *keyIndex) slowBucket(k any) *slowBucket {
	for i := range idx.slow {
		if reflect.DeepEqual(idx.slow[i].key, k) {
			return &idx.slow[i]
		}
	}
	return nil
}

func (idx *keyIndex) lookup(k any) []any {
	if isComparable(k) {
		return idx.buckets[k]
	}
	if b := idx.slowBucket(k); b != nil {
		return b.items
	}
	return nil
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
