// Package iterable registers the collection operators (in, count,
// empty, [], ->) for a (element type, container type) pair against a
// grammar.Grammar, including the recursive registration that lets a
// filtered view itself be filtered, counted, indexed, and tested for
// containment.
package iterable

import (
	"fmt"

	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

// DefaultMaxDepth is how many levels of filtered-view-of-filtered-view
// Register installs by default: a filter of a filter of a filter is
// supported up to a bounded recursion depth, not unboundedly.
const DefaultMaxDepth = 3

// Accessors adapts a host Go container type U holding elements of host
// type T onto the engine's Value-based iteration operators. Index is
// optional: leave it nil for containers with no O(1) random access,
// and Register falls back to a linear scan built from Elements.
type Accessors[T, U any] struct {
	ToContainer  func(v expr.Value) (U, error)
	Elements     func(container U) ([]T, error)
	Index        func(container U, idx int64) (T, error)
	Wrap         func(elem T) expr.Value
	RandomAccess bool // true selects ComplexityHint 1 for count; false selects 10
}

// Register installs `in`, `.count`, `.empty`, `[]`, and `->` for
// (elemType, containerType) using acc to bridge host Go values, then
// recurses DefaultMaxDepth times so a filtered view of this container
// supports the same operators against itself.
func Register[T, U any](g *grammar.Grammar, elemType, containerType types.ID, acc Accessors[T, U]) error {
	return RegisterDepth(g, elemType, containerType, acc, DefaultMaxDepth)
}

// RegisterDepth is Register with an explicit recursion depth.
func RegisterDepth[T, U any](g *grammar.Grammar, elemType, containerType types.ID, acc Accessors[T, U], maxDepth int) error {
	newIterator := func(cv expr.Value) (expr.Iterator, error) {
		u, err := acc.ToContainer(cv)
		if err != nil {
			return nil, err
		}
		elems, err := acc.Elements(u)
		if err != nil {
			return nil, err
		}
		return &sliceIterator[T]{elems: elems, wrap: acc.Wrap}, nil
	}

	var indexFn expr.IndexFunc
	if acc.Index != nil {
		indexFn = func(containerV, indexV expr.Value) (expr.Value, error) {
			u, err := acc.ToContainer(containerV)
			if err != nil {
				return nil, err
			}
			idx, ok := indexV.(expr.IntValue)
			if !ok {
				return nil, errors.New(errors.Internal, "index operand is not an int")
			}
			elem, err := acc.Index(u, int64(idx))
			if err != nil {
				return nil, err
			}
			return acc.Wrap(elem), nil
		}
	}

	complexityHint := 10
	if acc.RandomAccess {
		complexityHint = 1
	}

	_, err := registerContainerOps(g, elemType, containerType, newIterator, indexFn, complexityHint, maxDepth)
	return err
}

type sliceIterator[T any] struct {
	elems []T
	wrap  func(T) expr.Value
	idx   int
}

func (s *sliceIterator[T]) Next() (expr.Value, bool, error) {
	if s.idx >= len(s.elems) {
		return nil, false, nil
	}
	v := s.wrap(s.elems[s.idx])
	s.idx++
	return v, true, nil
}

// registerContainerOps installs the operator family for a single
// (elemType, containerType) pair in terms of a Value-native iterator
// factory, then, if maxDepth allows, registers the same family
// again for the pseudo type representing "a filtered view of
// containerType", recursing on that view's own iterator.
func registerContainerOps(g *grammar.Grammar, elemType, containerType types.ID, newIterator expr.IteratorFactory, indexFn expr.IndexFunc, complexityHint, maxDepth int) (types.ID, error) {
	if err := g.RegisterUnaryOp(containerType, types.Int, "count", func(child expr.Node) (expr.Node, error) {
		return expr.NewCount(child, func(cv expr.Value) (int64, error) { return countOf(newIterator, cv) }, complexityHint), nil
	}); err != nil {
		return types.Void, err
	}

	if err := g.RegisterUnaryOp(containerType, types.Bool, "empty", func(child expr.Node) (expr.Node, error) {
		return expr.NewEmpty(child, func(cv expr.Value) (bool, error) {
			it, err := newIterator(cv)
			if err != nil {
				return false, err
			}
			_, ok, err := it.Next()
			if err != nil {
				return false, err
			}
			return !ok, nil
		}), nil
	}); err != nil {
		return types.Void, err
	}

	fn := indexFn
	if fn == nil {
		fn = scanIndex(newIterator)
	}
	if err := g.RegisterBinaryOp(containerType, types.Int, elemType, "[]", func(container, index expr.Node) (expr.Node, error) {
		return expr.NewIndexed(container, index, elemType, fn), nil
	}); err != nil {
		return types.Void, err
	}

	if err := g.RegisterBinaryOp(elemType, containerType, types.Bool, "in", func(elemNode, containerNode expr.Node) (expr.Node, error) {
		return expr.NewContainment(elemNode, containerNode, func(cv, ev expr.Value) (bool, error) {
			it, err := newIterator(cv)
			if err != nil {
				return false, err
			}
			for {
				v, ok, err := it.Next()
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
				if valuesEqual(v, ev) {
					return true, nil
				}
			}
		}), nil
	}); err != nil {
		return types.Void, err
	}

	// The pseudo-type is named after the container, not the element, so
	// each recursion level (filter of a filter of ...) interns a fresh
	// id instead of colliding with the level above.
	filterType := g.RegisterType(fmt.Sprintf("filter<%s>", g.Types.Name(containerType)))
	if err := g.RegisterArrowOp(containerType, elemType, filterType, "->", func(container, predicate expr.Node, slot *expr.LocalSlot, localName string) (expr.Node, error) {
		return expr.NewFilter(container, predicate, slot, localName, elemType, filterType, newIterator), nil
	}); err != nil {
		return types.Void, err
	}

	if maxDepth > 0 {
		filterIterator := func(cv expr.Value) (expr.Iterator, error) {
			ov, ok := cv.(expr.ObjectValue)
			if !ok {
				return nil, errors.New(errors.Internal, "expected a filtered view value")
			}
			fv, ok := ov.Ptr.(*expr.FilterView)
			if !ok {
				return nil, errors.New(errors.Internal, "expected a *expr.FilterView")
			}
			return fv.Iterate()
		}
		if _, err := registerContainerOps(g, elemType, filterType, filterIterator, nil, 10, maxDepth-1); err != nil {
			return types.Void, err
		}
	}

	return filterType, nil
}

func countOf(newIterator expr.IteratorFactory, cv expr.Value) (int64, error) {
	it, err := newIterator(cv)
	if err != nil {
		return 0, err
	}
	var n int64
	for {
		_, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

func scanIndex(newIterator expr.IteratorFactory) expr.IndexFunc {
	return func(containerV, indexV expr.Value) (expr.Value, error) {
		idx, ok := indexV.(expr.IntValue)
		if !ok {
			return nil, errors.New(errors.Internal, "index operand is not an int")
		}
		if idx < 0 {
			return nil, expr.ErrMissingElement
		}
		it, err := newIterator(containerV)
		if err != nil {
			return nil, err
		}
		var i int64
		for {
			v, ok, err := it.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, expr.ErrMissingElement
			}
			if i == int64(idx) {
				return v, nil
			}
			i++
		}
	}
}

// valuesEqual implements the equality Containment uses to test
// `elem in container`. Object values compare by pointer identity,
// which is correct for the host object handles the jsonvalue and
// airline packages hand out (the same underlying fact always
// produces the same pointer within one Context).
func valuesEqual(a, b expr.Value) bool {
	switch av := a.(type) {
	case expr.IntValue:
		bv, ok := b.(expr.IntValue)
		return ok && av == bv
	case expr.DoubleValue:
		bv, ok := b.(expr.DoubleValue)
		return ok && av == bv
	case expr.StringValue:
		bv, ok := b.(expr.StringValue)
		return ok && av == bv
	case expr.BoolValue:
		bv, ok := b.(expr.BoolValue)
		return ok && av == bv
	case expr.ObjectValue:
		bv, ok := b.(expr.ObjectValue)
		return ok && av.ID == bv.ID && av.Ptr == bv.Ptr
	default:
		return false
	}
}
