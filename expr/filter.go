package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/types"
)

// Filter is the `->` arrow node: a lazy, filtered view over a
// container. Its own evaluation does nothing more than capture the
// evaluated container value and hand back a FilterView; no element
// is visited until something iterates the view (count, in, indexed
// access, or another arrow).
type Filter struct {
	Container     Node
	Predicate     Node
	Slot          *LocalSlot
	LocalName     string
	ElemType      types.ID
	OutType       types.ID // the registered Filter<T,U> pseudo-type id for this (elem,container) pair
	NewIterator   IteratorFactory
}

// NewFilter builds an arrow node. newIterator produces a fresh
// Iterator over the evaluated container's underlying elements (not
// yet filtered); the Filter node wraps that with the predicate check.
func NewFilter(container, predicate Node, slot *LocalSlot, localName string, elemType, outType types.ID, newIterator IteratorFactory) *Filter {
	return &Filter{
		Container:   container,
		Predicate:   predicate,
		Slot:        slot,
		LocalName:   localName,
		ElemType:    elemType,
		OutType:     outType,
		NewIterator: newIterator,
	}
}

func (f *Filter) TypeID() types.ID { return f.OutType }

func (f *Filter) Evaluate(ctx *evalctx.Context) (Value, error) {
	cv, err := f.Container.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	view := &FilterView{
		Container:   cv,
		NewIterator: f.NewIterator,
		Predicate:   f.Predicate,
		Slot:        f.Slot,
		Ctx:         ctx,
	}
	return ObjectValue{ID: f.OutType, Ptr: view}, nil
}

func (f *Filter) String() string {
	return "(" + f.Container.String() + " -> " + f.LocalName + " ? " + f.Predicate.String() + ")"
}

func (f *Filter) Complexity() int { return 1 + f.Container.Complexity() + f.Predicate.Complexity() }

// FilterView is the runtime handle a Filter node evaluates to. It is
// re-iterable: Iterate() returns a fresh filtered iterator each call,
// so a formula can count a filter and then also check `in` on it
// without one consuming the other's state.
type FilterView struct {
	Container   Value
	NewIterator IteratorFactory
	Predicate   Node
	Slot        *LocalSlot
	Ctx         *evalctx.Context
}

// Iterate returns an Iterator that walks the underlying container and
// yields only the elements for which Predicate evaluates true. An
// element whose predicate evaluation raises ValueMissing or leaves
// the NaN flag set is excluded without affecting neighboring elements;
// the outer NaN state saved before the predicate runs is restored
// afterward regardless of outcome.
func (fv *FilterView) Iterate() (Iterator, error) {
	inner, err := fv.NewIterator(fv.Container)
	if err != nil {
		return nil, err
	}
	return &filteredIterator{inner: inner, view: fv}, nil
}

type filteredIterator struct {
	inner Iterator
	view  *FilterView
}

func (it *filteredIterator) Next() (Value, bool, error) {
	for {
		elem, ok, err := it.inner.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		saved := it.view.Ctx.NaN()
		it.view.Ctx.SetNaN(false)
		it.view.Slot.Value = elem

		result, perr := it.view.Predicate.Evaluate(it.view.Ctx)
		excluded := false
		if perr != nil {
			if !isValueMissing(perr) {
				it.view.Ctx.SetNaN(saved)
				return nil, false, perr
			}
			excluded = true
		} else if it.view.Ctx.NaN() {
			excluded = true
		} else if !asBool(result) {
			excluded = true
		}

		it.view.Ctx.SetNaN(saved)
		if !excluded {
			return elem, true, nil
		}
	}
}
