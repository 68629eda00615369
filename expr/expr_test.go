package expr

import (
	"testing"

	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

func boolConst(b bool) Node { return NewConstant(BoolValue(b)) }

// nanNode sets the context NaN flag and returns a type-zero, the way
// an absent optional attribute does.
func nanNode(out types.ID) Node {
	return NewOptionalAttribute(NewConstant(ObjectValue{ID: types.ReservedBound, Ptr: nil}), "opt", out,
		func(v Value) (Value, bool, error) { return nil, false, nil })
}

// countingNode wraps inner and counts how many times it is evaluated.
type countingNode struct {
	inner Node
	calls int
}

func (c *countingNode) TypeID() types.ID { return c.inner.TypeID() }
func (c *countingNode) Evaluate(ctx *evalctx.Context) (Value, error) {
	c.calls++
	return c.inner.Evaluate(ctx)
}
func (c *countingNode) String() string  { return c.inner.String() }
func (c *countingNode) Complexity() int { return c.inner.Complexity() }

func TestOrRecoversNaNLeftOperand(t *testing.T) {
	ctx := evalctx.New(nil)
	or := NewLogicalOr(nanNode(types.Bool), boolConst(true))
	v, err := or.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !bool(v.(BoolValue)) {
		t.Fatalf("expected true")
	}
	if ctx.NaN() {
		t.Fatalf("expected OR to clear NaN set by its left operand")
	}
}

func TestOrRecoversValueMissingLeftOperand(t *testing.T) {
	ctx := evalctx.New(nil)
	missing := NewUnary("!", boolConst(false), types.Bool, func(v Value) (Value, error) {
		return nil, errors.New(errors.ValueMissing, "gone")
	})
	or := NewLogicalOr(missing, boolConst(true))
	v, err := or.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !bool(v.(BoolValue)) {
		t.Fatalf("expected true")
	}
	if ctx.NaN() {
		t.Fatalf("expected NaN clear after recovering a missing left operand")
	}
}

func TestOrRightOperandNaNStands(t *testing.T) {
	ctx := evalctx.New(nil)
	or := NewLogicalOr(nanNode(types.Bool), nanNode(types.Bool))
	if _, err := or.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ctx.NaN() {
		t.Fatalf("expected the right operand's NaN outcome to stand")
	}
}

func TestAndPropagatesNaN(t *testing.T) {
	ctx := evalctx.New(nil)
	and := NewLogicalAnd(nanNode(types.Bool), boolConst(true))
	if _, err := and.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ctx.NaN() {
		t.Fatalf("AND must not clear NaN set by an operand")
	}
}

func TestAndShortCircuitSkipsRight(t *testing.T) {
	right := &countingNode{inner: boolConst(true)}
	and := NewLogicalAnd(boolConst(false), right)
	v, err := and.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if bool(v.(BoolValue)) {
		t.Fatalf("expected false")
	}
	if right.calls != 0 {
		t.Fatalf("AND with a false left operand must not evaluate the right, got %d calls", right.calls)
	}
}

func TestOrShortCircuitSkipsRight(t *testing.T) {
	right := &countingNode{inner: boolConst(false)}
	or := NewLogicalOr(boolConst(true), right)
	v, err := or.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !bool(v.(BoolValue)) {
		t.Fatalf("expected true")
	}
	if right.calls != 0 {
		t.Fatalf("OR with a true left operand must not evaluate the right, got %d calls", right.calls)
	}
}

func TestChoiceSkipsDiscardedBranch(t *testing.T) {
	then := &countingNode{inner: NewConstant(IntValue(1))}
	els := &countingNode{inner: NewConstant(IntValue(2))}
	choice := NewChoice(boolConst(false), then, els)
	v, err := choice.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if int64(v.(IntValue)) != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
	if then.calls != 0 {
		t.Fatalf("the discarded branch must not be evaluated, got %d calls", then.calls)
	}
}

func intSliceIterator(elems []int64) IteratorFactory {
	return func(container Value) (Iterator, error) {
		return &testIntIterator{elems: elems}, nil
	}
}

type testIntIterator struct {
	elems []int64
	idx   int
}

func (it *testIntIterator) Next() (Value, bool, error) {
	if it.idx >= len(it.elems) {
		return nil, false, nil
	}
	v := IntValue(it.elems[it.idx])
	it.idx++
	return v, true, nil
}

func TestFilterPredicateFiresOncePerElement(t *testing.T) {
	slot := &LocalSlot{}
	var calls int
	pred := NewUnary("!", NewLocalRef("N", slot, types.Int), types.Bool, func(v Value) (Value, error) {
		calls++
		return BoolValue(int64(v.(IntValue)) > 1), nil
	})

	filterType := types.ReservedBound + 1
	filter := NewFilter(NewConstant(ObjectValue{ID: types.ReservedBound, Ptr: nil}), pred, slot, "N",
		types.Int, filterType, intSliceIterator([]int64{1, 2, 3}))

	ctx := evalctx.New(nil)
	fv, err := filter.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate filter: %v", err)
	}
	if calls != 0 {
		t.Fatalf("a filter must be lazy: evaluating the arrow ran the predicate %d times", calls)
	}

	view := fv.(ObjectValue).Ptr.(*FilterView)
	it, err := view.Iterate()
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	var kept []int64
	for {
		v, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		kept = append(kept, int64(v.(IntValue)))
	}
	if calls != 3 {
		t.Fatalf("expected the predicate to fire exactly once per element, got %d", calls)
	}
	if len(kept) != 2 || kept[0] != 2 || kept[1] != 3 {
		t.Fatalf("expected [2 3], got %v", kept)
	}
}

func TestFilterExcludesNaNElementsWithoutPoisoningNeighbors(t *testing.T) {
	slot := &LocalSlot{}
	// Predicate: true for every element except 2, which reads as a
	// missing value (NaN).
	nanPred := NewOptionalAttribute(NewLocalRef("N", slot, types.Int), "opt", types.Bool,
		func(v Value) (Value, bool, error) {
			if int64(v.(IntValue)) == 2 {
				return nil, false, nil
			}
			return BoolValue(true), true, nil
		})

	filterType := types.ReservedBound + 1
	filter := NewFilter(NewConstant(ObjectValue{ID: types.ReservedBound, Ptr: nil}), nanPred, slot, "N",
		types.Int, filterType, intSliceIterator([]int64{1, 2, 3}))

	ctx := evalctx.New(nil)
	fv, err := filter.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate filter: %v", err)
	}
	view := fv.(ObjectValue).Ptr.(*FilterView)
	it, err := view.Iterate()
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	var kept []int64
	for {
		v, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		kept = append(kept, int64(v.(IntValue)))
	}
	if len(kept) != 2 || kept[0] != 1 || kept[1] != 3 {
		t.Fatalf("expected the NaN element excluded and neighbors kept, got %v", kept)
	}
	if ctx.NaN() {
		t.Fatalf("a per-element NaN outcome must not leak into the surrounding evaluation")
	}
}

func TestCastDoubleToIntRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{65.89, 66},
		{65.49, 65},
		{65.5, 66},
		{-65.5, -66},
		{-65.49, -65},
		{0.5, 1},
		{-0.5, -1},
	}
	for _, c := range cases {
		v, err := CastDoubleToInt(DoubleValue(c.in))
		if err != nil {
			t.Fatalf("CastDoubleToInt(%v): %v", c.in, err)
		}
		if got := int64(v.(IntValue)); got != c.want {
			t.Fatalf("CastDoubleToInt(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFactRefCacheInvalidatesOnClean(t *testing.T) {
	ctx := evalctx.New(nil)
	a := int64(1)
	if err := ctx.SetFact("X", types.Int, &a); err != nil {
		t.Fatalf("SetFact: %v", err)
	}
	ref := NewFactRef("X", types.Int)
	v, err := ref.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if int64(v.(IntValue)) != 1 {
		t.Fatalf("expected 1, got %v", v)
	}

	ctx.Clean()
	b := int64(2)
	if err := ctx.SetFact("X", types.Int, &b); err != nil {
		t.Fatalf("SetFact after Clean: %v", err)
	}
	v, err = ref.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate after Clean: %v", err)
	}
	if int64(v.(IntValue)) != 2 {
		t.Fatalf("expected the fact cache to invalidate on Clean, got %v", v)
	}
}

func TestMissingFactError(t *testing.T) {
	ref := NewFactRef("Nope", types.Int)
	_, err := ref.Evaluate(evalctx.New(nil))
	if !errors.Is(err, errors.MissingFact) {
		t.Fatalf("expected MissingFact, got %v", err)
	}
}
