package iterable

import (
	"testing"

	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/types"
)

func intListAccessors() Accessors[int64, *[]int64] {
	return Accessors[int64, *[]int64]{
		ToContainer: func(v expr.Value) (*[]int64, error) {
			ov := v.(expr.ObjectValue)
			return ov.Ptr.(*[]int64), nil
		},
		Elements: func(c *[]int64) ([]int64, error) { return *c, nil },
		Index: func(c *[]int64, idx int64) (int64, error) {
			if idx < 0 || idx >= int64(len(*c)) {
				return 0, expr.ErrMissingElement
			}
			return (*c)[idx], nil
		},
		Wrap:         func(elem int64) expr.Value { return expr.IntValue(elem) },
		RandomAccess: true,
	}
}

func newListGrammar(t *testing.T) (*grammar.Grammar, types.ID) {
	t.Helper()
	g := grammar.New()
	listType := g.RegisterType("intlist")
	if err := Register(g, types.Int, listType, intListAccessors()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return g, listType
}

func containerNode(listType types.ID, elems []int64) expr.Node {
	return expr.NewConstant(expr.ObjectValue{ID: listType, Ptr: &elems})
}

func TestCountCountsElements(t *testing.T) {
	g, listType := newListGrammar(t)
	inst, ok := g.LookupUnary(grammar.UnaryKey{In: listType, Symbol: "count"})
	if !ok {
		t.Fatalf("expected .count to be registered")
	}
	node, err := inst.Build(containerNode(listType, []int64{10, 20, 30}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := node.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if int64(v.(expr.IntValue)) != 3 {
		t.Fatalf("expected count 3, got %v", v)
	}
}

func TestEmptyReportsTrueForEmptyContainer(t *testing.T) {
	g, listType := newListGrammar(t)
	inst, ok := g.LookupUnary(grammar.UnaryKey{In: listType, Symbol: "empty"})
	if !ok {
		t.Fatalf("expected .empty to be registered")
	}
	node, err := inst.Build(containerNode(listType, nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := node.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !bool(v.(expr.BoolValue)) {
		t.Fatalf("expected empty true for an empty container")
	}
}

func TestIndexedAccessInRange(t *testing.T) {
	g, listType := newListGrammar(t)
	inst, ok := g.LookupBinary(grammar.BinaryKey{Left: listType, Right: types.Int, Symbol: "[]"})
	if !ok {
		t.Fatalf("expected [] to be registered")
	}
	node, err := inst.Build(containerNode(listType, []int64{1, 2, 3}), expr.NewConstant(expr.IntValue(1)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := node.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if int64(v.(expr.IntValue)) != 2 {
		t.Fatalf("expected index 1 to be 2, got %v", v)
	}
}

func TestIndexedAccessOutOfRangeIsMissing(t *testing.T) {
	g, listType := newListGrammar(t)
	inst, _ := g.LookupBinary(grammar.BinaryKey{Left: listType, Right: types.Int, Symbol: "[]"})
	node, err := inst.Build(containerNode(listType, []int64{1, 2, 3}), expr.NewConstant(expr.IntValue(9)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := node.Evaluate(evalctx.New(nil)); err != expr.ErrMissingElement {
		t.Fatalf("expected ErrMissingElement, got %v", err)
	}
}

func TestContainmentOperator(t *testing.T) {
	g, listType := newListGrammar(t)
	inst, ok := g.LookupBinary(grammar.BinaryKey{Left: types.Int, Right: listType, Symbol: "in"})
	if !ok {
		t.Fatalf("expected in to be registered")
	}
	node, err := inst.Build(expr.NewConstant(expr.IntValue(2)), containerNode(listType, []int64{1, 2, 3}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := node.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !bool(v.(expr.BoolValue)) {
		t.Fatalf("expected 2 in [1,2,3] to be true")
	}
}

func TestArrowFilterCountsMatchingElements(t *testing.T) {
	g, listType := newListGrammar(t)
	key := grammar.BinaryKey{Left: listType, Right: types.Bool, Symbol: "->"}
	inst, ok := g.LookupArrow(key)
	if !ok {
		t.Fatalf("expected -> to be registered")
	}
	slot := &expr.LocalSlot{}
	local := expr.NewLocalRef("N", slot, types.Int)

	gt, err := installIntGreaterThan(g)
	if err != nil {
		t.Fatalf("installIntGreaterThan: %v", err)
	}
	pred, err := gt(local, expr.NewConstant(expr.IntValue(1)))
	if err != nil {
		t.Fatalf("building predicate: %v", err)
	}

	filterNode, err := inst.Build(containerNode(listType, []int64{1, 2, 3}), pred, slot, "N")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := evalctx.New(nil)
	fv, err := filterNode.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate filter: %v", err)
	}
	filterType := fv.TypeID()

	countInst, ok := g.LookupUnary(grammar.UnaryKey{In: filterType, Symbol: "count"})
	if !ok {
		t.Fatalf("expected .count to be registered for the filtered view")
	}
	countNode, err := countInst.Build(expr.NewConstant(fv))
	if err != nil {
		t.Fatalf("Build count: %v", err)
	}
	v, err := countNode.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate count: %v", err)
	}
	if int64(v.(expr.IntValue)) != 2 {
		t.Fatalf("expected 2 elements > 1 out of [1,2,3], got %v", v)
	}
}

// installIntGreaterThan registers a plain int > int comparison so the
// arrow-filter test has a predicate to build without depending on
// internal/corebuiltins.
func installIntGreaterThan(g *grammar.Grammar) (func(left, right expr.Node) (expr.Node, error), error) {
	build := func(left, right expr.Node) (expr.Node, error) {
		return expr.NewBinary(">", left, right, types.Bool, func(lv, rv expr.Value) (expr.Value, error) {
			return expr.BoolValue(int64(lv.(expr.IntValue)) > int64(rv.(expr.IntValue))), nil
		}), nil
	}
	if err := g.RegisterBinaryOp(types.Int, types.Int, types.Bool, ">", build); err != nil {
		return nil, err
	}
	return build, nil
}
