package parser

import (
	"testing"

	"github.com/silvergrid/formula/arena"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

func newDriver(t *testing.T) (*Driver, *grammar.Grammar) {
	t.Helper()
	g := grammar.New()
	return New(g, arena.New(128)), g
}

func TestOnBinaryUnknownOperatorIsNotFound(t *testing.T) {
	d, _ := newDriver(t)
	_, err := d.OnBinary("+", expr.NewConstant(expr.IntValue(1)), expr.NewConstant(expr.IntValue(2)))
	if !errors.Is(err, errors.OperatorNotFound) {
		t.Fatalf("expected OperatorNotFound, got %v", err)
	}
}

func TestOnBinaryLogicalRequiresBoolOperands(t *testing.T) {
	d, _ := newDriver(t)
	_, err := d.OnBinary("&&", expr.NewConstant(expr.IntValue(1)), expr.NewConstant(expr.BoolValue(true)))
	if !errors.Is(err, errors.TypeMismatch) {
		t.Fatalf("expected TypeMismatch for a non-bool AND operand, got %v", err)
	}
}

func TestOnBinaryLogicalKeywordAndSymbolAgree(t *testing.T) {
	d, _ := newDriver(t)
	lhs, rhs := expr.NewConstant(expr.BoolValue(true)), expr.NewConstant(expr.BoolValue(false))
	kw, err := d.OnBinary("AND", lhs, rhs)
	if err != nil {
		t.Fatalf("OnBinary(AND): %v", err)
	}
	sym, err := d.OnBinary("&&", lhs, rhs)
	if err != nil {
		t.Fatalf("OnBinary(&&): %v", err)
	}
	if kw.String() != sym.String() {
		t.Fatalf("expected AND and && to build identical nodes, got %q vs %q", kw.String(), sym.String())
	}
}

func TestOnChoiceRejectsDisagreeingBranches(t *testing.T) {
	d, _ := newDriver(t)
	_, err := d.OnChoice(expr.NewConstant(expr.BoolValue(true)),
		expr.NewConstant(expr.IntValue(1)), expr.NewConstant(expr.StringValue("x")))
	if !errors.Is(err, errors.TypeMismatch) {
		t.Fatalf("expected TypeMismatch for disagreeing choice branches, got %v", err)
	}
}

func TestOnChoiceRejectsNonBoolCondition(t *testing.T) {
	d, _ := newDriver(t)
	_, err := d.OnChoice(expr.NewConstant(expr.IntValue(1)),
		expr.NewConstant(expr.IntValue(1)), expr.NewConstant(expr.IntValue(2)))
	if !errors.Is(err, errors.TypeMismatch) {
		t.Fatalf("expected TypeMismatch for a non-bool condition, got %v", err)
	}
}

func TestOnCastUnregisteredTypeName(t *testing.T) {
	d, _ := newDriver(t)
	_, err := d.OnCast("quaternion", expr.NewConstant(expr.IntValue(1)))
	if !errors.Is(err, errors.UnregisteredType) {
		t.Fatalf("expected UnregisteredType, got %v", err)
	}
}

func TestOnFactUnregisteredNameIsMissingFact(t *testing.T) {
	d, _ := newDriver(t)
	_, err := d.OnFact("Nope")
	if !errors.Is(err, errors.MissingFact) {
		t.Fatalf("expected MissingFact, got %v", err)
	}
}

func registerIntArrow(t *testing.T, g *grammar.Grammar) {
	t.Helper()
	listType := g.RegisterType("intlist")
	filterType := g.RegisterType("filter<intlist>")
	err := g.RegisterArrowOp(listType, types.Int, filterType, "->",
		func(container, predicate expr.Node, slot *expr.LocalSlot, localName string) (expr.Node, error) {
			return expr.NewFilter(container, predicate, slot, localName, types.Int, filterType,
				func(cv expr.Value) (expr.Iterator, error) { return nil, nil }), nil
		})
	if err != nil {
		t.Fatalf("RegisterArrowOp: %v", err)
	}
}

func TestLocalResolvesWhileDeclaredAndShadowsOuter(t *testing.T) {
	d, g := newDriver(t)
	registerIntArrow(t, g)
	listType, _ := g.Types.Lookup("intlist")

	slot, elemType, err := d.DeclareLocal(listType, "->", "N")
	if err != nil {
		t.Fatalf("DeclareLocal: %v", err)
	}
	if elemType != types.Int {
		t.Fatalf("expected the partial key's element type, got %v", elemType)
	}

	n, err := d.OnFact("N")
	if err != nil {
		t.Fatalf("OnFact(N): %v", err)
	}
	local, ok := n.(*expr.LocalRef)
	if !ok {
		t.Fatalf("expected a LocalRef while the local is in scope, got %T", n)
	}
	if local.Slot != slot {
		t.Fatalf("expected the local to bind the declared slot")
	}

	inner, _, err := d.DeclareLocal(listType, "->", "N")
	if err != nil {
		t.Fatalf("nested DeclareLocal: %v", err)
	}
	n, err = d.OnFact("N")
	if err != nil {
		t.Fatalf("OnFact(N) nested: %v", err)
	}
	if n.(*expr.LocalRef).Slot != inner {
		t.Fatalf("expected the innermost declaration to shadow the outer one")
	}
	d.PopLocal()

	n, err = d.OnFact("N")
	if err != nil {
		t.Fatalf("OnFact(N) after inner pop: %v", err)
	}
	if n.(*expr.LocalRef).Slot != slot {
		t.Fatalf("expected the outer local to be visible again after the inner pop")
	}
	d.PopLocal()

	if _, err := d.OnFact("N"); !errors.Is(err, errors.MissingFact) {
		t.Fatalf("expected the name to stop resolving once popped, got %v", err)
	}
}
