package airline

import (
	"testing"

	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/jsonvalue"
	"github.com/silvergrid/formula/types"
)

func newAirlineGrammar(t *testing.T) (*grammar.Grammar, Types) {
	t.Helper()
	g := grammar.New()
	at, err := Register(g)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return g, at
}

func attr(t *testing.T, g *grammar.Grammar, in types.ID, name string) grammar.UnaryInstantiator {
	t.Helper()
	inst, ok := g.LookupUnary(grammar.UnaryKey{In: in, Symbol: name})
	if !ok {
		t.Fatalf("expected attribute %q to be registered on %s", name, g.Types.Name(in))
	}
	return inst
}

func objectConstant(v *jsonvalue.Value, t Types) expr.Node {
	return expr.NewConstant(wrapValue(v, t))
}

func TestPresentStringAttributeReadsThrough(t *testing.T) {
	g, at := newAirlineGrammar(t)
	obj, err := jsonvalue.Parse(`{"Cabin": "Y"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inst := attr(t, g, at.Object, "Cabin")
	node, err := inst.Build(objectConstant(obj, at))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := evalctx.New(nil)
	v, err := node.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if string(v.(expr.StringValue)) != "Y" {
		t.Fatalf("expected 'Y', got %v", v)
	}
	if ctx.NaN() {
		t.Fatalf("expected NaN clear for a present attribute")
	}
}

func TestAbsentFieldSetsNaN(t *testing.T) {
	g, at := newAirlineGrammar(t)
	obj, err := jsonvalue.Parse(`{"Origin": "CDG"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inst := attr(t, g, at.Object, "Cabin")
	node, err := inst.Build(objectConstant(obj, at))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := evalctx.New(nil)
	v, err := node.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ctx.NaN() {
		t.Fatalf("expected NaN set for an absent optional attribute")
	}
	if v.TypeID() != types.String {
		t.Fatalf("expected the zero value's type id to still be String, got %v", v.TypeID())
	}
}

func TestWrongKindFieldReadsAsAbsent(t *testing.T) {
	g, at := newAirlineGrammar(t)
	// ExpectedLoadFactor is declared Number; a string value at that key
	// must read back as a miss, not as a type error or a crash.
	obj, err := jsonvalue.Parse(`{"ExpectedLoadFactor": "not-a-number"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inst := attr(t, g, at.Object, "ExpectedLoadFactor")
	node, err := inst.Build(objectConstant(obj, at))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := evalctx.New(nil)
	if _, err := node.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ctx.NaN() {
		t.Fatalf("expected a kind-mismatched field to read back as absent (NaN set)")
	}
}

func TestBooleanAndIntAttributes(t *testing.T) {
	g, at := newAirlineGrammar(t)
	obj, err := jsonvalue.Parse(`{"fulfilled": true, "priority": 2}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	boolInst := attr(t, g, at.Object, "fulfilled")
	boolNode, err := boolInst.Build(objectConstant(obj, at))
	if err != nil {
		t.Fatalf("Build fulfilled: %v", err)
	}
	v, err := boolNode.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate fulfilled: %v", err)
	}
	if !bool(v.(expr.BoolValue)) {
		t.Fatalf("expected fulfilled == true")
	}

	intInst := attr(t, g, at.Object, "priority")
	intNode, err := intInst.Build(objectConstant(obj, at))
	if err != nil {
		t.Fatalf("Build priority: %v", err)
	}
	v, err = intNode.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate priority: %v", err)
	}
	if int64(v.(expr.IntValue)) != 2 {
		t.Fatalf("expected priority == 2, got %v", v)
	}
}

func TestArrayAttributeWrapsAsArrayType(t *testing.T) {
	g, at := newAirlineGrammar(t)
	obj, err := jsonvalue.Parse(`{"Services": [{"code":"WIFI"}]}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inst := attr(t, g, at.Object, "Services")
	node, err := inst.Build(objectConstant(obj, at))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := node.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.TypeID() != at.Array {
		t.Fatalf("expected Services to evaluate to the array host type, got %v", v.TypeID())
	}
}

func TestBindFactsSkipsMissingTopLevelNames(t *testing.T) {
	_, at := newAirlineGrammar(t)
	facts, err := jsonvalue.Parse(`{"Customer": {"ID": "C1"}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ctx := evalctx.New(nil)
	if err := BindFacts(ctx, facts, at); err != nil {
		t.Fatalf("BindFacts: %v", err)
	}
	if _, ok := ctx.GetFact("Customer"); !ok {
		t.Fatalf("expected Customer to be bound")
	}
	if _, ok := ctx.GetFact("Flight"); ok {
		t.Fatalf("expected Flight to be left unbound since the document omits it")
	}
}

func TestBindFactsWithNilFactsIsANoOp(t *testing.T) {
	_, at := newAirlineGrammar(t)
	ctx := evalctx.New(nil)
	if err := BindFacts(ctx, nil, at); err != nil {
		t.Fatalf("BindFacts(nil): %v", err)
	}
	if _, ok := ctx.GetFact("Customer"); ok {
		t.Fatalf("expected no facts bound from a nil document")
	}
}

func TestCountOverServicesArray(t *testing.T) {
	g, at := newAirlineGrammar(t)
	obj, err := jsonvalue.Parse(`[{"code":"WIFI"},{"code":"LNGE"}]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	countInst := attr(t, g, at.Array, "count")
	node, err := countInst.Build(objectConstant(obj, at))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v, err := node.Evaluate(evalctx.New(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if int64(v.(expr.IntValue)) != 2 {
		t.Fatalf("expected count 2, got %v", v)
	}
}
