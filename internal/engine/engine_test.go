package engine

import (
	"testing"

	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/types"
)

func TestNewWiresCorebuiltinsAndAirline(t *testing.T) {
	eng, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if eng.Grammar == nil {
		t.Fatalf("expected a non-nil Grammar")
	}
	if eng.Airline.Object == types.Void || eng.Airline.Array == types.Void {
		t.Fatalf("expected airline's Object/Array host types to be registered, got %+v", eng.Airline)
	}
	if _, ok := eng.Grammar.LookupBinary(grammar.BinaryKey{Left: types.Int, Right: types.Int, Symbol: "+"}); !ok {
		t.Fatalf("expected the primitive operator table to be registered")
	}
	if _, ok := eng.Grammar.LookupFact("Customer"); !ok {
		t.Fatalf("expected the airline fact vocabulary to be registered")
	}
}

func TestNewWithoutOptimizeStillWorks(t *testing.T) {
	eng, err := New(false)
	if err != nil {
		t.Fatalf("New(false): %v", err)
	}
	if _, ok := eng.Grammar.LookupBinary(grammar.BinaryKey{Left: types.Int, Right: types.Int, Symbol: "+"}); !ok {
		t.Fatalf("expected the primitive operator table to be registered even without the optimizer attached")
	}
}

func TestEachCallToNewIsIndependent(t *testing.T) {
	a, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Grammar == b.Grammar {
		t.Fatalf("expected two New() calls to produce independent grammars")
	}
}
