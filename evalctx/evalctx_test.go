package evalctx

import (
	"testing"

	"github.com/silvergrid/formula/types"
)

func TestNewAllocatesPrivateArenaWhenNilPassed(t *testing.T) {
	ctx := New(nil)
	if ctx.Arena() == nil {
		t.Fatalf("expected New(nil) to allocate a private arena")
	}
}

func TestIDsAreUniqueAndIncreasing(t *testing.T) {
	a := New(nil)
	b := New(nil)
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct contexts to get distinct ids")
	}
	if b.ID() <= a.ID() {
		t.Fatalf("expected ids to increase, got %d then %d", a.ID(), b.ID())
	}
}

func TestNaNDefaultsFalse(t *testing.T) {
	ctx := New(nil)
	if ctx.NaN() {
		t.Fatalf("expected a fresh context to start with NaN false")
	}
}

func TestSetNaNAndResetNaN(t *testing.T) {
	ctx := New(nil)
	ctx.SetNaN(true)
	if !ctx.NaN() {
		t.Fatalf("expected SetNaN(true) to stick")
	}
	ctx.ResetNaN()
	if ctx.NaN() {
		t.Fatalf("expected ResetNaN to clear the flag")
	}
}

func TestSetFactAndGetFact(t *testing.T) {
	ctx := New(nil)
	v := int64(42)
	if err := ctx.SetFact("Altitude", types.Int, &v); err != nil {
		t.Fatalf("SetFact: %v", err)
	}
	fact, ok := ctx.GetFact("Altitude")
	if !ok {
		t.Fatalf("expected GetFact to find the bound fact")
	}
	if fact.TypeID != types.Int {
		t.Fatalf("expected TypeID Int, got %v", fact.TypeID)
	}
	if got := *(fact.Ptr.(*int64)); got != 42 {
		t.Fatalf("expected the stored pointer to alias the original value, got %d", got)
	}
	v = 43
	if got := *(fact.Ptr.(*int64)); got != 43 {
		t.Fatalf("expected in-place mutation through the original pointer to be visible, got %d", got)
	}
}

func TestGetFactMissReportsFalse(t *testing.T) {
	ctx := New(nil)
	if _, ok := ctx.GetFact("Nope"); ok {
		t.Fatalf("expected an unbound fact name to miss")
	}
}

func TestSetFactRebindingToDifferentTypeErrors(t *testing.T) {
	ctx := New(nil)
	v := int64(1)
	if err := ctx.SetFact("X", types.Int, &v); err != nil {
		t.Fatalf("SetFact: %v", err)
	}
	s := "one"
	if err := ctx.SetFact("X", types.String, &s); err == nil {
		t.Fatalf("expected an error re-binding a fact name to a different type")
	}
}

func TestSetFactRebindingToSameTypeSucceeds(t *testing.T) {
	ctx := New(nil)
	a, b := int64(1), int64(2)
	if err := ctx.SetFact("X", types.Int, &a); err != nil {
		t.Fatalf("first SetFact: %v", err)
	}
	if err := ctx.SetFact("X", types.Int, &b); err != nil {
		t.Fatalf("expected re-binding the same type to succeed, got %v", err)
	}
	fact, _ := ctx.GetFact("X")
	if got := *(fact.Ptr.(*int64)); got != 2 {
		t.Fatalf("expected the new pointer to win, got %d", got)
	}
}

func TestCleanClearsFactsAndNaNAndBumpsID(t *testing.T) {
	ctx := New(nil)
	v := int64(1)
	if err := ctx.SetFact("X", types.Int, &v); err != nil {
		t.Fatalf("SetFact: %v", err)
	}
	ctx.SetNaN(true)
	oldID := ctx.ID()

	ctx.Clean()

	if _, ok := ctx.GetFact("X"); ok {
		t.Fatalf("expected Clean to clear bound facts")
	}
	if ctx.NaN() {
		t.Fatalf("expected Clean to clear the NaN flag")
	}
	if ctx.ID() == oldID {
		t.Fatalf("expected Clean to bump the context's unique id")
	}
}
