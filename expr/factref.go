package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

// FactRef looks up a named fact at evaluation time. It caches the
// direct pointer the context handed back on a miss, keyed by the
// context's unique id, so a hot evaluation loop over the same context
// doesn't repay the map lookup every time; the cache invalidates the
// moment the context's unique id changes (a Clean() call).
type FactRef struct {
	Name     string
	typeID   types.ID
	cachedID uint64
	cached   *evalctx.Fact
	hasCache bool
}

// NewFactRef builds a fact-reference node for name, declared as
// producing values of typeID.
func NewFactRef(name string, typeID types.ID) *FactRef {
	return &FactRef{Name: name, typeID: typeID}
}

func (f *FactRef) TypeID() types.ID { return f.typeID }

func (f *FactRef) Evaluate(ctx *evalctx.Context) (Value, error) {
	fact := f.lookup(ctx)
	if fact == nil {
		return nil, errors.New(errors.MissingFact, "fact %q is not bound in this context", f.Name)
	}
	return dereferenceFact(fact)
}

// lookup resolves and caches the fact pointer for ctx, keyed by the
// context's unique id.
func (f *FactRef) lookup(ctx *evalctx.Context) *evalctx.Fact {
	if f.hasCache && f.cachedID == ctx.ID() {
		return f.cached
	}
	fact, ok := ctx.GetFact(f.Name)
	if !ok {
		f.hasCache = false
		return nil
	}
	f.cached = fact
	f.cachedID = ctx.ID()
	f.hasCache = true
	return fact
}

func (f *FactRef) String() string { return "$" + f.Name }

func (f *FactRef) Complexity() int { return 1 }

// dereferenceFact unwraps a fact's host pointer into an engine Value
// according to its declared type id.
func dereferenceFact(fact *evalctx.Fact) (Value, error) {
	switch fact.TypeID {
	case types.Bool:
		return BoolValue(*(fact.Ptr.(*bool))), nil
	case types.Int:
		return IntValue(*(fact.Ptr.(*int64))), nil
	case types.Double:
		return DoubleValue(*(fact.Ptr.(*float64))), nil
	case types.String:
		return StringValue(*(fact.Ptr.(*string))), nil
	default:
		return ObjectValue{ID: fact.TypeID, Ptr: fact.Ptr}, nil
	}
}
