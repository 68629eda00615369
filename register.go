package formula

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

// RegisterType interns T's grammar identity: the built-in id T
// canonicalises to under types.FindType if T is one of Go's scalar
// kinds, or a freshly registered host type named name otherwise. A
// generic wrapper over grammar.RegisterType that skips the redundant
// re-registration for primitives.
func RegisterType[T any](g *grammar.Grammar, name string) types.ID {
	if id := types.FindType[T](); id != types.Void {
		return id
	}
	return g.RegisterType(name)
}

// RegisterAttribute installs a required attribute: accessor reads a field
// off the host value T and returns it as a plain Go U, and this
// wrapper takes care of converting U to the engine's expr.Value
// representation. Use RegisterOptionalAttribute instead when the
// field can be legitimately absent on some instances.
func RegisterAttribute[T, U any](g *grammar.Grammar, inType, outType types.ID, name string, accessor func(T) U) error {
	return g.RegisterAttribute(inType, outType, name, func(v expr.Value) (expr.Value, error) {
		obj, ok := asHost[T](v)
		if !ok {
			return nil, errors.New(errors.Internal, "attribute %q: value is not the registered host type", name)
		}
		return toValue(accessor(obj), outType), nil
	})
}

// RegisterOptionalAttribute installs an attribute whose accessor
// reports, alongside the value, whether this particular instance
// actually has it. A false result sets the evaluating context's NaN
// flag instead of raising an error; the value/presence pair is one
// accessor returning (value, ok) since Go can express that directly.
func RegisterOptionalAttribute[T, U any](g *grammar.Grammar, inType, outType types.ID, name string, accessor func(T) (U, bool)) error {
	return g.RegisterOptionalAttribute(inType, outType, name, func(v expr.Value) (expr.Value, bool, error) {
		obj, ok := asHost[T](v)
		if !ok {
			return nil, false, nil
		}
		u, present := accessor(obj)
		if !present {
			return nil, false, nil
		}
		return toValue(u, outType), true, nil
	})
}

// RegisterFact installs the default resolver for a `$name` fact of
// type T, returning the type id it was registered under.
func RegisterFact[T any](g *grammar.Grammar, name string) (types.ID, error) {
	typeID := RegisterType[T](g, name+"Fact")
	err := g.RegisterFactResolver(name, typeID, func(n string) (expr.Node, error) {
		return expr.NewFactRef(n, typeID), nil
	})
	return typeID, err
}

// SetFact binds name to value in ctx for this evaluation. value must
// outlive every Evaluate call made against ctx before the next
// SetFact or Clean.
func SetFact[T any](ctx *evalctx.Context, name string, typeID types.ID, value *T) error {
	return ctx.SetFact(name, typeID, value)
}

// asHost recovers the host pointer T out of a Value produced by a
// fact or attribute lookup. Attributes operate on host object types,
// so v is always an expr.ObjectValue wrapping a T.
func asHost[T any](v expr.Value) (T, bool) {
	var zero T
	ov, ok := v.(expr.ObjectValue)
	if !ok {
		return zero, false
	}
	t, ok := ov.Ptr.(T)
	return t, ok
}

// toValue converts a plain Go value returned by a host accessor into
// the engine's expr.Value representation, widening platform integer
// kinds to int64 and float kinds to float64.
func toValue[U any](u U, outType types.ID) expr.Value {
	switch val := any(u).(type) {
	case bool:
		return expr.BoolValue(val)
	case string:
		return expr.StringValue(val)
	case float32:
		return expr.DoubleValue(float64(val))
	case float64:
		return expr.DoubleValue(val)
	case int:
		return expr.IntValue(int64(val))
	case int8:
		return expr.IntValue(int64(val))
	case int16:
		return expr.IntValue(int64(val))
	case int32:
		return expr.IntValue(int64(val))
	case int64:
		return expr.IntValue(val)
	case uint:
		return expr.IntValue(int64(val))
	case uint8:
		return expr.IntValue(int64(val))
	case uint16:
		return expr.IntValue(int64(val))
	case uint32:
		return expr.IntValue(int64(val))
	case uint64:
		return expr.IntValue(int64(val))
	default:
		return expr.ObjectValue{ID: outType, Ptr: u}
	}
}
