// Package airline is the example CLI host: a JSON-backed
// `object`/`array` fact type family registered against a
// grammar.Grammar, exercising the iterable operator family end to end
// over a small airline booking domain (flights, customers, service
// requests).
//
// The domain's field names and kinds are a fixed vocabulary declared
// here, not inferred from whatever `--facts` JSON the CLI is handed:
// schema inference is explicitly out of scope (the engine never
// learns a fact's shape from data, only from what a host registers
// ahead of time). A `--facts` document is expected to supply some
// subset of `Customer`, `Flight`, and `Requests`; fields the document
// omits simply read back as an absent optional attribute (NaN), the
// same as any other optional attribute miss.
package airline

import (
	"github.com/silvergrid/formula"
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/jsonvalue"
	"github.com/silvergrid/formula/iterable"
	"github.com/silvergrid/formula/types"
)

// Types names the two host type ids airline registers.
type Types struct {
	Object types.ID
	Array  types.ID
}

// fieldSpec pins one object attribute's name to its fixed output
// type, independent of whatever any particular instance's JSON
// happens to contain.
type fieldSpec struct {
	name string
	kind jsonvalue.Kind
}

// Fields is the domain's fixed attribute vocabulary: flight fields
// (Cabin, ExpectedLoadFactor, FlightNumber, Origin, Destination),
// customer fields (ID, Name, Tier, Services), service fields (code,
// description, fulfilled), and service-request fields (type, status,
// priority). All attributes are registered on the single shared
// `object` type, since this host does not distinguish Customer from
// Flight from Service as separate grammar types, only by which
// fields a given instance's JSON happens to carry.
var Fields = []fieldSpec{
	{"Cabin", jsonvalue.KindString},
	{"ExpectedLoadFactor", jsonvalue.KindNumber},
	{"FlightNumber", jsonvalue.KindString},
	{"Origin", jsonvalue.KindString},
	{"Destination", jsonvalue.KindString},
	{"ID", jsonvalue.KindString},
	{"Name", jsonvalue.KindString},
	{"Tier", jsonvalue.KindString},
	{"Services", jsonvalue.KindArray},
	{"Requests", jsonvalue.KindArray},
	{"code", jsonvalue.KindString},
	{"description", jsonvalue.KindString},
	{"fulfilled", jsonvalue.KindBoolean},
	{"type", jsonvalue.KindString},
	{"status", jsonvalue.KindString},
	{"priority", jsonvalue.KindInt64},
}

// topLevelFacts is the fixed set of `$name` facts this domain exposes
// at the root of a formula, each bound to the object host type.
var topLevelFacts = []string{"Customer", "Flight", "Requests"}

// Register installs the object/array host types, the iterable
// operator family over them, the fixed attribute vocabulary in
// Fields, and a fact resolver for each name in topLevelFacts.
func Register(g *grammar.Grammar) (Types, error) {
	t := Types{
		Object: formula.RegisterType[*jsonvalue.Value](g, "object"),
		Array:  formula.RegisterType[*jsonvalue.Value](g, "array"),
	}

	acc := iterable.Accessors[*jsonvalue.Value, *jsonvalue.Value]{
		ToContainer: func(v expr.Value) (*jsonvalue.Value, error) {
			p, _ := v.(expr.ObjectValue).Ptr.(*jsonvalue.Value)
			return p, nil
		},
		Elements: func(container *jsonvalue.Value) ([]*jsonvalue.Value, error) {
			return container.ArrayElements(), nil
		},
		Index: func(container *jsonvalue.Value, idx int64) (*jsonvalue.Value, error) {
			elem := container.ArrayGet(int(idx))
			if elem == nil {
				return nil, expr.ErrMissingElement
			}
			return elem, nil
		},
		Wrap: func(elem *jsonvalue.Value) expr.Value {
			return wrapValue(elem, t)
		},
		RandomAccess: true,
	}
	if err := iterable.Register(g, t.Object, t.Array, acc); err != nil {
		return Types{}, err
	}

	// Each field is registered through the embedding facade's generic
	// RegisterOptionalAttribute, instantiated at the Go type its fixed
	// Kind calls for, rather than through the grammar's raw
	// expr.Value-typed RegisterOptionalAttribute directly; this is
	// the worked example for a third-party host embedding the engine.
	for _, f := range Fields {
		field := f.name
		var err error
		switch f.kind {
		case jsonvalue.KindString:
			err = formula.RegisterOptionalAttribute[*jsonvalue.Value, string](g, t.Object, types.String, field,
				func(obj *jsonvalue.Value) (string, bool) {
					c := obj.ObjectGet(field)
					if c == nil || c.Kind() != jsonvalue.KindString {
						return "", false
					}
					return c.StringValue(), true
				})
		case jsonvalue.KindNumber:
			err = formula.RegisterOptionalAttribute[*jsonvalue.Value, float64](g, t.Object, types.Double, field,
				func(obj *jsonvalue.Value) (float64, bool) {
					c := obj.ObjectGet(field)
					if c == nil || c.Kind() != jsonvalue.KindNumber {
						return 0, false
					}
					return c.NumberValue(), true
				})
		case jsonvalue.KindInt64:
			err = formula.RegisterOptionalAttribute[*jsonvalue.Value, int64](g, t.Object, types.Int, field,
				func(obj *jsonvalue.Value) (int64, bool) {
					c := obj.ObjectGet(field)
					if c == nil || c.Kind() != jsonvalue.KindInt64 {
						return 0, false
					}
					return c.Int64Value(), true
				})
		case jsonvalue.KindBoolean:
			err = formula.RegisterOptionalAttribute[*jsonvalue.Value, bool](g, t.Object, types.Bool, field,
				func(obj *jsonvalue.Value) (bool, bool) {
					c := obj.ObjectGet(field)
					if c == nil || c.Kind() != jsonvalue.KindBoolean {
						return false, false
					}
					return c.BoolValue(), true
				})
		case jsonvalue.KindArray:
			err = formula.RegisterOptionalAttribute[*jsonvalue.Value, *jsonvalue.Value](g, t.Object, t.Array, field,
				func(obj *jsonvalue.Value) (*jsonvalue.Value, bool) {
					c := obj.ObjectGet(field)
					if c == nil || c.Kind() != jsonvalue.KindArray {
						return nil, false
					}
					return c, true
				})
		default:
			continue
		}
		if err != nil {
			return Types{}, err
		}
	}

	for _, name := range topLevelFacts {
		name := name
		outType := t.Object
		if name == "Requests" {
			outType = t.Array
		}
		if err := g.RegisterFactResolver(name, outType, func(n string) (expr.Node, error) {
			return expr.NewFactRef(n, outType), nil
		}); err != nil {
			return Types{}, err
		}
	}

	return t, nil
}

// BindFacts sets every top-level fact this domain knows about
// (topLevelFacts) into ctx from facts, skipping any name the document
// doesn't carry. Binding goes through the embedding facade's generic
// SetFact, the same call a third-party host makes.
func BindFacts(ctx *evalctx.Context, facts *jsonvalue.Value, t Types) error {
	if facts == nil || facts.Kind() != jsonvalue.KindObject {
		return nil
	}
	for _, name := range topLevelFacts {
		child := facts.ObjectGet(name)
		if child == nil {
			continue
		}
		outType := t.Object
		if name == "Requests" {
			outType = t.Array
		}
		if err := formula.SetFact(ctx, name, outType, child); err != nil {
			return err
		}
	}
	return nil
}

// wrapValue converts a dynamic JSON value into the engine Value its
// actual Kind calls for: a primitive Value for scalars, or an
// ObjectValue tagged with the shared object/array host type for
// structured values. Array elements are assumed to be JSON objects
// (service/request records), matching this domain's actual shape;
// a primitive-valued array element still wraps correctly (as its own
// primitive Value) but statically typed call sites (Indexed, Filter)
// declare the element type as `object` per Register's elemType
// argument, so a formula indexing into an array of non-object
// elements is a host-level simplification this worked example does
// not attempt to generalize beyond.
func wrapValue(v *jsonvalue.Value, t Types) expr.Value {
	switch v.Kind() {
	case jsonvalue.KindString:
		return expr.StringValue(v.StringValue())
	case jsonvalue.KindNumber:
		return expr.DoubleValue(v.NumberValue())
	case jsonvalue.KindInt64:
		return expr.IntValue(v.Int64Value())
	case jsonvalue.KindBoolean:
		return expr.BoolValue(v.BoolValue())
	case jsonvalue.KindArray:
		return expr.ObjectValue{ID: t.Array, Ptr: v}
	default:
		return expr.ObjectValue{ID: t.Object, Ptr: v}
	}
}
