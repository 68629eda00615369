package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/types"
)

// OptionalFunc computes an optional attribute's value. ok is false
// when the attribute has no value for this particular host object
// (e.g. an unset field); in that case the returned Value is ignored
// and the zero value for OutType is substituted.
type OptionalFunc func(v Value) (result Value, ok bool, err error)

// OptionalAttribute is an attribute access that may be legitimately
// absent on a given instance without that being an error. A miss sets
// the context's NaN flag rather than returning ValueMissing, which
// lets a surrounding `||` recover it the same way it recovers an
// explicit ValueMissing, while `&&` and arithmetic still see
// it and propagate.
type OptionalAttribute struct {
	Child   Node
	Name    string
	OutType types.ID
	Fn      OptionalFunc
}

// NewOptionalAttribute builds an optional-attribute node.
func NewOptionalAttribute(obj Node, name string, outType types.ID, fn OptionalFunc) *OptionalAttribute {
	return &OptionalAttribute{Child: obj, Name: name, OutType: outType, Fn: fn}
}

func (a *OptionalAttribute) TypeID() types.ID { return a.OutType }

func (a *OptionalAttribute) Evaluate(ctx *evalctx.Context) (Value, error) {
	v, err := a.Child.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	result, ok, err := a.Fn(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		ctx.SetNaN(true)
		return Zero(a.OutType), nil
	}
	return result, nil
}

func (a *OptionalAttribute) String() string { return a.Child.String() + "." + a.Name }

func (a *OptionalAttribute) Complexity() int { return 1 + a.Child.Complexity() }
