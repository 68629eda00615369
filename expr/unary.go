package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/types"
)

// UnaryFunc computes a unary operator's result from its already
// evaluated operand value.
type UnaryFunc func(v Value) (Value, error)

// Unary wraps a functor over a single typed child and an interned
// operator symbol (e.g. "!", "-", or an attribute/cast name).
type Unary struct {
	Symbol  string
	Child   Node
	OutType types.ID
	Fn      UnaryFunc
}

// NewUnary builds a unary node. For prefix operators the printed form
// is symbol immediately followed by the child's printed form (e.g.
// "-6"); Attribute and Cast embed Unary and supply their own String
// (see below).
func NewUnary(symbol string, child Node, outType types.ID, fn UnaryFunc) *Unary {
	return &Unary{Symbol: symbol, Child: child, OutType: outType, Fn: fn}
}

func (u *Unary) TypeID() types.ID { return u.OutType }

func (u *Unary) Evaluate(ctx *evalctx.Context) (Value, error) {
	v, err := u.Child.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return u.Fn(v)
}

func (u *Unary) String() string { return u.Symbol + u.Child.String() }

func (u *Unary) Complexity() int { return 1 + u.Child.Complexity() }

// Attribute is a Unary specialised for `.name` access: its printed
// form differs (object.name rather than symbolobject).
type Attribute struct {
	*Unary
	Name string
}

// NewAttribute builds an attribute-access node.
func NewAttribute(obj Node, name string, outType types.ID, fn UnaryFunc) *Attribute {
	return &Attribute{Unary: &Unary{Symbol: name, Child: obj, OutType: outType, Fn: fn}, Name: name}
}

func (a *Attribute) String() string { return a.Child.String() + "." + a.Name }

// Cast is a Unary specialised for `(typename)expr`.
type Cast struct {
	*Unary
	TargetName string
}

// NewCast builds a cast node targeting the named type.
func NewCast(child Node, targetName string, outType types.ID, fn UnaryFunc) *Cast {
	return &Cast{Unary: &Unary{Symbol: "(" + targetName + ")", Child: child, OutType: outType, Fn: fn}, TargetName: targetName}
}

func (c *Cast) String() string { return "(" + c.TargetName + ")" + c.Child.String() }
