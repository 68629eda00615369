package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/types"
)

// Choice is the ternary `cond ? lhs : rhs` node. The condition must be
// boolean-typed and both branches must share a declared type, both
// enforced by the caller before construction. Only the chosen branch
// is evaluated.
type Choice struct {
	Cond, Then, Else Node
	OutType          types.ID
}

// NewChoice builds a ternary: given a boolean condition and two
// same-typed siblings, it returns a choice node of that shared type.
func NewChoice(cond, then, els Node) *Choice {
	return &Choice{Cond: cond, Then: then, Else: els, OutType: then.TypeID()}
}

func (c *Choice) TypeID() types.ID { return c.OutType }

func (c *Choice) Evaluate(ctx *evalctx.Context) (Value, error) {
	cv, err := c.Cond.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if asBool(cv) {
		return c.Then.Evaluate(ctx)
	}
	return c.Else.Evaluate(ctx)
}

func (c *Choice) String() string {
	return "(" + c.Cond.String() + " ? " + c.Then.String() + " : " + c.Else.String() + ")"
}

func (c *Choice) Complexity() int {
	return 1 + c.Cond.Complexity() + c.Then.Complexity() + c.Else.Complexity()
}
