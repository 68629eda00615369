package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/types"
)

// Constant stores an owned value and prints its literal form; strings
// print quoted, matching the surface syntax they would re-parse from.
type Constant struct {
	Value   Value
	Printed string // overrides the default printed form when set (used by constant folding, which must preserve the original subtree's printed form)
}

// NewConstant wraps v in a Constant node, computing its printed form
// from v's own String unless the caller supplies one.
func NewConstant(v Value) *Constant {
	return &Constant{Value: v}
}

// NewConstantWithPrintedForm is used by the factorizer when folding: it
// must replace a subtree with its computed value while keeping the
// subtree's original printed form.
func NewConstantWithPrintedForm(v Value, printed string) *Constant {
	return &Constant{Value: v, Printed: printed}
}

func (c *Constant) TypeID() types.ID { return c.Value.TypeID() }

func (c *Constant) Evaluate(ctx *evalctx.Context) (Value, error) {
	return c.Value, nil
}

func (c *Constant) String() string {
	if c.Printed != "" {
		return c.Printed
	}
	if s, ok := c.Value.(StringValue); ok {
		return quoteString(string(s))
	}
	if b, ok := c.Value.(BoolValue); ok {
		if b {
			return "true"
		}
		return "false"
	}
	return c.Value.String()
}

func (c *Constant) Complexity() int { return 1 }

func quoteString(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\'' || ch == '\\' {
			out = append(out, '\\')
		}
		out = append(out, ch)
	}
	out = append(out, '\'')
	return string(out)
}
