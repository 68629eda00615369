package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/types"
)

// BinaryFunc computes a binary operator's result from its already
// evaluated operand values.
type BinaryFunc func(left, right Value) (Value, error)

// Binary wraps a functor over two typed children (symmetric or
// asymmetric; the distinction lives in which (left,right,symbol)
// key the grammar registered, not in this struct) and an interned
// operator symbol.
type Binary struct {
	Symbol  string
	Left    Node
	Right   Node
	OutType types.ID
	Fn      BinaryFunc
}

// NewBinary builds a binary node whose operands are always both
// evaluated eagerly. Short-circuiting operators have their own node
// types (LogicalAnd and LogicalOr below, Choice in choice.go) because their evaluation order cannot be
// expressed as a plain functor over two pre-evaluated values.
func NewBinary(symbol string, left, right Node, outType types.ID, fn BinaryFunc) *Binary {
	return &Binary{Symbol: symbol, Left: left, Right: right, OutType: outType, Fn: fn}
}

func (b *Binary) TypeID() types.ID { return b.OutType }

func (b *Binary) Evaluate(ctx *evalctx.Context) (Value, error) {
	lv, err := b.Left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := b.Right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return b.Fn(lv, rv)
}

func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + b.Symbol + " " + b.Right.String() + ")"
}

func (b *Binary) Complexity() int { return 1 + b.Left.Complexity() + b.Right.Complexity() }

// LogicalAnd implements && / AND. It has no special NaN-clearing
// behavior: NaN set by either operand propagates. The right operand
// is never evaluated when the left is false.
type LogicalAnd struct {
	Left, Right Node
}

// NewLogicalAnd builds an AND node.
func NewLogicalAnd(left, right Node) *LogicalAnd {
	return &LogicalAnd{Left: left, Right: right}
}

func (a *LogicalAnd) TypeID() types.ID { return types.Bool }

func (a *LogicalAnd) Evaluate(ctx *evalctx.Context) (Value, error) {
	lv, err := a.Left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if !asBool(lv) {
		return BoolValue(false), nil
	}
	rv, err := a.Right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return BoolValue(asBool(rv)), nil
}

func (a *LogicalAnd) String() string {
	return "(" + a.Left.String() + " && " + a.Right.String() + ")"
}

func (a *LogicalAnd) Complexity() int { return 1 + a.Left.Complexity() + a.Right.Complexity() }

// LogicalOr implements || / OR. Its left operand gets special
// recovery: if evaluating it raises ValueMissing or leaves the
// context's NaN flag set, the left operand is treated as false and
// NaN is cleared before the right operand runs. The right operand's
// own ValueMissing error still propagates, and its NaN outcome stands
// unmodified.
type LogicalOr struct {
	Left, Right Node
}

// NewLogicalOr builds an OR node.
func NewLogicalOr(left, right Node) *LogicalOr {
	return &LogicalOr{Left: left, Right: right}
}

func (o *LogicalOr) TypeID() types.ID { return types.Bool }

func (o *LogicalOr) Evaluate(ctx *evalctx.Context) (Value, error) {
	leftResult, leftErr := evaluateRecoveringMissing(ctx, o.Left)
	if leftErr != nil {
		return nil, leftErr
	}
	if leftResult {
		return BoolValue(true), nil
	}

	rv, err := o.Right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return BoolValue(asBool(rv)), nil
}

// evaluateRecoveringMissing evaluates n and returns its boolean
// result, treating a ValueMissing error or a set NaN flag as false
// and clearing NaN, per the OR left-operand contract. Any other error
// propagates unchanged.
func evaluateRecoveringMissing(ctx *evalctx.Context, n Node) (bool, error) {
	v, err := n.Evaluate(ctx)
	if err != nil {
		if isValueMissing(err) {
			ctx.SetNaN(false)
			return false, nil
		}
		return false, err
	}
	if ctx.NaN() {
		ctx.SetNaN(false)
		return false, nil
	}
	return asBool(v), nil
}

func (o *LogicalOr) String() string {
	return "(" + o.Left.String() + " || " + o.Right.String() + ")"
}

func (o *LogicalOr) Complexity() int { return 1 + o.Left.Complexity() + o.Right.Complexity() }
