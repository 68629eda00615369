// Package corebuiltins registers the primitive operator table, the
// arithmetic, comparison, logical-unary, and cast operators over the
// engine's four primitive types (int, double, string, bool), against
// a grammar.Grammar. None of this lives in the core grammar/expr
// packages themselves: every operator, including `+` on two ints, is
// a registration that binds a symbol and operand types to a resolved
// function, never a special case inside the engine.
package corebuiltins

import (
	"strings"

	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

// Register installs the full primitive operator table against g:
// arithmetic, comparisons, logical unary, numeric/string casts, and
// single-character string indexing. It is meant to be called once,
// directly against the root grammar a host's domain types then link
// to via LinkParent.
func Register(g *grammar.Grammar) error {
	regs := []func(*grammar.Grammar) error{
		registerArithmetic,
		registerComparisons,
		registerLogicalUnary,
		registerCasts,
		registerStringIndex,
	}
	for _, r := range regs {
		if err := r(g); err != nil {
			return err
		}
	}
	return nil
}

func registerArithmetic(g *grammar.Grammar) error {
	intBin := func(symbol string, fn func(a, b int64) (int64, error)) func(expr.Node, expr.Node) (expr.Node, error) {
		return func(left, right expr.Node) (expr.Node, error) {
			return expr.NewBinary(symbol, left, right, types.Int, func(lv, rv expr.Value) (expr.Value, error) {
				n, err := fn(int64(lv.(expr.IntValue)), int64(rv.(expr.IntValue)))
				if err != nil {
					return nil, err
				}
				return expr.IntValue(n), nil
			}), nil
		}
	}
	doubleBin := func(symbol string, fn func(a, b float64) (float64, error)) func(expr.Node, expr.Node) (expr.Node, error) {
		return func(left, right expr.Node) (expr.Node, error) {
			return expr.NewBinary(symbol, left, right, types.Double, func(lv, rv expr.Value) (expr.Value, error) {
				n, err := fn(asDouble(lv), asDouble(rv))
				if err != nil {
					return nil, err
				}
				return expr.DoubleValue(n), nil
			}), nil
		}
	}

	add := func(a, b int64) (int64, error) { return a + b, nil }
	sub := func(a, b int64) (int64, error) { return a - b, nil }
	mul := func(a, b int64) (int64, error) { return a * b, nil }
	div := func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, errors.New(errors.ValueMissing, "integer division by zero")
		}
		return a / b, nil
	}
	mod := func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, errors.New(errors.ValueMissing, "integer modulo by zero")
		}
		return a % b, nil
	}
	daddF := func(a, b float64) (float64, error) { return a + b, nil }
	dsubF := func(a, b float64) (float64, error) { return a - b, nil }
	dmulF := func(a, b float64) (float64, error) { return a * b, nil }
	ddivF := func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, errors.New(errors.ValueMissing, "division by zero")
		}
		return a / b, nil
	}

	pairs := []struct {
		left, right types.ID
		symbol      string
		build       func(expr.Node, expr.Node) (expr.Node, error)
	}{
		{types.Int, types.Int, "+", intBin("+", add)},
		{types.Int, types.Int, "-", intBin("-", sub)},
		{types.Int, types.Int, "*", intBin("*", mul)},
		{types.Int, types.Int, "/", intBin("/", div)},
		{types.Int, types.Int, "%", intBin("%", mod)},
	}
	for _, p := range pairs {
		if err := g.RegisterBinaryOp(p.left, p.right, types.Int, p.symbol, p.build); err != nil {
			return err
		}
	}

	// Int and Double deliberately do not get cross-type entries here:
	// there is no automatic numeric promotion beyond the explicit cast
	// operators, so a formula mixing the two must say
	// `(double)intFact + doubleFact` rather than have the grammar
	// silently widen one side.
	dpairs := []struct {
		left, right types.ID
		symbol      string
		build       func(expr.Node, expr.Node) (expr.Node, error)
	}{
		{types.Double, types.Double, "+", doubleBin("+", daddF)},
		{types.Double, types.Double, "-", doubleBin("-", dsubF)},
		{types.Double, types.Double, "*", doubleBin("*", dmulF)},
		{types.Double, types.Double, "/", doubleBin("/", ddivF)},
	}
	for _, p := range dpairs {
		if err := g.RegisterBinaryOp(p.left, p.right, types.Double, p.symbol, p.build); err != nil {
			return err
		}
	}

	return g.RegisterBinaryOp(types.String, types.String, types.String, "+", func(left, right expr.Node) (expr.Node, error) {
		return expr.NewBinary("+", left, right, types.String, func(lv, rv expr.Value) (expr.Value, error) {
			return expr.StringValue(string(lv.(expr.StringValue)) + string(rv.(expr.StringValue))), nil
		}), nil
	})
}

func asDouble(v expr.Value) float64 {
	switch x := v.(type) {
	case expr.DoubleValue:
		return float64(x)
	case expr.IntValue:
		return float64(x)
	default:
		return 0
	}
}

func registerComparisons(g *grammar.Grammar) error {
	type cmpPair struct{ left, right types.ID }
	numeric := []cmpPair{
		{types.Int, types.Int}, {types.Double, types.Double},
	}
	for _, p := range numeric {
		if err := registerOrderedComparisons(g, p.left, p.right, func(lv, rv expr.Value) int {
			l, r := asDouble(lv), asDouble(rv)
			switch {
			case l < r:
				return -1
			case l > r:
				return 1
			default:
				return 0
			}
		}); err != nil {
			return err
		}
	}
	if err := registerOrderedComparisons(g, types.String, types.String, func(lv, rv expr.Value) int {
		return strings.Compare(string(lv.(expr.StringValue)), string(rv.(expr.StringValue)))
	}); err != nil {
		return err
	}
	return registerEqualityOnly(g, types.Bool, types.Bool, func(lv, rv expr.Value) bool {
		return bool(lv.(expr.BoolValue)) == bool(rv.(expr.BoolValue))
	})
}

// registerOrderedComparisons installs ==, !=, <, <=, >, >= for
// (left, right) using cmp as a three-way comparator.
func registerOrderedComparisons(g *grammar.Grammar, left, right types.ID, cmp func(lv, rv expr.Value) int) error {
	ops := map[string]func(int) bool{
		"==": func(c int) bool { return c == 0 },
		"!=": func(c int) bool { return c != 0 },
		"<":  func(c int) bool { return c < 0 },
		"<=": func(c int) bool { return c <= 0 },
		">":  func(c int) bool { return c > 0 },
		">=": func(c int) bool { return c >= 0 },
	}
	for symbol, pred := range ops {
		symbol, pred := symbol, pred
		err := g.RegisterBinaryOp(left, right, types.Bool, symbol, func(l, r expr.Node) (expr.Node, error) {
			return expr.NewBinary(symbol, l, r, types.Bool, func(lv, rv expr.Value) (expr.Value, error) {
				return expr.BoolValue(pred(cmp(lv, rv))), nil
			}), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func registerEqualityOnly(g *grammar.Grammar, left, right types.ID, eq func(lv, rv expr.Value) bool) error {
	if err := g.RegisterBinaryOp(left, right, types.Bool, "==", func(l, r expr.Node) (expr.Node, error) {
		return expr.NewBinary("==", l, r, types.Bool, func(lv, rv expr.Value) (expr.Value, error) {
			return expr.BoolValue(eq(lv, rv)), nil
		}), nil
	}); err != nil {
		return err
	}
	return g.RegisterBinaryOp(left, right, types.Bool, "!=", func(l, r expr.Node) (expr.Node, error) {
		return expr.NewBinary("!=", l, r, types.Bool, func(lv, rv expr.Value) (expr.Value, error) {
			return expr.BoolValue(!eq(lv, rv)), nil
		}), nil
	})
}

func registerLogicalUnary(g *grammar.Grammar) error {
	if err := g.RegisterUnaryOp(types.Bool, types.Bool, "!", func(child expr.Node) (expr.Node, error) {
		return expr.NewUnary("!", child, types.Bool, func(v expr.Value) (expr.Value, error) {
			return expr.BoolValue(!bool(v.(expr.BoolValue))), nil
		}), nil
	}); err != nil {
		return err
	}
	if err := g.RegisterUnaryOp(types.Int, types.Int, "-", func(child expr.Node) (expr.Node, error) {
		return expr.NewUnary("-", child, types.Int, func(v expr.Value) (expr.Value, error) {
			return expr.IntValue(-int64(v.(expr.IntValue))), nil
		}), nil
	}); err != nil {
		return err
	}
	return g.RegisterUnaryOp(types.Double, types.Double, "-", func(child expr.Node) (expr.Node, error) {
		return expr.NewUnary("-", child, types.Double, func(v expr.Value) (expr.Value, error) {
			return expr.DoubleValue(-float64(v.(expr.DoubleValue))), nil
		}), nil
	})
}

func registerCasts(g *grammar.Grammar) error {
	if err := g.RegisterCast(types.Double, types.Int, "int", expr.CastDoubleToInt); err != nil {
		return err
	}
	if err := g.RegisterCast(types.String, types.Int, "int", expr.CastStringToInt); err != nil {
		return err
	}
	if err := g.RegisterCast(types.Int, types.Double, "double", expr.CastIntToDouble); err != nil {
		return err
	}
	if err := g.RegisterCast(types.String, types.Double, "double", expr.CastStringToDouble); err != nil {
		return err
	}
	for _, from := range []types.ID{types.Int, types.Double, types.Bool, types.String} {
		if err := g.RegisterCast(from, types.String, "string", expr.CastToString); err != nil {
			return err
		}
	}
	if err := g.RegisterCast(types.Int, types.Bool, "bool", expr.CastIntToBool); err != nil {
		return err
	}
	return g.RegisterCast(types.Bool, types.Int, "int", expr.CastBoolToInt)
}

// registerStringIndex installs `s[i]`, yielding the single-rune
// substring at rune offset i (so `'Pouet'[2]` is the string `'u'`,
// matching the engine's "everything prints/compares as its canonical
// textual form" rule rather than widening to a separate char type).
func registerStringIndex(g *grammar.Grammar) error {
	return g.RegisterBinaryOp(types.String, types.Int, types.String, "[]", func(left, right expr.Node) (expr.Node, error) {
		return expr.NewIndexed(left, right, types.String, func(lv, rv expr.Value) (expr.Value, error) {
			runes := []rune(string(lv.(expr.StringValue)))
			idx := int64(rv.(expr.IntValue))
			if idx < 0 || idx >= int64(len(runes)) {
				return nil, expr.ErrMissingElement
			}
			return expr.StringValue(string(runes[idx])), nil
		}), nil
	})
}
