package expr

import (
	"fmt"

	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

// Node is the common interface of every tagged node variant the
// parser and factorizer produce. Every node reachable from a parsed
// root was created through the same arena and has lifetime at least
// that of the arena.
type Node interface {
	// TypeID reports the node's declared (static) runtime type.
	TypeID() types.ID
	// Evaluate computes the node's value against ctx. A non-nil error
	// is either *errors.FormulaError{Kind: ValueMissing} (recoverable
	// by the left operand of OR and by arrow filters) or a structural
	// error that must propagate to the caller.
	Evaluate(ctx *evalctx.Context) (Value, error)
	// String returns the canonical printed form. Two nodes with equal
	// printed forms under the same grammar are semantically
	// equivalent; the factorizer relies on this for structural
	// common-subexpression elimination.
	String() string
	// Complexity is a small non-negative cost estimate; unitary
	// operations are ~1.
	Complexity() int
}

// RequireType returns a TypeMismatch error unless n's declared type is
// exactly want. This is the Go analogue of the source engine's
// as_T() typed accessors: it checks the statically declared type, not
// the dynamically evaluated value.
func RequireType(n Node, want types.ID, reg *types.Registry) error {
	if n.TypeID() != want {
		return errors.New(errors.TypeMismatch,
			"type mismatch: %q has type %s, expected %s",
			n.String(), reg.Name(n.TypeID()), reg.Name(want))
	}
	return nil
}

// RequireSameType returns a TypeMismatch error unless a and b declare
// the same type. Used by OnChoice to enforce that both branches of a
// ternary agree on type.
func RequireSameType(a, b Node, reg *types.Registry) error {
	if a.TypeID() != b.TypeID() {
		return errors.New(errors.TypeMismatch,
			"type mismatch: branches %q (%s) and %q (%s) disagree",
			a.String(), reg.Name(a.TypeID()), b.String(), reg.Name(b.TypeID()))
	}
	return nil
}

// asBool type-asserts a runtime Value to its Bool representation. It
// panics on mismatch, which should be unreachable given RequireType
// checks performed at construction time; a violation here is an
// engine invariant failure, not a user-facing error.
func asBool(v Value) bool {
	b, ok := v.(BoolValue)
	if !ok {
		panic(fmt.Sprintf("formula: internal: expected BoolValue, got %T", v))
	}
	return bool(b)
}
