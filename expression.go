// Package formula is the embedding surface third-party hosts import:
// register Go types and accessors against a grammar.Grammar, parse
// formula source into a compiled Expression, bind facts into an
// evalctx.Context, and evaluate. cmd/formula
// is itself just a client of this package, not a privileged one:
// internal/airline registers its worked-example domain through the
// same calls a third-party embedder would use.
package formula

import (
	"github.com/silvergrid/formula/arena"
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/syntax"
	"github.com/silvergrid/formula/parser"
	"github.com/silvergrid/formula/types"
)

// Expression is a parsed formula ready to be evaluated. A single
// Expression may be evaluated against many Context values, each with
// its own facts, without re-parsing. The Expression owns the arena its
// interned strings live in; Close releases it.
type Expression struct {
	root  expr.Node
	g     *grammar.Grammar
	arena *arena.Arena
}

// Parse compiles source against g, running the tree through every
// observer g has attached (typically an optimizer.Factorizer) before
// returning. The Grammar determines which fact names, attributes, and
// operators source may reference.
func Parse(g *grammar.Grammar, source string) (*Expression, error) {
	a := arena.New(len(source))
	root, err := syntax.Parse(source, parser.New(g, a))
	if err != nil {
		a.Clean()
		return nil, err
	}
	return &Expression{root: root, g: g, arena: a}, nil
}

// Close runs the arena's LIFO finalizer chain and releases its
// interned strings. The Expression must not be evaluated afterward.
func (e *Expression) Close() {
	e.arena.Clean()
}

// Arena returns the arena that owns this expression's interned
// strings, for hosts that register their own tracked values against
// the compiled tree's lifetime.
func (e *Expression) Arena() *arena.Arena { return e.arena }

// Root exposes the compiled node tree, for callers that print or
// otherwise inspect the parsed structure directly.
func (e *Expression) Root() expr.Node { return e.root }

// TypeID reports the expression's static result type.
func (e *Expression) TypeID() types.ID { return e.root.TypeID() }

// String returns the expression's canonical printed form: two
// expressions with equal printed forms under the same grammar are
// semantically equivalent.
func (e *Expression) String() string { return e.root.String() }

// Evaluate runs the compiled tree against ctx, clearing any stale NaN
// flag from a previous evaluation first.
func (e *Expression) Evaluate(ctx *evalctx.Context) (expr.Value, error) {
	ctx.ResetNaN()
	return e.root.Evaluate(ctx)
}
