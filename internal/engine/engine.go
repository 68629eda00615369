// Package engine wires the reusable pieces (grammar, primitive
// operator table, optimizer, and the airline worked example) into
// the single Grammar the CLI parses and evaluates formulas against.
// It exists so cmd/formula's subcommands share one construction path
// instead of three slightly-different copies of the same setup.
package engine

import (
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/airline"
	"github.com/silvergrid/formula/internal/corebuiltins"
	"github.com/silvergrid/formula/optimizer"
)

// Engine bundles a ready-to-parse Grammar with the host type ids the
// airline worked example registered on it.
type Engine struct {
	Grammar *grammar.Grammar
	Airline airline.Types
}

// New builds a Grammar with the primitive operator table and the
// airline domain types registered. When optimize is true, a
// Factorizer is attached as an observer so every node the parser
// driver builds is run through common-subexpression elimination,
// constant folding, and single-fact memoization.
func New(optimize bool) (*Engine, error) {
	g := grammar.New()
	if optimize {
		g.AddObserver(optimizer.New())
	}
	if err := corebuiltins.Register(g); err != nil {
		return nil, err
	}
	at, err := airline.Register(g)
	if err != nil {
		return nil, err
	}
	return &Engine{Grammar: g, Airline: at}, nil
}
