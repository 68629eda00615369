// Package parser implements the parser driver: the
// callback surface an external lexer/parser calls into while walking
// formula source, translating each production directly into an
// expr.Node via grammar lookups. The driver owns no tokenizing logic
// of its own (internal/syntax plays that role for this repository's
// CLI and tests), so any front end that can call these methods in
// the right order can drive the same engine.
package parser

import (
	"github.com/silvergrid/formula/arena"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/grammar"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

// localBinding is one entry of the driver's lexical-scope stack, set
// up by declare_local and torn down by pop_local around an arrow's
// predicate.
type localBinding struct {
	name     string
	slot     *expr.LocalSlot
	elemType types.ID
}

// Driver builds an expr.Node tree against a Grammar, one callback per
// surface-grammar production. Every node it constructs is
// routed through the grammar's attached observers (the Factorizer,
// when one is attached) before being handed back to the caller.
// Symbol and fact-name strings are interned into the arena that owns
// the tree being built, so repeated occurrences share one arena-owned
// copy whose lifetime matches the nodes referencing it.
type Driver struct {
	g      *grammar.Grammar
	arena  *arena.Arena
	locals []localBinding
}

// New builds a Driver against g. a owns the interned strings of the
// tree under construction; nil disables interning.
func New(g *grammar.Grammar, a *arena.Arena) *Driver {
	return &Driver{g: g, arena: a}
}

func (d *Driver) observe(n expr.Node) (expr.Node, error) {
	return d.g.Observe(n)
}

func (d *Driver) intern(s string) string {
	if d.arena == nil {
		return s
	}
	return d.arena.Intern(s)
}

// OnConstant builds a literal node.
func (d *Driver) OnConstant(v expr.Value) (expr.Node, error) {
	return d.observe(expr.NewConstant(v))
}

// OnFact resolves a `$name` reference. The arrow-local overlay is
// consulted first (innermost scope wins, so a nested arrow's local
// correctly shadows an outer one sharing its name), falling through
// to the grammar's registered fact resolvers.
func (d *Driver) OnFact(name string) (expr.Node, error) {
	name = d.intern(name)
	for i := len(d.locals) - 1; i >= 0; i-- {
		if d.locals[i].name == name {
			b := d.locals[i]
			return d.observe(expr.NewLocalRef(name, b.slot, b.elemType))
		}
	}
	inst, ok := d.g.LookupFact(name)
	if !ok {
		return nil, errors.New(errors.MissingFact, "no resolver registered for fact %q", name)
	}
	n, err := inst.Build(name)
	if err != nil {
		return nil, err
	}
	return d.observe(n)
}

// OnUnary builds a prefix unary node (e.g. `!`, `-`) for symbol over
// an already-parsed child.
func (d *Driver) OnUnary(symbol string, child expr.Node) (expr.Node, error) {
	symbol = d.intern(symbol)
	inst, ok := d.g.LookupUnary(grammar.UnaryKey{In: child.TypeID(), Symbol: symbol})
	if !ok {
		return nil, errors.New(errors.OperatorNotFound, "no unary operator %q for %s", symbol, d.g.Types.Name(child.TypeID()))
	}
	n, err := inst.Build(child)
	if err != nil {
		return nil, err
	}
	return d.observe(n)
}

// OnAttribute builds a `.name` attribute-access node over obj.
func (d *Driver) OnAttribute(obj expr.Node, name string) (expr.Node, error) {
	name = d.intern(name)
	inst, ok := d.g.LookupUnary(grammar.UnaryKey{In: obj.TypeID(), Symbol: name})
	if !ok {
		return nil, errors.New(errors.OperatorNotFound, "no attribute %q on %s", name, d.g.Types.Name(obj.TypeID()))
	}
	n, err := inst.Build(obj)
	if err != nil {
		return nil, err
	}
	return d.observe(n)
}

// OnCast builds a `(typeName)expr` cast node. The target type must
// already be registered and a cast instantiator must exist from
// child's declared type to it.
func (d *Driver) OnCast(targetTypeName string, child expr.Node) (expr.Node, error) {
	targetTypeName = d.intern(targetTypeName)
	if _, ok := d.g.Types.Lookup(targetTypeName); !ok {
		return nil, errors.New(errors.UnregisteredType, "unregistered type %q", targetTypeName)
	}
	inst, ok := d.g.LookupUnary(grammar.UnaryKey{In: child.TypeID(), Symbol: "(" + targetTypeName + ")"})
	if !ok {
		return nil, errors.New(errors.OperatorNotFound, "no cast from %s to %s", d.g.Types.Name(child.TypeID()), targetTypeName)
	}
	n, err := inst.Build(child)
	if err != nil {
		return nil, err
	}
	return d.observe(n)
}

// OnBinary builds a binary node for symbol over two already-parsed
// operands. `&&`/`AND` and `||`/`OR` are intrinsic: they require both
// operands be Bool and never consult the grammar table, since their
// short-circuit and NaN-recovery behavior is fixed by the engine
// rather than host-registrable.
func (d *Driver) OnBinary(symbol string, left, right expr.Node) (expr.Node, error) {
	symbol = d.intern(symbol)
	switch symbol {
	case "&&", "AND":
		if err := expr.RequireType(left, types.Bool, d.g.Types); err != nil {
			return nil, err
		}
		if err := expr.RequireType(right, types.Bool, d.g.Types); err != nil {
			return nil, err
		}
		return d.observe(expr.NewLogicalAnd(left, right))
	case "||", "OR":
		if err := expr.RequireType(left, types.Bool, d.g.Types); err != nil {
			return nil, err
		}
		if err := expr.RequireType(right, types.Bool, d.g.Types); err != nil {
			return nil, err
		}
		return d.observe(expr.NewLogicalOr(left, right))
	}

	inst, ok := d.g.LookupBinary(grammar.BinaryKey{Left: left.TypeID(), Right: right.TypeID(), Symbol: symbol})
	if !ok {
		return nil, errors.New(errors.OperatorNotFound, "no operator %q for (%s, %s)", symbol,
			d.g.Types.Name(left.TypeID()), d.g.Types.Name(right.TypeID()))
	}
	n, err := inst.Build(left, right)
	if err != nil {
		return nil, err
	}
	return d.observe(n)
}

// OnChoice builds a `cond ? then : else` ternary, requiring a Bool
// condition and agreeing branch types.
func (d *Driver) OnChoice(cond, then, els expr.Node) (expr.Node, error) {
	if err := expr.RequireType(cond, types.Bool, d.g.Types); err != nil {
		return nil, err
	}
	if err := expr.RequireSameType(then, els, d.g.Types); err != nil {
		return nil, err
	}
	return d.observe(expr.NewChoice(cond, then, els))
}

// DeclareLocal opens the arrow-local scope `localName` binds inside
// container's element predicate, returning the mutable slot the
// enclosing Filter will rebind per element. elemType is learned from
// the arrow-partial grammar entry container's type registered via
// RegisterArrowOp (keyed with types.Void as the right-hand side).
func (d *Driver) DeclareLocal(containerType types.ID, symbol, localName string) (*expr.LocalSlot, types.ID, error) {
	partial, ok := d.g.LookupArrow(grammar.BinaryKey{Left: containerType, Right: types.Void, Symbol: symbol})
	if !ok {
		return nil, types.Void, errors.New(errors.OperatorNotFound, "no arrow operator %q for %s", symbol, d.g.Types.Name(containerType))
	}
	slot := &expr.LocalSlot{}
	d.locals = append(d.locals, localBinding{name: localName, slot: slot, elemType: partial.ElemType})
	return slot, partial.ElemType, nil
}

// PopLocal closes the innermost scope opened by DeclareLocal, once
// the predicate expression it covers has been fully parsed.
func (d *Driver) PopLocal() {
	d.locals = d.locals[:len(d.locals)-1]
}

// OnArrow builds the `container -> local ? predicate` filter node.
// slot and localName must come from the matching DeclareLocal/PopLocal
// pair that bracketed parsing of predicate.
func (d *Driver) OnArrow(symbol string, container, predicate expr.Node, slot *expr.LocalSlot, localName string) (expr.Node, error) {
	if err := expr.RequireType(predicate, types.Bool, d.g.Types); err != nil {
		return nil, err
	}
	inst, ok := d.g.LookupArrow(grammar.BinaryKey{Left: container.TypeID(), Right: types.Bool, Symbol: symbol})
	if !ok {
		return nil, errors.New(errors.OperatorNotFound, "no arrow operator %q for %s", symbol, d.g.Types.Name(container.TypeID()))
	}
	n, err := inst.Build(container, predicate, slot, localName)
	if err != nil {
		return nil, err
	}
	return d.observe(n)
}
