// Package grammar implements the keyed operator dispatch table:
// operator key (left type, right type, symbol) to instantiator, with
// chain-of-responsibility lookup across linked parent grammars.
package grammar

import (
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

// UnaryKey identifies a unary or attribute operator: an input type and
// a symbol (the operator glyph, or the attribute/cast name).
type UnaryKey struct {
	In     types.ID
	Symbol string
}

// BinaryKey identifies a binary, arrow, or arrow-partial operator: a
// (left, right, symbol) triple. Arrow-partial entries use types.Void
// for Right (the same sentinel unary and fact lookups use for "no
// right operand"), marking the pre-declaration the parser needs
// before it has parsed the predicate.
type BinaryKey struct {
	Left   types.ID
	Right  types.ID
	Symbol string
}

// UnaryInstantiator builds a unary (or attribute/cast) node from an
// already-parsed child.
type UnaryInstantiator struct {
	OutType types.ID
	Build   func(child expr.Node) (expr.Node, error)
}

// BinaryInstantiator builds a binary node from two already-parsed
// operands.
type BinaryInstantiator struct {
	OutType types.ID
	Build   func(left, right expr.Node) (expr.Node, error)
}

// ArrowInstantiator builds the `->` filter node. ElemType lets the
// parser declare the predicate's local-variable binding before it
// descends into the predicate expression (this is what the
// auto-registered partial key exists for).
type ArrowInstantiator struct {
	ElemType types.ID
	OutType  types.ID
	Build    func(container expr.Node, predicate expr.Node, slot *expr.LocalSlot, localName string) (expr.Node, error)
}

// FactInstantiator builds a fact-reference node for a registered fact
// name.
type FactInstantiator struct {
	OutType types.ID
	Build   func(name string) (expr.Node, error)
}

// Observer is attached to a Grammar via AddObserver and is notified of
// every freshly registered type and every node the Parser driver
// builds; it may substitute a different (presumably optimised) node
// for the one just built. The optimizer's Factorizer is the
// canonical Observer implementation.
type Observer interface {
	OnNewType(id types.ID, name string)
	OnNode(n expr.Node) (expr.Node, error)
}

// Grammar is the operator/type/fact registry a Parser consults while
// building a tree. Lookups that miss fall through to a linked parent
// grammar, then fail with OperatorNotFound.
type Grammar struct {
	Types *types.Registry

	unary   map[UnaryKey]UnaryInstantiator
	binary  map[BinaryKey]BinaryInstantiator
	arrow   map[BinaryKey]ArrowInstantiator
	facts   map[string]FactInstantiator

	parent    *Grammar
	observers []Observer
}

// New creates an empty Grammar backed by a fresh type registry.
func New() *Grammar {
	return &Grammar{
		Types:  types.NewRegistry(),
		unary:  make(map[UnaryKey]UnaryInstantiator),
		binary: make(map[BinaryKey]BinaryInstantiator),
		arrow:  make(map[BinaryKey]ArrowInstantiator),
		facts:  make(map[string]FactInstantiator),
	}
}

// LinkParent chains this grammar to a parent: lookups that miss here
// fall through to parent before failing.
func (g *Grammar) LinkParent(parent *Grammar) {
	g.parent = parent
}

// AddObserver attaches an optimiser (or any other node-substitution
// hook) to the grammar.
func (g *Grammar) AddObserver(o Observer) {
	g.observers = append(g.observers, o)
}

// RegisterType interns name in the grammar's type registry and
// notifies every attached observer with the new id and name. A
// Factorizer only records the name; its memoizing wrapper is the same
// for every type.
func (g *Grammar) RegisterType(name string) types.ID {
	id := g.Types.Register(name)
	for _, o := range g.observers {
		o.OnNewType(id, name)
	}
	return id
}

// RegisterUnaryOp installs a unary instantiator keyed by (inType,
// symbol). It is an error to register the same key twice within one
// grammar.
func (g *Grammar) RegisterUnaryOp(inType, outType types.ID, symbol string, build func(child expr.Node) (expr.Node, error)) error {
	key := UnaryKey{In: inType, Symbol: symbol}
	if _, exists := g.unary[key]; exists {
		return errors.New(errors.Internal, "operator %q already registered for type %s", symbol, g.Types.Name(inType))
	}
	g.unary[key] = UnaryInstantiator{OutType: outType, Build: build}
	return nil
}

// RegisterAttribute installs a unary op addressed by attribute name.
// fn computes the attribute's value from the already-evaluated
// object; it must always succeed. Use RegisterOptionalAttribute for
// attributes that can be legitimately absent.
func (g *Grammar) RegisterAttribute(inType, outType types.ID, name string, fn expr.UnaryFunc) error {
	return g.RegisterUnaryOp(inType, outType, name, func(child expr.Node) (expr.Node, error) {
		return expr.NewAttribute(child, name, outType, fn), nil
	})
}

// RegisterOptionalAttribute installs an attribute whose value may be
// absent on a given instance without that being an error: a miss sets
// the context's NaN flag instead of raising ValueMissing.
func (g *Grammar) RegisterOptionalAttribute(inType, outType types.ID, name string, fn expr.OptionalFunc) error {
	return g.RegisterUnaryOp(inType, outType, name, func(child expr.Node) (expr.Node, error) {
		return expr.NewOptionalAttribute(child, name, outType, fn), nil
	})
}

// RegisterCast installs a `(typeName)expr` cast from fromType to
// toType. The key symbol is the "(toName)" prefix Cast.String() prints
// before its child, so the Parser driver's on_cast callback can look
// it up purely from the target type name.
func (g *Grammar) RegisterCast(fromType, toType types.ID, toName string, fn expr.UnaryFunc) error {
	return g.RegisterUnaryOp(fromType, toType, "("+toName+")", func(child expr.Node) (expr.Node, error) {
		return expr.NewCast(child, toName, toType, fn), nil
	})
}

// RegisterBinaryOp installs a binary instantiator keyed by (lhsType,
// rhsType, symbol).
func (g *Grammar) RegisterBinaryOp(lhsType, rhsType, outType types.ID, symbol string, build func(left, right expr.Node) (expr.Node, error)) error {
	key := BinaryKey{Left: lhsType, Right: rhsType, Symbol: symbol}
	if _, exists := g.binary[key]; exists {
		return errors.New(errors.Internal, "operator %q already registered for (%s, %s)", symbol, g.Types.Name(lhsType), g.Types.Name(rhsType))
	}
	g.binary[key] = BinaryInstantiator{OutType: outType, Build: build}
	return nil
}

// RegisterArrowOp installs the `->` instantiator under the full key
// (lhsType, bool, symbol), bool being the predicate's type, and under
// the partial key (lhsType, void, symbol) the parser uses to learn the
// predicate's local-variable type (the instantiator's ElemType) before
// parsing it.
func (g *Grammar) RegisterArrowOp(lhsType, elemType, outType types.ID, symbol string, build func(container, predicate expr.Node, slot *expr.LocalSlot, localName string) (expr.Node, error)) error {
	key := BinaryKey{Left: lhsType, Right: types.Bool, Symbol: symbol}
	if _, exists := g.arrow[key]; exists {
		return errors.New(errors.Internal, "arrow operator %q already registered for %s", symbol, g.Types.Name(lhsType))
	}
	inst := ArrowInstantiator{ElemType: elemType, OutType: outType, Build: build}
	g.arrow[key] = inst
	g.arrow[BinaryKey{Left: lhsType, Right: types.Void, Symbol: symbol}] = inst // partial key for DeclareLocal
	return nil
}

// RegisterFactResolver installs the default resolver for a fact name.
func (g *Grammar) RegisterFactResolver(name string, outType types.ID, build func(name string) (expr.Node, error)) error {
	if _, exists := g.facts[name]; exists {
		return errors.New(errors.Internal, "fact %q already registered", name)
	}
	g.facts[name] = FactInstantiator{OutType: outType, Build: build}
	return nil
}

// LookupUnary resolves a unary/attribute/cast instantiator, falling
// through to the parent chain on miss.
func (g *Grammar) LookupUnary(key UnaryKey) (UnaryInstantiator, bool) {
	if inst, ok := g.unary[key]; ok {
		return inst, true
	}
	if g.parent != nil {
		return g.parent.LookupUnary(key)
	}
	return UnaryInstantiator{}, false
}

// LookupBinary resolves a binary instantiator, falling through to the
// parent chain on miss.
func (g *Grammar) LookupBinary(key BinaryKey) (BinaryInstantiator, bool) {
	if inst, ok := g.binary[key]; ok {
		return inst, true
	}
	if g.parent != nil {
		return g.parent.LookupBinary(key)
	}
	return BinaryInstantiator{}, false
}

// LookupArrow resolves an arrow (or arrow-partial) instantiator,
// falling through to the parent chain on miss.
func (g *Grammar) LookupArrow(key BinaryKey) (ArrowInstantiator, bool) {
	if inst, ok := g.arrow[key]; ok {
		return inst, true
	}
	if g.parent != nil {
		return g.parent.LookupArrow(key)
	}
	return ArrowInstantiator{}, false
}

// LookupFact resolves a fact resolver by name, falling through to the
// parent chain on miss.
func (g *Grammar) LookupFact(name string) (FactInstantiator, bool) {
	if inst, ok := g.facts[name]; ok {
		return inst, true
	}
	if g.parent != nil {
		return g.parent.LookupFact(name)
	}
	return FactInstantiator{}, false
}

// Observe runs n through every attached observer in registration
// order, returning the (possibly substituted) final node. Used by the
// Parser driver after it builds each node.
func (g *Grammar) Observe(n expr.Node) (expr.Node, error) {
	for _, o := range g.observers {
		replaced, err := o.OnNode(n)
		if err != nil {
			return nil, err
		}
		n = replaced
	}
	return n, nil
}
