// Package optimizer implements the Factorizer: a
// grammar.Observer that canonicalizes repeated subexpressions,
// constant-folds fact-independent nodes, and memoizes expensive
// single-fact-dependent nodes, all without the Parser driver or the
// expr package knowing optimization happened.
package optimizer

import (
	"sync"

	"github.com/silvergrid/formula/arena"
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/types"
)

// ComplexityThreshold is the minimum Complexity() a single-fact node
// must have before the Factorizer bothers wrapping it in a memoizing
// cache: cheap nodes cost more to memoize than to recompute.
const ComplexityThreshold = 5

const localSentinelPrefix = "\x00local:"

// Factorizer is attached to a grammar.Grammar via AddObserver. It is
// safe for concurrent use by a single Parser driver only; it is not
// meant to be shared across parsers running on different goroutines.
type Factorizer struct {
	mu       sync.Mutex
	info     map[expr.Node]*nodeInfo
	canon    map[string]expr.Node
	typeName map[types.ID]string
}

type nodeInfo struct {
	facts      map[string]struct{}
	printed    string
	complexity int
}

// New creates an empty Factorizer.
func New() *Factorizer {
	return &Factorizer{
		info:     make(map[expr.Node]*nodeInfo),
		canon:    make(map[string]expr.Node),
		typeName: make(map[types.ID]string),
	}
}

// OnNewType records a type registration for diagnostic purposes; the
// factorizer's substitutions are otherwise type-agnostic.
func (f *Factorizer) OnNewType(id types.ID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typeName[id] = name
}

// OnNode is called by the grammar after every node the Parser driver
// builds, in construction order (children before parents). It may
// return a different node than the one it was given.
func (f *Factorizer) OnNode(n expr.Node) (expr.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	facts := f.collectFacts(n)
	printed := n.String()

	if !hasLocalDependency(facts) {
		if canon, ok := f.canon[printed]; ok {
			// An identically-printed, fact-equivalent subexpression
			// already exists; reuse it instead of keeping a
			// duplicate node around.
			return canon, nil
		}
	}

	info := &nodeInfo{facts: facts, printed: printed, complexity: n.Complexity()}

	result := n
	switch {
	case len(facts) == 0:
		if folded, ok := f.constantFold(n, printed); ok {
			result = folded
		}
	case len(facts) == 1 && info.complexity > ComplexityThreshold:
		var factName string
		for name := range facts {
			factName = name
		}
		result = newMemoNode(n, factName)
	}

	f.info[result] = info
	if !hasLocalDependency(facts) {
		f.canon[printed] = result
	}
	return result, nil
}

// collectFacts returns the set of fact names n's evaluation depends
// on, by unioning its children's recorded sets (children were already
// observed, so their entries exist in f.info) plus, for a FactRef
// itself, its own name. Arrow-local variables contribute a synthetic
// sentinel rather than a real fact name: they must never be treated
// as fact-independent (which would constant-fold them using a stale
// or nil local slot) nor merged across two different arrows that
// happen to print identically but bind distinct LocalSlots.
//
// A Filter node discharges its own local's sentinel (the binding is
// resolved once the filter exists) but keeps every other name its
// predicate depends on: anything that iterates the filter (count, in,
// a nested arrow) re-runs the predicate, so the predicate's facts are
// facts of the filter too.
func (f *Factorizer) collectFacts(n expr.Node) map[string]struct{} {
	if ref, ok := n.(*expr.FactRef); ok {
		return map[string]struct{}{ref.Name: {}}
	}
	if local, ok := n.(*expr.LocalRef); ok {
		return map[string]struct{}{localSentinelPrefix + local.Name: {}}
	}

	union := make(map[string]struct{})
	for _, child := range nodeChildren(n) {
		childInfo, ok := f.info[child]
		if !ok {
			continue
		}
		for name := range childInfo.facts {
			union[name] = struct{}{}
		}
	}
	if flt, ok := n.(*expr.Filter); ok {
		delete(union, localSentinelPrefix+flt.LocalName)
	}
	return union
}

func hasLocalDependency(facts map[string]struct{}) bool {
	for name := range facts {
		if len(name) >= len(localSentinelPrefix) && name[:len(localSentinelPrefix)] == localSentinelPrefix {
			return true
		}
	}
	return false
}

// constantFold evaluates n once, in a throwaway arena/context with no
// facts bound, and replaces it with a Constant carrying the original
// printed form, so later String()/CSE still reflect the source text.
// Folding is skipped, leaving n in place, if evaluation
// errors or leaves the NaN flag set: an unconditionally-missing
// expression is not the same as a literal, and later grammar changes
// (another fact becoming available) must not be foreclosed by a
// premature fold baked in at parse time. A Filter never folds even
// when fact-free: its evaluated value is a view bound to the Context
// it was evaluated against, which here is the throwaway one.
func (f *Factorizer) constantFold(n expr.Node, printed string) (expr.Node, bool) {
	if _, ok := n.(*expr.Filter); ok {
		return nil, false
	}

	a := arena.New(128)
	ctx := evalctx.New(a)
	defer ctx.Clean()

	v, err := n.Evaluate(ctx)
	if err != nil || ctx.NaN() {
		return nil, false
	}
	return expr.NewConstantWithPrintedForm(v, printed), true
}

// nodeChildren exposes the direct operand nodes of every concrete
// node kind expr defines, so the factorizer can walk the tree without
// expr itself knowing anything about optimization.
func nodeChildren(n expr.Node) []expr.Node {
	switch v := n.(type) {
	case *expr.Attribute:
		return []expr.Node{v.Child}
	case *expr.Cast:
		return []expr.Node{v.Child}
	case *expr.Unary:
		return []expr.Node{v.Child}
	case *expr.LogicalAnd:
		return []expr.Node{v.Left, v.Right}
	case *expr.LogicalOr:
		return []expr.Node{v.Left, v.Right}
	case *expr.Binary:
		return []expr.Node{v.Left, v.Right}
	case *expr.Choice:
		return []expr.Node{v.Cond, v.Then, v.Else}
	case *expr.Indexed:
		return []expr.Node{v.Container, v.Index}
	case *expr.Count:
		return []expr.Node{v.Container}
	case *expr.Empty:
		return []expr.Node{v.Container}
	case *expr.Containment:
		return []expr.Node{v.Elem, v.Container}
	case *expr.Filter:
		return []expr.Node{v.Container, v.Predicate}
	default:
		return nil
	}
}
