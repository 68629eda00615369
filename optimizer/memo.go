package optimizer

import (
	"math"
	"sync"

	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/expr"
	"github.com/silvergrid/formula/types"
)

// memoNode wraps a node that depends on exactly one fact and costs
// more than ComplexityThreshold to recompute. The cache is
// keyed by the controlling fact's current value (the encoded bit
// pattern for scalar facts, the raw value pointer for object-like
// facts), so re-evaluating against the same fact value is a lookup,
// while a new scalar value behind the same name, or a different object
// pointer, misses and recomputes. An object mutated in place behind the
// same pointer still hits. The whole cache is dropped whenever the
// Context's unique id changes: ids come from a monotonic counter and
// never repeat, so entries built under a previous id can never be
// replayed against facts they were not computed from.
//
// The cached NaN outcome is replayed on a hit so a memoized
// ValueMissing/NaN result still has the same side effect on ctx it
// would have had if recomputed.
type memoNode struct {
	inner    expr.Node
	factName string

	mu        sync.Mutex
	lastCtxID uint64
	cache     map[any]memoEntry
}

type memoEntry struct {
	value expr.Value
	err   error
	nan   bool
}

// maxMemoEntries bounds cache growth for a fact that takes many
// distinct values within one evaluation pass; once exceeded the whole
// cache is dropped rather than tracking per-entry recency.
const maxMemoEntries = 4096

func newMemoNode(inner expr.Node, factName string) *memoNode {
	return &memoNode{inner: inner, factName: factName, cache: make(map[any]memoEntry)}
}

// factKey extracts the cache key from the controlling fact's holder:
// the dereferenced value for scalar types (the double goes through
// math.Float64bits so negative zero and NaN payloads key distinctly),
// the raw host pointer for everything else. The false result means the
// fact is unbound or holds an unexpected pointer shape; such
// evaluations bypass the cache entirely.
func factKey(f *evalctx.Fact) (any, bool) {
	switch f.TypeID {
	case types.Bool:
		if p, ok := f.Ptr.(*bool); ok {
			return *p, true
		}
	case types.Int:
		if p, ok := f.Ptr.(*int64); ok {
			return *p, true
		}
	case types.Double:
		if p, ok := f.Ptr.(*float64); ok {
			return math.Float64bits(*p), true
		}
	case types.String:
		if p, ok := f.Ptr.(*string); ok {
			return *p, true
		}
	default:
		return f.Ptr, true
	}
	return nil, false
}

func (m *memoNode) TypeID() types.ID { return m.inner.TypeID() }

func (m *memoNode) Evaluate(ctx *evalctx.Context) (expr.Value, error) {
	fact, ok := ctx.GetFact(m.factName)
	if !ok {
		// Unbound fact: the inner node raises MissingFact on its own.
		return m.inner.Evaluate(ctx)
	}
	key, ok := factKey(fact)
	if !ok {
		return m.inner.Evaluate(ctx)
	}

	id := ctx.ID()
	m.mu.Lock()
	if m.lastCtxID != id {
		m.lastCtxID = id
		m.cache = make(map[any]memoEntry)
	}
	if entry, ok := m.cache[key]; ok {
		m.mu.Unlock()
		ctx.SetNaN(entry.nan)
		return entry.value, entry.err
	}
	m.mu.Unlock()

	v, err := m.inner.Evaluate(ctx)
	entry := memoEntry{value: v, err: err, nan: ctx.NaN()}

	m.mu.Lock()
	if m.lastCtxID == id {
		if len(m.cache) >= maxMemoEntries {
			m.cache = make(map[any]memoEntry)
		}
		m.cache[key] = entry
	}
	m.mu.Unlock()

	return v, err
}

func (m *memoNode) String() string { return m.inner.String() }

func (m *memoNode) Complexity() int { return m.inner.Complexity() }
