// Package arena provides a bump-style allocator with deterministic,
// LIFO-ordered teardown. A single Arena owns every node and every
// interned string produced while compiling one formula; dropping the
// Arena (calling Clean) releases everything it tracked, in strict
// reverse construction order.
//
// Go has no raw memory arenas to hand out, so this package does not
// attempt to bypass the garbage collector. What the contract actually
// requires is deterministic, ordered teardown of resources that a
// compiled tree accumulates, mainly interned strings and anything a
// host registers a finalizer for, and that is fully preserved.
package arena

import "sync"

// finalizer is a type-erased teardown callback pushed onto the arena's
// destroyer stack when a tracked value is created.
type finalizer func()

// Arena owns every node and interned string created for the lifetime
// of one compiled formula. It is not safe for concurrent use; arenas
// are single-threaded by contract.
type Arena struct {
	mu         sync.Mutex
	finalizers []finalizer
	interned   map[string]string
	blocks     int // number of oversized/standalone allocations tracked, for diagnostics
	generation uint64
}

// New creates an Arena. initialHint is advisory only, sizing the
// intern table; it is clamped to [128, 8192].
func New(initialHint int) *Arena {
	if initialHint < 128 {
		initialHint = 128
	}
	if initialHint > 8192 {
		initialHint = 8192
	}
	return &Arena{
		interned: make(map[string]string, initialHint/16+1),
	}
}

// Create allocates an untracked value: no finalizer is pushed. Use
// this for plain data (node payloads, printed forms) that needs no
// teardown ordering.
func Create[T any](a *Arena, v T) *T {
	p := new(T)
	*p = v
	return p
}

// CreateTracked allocates a value and pushes its finalizer onto the
// arena's LIFO destroyer chain. Clean() will invoke finalizers in
// strict reverse order of creation, so a value created later is torn
// down before one created earlier; this is load-bearing for nodes
// that embed interned strings or memoization caches that must outlive
// anything referencing them structurally but not temporally.
func CreateTracked[T any](a *Arena, v T, cleanup func(*T)) *T {
	p := new(T)
	*p = v
	a.mu.Lock()
	a.finalizers = append(a.finalizers, func() { cleanup(p) })
	a.mu.Unlock()
	return p
}

// Intern returns a canonical, arena-owned copy of s. Repeated interning
// of equal strings returns the same underlying string value, which lets
// node printed-forms and fact names be compared cheaply by the
// factorizer without re-hashing large expressions.
func (a *Arena) Intern(s string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.interned[s]; ok {
		return existing
	}
	a.interned[s] = s
	return s
}

// Generation returns a counter that increments every time Clean runs.
// It has no required semantics beyond monotonicity; it exists so
// long-lived host code can detect "this arena has been recycled"
// without holding a direct reference comparison.
func (a *Arena) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Clean pops and invokes every registered finalizer in strict reverse
// construction order, then discards all interned strings. It does not
// release the Arena struct itself: the same *Arena can be handed a
// fresh compilation immediately after Clean returns.
func (a *Arena) Clean() {
	a.mu.Lock()
	finalizers := a.finalizers
	a.finalizers = nil
	a.interned = make(map[string]string)
	a.generation++
	a.mu.Unlock()

	for i := len(finalizers) - 1; i >= 0; i-- {
		finalizers[i]()
	}
}
