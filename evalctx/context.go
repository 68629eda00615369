// Package evalctx implements the per-evaluation Context:
// an arena handle, a monotonically increasing unique id, the
// in-band NaN signalling flag, and the named-fact map formulas read
// from at evaluation time.
package evalctx

import (
	"sync/atomic"

	"github.com/silvergrid/formula/arena"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

var idCounter atomic.Uint64

func nextID() uint64 {
	return idCounter.Add(1)
}

// Fact is a type-erased holder owning a pointer to a host value. The
// context never copies a fact's payload; it stores the pointer the
// host handed it, so in-place mutation by the host is visible on the
// next evaluation without re-registering the fact.
type Fact struct {
	TypeID types.ID
	Ptr    any // always a pointer to the underlying host value
}

// Context is the per-evaluation scratch area formulas read and write
// while being evaluated. A single compiled tree may be evaluated by
// many contexts (each with its own facts/arena) but never
// concurrently by more than one goroutine against the same context.
type Context struct {
	arena *arena.Arena
	id    uint64
	nan   bool
	facts map[string]*Fact
}

// New creates a Context. If a is nil, a small private arena is
// allocated for this context's own scratch needs (it is not shared
// with the arena that owns the compiled tree being evaluated).
func New(a *arena.Arena) *Context {
	if a == nil {
		a = arena.New(128)
	}
	return &Context{
		arena: a,
		id:    nextID(),
		facts: make(map[string]*Fact),
	}
}

// Arena returns the context's scratch arena.
func (c *Context) Arena() *arena.Arena { return c.arena }

// ID returns the context's current unique id. It changes on every
// Clean() call; node-local caches that tag themselves with an id
// compare against this value to know when to invalidate.
func (c *Context) ID() uint64 { return c.id }

// NaN reports whether the current evaluation has encountered a
// missing/invalid value.
func (c *Context) NaN() bool { return c.nan }

// SetNaN sets or clears the NaN flag. Short-circuit OR and arrow
// filters use this to implement their recovery behavior.
func (c *Context) SetNaN(v bool) { c.nan = v }

// ResetNaN clears the flag; the engine's public Evaluate entry point
// calls this before walking a tree so that state from a previous
// evaluation never leaks into the next one run against the same
// context.
func (c *Context) ResetNaN() { c.nan = false }

// SetFact binds name to a pointer to a host value of the given type.
// Re-binding a name to a different TypeID is an error; a fact's type
// is fixed for the life of the context.
func (c *Context) SetFact(name string, typeID types.ID, ptr any) error {
	if existing, ok := c.facts[name]; ok && existing.TypeID != typeID {
		return errors.New(errors.Internal, "fact %q already bound to a different type", name)
	}
	c.facts[name] = &Fact{TypeID: typeID, Ptr: ptr}
	return nil
}

// GetFact looks up a fact by name. The boolean result is false if the
// name is unbound in this context.
func (c *Context) GetFact(name string) (*Fact, bool) {
	f, ok := c.facts[name]
	return f, ok
}

// Clean clears all facts and bumps the unique id, then cleans the
// owned arena (invoking its LIFO finalizer chain). Use this to recycle
// a Context for an unrelated evaluation without re-allocating it.
func (c *Context) Clean() {
	c.facts = make(map[string]*Fact)
	c.nan = false
	c.id = nextID()
	c.arena.Clean()
}
