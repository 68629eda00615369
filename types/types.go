// Package types implements the engine's value-type registry: a small,
// stable set of non-zero integer ids, one per distinct value type a
// grammar knows about. Six ids are predefined; anything a host
// registers gets an id starting at ReservedBound.
package types

import (
	"fmt"
	"sync"

	"github.com/silvergrid/formula/internal/errors"
)

// ID is a stable, non-zero identifier for a value type. Zero (Void) is
// the sentinel used for "no right operand" in unary operator keys.
type ID int

// Predefined type ids. Host-registered types start at ReservedBound.
const (
	Void ID = iota
	String
	Int
	Double
	Bool
	Fact

	// ReservedBound is the first id available to host-registered types.
	ReservedBound ID = 100
)

var builtinNames = map[ID]string{
	Void:   "void",
	String: "string",
	Int:    "int",
	Double: "double",
	Bool:   "bool",
	Fact:   "fact",
}

// Registry assigns and remembers canonical names for type ids. A
// single Registry is normally shared by a Grammar and every Grammar
// chained to it via a parent link, since operator keys embed these
// ids directly.
type Registry struct {
	mu      sync.RWMutex
	names   map[ID]string
	ids     map[string]ID
	nextID  ID
}

// NewRegistry returns a Registry pre-seeded with the six built-in
// types.
func NewRegistry() *Registry {
	r := &Registry{
		names:  make(map[ID]string, len(builtinNames)+8),
		ids:    make(map[string]ID, len(builtinNames)+8),
		nextID: ReservedBound,
	}
	for id, name := range builtinNames {
		r.names[id] = name
		r.ids[name] = id
	}
	return r
}

// Register returns the id for name, allocating a fresh one starting at
// ReservedBound if name hasn't been seen before. Re-registering an
// already-known name is a no-op that returns the existing id.
func (r *Registry) Register(name string) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := r.nextID
	r.nextID++
	r.names[id] = name
	r.ids[name] = id
	return id
}

// RegisterName overrides the canonical display name of an
// already-registered id. Hosts use this to replace the
// "type#<id>" fallback (see Name) with a meaningful name.
func (r *Registry) RegisterName(id ID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.names[id]; ok {
		delete(r.ids, old)
	}
	r.names[id] = name
	r.ids[name] = id
}

// Lookup returns the id registered for name, if any.
func (r *Registry) Lookup(name string) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[name]
	return id, ok
}

// MustLookup is Lookup but returns an UnregisteredType FormulaError
// instead of a boolean when name is unknown.
func (r *Registry) MustLookup(name string) (ID, error) {
	id, ok := r.Lookup(name)
	if !ok {
		return Void, errors.New(errors.UnregisteredType, "unregistered type %q", name)
	}
	return id, nil
}

// Name returns the canonical name for id. Unknown host ids fall back
// to "type#<id>"; hosts are expected to call RegisterName for
// anything user-visible.
func (r *Registry) Name(id ID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[id]; ok {
		return name
	}
	return fmt.Sprintf("type#%d", id)
}

// UnregisteredTypeError reports use of a type name that was never
// registered.
type UnregisteredTypeError struct {
	Name string
}

func (e *UnregisteredTypeError) Error() string {
	return fmt.Sprintf("formula: unregistered type %q", e.Name)
}
