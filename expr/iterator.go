package expr

import (
	"github.com/silvergrid/formula/evalctx"
	"github.com/silvergrid/formula/internal/errors"
	"github.com/silvergrid/formula/types"
)

// Iterator yields successive elements of a container value. Next
// returns (value, true, nil) for each element in turn and (zero,
// false, nil) once exhausted. A non-nil error is a structural failure
// (not a per-element ValueMissing) and aborts iteration.
type Iterator interface {
	Next() (Value, bool, error)
}

// IteratorFactory produces a fresh Iterator over container each time
// it is called, so the same container can be walked more than once
// (count, then in, then another arrow) without exhausting shared
// state.
type IteratorFactory func(container Value) (Iterator, error)

// LocalSlot is the mutable cell an arrow filter rebinds before each
// predicate evaluation. OnFact resolves an arrow-local name to a
// LocalRef pointing at the slot the enclosing Filter node owns: a
// pointer indirection instead of a context-wide name lookup.
type LocalSlot struct {
	Value Value
}

// LocalRef reads the current value of a LocalSlot. It is what
// `$Svc` resolves to inside `$Services -> Svc ? $Svc.code == 'WIFI'`.
type LocalRef struct {
	Name     string
	Slot     *LocalSlot
	ElemType types.ID
}

// NewLocalRef builds a reference to an arrow-bound local variable.
func NewLocalRef(name string, slot *LocalSlot, elemType types.ID) *LocalRef {
	return &LocalRef{Name: name, Slot: slot, ElemType: elemType}
}

func (l *LocalRef) TypeID() types.ID { return l.ElemType }

func (l *LocalRef) Evaluate(ctx *evalctx.Context) (Value, error) {
	return l.Slot.Value, nil
}

func (l *LocalRef) String() string { return "$" + l.Name }

func (l *LocalRef) Complexity() int { return 1 }

// ErrMissingElement is returned by accessor functions that could not
// produce an element (e.g. index out of range) to signal the
// recoverable ValueMissing path rather than a hard failure.
var ErrMissingElement = errors.New(errors.ValueMissing, "no such element")
