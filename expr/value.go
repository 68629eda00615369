// Package expr implements the typed expression tree: tagged node
// variants, each offering Evaluate, String, and Complexity, plus the
// uniform evaluation protocol (NaN propagation, short-circuiting)
// the engine promises hosts.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/silvergrid/formula/types"
)

// Value is the result of evaluating a Node. Primitive values
// (Bool, Int, Double) are carried by copy; String is carried by its
// Go string header, which is already reference-like (no byte copy).
// Host/container values are carried by an opaque pointer under
// Object; collections are never copied, only handed around by
// reference.
type Value interface {
	// TypeID reports the runtime type of this value.
	TypeID() types.ID
	// String renders the value in its canonical textual form, used by
	// the implicit *→string cast.
	String() string
}

// BoolValue wraps a bool.
type BoolValue bool

func (v BoolValue) TypeID() types.ID { return types.Bool }
func (v BoolValue) String() string {
	if v {
		return "True"
	}
	return "False"
}

// IntValue wraps an int64. All platform integer widths canonicalise
// to this single representation.
type IntValue int64

func (v IntValue) TypeID() types.ID { return types.Int }
func (v IntValue) String() string   { return strconv.FormatInt(int64(v), 10) }

// DoubleValue wraps a float64. Both float and double widen to this
// single representation.
type DoubleValue float64

func (v DoubleValue) TypeID() types.ID { return types.Double }

// String keeps a decimal point on integral values so the printed form
// re-parses as a double literal, not an int.
func (v DoubleValue) String() string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.ContainsAny(s, "IN") {
		s += ".0"
	}
	return s
}

// StringValue wraps a Go string.
type StringValue string

func (v StringValue) TypeID() types.ID { return types.String }
func (v StringValue) String() string   { return string(v) }

// ObjectValue wraps a host-owned pointer tagged with its registered
// type id. The engine never dereferences Ptr itself; all access goes
// through the attribute/indexed-access/iterable instantiators the
// host registered for this type id.
type ObjectValue struct {
	ID  types.ID
	Ptr any
}

func (v ObjectValue) TypeID() types.ID { return v.ID }
func (v ObjectValue) String() string {
	if s, ok := v.Ptr.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("<%T>", v.Ptr)
}

// Zero returns the type-zero value for id: the value a primitive
// retrieval returns alongside setting the context NaN flag when an
// optional attribute is missing. Host object types zero to a
// nil-payload ObjectValue.
func Zero(id types.ID) Value {
	switch id {
	case types.Bool:
		return BoolValue(false)
	case types.Int:
		return IntValue(0)
	case types.Double:
		return DoubleValue(0)
	case types.String:
		return StringValue("")
	default:
		return ObjectValue{ID: id, Ptr: nil}
	}
}
