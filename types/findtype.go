package types

import "fmt"

// FindType reports which built-in engine type a Go value of type T
// canonicalises to. The switch is exhaustive over Go's built-in
// scalar kinds and has no runtime cost beyond the type switch itself.
func FindType[T any]() ID {
	var zero T
	switch any(zero).(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return Int
	case float32, float64:
		return Double
	case bool:
		return Bool
	case string:
		return String
	default:
		return Void
	}
}

// RegisterGoType reports the id a Go type T should be addressed by in
// r: one of the four primitive ids (int, double, bool, string) if T canonicalises to a primitive
// per FindType, or a freshly interned host type named after T's
// runtime Go name otherwise. A host registering its own struct type
// through this helper doesn't need to pick a registry name by hand.
func RegisterGoType[T any](r *Registry) ID {
	if id := FindType[T](); id != Void {
		return id
	}
	var zero T
	name := goTypeName(zero)
	return r.Register(name)
}

func goTypeName(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}
