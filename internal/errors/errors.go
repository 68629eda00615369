// Package errors implements the engine's single error kind,
// FormulaError: a discriminating tag, a message, and optional
// source-position formatting (line and column plus a caret under the
// offending column).
package errors

import (
	"fmt"
	"strings"
)

// Kind discriminates the tag carried by every FormulaError.
type Kind int

const (
	// ParseFailed reports a syntax error from the lexer/parser layer.
	ParseFailed Kind = iota
	// UnregisteredType reports use of a type id or name with no
	// registration.
	UnregisteredType
	// OperatorNotFound reports that no instantiator matches a
	// (symbol, operand types) lookup.
	OperatorNotFound
	// TypeMismatch reports an as_T() accessor called against a node
	// of a different runtime type, or disagreeing choice branches.
	TypeMismatch
	// MissingFact reports a fact name unknown to the context at
	// evaluation time.
	MissingFact
	// ValueMissing reports an optional attribute or value that could
	// not be produced. It is recoverable by filter predicates and by
	// the left operand of OR.
	ValueMissing
	// Internal reports an invariant violation in the engine itself.
	Internal
)

func (k Kind) String() string {
	switch k {
	case ParseFailed:
		return "ParseFailed"
	case UnregisteredType:
		return "UnregisteredType"
	case OperatorNotFound:
		return "OperatorNotFound"
	case TypeMismatch:
		return "TypeMismatch"
	case MissingFact:
		return "MissingFact"
	case ValueMissing:
		return "ValueMissing"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Position locates a single point in formula source text.
type Position struct {
	Line   int
	Column int
	Offset int
}

// FormulaError is the engine's one error type. Every error the core
// surfaces to a host is a *FormulaError; callers distinguish cases by
// switching on Kind.
type FormulaError struct {
	Kind    Kind
	Message string
	Source  string   // the formula text, for caret formatting; empty if not applicable
	Pos     Position // zero value means "no position available"
	hasPos  bool
}

// New creates a FormulaError with no position information.
func New(kind Kind, format string, args ...any) *FormulaError {
	return &FormulaError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewAt creates a FormulaError carrying a source position, used by the
// syntax parser for ParseFailed errors.
func NewAt(kind Kind, pos Position, source, format string, args ...any) *FormulaError {
	return &FormulaError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Source:  source,
		Pos:     pos,
		hasPos:  true,
	}
}

// Error implements the error interface.
func (e *FormulaError) Error() string {
	if !e.hasPos {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Format()
}

// Format renders the error with a source line and a caret pointing at
// the offending column.
func (e *FormulaError) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s at line %d, column %d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.Message)

	line := sourceLine(e.Source, e.Pos.Line)
	if line == "" {
		return sb.String()
	}
	sb.WriteString("\n")
	prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
	sb.WriteString(prefix)
	sb.WriteString(line)
	sb.WriteString("\n")
	col := e.Pos.Column
	if col < 1 {
		col = 1
	}
	sb.WriteString(strings.Repeat(" ", len(prefix)+col-1))
	sb.WriteString("^")
	return sb.String()
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Is reports whether err is a *FormulaError of the given kind, so
// callers can write `errors.Is(err, errors.ValueMissing)`. It is this
// package's own check, not the standard library's errors.Is: err is
// type-asserted directly, so a FormulaError wrapped by another error
// does not match.
func Is(err error, kind Kind) bool {
	fe, ok := err.(*FormulaError)
	return ok && fe.Kind == kind
}
