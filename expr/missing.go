package expr

import "github.com/silvergrid/formula/internal/errors"

// isValueMissing reports whether err is a ValueMissing FormulaError,
// the one error kind that short-circuit OR and arrow filters are
// allowed to swallow.
func isValueMissing(err error) bool {
	return errors.Is(err, errors.ValueMissing)
}
