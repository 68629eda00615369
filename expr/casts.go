package expr

import (
	"math"
	"strconv"
	"strings"

	"github.com/silvergrid/formula/internal/errors"
	"golang.org/x/text/unicode/norm"
)

// CastDoubleToInt rounds half-away-from-zero, adding ±0.5 before
// truncating rather than truncating outright.
func CastDoubleToInt(v Value) (Value, error) {
	d := float64(v.(DoubleValue))
	if err := mustNotNaN(d); err != nil {
		return nil, err
	}
	if d >= 0 {
		return IntValue(int64(d + 0.5)), nil
	}
	return IntValue(int64(d - 0.5)), nil
}

// CastIntToDouble widens an int to double exactly.
func CastIntToDouble(v Value) (Value, error) {
	return DoubleValue(float64(v.(IntValue))), nil
}

// CastStringToInt parses a locale-independent decimal integer,
// accepting a leading sign. A malformed string raises ValueMissing
// (it is a missing/invalid value, not a structural error) rather than
// aborting the whole evaluation.
func CastStringToInt(v Value) (Value, error) {
	s := strings.TrimSpace(string(v.(StringValue)))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errors.New(errors.ValueMissing, "cannot cast %q to int", s)
	}
	return IntValue(n), nil
}

// CastStringToDouble parses a locale-independent decimal float,
// accepting a leading sign, the same way CastStringToInt does for
// integers.
func CastStringToDouble(v Value) (Value, error) {
	s := strings.TrimSpace(string(v.(StringValue)))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New(errors.ValueMissing, "cannot cast %q to double", s)
	}
	return DoubleValue(f), nil
}

// CastToString renders any value's canonical textual form, Unicode
// normalised to NFC so that two visually identical strings built from
// different combining-character sequences print identically (strings
// already in NFC are returned unchanged; this is a cheap no-op check
// in that common case).
func CastToString(v Value) (Value, error) {
	return StringValue(norm.NFC.String(v.String())), nil
}

// CastIntToBool and CastBoolToInt round out the numeric cast family a
// host might register (string→bool is deliberately not provided);
// kept here for the same reason the other casts live in this file: a
// single place implementing the (from,to) specialisation table.
func CastIntToBool(v Value) (Value, error) {
	return BoolValue(int64(v.(IntValue)) != 0), nil
}

func CastBoolToInt(v Value) (Value, error) {
	if bool(v.(BoolValue)) {
		return IntValue(1), nil
	}
	return IntValue(0), nil
}

// mustNotNaN guards against a cast ever receiving math.NaN from a
// double that was itself produced by a failed arithmetic op; casts
// treat that the same as any other invalid input.
func mustNotNaN(f float64) error {
	if math.IsNaN(f) {
		return errors.New(errors.ValueMissing, "value is NaN")
	}
	return nil
}
