package answer

import (
	"fmt"
	"strconv"
)

// Answer is a sealed interface representing a typed fact value.
// Only String, Int, Double, and Bool implement it. Int and Double are
// distinct variants: an Int never equals a Double, even when the
// numeric values coincide.
type Answer interface {
	answer() // Sealed - only these four types implement it
	// String returns the display form of the value.
	String() string
}

// String represents a string answer.
type String string

func (String) answer() {}

func (s String) String() string { return string(s) }

func (s String) GoString() string { return fmt.Sprintf("answer.String(%q)", string(s)) }

// Int represents an integer answer. Always int64.
type Int int64

func (Int) answer() {}

func (n Int) String() string { return strconv.FormatInt(int64(n), 10) }

func (n Int) GoString() string { return "answer.Int(" + n.String() + ")" }

// Double represents a floating-point answer.
type Double float64

func (Double) answer() {}

func (d Double) String() string { return strconv.FormatFloat(float64(d), 'g', -1, 64) }

func (d Double) GoString() string { return "answer.Double(" + d.String() + ")" }

// Bool represents a boolean answer.
type Bool bool

func (Bool) answer() {}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (b Bool) GoString() string { return "answer.Bool(" + b.String() + ")" }

// NewString creates a String answer.
func NewString(s string) String { return String(s) }

// NewInt creates an Int answer.
func NewInt(n int64) Int { return Int(n) }

// NewDouble creates a Double answer.
func NewDouble(d float64) Double { return Double(d) }

// NewBool creates a Bool answer.
func NewBool(b bool) Bool { return Bool(b) }

// Equal reports whether two answers have the same variant and value.
// A nil answer equals only another nil answer.
func Equal(a, b Answer) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Double:
		bv, ok := b.(Double)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	default:
		return false
	}
}

// Kind identifies an answer variant. Used by conversion assignments
// and by diagnostics.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindDouble Kind = "double"
	KindBool   Kind = "bool"
)

// KindOf returns the variant of an answer.
// Panics on nil or an unknown implementation - both are contract
// violations, not expected runtime conditions.
func KindOf(a Answer) Kind {
	switch a.(type) {
	case String:
		return KindString
	case Int:
		return KindInt
	case Double:
		return KindDouble
	case Bool:
		return KindBool
	default:
		panic(fmt.Sprintf("unknown Answer type: %T", a))
	}
}

// ValidKind reports whether k names a known answer variant.
func ValidKind(k Kind) bool {
	switch k {
	case KindString, KindInt, KindDouble, KindBool:
		return true
	}
	return false
}

// ConversionError indicates a typed accessor was called on the wrong
// variant, or a conversion between variants is not defined.
type ConversionError struct {
	Want  Kind
	Got   Kind
	Value Answer
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot read %s %q as %s", e.Got, e.Value.String(), e.Want)
}

// AsString returns the string value, or a ConversionError for other variants.
func AsString(a Answer) (string, error) {
	if s, ok := a.(String); ok {
		return string(s), nil
	}
	return "", &ConversionError{Want: KindString, Got: KindOf(a), Value: a}
}

// AsInt returns the integer value, or a ConversionError for other variants.
func AsInt(a Answer) (int64, error) {
	if n, ok := a.(Int); ok {
		return int64(n), nil
	}
	return 0, &ConversionError{Want: KindInt, Got: KindOf(a), Value: a}
}

// AsDouble returns the floating-point value. Int widens losslessly;
// other variants return a ConversionError.
func AsDouble(a Answer) (float64, error) {
	switch v := a.(type) {
	case Double:
		return float64(v), nil
	case Int:
		return float64(v), nil
	}
	return 0, &ConversionError{Want: KindDouble, Got: KindOf(a), Value: a}
}

// AsBool returns the boolean value, or a ConversionError for other variants.
func AsBool(a Answer) (bool, error) {
	if b, ok := a.(Bool); ok {
		return bool(b), nil
	}
	return false, &ConversionError{Want: KindBool, Got: KindOf(a), Value: a}
}

// Convert coerces an answer to the target kind.
//
// Defined conversions:
//   - identity for every kind
//   - Int -> Double (widening)
//   - Double -> Int when the value is integral and in int64 range
//   - String -> Int/Double/Bool via strict parsing
//   - Int/Double/Bool -> String via the display form
//
// Anything else returns a ConversionError.
func Convert(a Answer, target Kind) (Answer, error) {
	if KindOf(a) == target {
		return a, nil
	}

	switch target {
	case KindString:
		return String(a.String()), nil

	case KindInt:
		switch v := a.(type) {
		case Double:
			n := int64(v)
			if Double(n) == v {
				return Int(n), nil
			}
		case String:
			if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
				return Int(n), nil
			}
		}

	case KindDouble:
		switch v := a.(type) {
		case Int:
			return Double(v), nil
		case String:
			if d, err := strconv.ParseFloat(string(v), 64); err == nil {
				return Double(d), nil
			}
		}

	case KindBool:
		if v, ok := a.(String); ok {
			if b, err := strconv.ParseBool(string(v)); err == nil {
				return Bool(b), nil
			}
		}
	}

	return nil, &ConversionError{Want: target, Got: KindOf(a), Value: a}
}
