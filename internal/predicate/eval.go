package predicate

import (
	"fmt"

	"github.com/roach88/sibyl/internal/answer"
)

// Lookup resolves a question to its answer. The engine supplies a
// lookup that recursively resolves sub-questions and records each one
// as a dependency; it may fail, and that failure propagates unchanged
// out of Evaluate.
type Lookup func(question string) (answer.Answer, error)

// EvalError indicates a comparison could not be carried out, e.g. an
// ordering operator over incomparable variants. Distinct from the
// errors a Lookup returns, which pass through untouched.
type EvalError struct {
	Question string
	Op       Op
	Left     answer.Answer
	Right    answer.Answer
	Message  string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("cannot evaluate %s %s %s: %s",
		e.Question, e.Op, FormatLiteral(e.Right), e.Message)
}

// Evaluate computes the truth value of an expression.
//
// Lookup failures abort evaluation immediately with the lookup's error.
// And/Or short-circuit, so questions on an untaken branch are neither
// resolved nor recorded as dependencies.
func Evaluate(e Expr, lookup Lookup) (bool, error) {
	switch v := e.(type) {
	case Literal:
		return bool(v), nil

	case Comparison:
		got, err := lookup(v.Question)
		if err != nil {
			return false, err
		}
		return compare(v.Question, got, v.Op, v.Value)

	case Not:
		inner, err := Evaluate(v.Expr, lookup)
		if err != nil {
			return false, err
		}
		return !inner, nil

	case And:
		left, err := Evaluate(v.Left, lookup)
		if err != nil {
			return false, err
		}
		if !left {
			return false, nil
		}
		return Evaluate(v.Right, lookup)

	case Or:
		left, err := Evaluate(v.Left, lookup)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return Evaluate(v.Right, lookup)

	default:
		return false, fmt.Errorf("unknown Expr type: %T", e)
	}
}

// compare applies op to a resolved answer and a literal.
//
// Equality is defined within comparable families: String/String,
// Bool/Bool, and numeric (Int and Double compare by numeric value for
// == and != as well as for ordering). Ordering over Bool, or any
// comparison across families, is an EvalError rather than false -
// silently failing comparisons would hide misconfigured rules.
func compare(question string, left answer.Answer, op Op, right answer.Answer) (bool, error) {
	fail := func(msg string) (bool, error) {
		return false, &EvalError{Question: question, Op: op, Left: left, Right: right, Message: msg}
	}

	if ls, ok := left.(answer.String); ok {
		rs, ok := right.(answer.String)
		if !ok {
			return fail(fmt.Sprintf("string answer %q vs %s literal", ls, answer.KindOf(right)))
		}
		return compareOrdered(op, string(ls), string(rs)), nil
	}

	if lb, ok := left.(answer.Bool); ok {
		rb, ok := right.(answer.Bool)
		if !ok {
			return fail(fmt.Sprintf("bool answer vs %s literal", answer.KindOf(right)))
		}
		switch op {
		case OpEq:
			return lb == rb, nil
		case OpNe:
			return lb != rb, nil
		default:
			return fail("booleans are not ordered")
		}
	}

	// Numeric family: Int and Double compare by value.
	ln, err := answer.AsDouble(left)
	if err != nil {
		return fail(fmt.Sprintf("unexpected answer variant %s", answer.KindOf(left)))
	}
	rn, err := answer.AsDouble(right)
	if err != nil {
		return fail(fmt.Sprintf("numeric answer vs %s literal", answer.KindOf(right)))
	}
	return compareOrdered(op, ln, rn), nil
}

func compareOrdered[T string | float64](op Op, left, right T) bool {
	switch op {
	case OpEq:
		return left == right
	case OpNe:
		return left != right
	case OpLt:
		return left < right
	case OpLe:
		return left <= right
	case OpGt:
		return left > right
	case OpGe:
		return left >= right
	default:
		panic(fmt.Sprintf("unknown Op: %s", op))
	}
}
