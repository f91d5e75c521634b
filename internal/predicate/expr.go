// Package predicate implements the boolean expression language that
// guards rules. An expression mentions questions and literal answers;
// evaluation resolves questions through an injected lookup, which may
// recurse into the resolution engine and may fail.
package predicate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/sibyl/internal/answer"
)

// Expr is a sealed interface representing a predicate expression node.
// Only Literal, Comparison, Not, And, and Or implement it.
type Expr interface {
	expr() // Sealed - only these types implement it
}

// Literal is a constant true/false predicate.
type Literal bool

func (Literal) expr() {}

// True and False are the literal predicates.
const (
	True  Literal = true
	False Literal = false
)

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// ValidOp reports whether op is a known comparison operator.
func ValidOp(op Op) bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Comparison compares the answer of a question against a literal value.
type Comparison struct {
	Question string
	Op       Op
	Value    answer.Answer
}

func (Comparison) expr() {}

// Not negates its operand.
type Not struct {
	Expr Expr
}

func (Not) expr() {}

// And is a short-circuit conjunction.
type And struct {
	Left, Right Expr
}

func (And) expr() {}

// Or is a short-circuit disjunction.
type Or struct {
	Left, Right Expr
}

func (Or) expr() {}

// References returns the set of questions an expression mentions.
// Rule construction uses this to reject self-referential predicates.
func References(e Expr) map[string]struct{} {
	refs := make(map[string]struct{})
	collectRefs(e, refs)
	return refs
}

func collectRefs(e Expr, refs map[string]struct{}) {
	switch v := e.(type) {
	case Literal:
		// no questions
	case Comparison:
		refs[v.Question] = struct{}{}
	case Not:
		collectRefs(v.Expr, refs)
	case And:
		collectRefs(v.Left, refs)
		collectRefs(v.Right, refs)
	case Or:
		collectRefs(v.Left, refs)
		collectRefs(v.Right, refs)
	default:
		panic(fmt.Sprintf("unknown Expr type: %T", e))
	}
}

// Format renders an expression in the canonical text syntax.
// The output round-trips through Parse.
func Format(e Expr) string {
	var b strings.Builder
	formatExpr(&b, e, precOr)
	return b.String()
}

// Operator precedence, loosest first. Parentheses are emitted only
// when a child binds looser than its context requires.
const (
	precOr = iota
	precAnd
	precUnary
)

func formatExpr(b *strings.Builder, e Expr, ctx int) {
	switch v := e.(type) {
	case Literal:
		b.WriteString(strconv.FormatBool(bool(v)))
	case Comparison:
		b.WriteString(v.Question)
		b.WriteByte(' ')
		b.WriteString(string(v.Op))
		b.WriteByte(' ')
		b.WriteString(FormatLiteral(v.Value))
	case Not:
		b.WriteString("not ")
		formatExpr(b, v.Expr, precUnary)
	case And:
		if ctx > precAnd {
			b.WriteByte('(')
		}
		formatExpr(b, v.Left, precAnd)
		b.WriteString(" and ")
		formatExpr(b, v.Right, precAnd)
		if ctx > precAnd {
			b.WriteByte(')')
		}
	case Or:
		if ctx > precOr {
			b.WriteByte('(')
		}
		formatExpr(b, v.Left, precOr)
		b.WriteString(" or ")
		formatExpr(b, v.Right, precOr)
		if ctx > precOr {
			b.WriteByte(')')
		}
	default:
		panic(fmt.Sprintf("unknown Expr type: %T", e))
	}
}

// FormatLiteral renders an answer in predicate literal syntax:
// strings quoted, numbers and booleans bare.
func FormatLiteral(a answer.Answer) string {
	if s, ok := a.(answer.String); ok {
		return strconv.Quote(string(s))
	}
	return a.String()
}
