package rule

import (
	"fmt"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/predicate"
)

// Rule is an immutable conditional fact declaration: when its
// predicate holds, the question is answered by firing the assignment
// against the declared answer.
//
// Rules are validated at construction and never mutated afterwards.
// In particular a rule's predicate may not reference the rule's own
// question: that configuration can never resolve and is rejected up
// front instead of surfacing as a cycle at evaluation time.
type Rule struct {
	priority   int
	pred       predicate.Expr
	question   Question
	answer     answer.Answer
	assignment Assignment
}

// ValidationError reports an invalid rule at construction time.
type ValidationError struct {
	Question Question
	Message  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rule for %q: %s", e.Question, e.Message)
}

// New constructs a validated rule.
//
// Validation rejects:
//   - an empty question
//   - a nil predicate, answer, or assignment
//   - a predicate referencing the rule's own question (self-reference)
func New(priority int, pred predicate.Expr, question Question, ans answer.Answer, asgn Assignment) (*Rule, error) {
	if question == "" {
		return nil, &ValidationError{Question: question, Message: "question must not be empty"}
	}
	if pred == nil {
		return nil, &ValidationError{Question: question, Message: "predicate must not be nil"}
	}
	if ans == nil {
		return nil, &ValidationError{Question: question, Message: "answer must not be nil"}
	}
	if asgn == nil {
		return nil, &ValidationError{Question: question, Message: "assignment must not be nil"}
	}
	if _, self := predicate.References(pred)[string(question)]; self {
		return nil, &ValidationError{Question: question, Message: "predicate references the rule's own question"}
	}

	return &Rule{
		priority:   priority,
		pred:       pred,
		question:   question,
		answer:     ans,
		assignment: asgn,
	}, nil
}

// NewLiteral constructs a rule with the default literal assignment.
func NewLiteral(priority int, pred predicate.Expr, question Question, ans answer.Answer) (*Rule, error) {
	return New(priority, pred, question, ans, LiteralAssignment{})
}

// Priority returns the rule's priority. Higher wins.
func (r *Rule) Priority() int { return r.priority }

// Predicate returns the guarding expression.
func (r *Rule) Predicate() predicate.Expr { return r.pred }

// Question returns the question this rule answers.
func (r *Rule) Question() Question { return r.question }

// Answer returns the declared right-hand side answer.
func (r *Rule) Answer() answer.Answer { return r.answer }

// Assignment returns the firing strategy.
func (r *Rule) Assignment() Assignment { return r.assignment }

// Fire produces the rule's answer paired with the dependencies
// accumulated while its predicate matched. The dependency set is
// cloned, never aliased, so later accumulation cannot corrupt a
// returned result.
//
// Failures are *FiringError values: FiringInvalidRHSValue when a
// conversion assignment cannot coerce the declared answer, and
// FiringFailed for unexpected internal conditions.
func (r *Rule) Fire(deps Dependencies) (AnswerWithDependencies, error) {
	switch asgn := r.assignment.(type) {
	case LiteralAssignment:
		return AnswerWithDependencies{Answer: r.answer, Dependencies: deps.Clone()}, nil

	case ConvertAssignment:
		if !answer.ValidKind(asgn.Kind) {
			return AnswerWithDependencies{}, &FiringError{
				Code:        FiringFailed,
				Question:    r.question,
				Description: fmt.Sprintf("unknown conversion kind %q", asgn.Kind),
			}
		}
		converted, err := answer.Convert(r.answer, asgn.Kind)
		if err != nil {
			return AnswerWithDependencies{}, &FiringError{
				Code:        FiringInvalidRHSValue,
				Question:    r.question,
				Description: fmt.Sprintf("declared answer is not convertible to %s", asgn.Kind),
				Value:       r.answer,
			}
		}
		return AnswerWithDependencies{Answer: converted, Dependencies: deps.Clone()}, nil

	default:
		return AnswerWithDependencies{}, &FiringError{
			Code:        FiringFailed,
			Question:    r.question,
			Description: fmt.Sprintf("unknown assignment type %T", r.assignment),
		}
	}
}
