package rule

import (
	"fmt"

	"github.com/roach88/sibyl/internal/answer"
)

// Assignment determines how a rule produces its answer when it fires.
//
// Assignments are a closed set of data variants rather than embedded
// functions, so rules stay immutable, comparable, and serializable.
// Fire dispatches exhaustively over the variants.
type Assignment interface {
	assignment() // Sealed - only LiteralAssignment and ConvertAssignment implement it
}

// LiteralAssignment fires the rule's declared answer unchanged.
// This is the default for rules with a literal right-hand side.
type LiteralAssignment struct{}

func (LiteralAssignment) assignment() {}

// ConvertAssignment coerces the declared answer to a target kind at
// firing time. An inconvertible value is an invalid-RHS firing error.
type ConvertAssignment struct {
	Kind answer.Kind
}

func (ConvertAssignment) assignment() {}

// FiringErrorCode categorizes rule firing failures.
type FiringErrorCode string

const (
	// FiringFailed indicates an unexpected internal failure.
	FiringFailed FiringErrorCode = "FIRING_FAILED"

	// FiringInvalidRHSValue indicates the declared answer could not be
	// produced or converted.
	FiringInvalidRHSValue FiringErrorCode = "INVALID_RHS_VALUE"
)

// FiringError is returned when a rule's assignment cannot produce the
// declared answer. The description is diagnostic text only.
type FiringError struct {
	Code        FiringErrorCode
	Question    Question
	Description string

	// Value is the offending declared answer, set for
	// FiringInvalidRHSValue.
	Value answer.Answer
}

// Error implements the error interface.
func (e *FiringError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: firing rule for %q: %s (value %s)",
			e.Code, e.Question, e.Description, e.Value.String())
	}
	return fmt.Sprintf("%s: firing rule for %q: %s", e.Code, e.Question, e.Description)
}
