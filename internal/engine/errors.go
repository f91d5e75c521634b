package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/sibyl/internal/rule"
)

// ResolutionError represents a failure detected while resolving a
// question.
//
// Resolution errors include:
//   - No matching rule: no candidate's predicate held
//   - Cycle detected: resolving the question requires resolving itself
//
// Predicate evaluation failures and rule firing errors are NOT
// ResolutionErrors; they propagate unchanged up the resolution chain
// (see internal/predicate.EvalError and internal/rule.FiringError).
type ResolutionError struct {
	// Code identifies the error category.
	Code ResolutionErrorCode

	// Question is the question whose resolution failed.
	Question rule.Question

	// Chain is the in-flight resolution path at the point of failure,
	// outermost first. Set for cycle errors.
	Chain []rule.Question
}

// ResolutionErrorCode categorizes resolution errors.
type ResolutionErrorCode string

const (
	// ErrCodeNoMatchingRule indicates no rule's predicate held and no
	// given fact was present.
	ErrCodeNoMatchingRule ResolutionErrorCode = "NO_MATCHING_RULE"

	// ErrCodeCycleDetected indicates the question transitively requires
	// its own answer.
	ErrCodeCycleDetected ResolutionErrorCode = "CYCLE_DETECTED"
)

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if len(e.Chain) > 0 {
		parts := make([]string, len(e.Chain))
		for i, q := range e.Chain {
			parts[i] = string(q)
		}
		return fmt.Sprintf("%s: question %q (path %s)", e.Code, e.Question, strings.Join(parts, " -> "))
	}
	return fmt.Sprintf("%s: question %q", e.Code, e.Question)
}

// IsNoMatchingRule returns true if the error is a no-matching-rule error.
// Uses errors.As to handle wrapped errors.
func IsNoMatchingRule(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNoMatchingRule
	}
	return false
}

// IsCycleError returns true if the error is a cycle detection error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCycleDetected
	}
	return false
}

// NewNoMatchingRuleError creates a ResolutionError for a question with
// no matching candidate.
func NewNoMatchingRuleError(q rule.Question) *ResolutionError {
	return &ResolutionError{Code: ErrCodeNoMatchingRule, Question: q}
}

// NewCycleError creates a ResolutionError for a detected cycle.
func NewCycleError(q rule.Question, chain []rule.Question) *ResolutionError {
	return &ResolutionError{Code: ErrCodeCycleDetected, Question: q, Chain: chain}
}
