// Package ruletext parses and formats the textual rule-file syntax.
//
// Each non-blank, non-comment line declares one rule:
//
//	priority: predicate => question = answer
//
// Example:
//
//	10: member == true => discount = "10"
//	1:  true           => discount = "0"
//
// The answer is a literal in predicate syntax, optionally wrapped in a
// conversion: `question = int("10")` declares a rule whose answer is
// coerced to the named kind at firing time.
package ruletext

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/predicate"
	"github.com/roach88/sibyl/internal/rule"
)

// LineError reports a malformed rule line with its 1-based number.
type LineError struct {
	Line    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *LineError) Unwrap() error { return e.Err }

// ParseFile parses a rule file from disk.
func ParseFile(path string) ([]*rule.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule file: %w", err)
	}
	defer f.Close()

	rules, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Parse reads rule lines from r. Blank lines and `#` comments are
// skipped; every parsed rule is validated via rule.New, so a
// self-referential predicate fails here, not at evaluation time.
func Parse(r io.Reader) ([]*rule.Rule, error) {
	var rules []*rule.Rule
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parsed, err := parseLine(line, lineNum)
		if err != nil {
			return nil, err
		}
		rules = append(rules, parsed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return rules, nil
}

// parseLine parses a single `priority: predicate => question = answer`
// declaration.
func parseLine(line string, lineNum int) (*rule.Rule, error) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return nil, &LineError{Line: lineNum, Message: "missing priority separator ':'"}
	}
	priority, err := strconv.Atoi(strings.TrimSpace(line[:colon]))
	if err != nil {
		return nil, &LineError{Line: lineNum, Message: fmt.Sprintf("invalid priority %q", strings.TrimSpace(line[:colon]))}
	}
	rest := line[colon+1:]

	arrow := strings.Index(rest, "=>")
	if arrow < 0 {
		return nil, &LineError{Line: lineNum, Message: "missing '=>'"}
	}
	predText := strings.TrimSpace(rest[:arrow])
	consequent := strings.TrimSpace(rest[arrow+2:])

	pred, err := predicate.Parse(predText)
	if err != nil {
		return nil, &LineError{Line: lineNum, Message: "invalid predicate", Err: err}
	}

	question, rhs, err := splitConsequent(consequent, lineNum)
	if err != nil {
		return nil, err
	}

	ans, asgn, err := parseRHS(rhs, lineNum)
	if err != nil {
		return nil, err
	}

	r, err := rule.New(priority, pred, rule.Question(question), ans, asgn)
	if err != nil {
		return nil, &LineError{Line: lineNum, Message: "invalid rule", Err: err}
	}
	return r, nil
}

// splitConsequent splits `question = answer` on the first '=' that is
// not part of an operator or inside a string literal. The question
// side is a bare identifier, so splitting on the first '=' is safe.
func splitConsequent(consequent string, lineNum int) (question, rhs string, err error) {
	eq := strings.Index(consequent, "=")
	if eq < 0 {
		return "", "", &LineError{Line: lineNum, Message: "missing '=' in consequent"}
	}
	question = strings.TrimSpace(consequent[:eq])
	rhs = strings.TrimSpace(consequent[eq+1:])
	if question == "" {
		return "", "", &LineError{Line: lineNum, Message: "missing question before '='"}
	}
	if rhs == "" {
		return "", "", &LineError{Line: lineNum, Message: "missing answer after '='"}
	}
	return question, rhs, nil
}

// parseRHS parses the declared answer, which is either a bare literal
// or a conversion wrapper `kind(literal)`.
func parseRHS(rhs string, lineNum int) (answer.Answer, rule.Assignment, error) {
	if open := strings.Index(rhs, "("); open > 0 && strings.HasSuffix(rhs, ")") {
		kind := answer.Kind(strings.TrimSpace(rhs[:open]))
		if answer.ValidKind(kind) {
			inner := rhs[open+1 : len(rhs)-1]
			lit, err := predicate.ParseLiteralText(strings.TrimSpace(inner))
			if err != nil {
				return nil, nil, &LineError{Line: lineNum, Message: "invalid answer literal", Err: err}
			}
			return lit, rule.ConvertAssignment{Kind: kind}, nil
		}
	}

	lit, err := predicate.ParseLiteralText(rhs)
	if err != nil {
		return nil, nil, &LineError{Line: lineNum, Message: "invalid answer literal", Err: err}
	}
	return lit, rule.LiteralAssignment{}, nil
}

// FormatRule renders a rule in the line syntax. Round-trips Parse.
func FormatRule(r *rule.Rule) string {
	rhs := predicate.FormatLiteral(r.Answer())
	if conv, ok := r.Assignment().(rule.ConvertAssignment); ok {
		rhs = fmt.Sprintf("%s(%s)", conv.Kind, rhs)
	}
	return fmt.Sprintf("%d: %s => %s = %s",
		r.Priority(), predicate.Format(r.Predicate()), r.Question(), rhs)
}
