// Package compiler turns CUE rule documents into validated rules.
//
// A rule document declares a `rules` list:
//
//	rules: [
//		{priority: 10, when: "member == true", question: "discount", answer: "10"},
//		{priority: 1,  when: "true",           question: "discount", answer: "0"},
//	]
//
// The `when` field uses the predicate text syntax. Answers accept CUE
// string, int, float, and bool values; an optional `convert` field
// names a target kind applied at firing time.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/predicate"
	"github.com/roach88/sibyl/internal/rule"
)

// CompileError represents a rule document compilation error with
// position information.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileRules parses a CUE value holding a rule document into
// validated rules, preserving document order (which becomes
// registration order, the priority tie-break).
func CompileRules(v cue.Value) ([]*rule.Rule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "rules list is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "rules",
			Message: "rules must be a list",
			Pos:     rulesVal.Pos(),
		}
	}

	var out []*rule.Rule
	idx := 0
	for iter.Next() {
		r, err := compileRule(iter.Value(), idx)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		idx++
	}
	if len(out) == 0 {
		return nil, &CompileError{
			Field:   "rules",
			Message: "at least one rule is required",
			Pos:     rulesVal.Pos(),
		}
	}
	return out, nil
}

// compileRule parses a single rule struct.
func compileRule(v cue.Value, idx int) (*rule.Rule, error) {
	field := func(name string) string {
		return fmt.Sprintf("rules[%d].%s", idx, name)
	}

	priority, err := requiredInt(v, "priority", field("priority"))
	if err != nil {
		return nil, err
	}

	whenText, err := requiredString(v, "when", field("when"))
	if err != nil {
		return nil, err
	}
	pred, err := predicate.Parse(whenText)
	if err != nil {
		return nil, &CompileError{
			Field:   field("when"),
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("when")).Pos(),
		}
	}

	question, err := requiredString(v, "question", field("question"))
	if err != nil {
		return nil, err
	}

	ans, err := compileAnswer(v, field("answer"))
	if err != nil {
		return nil, err
	}

	asgn := rule.Assignment(rule.LiteralAssignment{})
	convertVal := v.LookupPath(cue.ParsePath("convert"))
	if convertVal.Exists() {
		kindStr, err := convertVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		kind := answer.Kind(kindStr)
		if !answer.ValidKind(kind) {
			return nil, &CompileError{
				Field:   field("convert"),
				Message: fmt.Sprintf("invalid conversion kind %q, must be one of string, int, double, bool", kindStr),
				Pos:     convertVal.Pos(),
			}
		}
		asgn = rule.ConvertAssignment{Kind: kind}
	}

	r, err := rule.New(int(priority), pred, rule.Question(question), ans, asgn)
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("rules[%d]", idx),
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return r, nil
}

// compileAnswer decodes the declared answer from the CUE value's
// concrete kind.
func compileAnswer(v cue.Value, field string) (answer.Answer, error) {
	ansVal := v.LookupPath(cue.ParsePath("answer"))
	if !ansVal.Exists() {
		return nil, &CompileError{
			Field:   field,
			Message: "answer is required",
			Pos:     v.Pos(),
		}
	}

	switch ansVal.Kind() {
	case cue.StringKind:
		s, err := ansVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return answer.String(s), nil
	case cue.IntKind:
		n, err := ansVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return answer.Int(n), nil
	case cue.FloatKind, cue.NumberKind:
		d, err := ansVal.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return answer.Double(d), nil
	case cue.BoolKind:
		b, err := ansVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return answer.Bool(b), nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("answer must be a string, int, double, or bool, got %s", ansVal.Kind()),
			Pos:     ansVal.Pos(),
		}
	}
}

// CompileString compiles a CUE rule document from source text.
// Convenience entry point for tests and the CLI.
func CompileString(src string) ([]*rule.Rule, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	return CompileRules(v)
}

// LoadDir loads every .cue file in a directory, each holding its own
// rule document, and concatenates their rules. Files are read in
// sorted name order, so registration order (the priority tie-break) is
// stable across runs.
func LoadDir(dir string) ([]*rule.Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rules directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".cue") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .cue files in %s", dir)
	}

	ctx := cuecontext.New()
	var out []*rule.Rule
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		v := ctx.CompileString(string(src), cue.Filename(p))
		rules, err := CompileRules(v)
		if err != nil {
			return nil, err
		}
		out = append(out, rules...)
	}
	return out, nil
}

// requiredString extracts a required string field.
func requiredString(v cue.Value, path, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// requiredInt extracts a required integer field.
func requiredInt(v cue.Value, path, field string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   field,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

// formatCUEError converts a CUE SDK error into a CompileError with
// position information where available.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{
		Field:   "cue",
		Message: firstErr.Error(),
	}
}
