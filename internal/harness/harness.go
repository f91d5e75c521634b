package harness

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/engine"
	"github.com/roach88/sibyl/internal/rule"
	"github.com/roach88/sibyl/internal/ruletext"
)

// Result holds the outcome of a scenario run.
type Result struct {
	ScenarioName string
	Passed       bool
	Failures     []string
	Trace        []TraceEvent
}

// Run executes a scenario against a fresh Facts instance.
//
// Execution flow:
//  1. Parse the scenario's rules (textual line syntax).
//  2. Seed a Facts instance with the given facts.
//  3. Execute every step in order, collecting the resolution trace
//     through the engine's recorder hook and checking expectations.
//  4. Return pass/fail with per-step failure messages and the trace.
//
// A step expectation failure does not stop the run; later steps still
// execute, so one report covers the whole scenario.
func Run(scenario *Scenario) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	rules, err := ruletext.Parse(strings.NewReader(strings.Join(scenario.Rules, "\n")))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	rs := rule.NewRuleSet(rules...)

	given := make(map[rule.Question]answer.Answer, len(scenario.Given))
	for q, v := range scenario.Given {
		a, err := answer.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: given %q: %w", scenario.Name, q, err)
		}
		given[rule.Question(q)] = a
	}

	recorder := &memoryRecorder{}
	// Scenario runs are silent; the trace is the observable output.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	facts := engine.New(given, engine.WithRecorder(recorder), engine.WithLogger(quiet))

	result := &Result{ScenarioName: scenario.Name, Passed: true}
	for i, step := range scenario.Steps {
		if msgs := runStep(facts, rs, recorder, i, step); len(msgs) > 0 {
			result.Passed = false
			result.Failures = append(result.Failures, msgs...)
		}
	}
	result.Trace = recorder.events
	return result, nil
}

// runStep executes one step and returns expectation failures.
func runStep(facts *engine.Facts, rs *rule.RuleSet, rec *memoryRecorder, idx int, step Step) []string {
	fail := func(format string, args ...any) []string {
		return []string{fmt.Sprintf("step %d: %s", idx, fmt.Sprintf(format, args...))}
	}

	switch {
	case step.Ask != "":
		q := rule.Question(step.Ask)
		awd, err := facts.Answer(q, rs)

		if step.ExpectError != "" {
			if err == nil {
				return fail("ask %q: expected %s error, got answer %s", q, step.ExpectError, awd.Answer.String())
			}
			if !matchesErrorCode(err, step.ExpectError) {
				return fail("ask %q: expected %s error, got: %v", q, step.ExpectError, err)
			}
			return nil
		}

		if err != nil {
			return fail("ask %q: unexpected error: %v", q, err)
		}

		var msgs []string
		if step.Expect != nil {
			want, convErr := answer.FromGo(step.Expect)
			if convErr != nil {
				return fail("ask %q: bad expect value: %v", q, convErr)
			}
			if !answer.Equal(awd.Answer, want) {
				msgs = append(msgs, fmt.Sprintf("step %d: ask %q: got %s, want %s", idx, q, awd.Answer.String(), want.String()))
			}
		}
		if step.ExpectDeps != nil {
			got := awd.Dependencies.SortedStrings()
			if !equalStrings(got, sortedCopy(step.ExpectDeps)) {
				msgs = append(msgs, fmt.Sprintf("step %d: ask %q: dependencies %v, want %v", idx, q, got, step.ExpectDeps))
			}
		}
		return msgs

	case step.Assert != nil:
		a, err := answer.FromGo(step.Assert.Value)
		if err != nil {
			return fail("assert %q: %v", step.Assert.Question, err)
		}
		// Note the mutation before applying it so evictions it causes
		// appear after it in the trace.
		rec.noteAssert(step.Assert.Question, a)
		facts.Assert(rule.Question(step.Assert.Question), a)
		return nil

	case step.Forget != "":
		rec.noteForget(step.Forget)
		facts.Forget(rule.Question(step.Forget))
		return nil

	case step.Reset:
		rec.noteReset()
		facts.Reset()
		return nil
	}

	return fail("empty step")
}

// matchesErrorCode maps scenario error names to the engine's taxonomy.
func matchesErrorCode(err error, code string) bool {
	switch code {
	case "no_matching_rule":
		return engine.IsNoMatchingRule(err)
	case "cycle_detected":
		return engine.IsCycleError(err)
	default:
		return false
	}
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
