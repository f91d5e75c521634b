package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/rule"
)

// TraceEvent is one entry in a scenario's resolution trace.
// Mutation steps (assert/forget/reset) appear alongside the engine's
// recorder events so the golden file reads as a full session script.
type TraceEvent struct {
	Kind         string   // resolved | given_hit | cache_hit | evicted | failed | assert | forget | reset
	Question     string   // empty for reset
	Answer       string   // display form, where applicable
	Priority     int      // resolved only
	Dependencies []string // sorted, resolved/cache_hit only
	Cause        string   // evicted only
	Error        string   // failed only
}

// memoryRecorder collects the resolution trace in memory.
// Implements engine.Recorder; also notes the harness's own mutation
// steps so the trace shows why evictions happened.
type memoryRecorder struct {
	events []TraceEvent
}

func (m *memoryRecorder) GivenHit(q rule.Question, a answer.Answer) {
	m.events = append(m.events, TraceEvent{Kind: "given_hit", Question: string(q), Answer: a.String()})
}

func (m *memoryRecorder) CacheHit(q rule.Question, awd rule.AnswerWithDependencies) {
	m.events = append(m.events, TraceEvent{
		Kind:         "cache_hit",
		Question:     string(q),
		Answer:       awd.Answer.String(),
		Dependencies: awd.Dependencies.SortedStrings(),
	})
}

func (m *memoryRecorder) Resolved(q rule.Question, priority int, awd rule.AnswerWithDependencies) {
	m.events = append(m.events, TraceEvent{
		Kind:         "resolved",
		Question:     string(q),
		Answer:       awd.Answer.String(),
		Priority:     priority,
		Dependencies: awd.Dependencies.SortedStrings(),
	})
}

func (m *memoryRecorder) Evicted(q, cause rule.Question) {
	m.events = append(m.events, TraceEvent{Kind: "evicted", Question: string(q), Cause: string(cause)})
}

func (m *memoryRecorder) Failed(q rule.Question, err error) {
	m.events = append(m.events, TraceEvent{Kind: "failed", Question: string(q), Error: err.Error()})
}

func (m *memoryRecorder) noteAssert(q string, a answer.Answer) {
	m.events = append(m.events, TraceEvent{Kind: "assert", Question: q, Answer: a.String()})
}

func (m *memoryRecorder) noteForget(q string) {
	m.events = append(m.events, TraceEvent{Kind: "forget", Question: q})
}

func (m *memoryRecorder) noteReset() {
	m.events = append(m.events, TraceEvent{Kind: "reset"})
}

// snapshotMap converts a result to a plain map for canonical JSON
// serialization, which is required because answer.MarshalCanonical
// handles only scalars, lists, and string-keyed maps.
func snapshotMap(result *Result) map[string]any {
	traceList := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		entry := map[string]any{"kind": ev.Kind}
		if ev.Question != "" {
			entry["question"] = ev.Question
		}
		if ev.Answer != "" {
			entry["answer"] = ev.Answer
		}
		if ev.Kind == "resolved" {
			entry["priority"] = ev.Priority
		}
		if ev.Dependencies != nil {
			entry["dependencies"] = ev.Dependencies
		}
		if ev.Cause != "" {
			entry["cause"] = ev.Cause
		}
		if ev.Error != "" {
			entry["error"] = ev.Error
		}
		traceList[i] = entry
	}

	return map[string]any{
		"scenario_name": result.ScenarioName,
		"trace":         traceList,
	}
}

// RunWithGolden executes a scenario, asserts its expectations, and
// compares the resolution trace against a golden file in
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	for _, failure := range result.Failures {
		t.Errorf("%s: %s", scenario.Name, failure)
	}

	traceJSON, err := answer.MarshalCanonical(snapshotMap(result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}
