package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		wantErr  string
	}{
		{
			"missing name",
			Scenario{Steps: []Step{{Ask: "q"}}},
			"name is required",
		},
		{
			"no steps",
			Scenario{Name: "s"},
			"at least one step",
		},
		{
			"two actions in one step",
			Scenario{Name: "s", Steps: []Step{{Ask: "q", Forget: "q"}}},
			"exactly one of",
		},
		{
			"empty step",
			Scenario{Name: "s", Steps: []Step{{}}},
			"exactly one of",
		},
		{
			"expectation on non-ask step",
			Scenario{Name: "s", Steps: []Step{{Forget: "q", Expect: "1"}}},
			"only valid on ask",
		},
		{
			"expect and expect_error together",
			Scenario{Name: "s", Steps: []Step{{Ask: "q", Expect: "1", ExpectError: "no_matching_rule"}}},
			"mutually exclusive",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.scenario.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	valid := Scenario{Name: "s", Steps: []Step{{Ask: "q", Expect: "1"}}}
	assert.NoError(t, valid.Validate())
}

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "discount_invalidation.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "discount_invalidation", scenario.Name)
	assert.Len(t, scenario.Rules, 2)
	assert.Equal(t, true, scenario.Given["member"])
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, "discount", scenario.Steps[0].Ask)
	require.NotNil(t, scenario.Steps[1].Assert)
	assert.Equal(t, "member", scenario.Steps[1].Assert.Question)
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRun_PassingScenario(t *testing.T) {
	scenario := &Scenario{
		Name: "passing",
		Rules: []string{
			`10: member == true => discount = "10"`,
		},
		Given: map[string]any{"member": true},
		Steps: []Step{
			{Ask: "discount", Expect: "10", ExpectDeps: []string{"member"}},
			{Ask: "discount", Expect: "10"}, // cache hit
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
	assert.Empty(t, result.Failures)

	kinds := make([]string, len(result.Trace))
	for i, ev := range result.Trace {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []string{"given_hit", "resolved", "cache_hit"}, kinds)
}

func TestRun_FailedExpectation(t *testing.T) {
	scenario := &Scenario{
		Name:  "wrong expectation",
		Rules: []string{`1: true => q = "actual"`},
		Steps: []Step{
			{Ask: "q", Expect: "expected"},
			{Ask: "q", Expect: "actual"}, // later steps still run
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "step 0")
	assert.Contains(t, result.Failures[0], `got actual, want expected`)
}

func TestRun_VariantMismatchFails(t *testing.T) {
	// The rule answers Int 10; expecting the string "10" must fail.
	scenario := &Scenario{
		Name:  "variant mismatch",
		Rules: []string{`1: true => q = 10`},
		Steps: []Step{{Ask: "q", Expect: "10"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestRun_ExpectedErrors(t *testing.T) {
	scenario := &Scenario{
		Name: "errors",
		Rules: []string{
			`1: q2 == 1 => q1 = 1`,
			`1: q1 == 1 => q2 = 1`,
		},
		Steps: []Step{
			{Ask: "q1", ExpectError: "cycle_detected"},
			{Ask: "nothing", ExpectError: "no_matching_rule"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
}

func TestRun_WrongErrorCodeFails(t *testing.T) {
	scenario := &Scenario{
		Name:  "wrong error",
		Rules: []string{`1: true => q = 1`},
		Steps: []Step{
			{Ask: "nothing", ExpectError: "cycle_detected"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestRun_ForgetAndReset(t *testing.T) {
	scenario := &Scenario{
		Name: "forget and reset",
		Rules: []string{
			`10: member == true => discount = "10"`,
		},
		Given: map[string]any{"member": true},
		Steps: []Step{
			{Ask: "discount", Expect: "10"},
			{Forget: "member"},
			{Ask: "discount", ExpectError: "no_matching_rule"},
			{Assert: &FactStep{Question: "member", Value: true}},
			{Ask: "discount", Expect: "10"},
			{Reset: true},
			{Ask: "discount", Expect: "10"}, // re-derived, not cached
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed, "failures: %v", result.Failures)

	kinds := make([]string, len(result.Trace))
	for i, ev := range result.Trace {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []string{
		"given_hit", "resolved", // initial derivation
		"forget", "evicted", // forget member evicts discount
		"failed",               // member gone, no rule matches
		"assert",               // member restored
		"given_hit", "resolved", // fresh derivation
		"reset",                // cache dropped
		"given_hit", "resolved", // derived again after reset
	}, kinds)
}

func TestRun_InvalidRules(t *testing.T) {
	scenario := &Scenario{
		Name:  "bad rules",
		Rules: []string{`broken`},
		Steps: []Step{{Ask: "q"}},
	}

	_, err := Run(scenario)
	assert.Error(t, err)
}

func TestDiscountInvalidation_Golden(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "discount_invalidation.yaml"))
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, scenario))
}
