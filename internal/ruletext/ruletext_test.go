package ruletext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/rule"
)

func TestParse_Basic(t *testing.T) {
	input := `
# discount policy
10: member == true => discount = "10"
1:  true           => discount = "0"
`
	rules, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, 10, rules[0].Priority())
	assert.Equal(t, rule.Question("discount"), rules[0].Question())
	assert.True(t, answer.Equal(answer.NewString("10"), rules[0].Answer()))
	assert.Equal(t, rule.LiteralAssignment{}, rules[0].Assignment())

	assert.Equal(t, 1, rules[1].Priority())
	assert.True(t, answer.Equal(answer.NewString("0"), rules[1].Answer()))
}

func TestParse_AnswerLiteralKinds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want answer.Answer
	}{
		{"string", `1: true => q = "x"`, answer.NewString("x")},
		{"int", `1: true => q = 42`, answer.NewInt(42)},
		{"double", `1: true => q = 2.5`, answer.NewDouble(2.5)},
		{"bool", `1: true => q = false`, answer.NewBool(false)},
		{"negative", `1: true => q = -3`, answer.NewInt(-3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rules, err := Parse(strings.NewReader(tc.line))
			require.NoError(t, err)
			require.Len(t, rules, 1)
			assert.True(t, answer.Equal(tc.want, rules[0].Answer()),
				"want %v, got %v", tc.want, rules[0].Answer())
		})
	}
}

func TestParse_ConversionRHS(t *testing.T) {
	rules, err := Parse(strings.NewReader(`1: true => q = int("17")`))
	require.NoError(t, err)
	require.Len(t, rules, 1)

	assert.True(t, answer.Equal(answer.NewString("17"), rules[0].Answer()))
	assert.Equal(t, rule.ConvertAssignment{Kind: answer.KindInt}, rules[0].Assignment())

	awd, err := rules[0].Fire(rule.NewDependencies())
	require.NoError(t, err)
	assert.True(t, answer.Equal(answer.NewInt(17), awd.Answer))
}

func TestParse_NegativePriority(t *testing.T) {
	rules, err := Parse(strings.NewReader(`-5: true => q = 1`))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, -5, rules[0].Priority())
}

func TestParse_LineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing colon", `true => q = 1`},
		{"bad priority", `ten: true => q = 1`},
		{"missing arrow", `1: true q = 1`},
		{"bad predicate", `1: member = true => q = 1`},
		{"missing equals", `1: true => q 1`},
		{"missing question", `1: true => = 1`},
		{"missing answer", `1: true => q =`},
		{"bad literal", `1: true => q = 1 2`},
		{"self reference", `1: q == 1 => q = 2`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.line))
			require.Error(t, err)

			var lineErr *LineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, 1, lineErr.Line)
		})
	}
}

func TestParse_ErrorReportsLineNumber(t *testing.T) {
	input := `1: true => a = 1

# comment
broken line
`
	_, err := Parse(strings.NewReader(input))
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 4, lineErr.Line)
}

func TestFormatRule_RoundTrips(t *testing.T) {
	inputs := []string{
		`10: member == true => discount = "10"`,
		`1: true => discount = "0"`,
		`5: age >= 18 and tier == "gold" => eligible = true`,
		`2: not (a == 1 or b == 2) => q = 2.5`,
		`3: true => q = int("9")`,
	}

	for _, in := range inputs {
		rules, err := Parse(strings.NewReader(in))
		require.NoError(t, err, "input %q", in)
		require.Len(t, rules, 1)

		formatted := FormatRule(rules[0])
		back, err := Parse(strings.NewReader(formatted))
		require.NoError(t, err, "reparse %q", formatted)
		require.Len(t, back, 1)

		assert.Equal(t, rules[0].Priority(), back[0].Priority())
		assert.Equal(t, rules[0].Question(), back[0].Question())
		assert.True(t, answer.Equal(rules[0].Answer(), back[0].Answer()))
		assert.Equal(t, rules[0].Assignment(), back[0].Assignment())
		assert.Equal(t, rules[0].Predicate(), back[0].Predicate())
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.rules")
	content := `10: member == true => discount = "10"
1: true => discount = "0"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.rules"))
	assert.Error(t, err)
}
