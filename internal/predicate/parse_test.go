package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sibyl/internal/answer"
)

func TestParse_Comparison(t *testing.T) {
	e, err := Parse(`age >= 18`)
	require.NoError(t, err)

	cmp, ok := e.(Comparison)
	require.True(t, ok, "expected Comparison, got %T", e)
	assert.Equal(t, "age", cmp.Question)
	assert.Equal(t, OpGe, cmp.Op)
	assert.True(t, answer.Equal(answer.NewInt(18), cmp.Value))
}

func TestParse_LiteralKinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		want answer.Answer
	}{
		{"string", `tier == "gold"`, answer.NewString("gold")},
		{"escaped string", `name == "a \"b\""`, answer.NewString(`a "b"`)},
		{"int", `count == 3`, answer.NewInt(3)},
		{"negative int", `delta == -4`, answer.NewInt(-4)},
		{"double", `rate == 0.25`, answer.NewDouble(0.25)},
		{"exponent", `size == 1e6`, answer.NewDouble(1e6)},
		{"bool", `member == true`, answer.NewBool(true)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Parse(tc.text)
			require.NoError(t, err)
			cmp, ok := e.(Comparison)
			require.True(t, ok, "expected Comparison, got %T", e)
			assert.True(t, answer.Equal(tc.want, cmp.Value), "want %v, got %v", tc.want, cmp.Value)
		})
	}
}

func TestParse_Precedence(t *testing.T) {
	// "or" binds loosest: a and b or c parses as (a and b) or c.
	e, err := Parse(`a == 1 and b == 2 or c == 3`)
	require.NoError(t, err)

	or, ok := e.(Or)
	require.True(t, ok, "expected Or at the root, got %T", e)
	_, ok = or.Left.(And)
	assert.True(t, ok, "expected And on the left, got %T", or.Left)
	_, ok = or.Right.(Comparison)
	assert.True(t, ok, "expected Comparison on the right, got %T", or.Right)
}

func TestParse_ParensOverridePrecedence(t *testing.T) {
	e, err := Parse(`a == 1 and (b == 2 or c == 3)`)
	require.NoError(t, err)

	and, ok := e.(And)
	require.True(t, ok, "expected And at the root, got %T", e)
	_, ok = and.Right.(Or)
	assert.True(t, ok, "expected Or on the right, got %T", and.Right)
}

func TestParse_NotBindsTightly(t *testing.T) {
	e, err := Parse(`not a == 1 and b == 2`)
	require.NoError(t, err)

	and, ok := e.(And)
	require.True(t, ok, "expected And at the root, got %T", e)
	_, ok = and.Left.(Not)
	assert.True(t, ok, "expected Not on the left, got %T", and.Left)
}

func TestParse_BareBooleans(t *testing.T) {
	e, err := Parse(`true`)
	require.NoError(t, err)
	assert.Equal(t, True, e)

	e, err = Parse(`not false`)
	require.NoError(t, err)
	assert.Equal(t, Not{Expr: False}, e)
}

func TestParse_QuestionIdentifiers(t *testing.T) {
	for _, q := range []string{"user.tier", "retry-count", "_hidden", "v2"} {
		e, err := Parse(q + ` == 1`)
		require.NoError(t, err, "identifier %q", q)
		cmp := e.(Comparison)
		assert.Equal(t, q, cmp.Question)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ``},
		{"bare identifier", `age`},
		{"missing rhs", `age ==`},
		{"single equals", `age = 1`},
		{"unterminated string", `name == "oops`},
		{"trailing garbage", `age == 1 extra`},
		{"unbalanced paren", `(age == 1`},
		{"reserved word as question", `and == 1`},
		{"literal on the left", `1 == age`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			require.Error(t, err)

			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParse_ErrorOffset(t *testing.T) {
	_, err := Parse(`age == #`)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 7, parseErr.Offset)
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		`age >= 18`,
		`tier == "gold"`,
		`member == true and age >= 18`,
		`a == 1 and (b == 2 or c == 3)`,
		`not (a == 1 or b == 2)`,
		`rate < 0.5`,
		`true`,
	}

	for _, in := range inputs {
		e, err := Parse(in)
		require.NoError(t, err, "input %q", in)

		formatted := Format(e)
		back, err := Parse(formatted)
		require.NoError(t, err, "reparse %q", formatted)
		assert.Equal(t, e, back, "format of %q changed meaning: %q", in, formatted)
	}
}

func TestReferences(t *testing.T) {
	e, err := Parse(`a == 1 and (b == 2 or not c == 3) and a != 4`)
	require.NoError(t, err)

	refs := References(e)
	assert.Len(t, refs, 3)
	assert.Contains(t, refs, "a")
	assert.Contains(t, refs, "b")
	assert.Contains(t, refs, "c")
}

func TestParseLiteralText(t *testing.T) {
	a, err := ParseLiteralText(`"hello"`)
	require.NoError(t, err)
	assert.True(t, answer.Equal(answer.NewString("hello"), a))

	a, err = ParseLiteralText(`42`)
	require.NoError(t, err)
	assert.True(t, answer.Equal(answer.NewInt(42), a))

	a, err = ParseLiteralText(`false`)
	require.NoError(t, err)
	assert.True(t, answer.Equal(answer.NewBool(false), a))

	_, err = ParseLiteralText(`42 43`)
	assert.Error(t, err)
}
