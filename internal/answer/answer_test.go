package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual_SameVariant(t *testing.T) {
	assert.True(t, Equal(NewString("a"), NewString("a")))
	assert.True(t, Equal(NewInt(42), NewInt(42)))
	assert.True(t, Equal(NewDouble(1.5), NewDouble(1.5)))
	assert.True(t, Equal(NewBool(true), NewBool(true)))

	assert.False(t, Equal(NewString("a"), NewString("b")))
	assert.False(t, Equal(NewInt(1), NewInt(2)))
}

func TestEqual_IntNeverEqualsDouble(t *testing.T) {
	// Int and Double are distinct variants even at the same numeric value.
	assert.False(t, Equal(NewInt(1), NewDouble(1.0)))
	assert.False(t, Equal(NewDouble(1.0), NewInt(1)))
}

func TestEqual_Nil(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(NewInt(1), nil))
	assert.False(t, Equal(nil, NewInt(1)))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindString, KindOf(NewString("x")))
	assert.Equal(t, KindInt, KindOf(NewInt(1)))
	assert.Equal(t, KindDouble, KindOf(NewDouble(1)))
	assert.Equal(t, KindBool, KindOf(NewBool(false)))
}

func TestAccessors_MatchingVariant(t *testing.T) {
	s, err := AsString(NewString("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	n, err := AsInt(NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	d, err := AsDouble(NewDouble(2.5))
	require.NoError(t, err)
	assert.Equal(t, 2.5, d)

	b, err := AsBool(NewBool(true))
	require.NoError(t, err)
	assert.True(t, b)
}

func TestAsDouble_WidensInt(t *testing.T) {
	d, err := AsDouble(NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, d)
}

func TestAccessors_WrongVariant(t *testing.T) {
	_, err := AsInt(NewString("7"))
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, KindInt, convErr.Want)
	assert.Equal(t, KindString, convErr.Got)
}

func TestString_DisplayForms(t *testing.T) {
	assert.Equal(t, "hello", NewString("hello").String())
	assert.Equal(t, "42", NewInt(42).String())
	assert.Equal(t, "1.5", NewDouble(1.5).String())
	assert.Equal(t, "true", NewBool(true).String())
}

func TestGoString_ShowsVariant(t *testing.T) {
	// The display forms of String("42") and Int(42) coincide; GoString
	// keeps diagnostics unambiguous.
	assert.Equal(t, `answer.String("42")`, NewString("42").GoString())
	assert.Equal(t, "answer.Int(42)", NewInt(42).GoString())
	assert.Equal(t, "answer.Double(1.5)", NewDouble(1.5).GoString())
	assert.Equal(t, "answer.Bool(false)", NewBool(false).GoString())
}

func TestConvert_Identity(t *testing.T) {
	a, err := Convert(NewInt(5), KindInt)
	require.NoError(t, err)
	assert.True(t, Equal(NewInt(5), a))
}

func TestConvert_Widening(t *testing.T) {
	a, err := Convert(NewInt(5), KindDouble)
	require.NoError(t, err)
	assert.True(t, Equal(NewDouble(5), a))
}

func TestConvert_DoubleToInt(t *testing.T) {
	a, err := Convert(NewDouble(5), KindInt)
	require.NoError(t, err)
	assert.True(t, Equal(NewInt(5), a))

	// Fractional doubles do not convert.
	_, err = Convert(NewDouble(5.5), KindInt)
	require.Error(t, err)
}

func TestConvert_StringParsing(t *testing.T) {
	a, err := Convert(NewString("17"), KindInt)
	require.NoError(t, err)
	assert.True(t, Equal(NewInt(17), a))

	a, err = Convert(NewString("2.5"), KindDouble)
	require.NoError(t, err)
	assert.True(t, Equal(NewDouble(2.5), a))

	a, err = Convert(NewString("true"), KindBool)
	require.NoError(t, err)
	assert.True(t, Equal(NewBool(true), a))

	_, err = Convert(NewString("not a number"), KindInt)
	require.Error(t, err)
}

func TestConvert_ToString(t *testing.T) {
	a, err := Convert(NewInt(9), KindString)
	require.NoError(t, err)
	assert.True(t, Equal(NewString("9"), a))
}

func TestConvert_Undefined(t *testing.T) {
	_, err := Convert(NewBool(true), KindInt)
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, KindInt, convErr.Want)
	assert.Equal(t, KindBool, convErr.Got)
}
