package bid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Bid {
	t.Helper()
	b, err := Parse(src)
	require.NoError(t, err)
	return b
}

func TestPrecedenceMultiplicationBeforeAddition(t *testing.T) {
	b := mustParse(t, `ON true BID 2 + 3 * 4`)
	val, matched, err := Evaluate(b, map[string]any{})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, float64(14), val)
}

func TestPowerIsRightAssociative(t *testing.T) {
	b := mustParse(t, `ON true BID 2 ^ 3 ^ 4`)
	val, matched, err := Evaluate(b, map[string]any{})
	require.NoError(t, err)
	require.True(t, matched)
	// 2^(3^4) = 2^81, not (2^3)^4 = 4096
	assert.InDelta(t, 2.417851639229258e+24, val.(float64), 1e12)
}

func TestSimpleConditionEvaluation(t *testing.T) {
	b := mustParse(t, `ON user.active BID user.score`)
	env := map[string]any{"user": map[string]any{"active": true, "score": int64(100)}}

	val, matched, err := Evaluate(b, env)
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, int64(100), val)
}

func TestFalseConditionEvaluation(t *testing.T) {
	b := mustParse(t, `ON user.active BID user.score`)
	env := map[string]any{"user": map[string]any{"active": false, "score": int64(100)}}

	val, matched, err := Evaluate(b, env)
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Nil(t, val)
}

func TestComplexConditionScenario(t *testing.T) {
	b := mustParse(t, `ON (user.tier == "premium" && price > 100.0) BID price * 0.9`)

	premium := map[string]any{"user": map[string]any{"tier": "premium"}, "price": 150.0}
	val, matched, err := Evaluate(b, premium)
	require.NoError(t, err)
	require.True(t, matched)
	assert.InDelta(t, 135.0, val.(float64), 1e-9)

	basic := map[string]any{"user": map[string]any{"tier": "basic"}, "price": 150.0}
	_, matched, err = Evaluate(b, basic)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestRegexShortCircuit(t *testing.T) {
	b := mustParse(t, `ON a && b ~= "[invalid" BID 1`)
	env := map[string]any{"a": false}

	_, matched, err := Evaluate(b, env)
	require.NoError(t, err, "the invalid pattern must never be compiled since a is falsy")
	assert.False(t, matched)
}

func TestRegexMatch(t *testing.T) {
	b := mustParse(t, `ON name ~= "^A" BID 1`)
	val, matched, err := Evaluate(b, map[string]any{"name": "Alice"})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, int64(1), val)

	_, matched, err = Evaluate(b, map[string]any{"name": "Bob"})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestRegexMatchInvalidPattern(t *testing.T) {
	b := mustParse(t, `ON true BID name ~= "[invalid"`)
	_, _, err := Evaluate(b, map[string]any{"name": "x"})
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, RegexError, ee.Kind)
}

func TestRegexMatchNonStringOperand(t *testing.T) {
	b := mustParse(t, `ON true BID count ~= "ok"`)
	_, _, err := Evaluate(b, map[string]any{"count": int64(5)})
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, TypeMismatch, ee.Kind)
}

func TestDivisionByZero(t *testing.T) {
	b := mustParse(t, `ON true BID 1 / 0`)
	_, _, err := Evaluate(b, map[string]any{})
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, DivisionByZero, ee.Kind)
}

func TestModuloPreservesIntegerType(t *testing.T) {
	b := mustParse(t, `ON true BID 10 % 3`)
	val, _, err := Evaluate(b, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)
}

func TestStringConcatenation(t *testing.T) {
	b := mustParse(t, `ON true BID "foo" + "bar"`)
	val, _, err := Evaluate(b, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "foobar", val)
}

func TestAddTypeMismatch(t *testing.T) {
	b := mustParse(t, `ON true BID "foo" + 1`)
	_, _, err := Evaluate(b, map[string]any{})
	require.Error(t, err)
}

func TestVariableNotFound(t *testing.T) {
	b := mustParse(t, `ON missing.path BID 1`)
	_, _, err := Evaluate(b, map[string]any{})
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, VariableNotFound, ee.Kind)
}

func TestUnaryNegateAndNot(t *testing.T) {
	b := mustParse(t, `ON !done BID -score`)
	val, matched, err := Evaluate(b, map[string]any{"done": false, "score": int64(5)})
	require.NoError(t, err)
	require.True(t, matched)
	assert.Equal(t, int64(-5), val)
}

func TestDereferenceIsPassthrough(t *testing.T) {
	b := mustParse(t, `ON true BID *score`)
	val, _, err := Evaluate(b, map[string]any{"score": int64(42)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)
}

func TestEmptyExpression(t *testing.T) {
	_, err := Parse(`ON  BID 1`)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, EmptyExpression, pe.Kind)
}

func TestMissingKeywords(t *testing.T) {
	_, err := Parse(`foo BID 1`)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, MissingOnKeyword, pe.Kind)

	_, err = Parse(`ON true 1`)
	require.Error(t, err)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, MissingBidKeyword, pe.Kind)
}

func TestIntegerOverflowIsInvalidNumber(t *testing.T) {
	_, err := Parse(`ON true BID 99999999999999999999999`)
	require.Error(t, err)
	var le *LexError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, InvalidNumber, le.Kind)
}

func TestUnterminatedString(t *testing.T) {
	_, err := Parse(`ON true BID "oops`)
	require.Error(t, err)
	var le *LexError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, UnterminatedString, le.Kind)
}

func TestUnknownEscapeDegrades(t *testing.T) {
	b := mustParse(t, `ON true BID "a\qb"`)
	val, _, err := Evaluate(b, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "aqb", val)
}

func TestRoundTripThroughDisplay(t *testing.T) {
	src := `ON (user.tier == "premium" && price > 100.0) BID price * 0.9`
	first, err := Parse(src)
	require.NoError(t, err)

	second, err := Parse(first.String())
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
}

func TestLexerTracksPosition(t *testing.T) {
	lex := NewLexer("ON\nx BID 1")
	for i := 0; i < 2; i++ {
		_, err := lex.Next()
		require.NoError(t, err)
	}
	tok, err := lex.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, tok.Position.Line)
}
