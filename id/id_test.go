package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		e, err := NewEntity()
		require.NoError(t, err)

		parsed, err := ParseEntity(e.String())
		require.NoError(t, err)
		assert.True(t, e.Equal(parsed.ID), "round trip through Parse(String()) must reproduce the same bytes")
	}
}

func TestParseBareForm(t *testing.T) {
	e, err := NewEntity()
	require.NoError(t, err)

	bare := strings.TrimPrefix(e.String(), "entity:")
	parsed, err := ParseEntity(bare)
	require.NoError(t, err)
	assert.True(t, e.Equal(parsed.ID))
}

func TestParseLengthBoundary(t *testing.T) {
	e, err := NewEntity()
	require.NoError(t, err)
	full := strings.TrimPrefix(e.String(), "entity:")

	_, err = ParseEntity(full[:len(full)-1]) // 42 chars
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidFormat, pe.Code)

	_, err = ParseEntity(full + "A") // 44 chars
	require.Error(t, err)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidFormat, pe.Code)
}

func TestParseWrongPrefix(t *testing.T) {
	iid, err := NewInvariantID()
	require.NoError(t, err)

	_, err = ParseEntity(iid.String())
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidPrefix, pe.Code)
}

func TestParseInvalidBase64(t *testing.T) {
	bad := "entity:" + strings.Repeat("!", 43)
	_, err := ParseEntity(bad)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidBase64, pe.Code)
}

func TestParseEchoesInvalidInput(t *testing.T) {
	_, err := ParseEntity("entity:nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity:nope")
}

func TestRandomURLSafeAvoidsDashUnderscore(t *testing.T) {
	for i := 0; i < 200; i++ {
		e, err := NewEntity()
		require.NoError(t, err)
		enc := strings.TrimPrefix(e.String(), "entity:")
		assert.NotContains(t, enc, "-")
		assert.NotContains(t, enc, "_")
	}
}

func TestEntityInvariantNotInterchangeable(t *testing.T) {
	e, err := NewEntity()
	require.NoError(t, err)
	_, err = ParseInvariantID(e.String())
	require.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	e, err := NewEntity()
	require.NoError(t, err)

	data, err := e.MarshalJSON()
	require.NoError(t, err)

	var decoded Entity
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.True(t, e.Equal(decoded.ID))
}

func TestBijectionOnRawBytes(t *testing.T) {
	e, err := Random(KindEntity)
	require.NoError(t, err)

	parsed, err := Parse(e.String(), KindEntity)
	require.NoError(t, err)
	assert.Equal(t, e.Bytes(), parsed.Bytes())
}
