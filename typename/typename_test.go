package typename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	for _, s := range []string{"Health", "game.Health", "a.b_2.C3", "_private.Field"} {
		n, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, n.String())
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{"", ".", "Health.", ".Health", "1Health", "game.1Bad", "has space", "has-dash", "has.$ymbol"}
	for _, s := range cases {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestParseEmptyIsDistinctError(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestJSONRoundTrip(t *testing.T) {
	n := MustParse("game.components.Health")
	data, err := n.MarshalJSON()
	require.NoError(t, err)

	var decoded Name
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, n, decoded)
}
