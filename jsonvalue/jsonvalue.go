// Package jsonvalue decodes arbitrary JSON into the dynamic value
// representation shared by the schema validator and the bid evaluator:
// nil | bool | int64 | float64 | string | []any | map[string]any.
//
// A plain json.Unmarshal into `any` collapses every JSON number to
// float64, which loses the integer/float distinction the bid evaluator's
// integer-preserving arithmetic and the schema validator's "integer" type
// both depend on. Decode keeps that distinction instead: a number with no
// '.' or exponent decodes as int64 (if representable), otherwise float64.
package jsonvalue

import (
	"math/big"
	"strings"

	"github.com/goccy/go-json"
)

// Decode parses data into the dynamic value representation.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return normalize(raw), nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		return normalizeNumber(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	default:
		return val
	}
}

func normalizeNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	f, err := n.Float64()
	if err == nil {
		return f
	}
	// Outside float64 range: re-parse through big.Float and convert back,
	// which saturates to ±Inf; still surfaced as float64 per the dynamic
	// value model.
	bf, _, err := big.ParseFloat(s, 10, 53, big.ToNearestEven)
	if err != nil {
		return s
	}
	out, _ := bf.Float64()
	return out
}

// Marshal renders the dynamic value representation back to JSON bytes.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
