package schema

import (
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// rawSchema mirrors Schema's wire shape but keeps Items undecoded so
// UnmarshalJSON can disambiguate the single-schema and positional-tuple
// forms before recursing.
type rawSchema struct {
	Type       Type               `json:"type,omitempty"`
	OneOf      []*Schema          `json:"oneOf,omitempty"`
	Enum       []any              `json:"enum,omitempty"`
	Items      json.RawMessage    `json:"items,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// UnmarshalJSON decodes a schema node, resolving Items into either a single
// *Schema or a []*Schema depending on whether the wire value is an object
// or an array.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw rawSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Type = raw.Type
	s.OneOf = raw.OneOf
	s.Enum = raw.Enum
	s.Properties = raw.Properties
	s.Required = raw.Required

	if len(raw.Items) == 0 {
		return nil
	}
	trimmed := trimLeadingSpace(raw.Items)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tuple []*Schema
		if err := json.Unmarshal(raw.Items, &tuple); err != nil {
			return err
		}
		s.Items = tuple
		return nil
	}
	var single Schema
	if err := json.Unmarshal(raw.Items, &single); err != nil {
		return err
	}
	s.Items = &single
	return nil
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

// Decode parses a schema document from JSON bytes.
func Decode(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeYAML parses a schema document submitted as application/yaml,
// matching the content-negotiation rule for component definitions:
// goccy/go-yaml decodes into the same JSON-compatible tree that
// UnmarshalJSON consumes.
func DecodeYAML(data []byte) (*Schema, error) {
	jsonBytes, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return Decode(jsonBytes)
}
