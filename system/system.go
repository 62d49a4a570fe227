// Package system models configuration records that bind a dotted system
// name to descriptive metadata and a list of parsed bid expressions. The
// core treats a System as an opaque typed record; it is consumed by the
// agents that read the apply/storage surface, never evaluated in-process.
package system

import (
	"github.com/goccy/go-json"

	"github.com/stigctl/engine/bid"
	"github.com/stigctl/engine/typename"
)

// System is a configuration record identified by a SystemName.
type System struct {
	Name        typename.Name
	Description string
	Model       string
	Color       string
	Content     string
	Tools       []string
	Bids        []*bid.Bid
}

// wire is the JSON/YAML transfer shape: Bids travel as source text and are
// parsed on decode so storage and the apply engine never re-parse them.
type wire struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Model       string   `json:"model,omitempty"`
	Color       string   `json:"color,omitempty"`
	Content     string   `json:"content,omitempty"`
	Tools       []string `json:"tools,omitempty"`
	Bids        []string `json:"bids,omitempty"`
}

// Decode parses a System from its wire representation, validating the name
// and parsing every bid expression source string.
func Decode(w wire) (*System, error) {
	name, err := typename.Parse(w.Name)
	if err != nil {
		return nil, err
	}

	bids := make([]*bid.Bid, 0, len(w.Bids))
	for _, src := range w.Bids {
		b, err := bid.Parse(src)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}

	return &System{
		Name:        name,
		Description: w.Description,
		Model:       w.Model,
		Color:       w.Color,
		Content:     w.Content,
		Tools:       w.Tools,
		Bids:        bids,
	}, nil
}

// Wire renders s back to its transfer shape, re-serializing every bid
// expression through its pretty-printer.
func (s *System) Wire() wire {
	srcs := make([]string, len(s.Bids))
	for i, b := range s.Bids {
		srcs[i] = b.String()
	}
	return wire{
		Name:        string(s.Name),
		Description: s.Description,
		Model:       s.Model,
		Color:       s.Color,
		Content:     s.Content,
		Tools:       s.Tools,
		Bids:        srcs,
	}
}

// MarshalJSON renders the wire shape.
func (s *System) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Wire())
}

// UnmarshalJSON decodes the wire shape and parses its bid expressions.
func (s *System) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := Decode(w)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}
