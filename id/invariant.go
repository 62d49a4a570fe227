package id

// InvariantID is a 32-byte opaque identifier for an Invariant record,
// prefixed "invariant:" on display. Same codec as Entity, different
// prefix and Go type so the two cannot be mixed up at compile time.
type InvariantID struct{ ID }

// NewInvariantID mints a random invariant identifier.
func NewInvariantID() (InvariantID, error) {
	raw, err := RandomURLSafe(KindInvariant)
	if err != nil {
		return InvariantID{}, err
	}
	return InvariantID{raw}, nil
}

// ParseInvariantID parses the prefixed or bare form, rejecting any other
// prefix.
func ParseInvariantID(s string) (InvariantID, error) {
	parsed, err := Parse(s, KindInvariant)
	if err != nil {
		return InvariantID{}, err
	}
	return InvariantID{parsed}, nil
}

func (i InvariantID) MarshalJSON() ([]byte, error) { return i.ID.MarshalJSON() }

func (i *InvariantID) UnmarshalJSON(data []byte) error {
	i.ID.kind = KindInvariant
	return i.ID.UnmarshalJSON(data)
}
