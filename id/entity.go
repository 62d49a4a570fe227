package id

// Entity is a 32-byte opaque entity identifier, prefixed "entity:" on
// display. It carries no attributes of its own; existence is a row key in
// the storage layer.
type Entity struct{ ID }

// NewEntity mints a random entity identifier whose base64 encoding avoids
// '-' and '_' (the form used throughout the HTTP surface and savefile).
func NewEntity() (Entity, error) {
	raw, err := RandomURLSafe(KindEntity)
	if err != nil {
		return Entity{}, err
	}
	return Entity{raw}, nil
}

// ParseEntity parses the prefixed or bare form, rejecting any other prefix.
func ParseEntity(s string) (Entity, error) {
	parsed, err := Parse(s, KindEntity)
	if err != nil {
		return Entity{}, err
	}
	return Entity{parsed}, nil
}

func (e Entity) MarshalJSON() ([]byte, error) { return e.ID.MarshalJSON() }

func (e *Entity) UnmarshalJSON(data []byte) error {
	e.ID.kind = KindEntity
	return e.ID.UnmarshalJSON(data)
}
