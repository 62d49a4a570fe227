package store

import "errors"

// ErrNotFound is returned when a referential-integrity precondition (the
// entity a component write depends on, or an edge endpoint) is absent. A
// missing component definition is reported by GetComponentDefinition
// returning nil, not by this error.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExists is returned by create-only operations when the key is
// already taken.
var ErrAlreadyExists = errors.New("store: already exists")
