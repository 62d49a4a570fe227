// Package id implements the fixed-width identifier codec shared by entities
// and invariants: a 32-byte payload rendered as "<prefix>:<43-char base64url>".
package id

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes the prefix an ID was minted with. The raw bytes carry
// no type tag of their own; Kind is carried alongside the bytes by the Go
// wrapper types (Entity, InvariantID) and reproduced on Display.
type Kind string

const (
	KindEntity    Kind = "entity"
	KindInvariant Kind = "invariant"
	// KindSystem is reserved for a future opaque handle onto SystemName.
	// No operation mints or parses a system: ID today; see DESIGN.md.
	KindSystem Kind = "system"
)

// Size is the fixed payload length in bytes.
const Size = 32

// encodedLen is the exact character count of an unpadded, 32-byte
// base64url encoding: ceil(32*8/6) = 43.
const encodedLen = 43

var encoding = base64.RawURLEncoding

// ID is a 32-byte opaque identifier tagged with the Kind it was parsed or
// minted under.
type ID struct {
	kind  Kind
	bytes [Size]byte
}

// ErrorCode enumerates the structured parse failures from Parse.
type ErrorCode int

const (
	InvalidPrefix ErrorCode = iota
	InvalidFormat
	InvalidBase64
	InvalidLength
)

func (c ErrorCode) String() string {
	switch c {
	case InvalidPrefix:
		return "InvalidPrefix"
	case InvalidFormat:
		return "InvalidFormat"
	case InvalidBase64:
		return "InvalidBase64"
	case InvalidLength:
		return "InvalidLength"
	default:
		return "Unknown"
	}
}

// ParseError reports why Parse rejected an input string. It echoes the
// invalid input verbatim so callers can surface it to the user unchanged.
type ParseError struct {
	Code  ErrorCode
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: invalid identifier %q", e.Code, e.Input)
}

var errNilKind = errors.New("id: empty kind")

// Parse accepts either the prefixed form "<prefix>:<43 chars>" or the bare
// 43-character base64url form. allowed lists the kinds accepted for the
// prefixed form; the bare form is accepted for any of them and yields an ID
// whose Kind is the first entry of allowed.
func Parse(s string, allowed ...Kind) (ID, error) {
	if len(allowed) == 0 {
		return ID{}, errNilKind
	}

	encoded := s
	kind := allowed[0]

	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		prefix := Kind(s[:idx])
		encoded = s[idx+1:]

		found := false
		for _, k := range allowed {
			if k == prefix {
				kind = k
				found = true
				break
			}
		}
		if !found {
			return ID{}, &ParseError{Code: InvalidPrefix, Input: s}
		}
	}

	if len(encoded) != encodedLen {
		return ID{}, &ParseError{Code: InvalidFormat, Input: s}
	}

	raw, err := encoding.DecodeString(encoded)
	if err != nil {
		return ID{}, &ParseError{Code: InvalidBase64, Input: s}
	}
	if len(raw) != Size {
		return ID{}, &ParseError{Code: InvalidLength, Input: s}
	}

	var out ID
	out.kind = kind
	copy(out.bytes[:], raw)
	return out, nil
}

// Random reads Size cryptographically strong bytes from the OS and tags
// them with kind.
func Random(kind Kind) (ID, error) {
	var out ID
	out.kind = kind
	if _, err := rand.Read(out.bytes[:]); err != nil {
		return ID{}, fmt.Errorf("id: read random bytes: %w", err)
	}
	return out, nil
}

// maxURLSafeAttempts bounds the retry loop in RandomURLSafe.
const maxURLSafeAttempts = 1000

// RandomURLSafe draws an ID whose base64url rendering contains neither '-'
// nor '_', trying up to 1000 times. After exhausting the budget it returns
// the last draw with '-' mapped to '9' and '_' mapped to '6' (a
// resulting collision with a previously issued ID is possible in principle
// but not checked here; callers who need a uniqueness guarantee must
// re-check against the store themselves).
func RandomURLSafe(kind Kind) (ID, error) {
	var last ID
	for i := 0; i < maxURLSafeAttempts; i++ {
		candidate, err := Random(kind)
		if err != nil {
			return ID{}, err
		}
		last = candidate
		enc := encoding.EncodeToString(candidate.bytes[:])
		if !strings.ContainsAny(enc, "-_") {
			return candidate, nil
		}
	}

	enc := encoding.EncodeToString(last.bytes[:])
	enc = strings.NewReplacer("-", "9", "_", "6").Replace(enc)
	raw, err := encoding.DecodeString(enc)
	if err != nil {
		// The replacement characters are themselves valid base64url, so
		// this can only fail if Size changes without updating encodedLen.
		return ID{}, fmt.Errorf("id: re-encode sanitized draw: %w", err)
	}
	var out ID
	out.kind = last.kind
	copy(out.bytes[:], raw)
	return out, nil
}

// String renders the prefixed form, e.g. "entity:AAAA...".
func (i ID) String() string {
	if i.kind == "" {
		return encoding.EncodeToString(i.bytes[:])
	}
	return string(i.kind) + ":" + encoding.EncodeToString(i.bytes[:])
}

// Kind returns the tag the ID was parsed or minted under.
func (i ID) Kind() Kind { return i.kind }

// Bytes returns a copy of the raw 32-byte payload.
func (i ID) Bytes() [Size]byte { return i.bytes }

// IsZero reports whether the ID is the unset zero value.
func (i ID) IsZero() bool {
	return i.kind == "" && i.bytes == [Size]byte{}
}

// Equal compares two IDs by raw bytes only; Kind is metadata for display,
// not part of identity (two IDs with the same bytes and different kinds
// cannot arise from Random/Parse in practice, but Equal is defined over
// bytes to keep the codec a total bijection on 32-byte arrays).
func (i ID) Equal(other ID) bool {
	return i.bytes == other.bytes
}

// MarshalJSON renders the prefixed string form.
func (i ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

// UnmarshalJSON parses the prefixed or bare string form, keeping whatever
// Kind was already set on the receiver as the accepted kind for a bare
// encoding (used when decoding into an already-typed field such as
// Entity or InvariantID).
func (i *ID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	kind := i.kind
	if kind == "" {
		kind = KindEntity
	}
	parsed, err := Parse(s, kind, KindEntity, KindInvariant)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
