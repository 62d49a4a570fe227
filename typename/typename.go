// Package typename validates the dotted-identifier syntax shared by
// Component type names and System names: a non-empty, '.'-separated path
// whose every segment matches [A-Za-z_][A-Za-z0-9_]*.
package typename

import (
	"errors"
	"strconv"
	"strings"
)

// ErrEmpty is returned for the empty string.
var ErrEmpty = errors.New("typename: empty name")

// InvalidSegmentError reports which dot-separated segment failed and why.
type InvalidSegmentError struct {
	Name    string
	Segment string
	Index   int
}

func (e *InvalidSegmentError) Error() string {
	return "typename: invalid segment " + e.Segment + " (index " + strconv.Itoa(e.Index) + ") in " + e.Name
}

// Name is a validated dotted-identifier string. The zero value is not a
// valid Name; construct one with Parse.
type Name string

// Parse validates s and returns it as a Name, or an error describing the
// first offending segment.
func Parse(s string) (Name, error) {
	if s == "" {
		return "", ErrEmpty
	}
	for i, seg := range strings.Split(s, ".") {
		if !validSegment(seg) {
			return "", &InvalidSegmentError{Name: s, Segment: seg, Index: i}
		}
	}
	return Name(s), nil
}

// MustParse panics if s is not a valid dotted identifier. Reserved for
// compile-time-known constants (tests, fixtures).
func MustParse(s string) Name {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func validSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for i, r := range seg {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '_':
			// always valid, first or later
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (n Name) String() string { return string(n) }

// MarshalJSON renders the plain string form.
func (n Name) MarshalJSON() ([]byte, error) {
	return []byte(`"` + string(n) + `"`), nil
}

// UnmarshalJSON validates the decoded string as a dotted identifier.
func (n *Name) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
