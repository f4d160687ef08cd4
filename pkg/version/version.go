// Package version parses and orders dotted major.minor.patch release versions.
//
// Versions are compared numerically, never lexicographically, so "18.10.0"
// sorts after "18.9.0". A leading non-numeric marker such as "v" is accepted
// and stripped before parsing.
package version

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/mod/semver"
)

// Version is an immutable major.minor.patch triplet.
//
// Fields:
//   - Major: The major release line (e.g., 18 for Node.js 18.x)
//   - Minor: The minor release number
//   - Patch: The patch release number
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseError reports a version string that could not be parsed.
//
// Fields:
//   - Input: The raw string that was rejected
//   - Reason: Why the string was rejected
type ParseError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
//
// Returns:
//   - string: Message in the form `invalid version "x": reason`
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Input, e.Reason)
}

// Parse parses a dotted-triplet version string.
//
// It performs the following operations:
//   - Step 1: Trims surrounding whitespace
//   - Step 2: Strips any leading non-numeric marker (e.g., "v")
//   - Step 3: Requires exactly three dot-separated decimal fields; leading
//     zeros are accepted and dropped, so "18.01.0" parses as 18.1.0
//
// Parameters:
//   - text: The version string to parse (e.g., "18.1.0" or "v18.1.0")
//
// Returns:
//   - Version: The parsed version
//   - error: *ParseError when the string is malformed; nil on success
func Parse(text string) (Version, error) {
	body := stripMarker(strings.TrimSpace(text))
	if body == "" {
		return Version{}, &ParseError{Input: text, Reason: "empty version"}
	}

	fields := strings.Split(body, ".")
	if len(fields) != 3 {
		return Version{}, &ParseError{Input: text, Reason: fmt.Sprintf("expected 3 dot-separated fields, got %d", len(fields))}
	}

	var parts [3]int
	for i, field := range fields {
		if field == "" || !isDecimal(field) {
			return Version{}, &ParseError{Input: text, Reason: fmt.Sprintf("field %d (%q) is not numeric", i+1, field)}
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return Version{}, &ParseError{Input: text, Reason: err.Error()}
		}
		parts[i] = n
	}

	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare orders two versions by major, then minor, then patch.
//
// Both sides are rendered in canonical tag form, so leading zeros in the
// original input never affect the order.
//
// Parameters:
//   - a: The first version
//   - b: The second version
//
// Returns:
//   - int: -1 if a < b, 0 if a == b, 1 if a > b
func Compare(a, b Version) int {
	return semver.Compare(a.Tag(), b.Tag())
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// String returns the canonical form without prefix, e.g. "18.1.0".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Tag returns the release tag form used by upstream catalogs, e.g. "v18.1.0".
func (v Version) Tag() string {
	return "v" + v.String()
}

// Line returns the major line key for this version, e.g. "18".
func (v Version) Line() string {
	return strconv.Itoa(v.Major)
}

// stripMarker removes leading non-digit characters.
func stripMarker(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
}

func isDecimal(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
