// Package xversion implements the X-Pkg version format — a dotted
// major.minor.patch triple with an optional alpha/beta/release-candidate
// pre-release suffix — and its total order.
package xversion

import (
	"fmt"
	"strconv"
	"strings"
)

// PreType identifies a pre-release channel. Order: Alpha < Beta < ReleaseCandidate.
type PreType byte

const (
	// None means the version carries no pre-release suffix.
	None PreType = 0
	Alpha PreType = 'a'
	Beta PreType = 'b'
	ReleaseCandidate PreType = 'r'
)

// Version is a single (major, minor, patch[, pre]) X-Pkg version.
type Version struct {
	Major, Minor, Patch int
	Pre                 PreType
	PreNum              int // valid only when Pre != None, in [1,999]
}

// MinVersion is the lowest version expressible in the format: 0.0.1a1.
var MinVersion = Version{Major: 0, Minor: 0, Patch: 1, Pre: Alpha, PreNum: 1}

// MaxVersion is the highest version expressible in the format: 999.999.999.
var MaxVersion = Version{Major: 999, Minor: 999, Patch: 999}

const maxComponent = 999
const maxStringLen = 15

// Parse parses a version string of the form M[.m[.p]][<a|b|r><n>].
// All components must be in [0,999] (not all zero), the string lower-case,
// at most 15 characters, with no trailing dot.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, fmt.Errorf("invalid_version: empty string")
	}
	if len(s) > maxStringLen {
		return Version{}, fmt.Errorf("invalid_version: %q exceeds %d characters", s, maxStringLen)
	}
	if s != strings.ToLower(s) {
		return Version{}, fmt.Errorf("invalid_version: %q must be lower-case", s)
	}
	if strings.HasSuffix(s, ".") {
		return Version{}, fmt.Errorf("invalid_version: %q has a trailing dot", s)
	}

	comps, pre, preNum, err := SplitComponents(s)
	if err != nil {
		return Version{}, err
	}

	var padded [3]int
	copy(padded[:], comps)

	v := Version{Major: padded[0], Minor: padded[1], Patch: padded[2], Pre: pre, PreNum: preNum}
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return Version{}, fmt.Errorf("invalid_version: %q cannot be all zero", s)
	}
	return v, nil
}

// SplitComponents parses s into its 1-3 numeric components (major[.minor[.patch]])
// and an optional pre-release marker, without padding or an all-zero check.
// It is exported for pkg/selection, which parses the same numeric grammar but
// allows omitted trailing components to mean different things (open lower vs.
// open upper bound) depending on where the token appears in a range.
func SplitComponents(s string) (comps []int, pre PreType, preNum int, err error) {
	numPart, pre, preNum, err := splitPreRelease(s)
	if err != nil {
		return nil, 0, 0, err
	}

	fields := strings.Split(numPart, ".")
	if len(fields) == 0 || len(fields) > 3 {
		return nil, 0, 0, fmt.Errorf("invalid_version: %q has an invalid component count", s)
	}

	comps = make([]int, len(fields))
	for i, f := range fields {
		n, err := parseComponent(f)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("invalid_version: %q: %w", s, err)
		}
		comps[i] = n
	}
	return comps, pre, preNum, nil
}

// splitPreRelease separates the numeric M.m.p prefix from a trailing
// <a|b|r><n> suffix, if present.
func splitPreRelease(s string) (numPart string, pre PreType, preNum int, err error) {
	for i, r := range s {
		if r == 'a' || r == 'b' || r == 'r' {
			numPart = s[:i]
			suffix := s[i+1:]
			if numPart == "" {
				return "", 0, 0, fmt.Errorf("invalid_version: %q has no numeric prefix before pre-release marker", s)
			}
			n, perr := strconv.Atoi(suffix)
			if perr != nil || n < 1 || n > maxComponent {
				return "", 0, 0, fmt.Errorf("invalid_version: %q has an invalid pre-release number", s)
			}
			return numPart, PreType(r), n, nil
		}
	}
	return s, None, 0, nil
}

func parseComponent(f string) (int, error) {
	if f == "" {
		return 0, fmt.Errorf("empty version component")
	}
	n, err := strconv.Atoi(f)
	if err != nil {
		return 0, fmt.Errorf("non-numeric version component %q", f)
	}
	if n < 0 || n > maxComponent {
		return 0, fmt.Errorf("version component %q out of range [0,%d]", f, maxComponent)
	}
	return n, nil
}

// String renders v back to its canonical M.m.p[<pre><n>] form.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != None {
		s += fmt.Sprintf("%c%d", v.Pre, v.PreNum)
	}
	return s
}

// Key returns v's position in the total order as a fixed-point integer
// (scaled by 1e9) suitable for direct numeric comparison.
//
// The integer part is major*1e6 + minor*1e3 + patch, each zero-padded to
// three digits. A fractional correction is subtracted for pre-releases so
// that they sort below the corresponding release, with alpha < beta < rc.
func (v Version) Key() int64 {
	integer := int64(v.Major)*1_000_000 + int64(v.Minor)*1_000 + int64(v.Patch)
	base := integer * 1_000_000_000

	if v.Pre == None {
		return base
	}

	ppp := int64(maxComponent - v.PreNum) // 0..998
	var fraction int64
	switch v.Pre {
	case Alpha:
		fraction = 999_999_000 + ppp
	case Beta:
		fraction = 999_000_000 + ppp*1_000 + 999
	case ReleaseCandidate:
		fraction = ppp*1_000_000 + 999_999
	}
	return base - fraction
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func Compare(a, b Version) int {
	ka, kb := a.Key(), b.Key()
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b Version) bool { return a.Key() < b.Key() }
