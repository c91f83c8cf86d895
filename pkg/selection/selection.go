// Package selection implements the X-Pkg version-selection algebra: a
// finite set of non-overlapping, inclusive version ranges, parsed from the
// compact string grammar used for dependency, incompatibility, and
// host-application compatibility expressions.
package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ArkinSolomon/xpkg-core/pkg/xversion"
)

// Range is an inclusive [Min, Max] span of versions.
type Range struct {
	Min, Max xversion.Version
}

// Contains reports whether v falls within r, inclusive on both ends.
func (r Range) Contains(v xversion.Version) bool {
	return !xversion.Less(v, r.Min) && !xversion.Less(r.Max, v)
}

// Selection is a normalized (sorted, merged, non-overlapping) set of ranges.
type Selection struct {
	Ranges []Range
}

// Contains reports whether v is described by any range in s.
func (s Selection) Contains(v xversion.Version) bool {
	for _, r := range s.Ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// Parse parses a comma-separated list of selection sections into a
// normalized Selection.
func Parse(raw string) (Selection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selection{}, fmt.Errorf("invalid_selection: empty selection")
	}
	if raw == "*" {
		return Selection{Ranges: []Range{{Min: xversion.MinVersion, Max: xversion.MaxVersion}}}, nil
	}

	sections := strings.Split(raw, ",")
	ranges := make([]Range, 0, len(sections))
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			return Selection{}, fmt.Errorf("invalid_selection: %q has an empty section", raw)
		}
		r, err := parseSection(section)
		if err != nil {
			return Selection{}, err
		}
		ranges = append(ranges, r)
	}

	return Selection{Ranges: normalize(ranges)}, nil
}

// parseSection parses one comma-delimited section: either a single
// abbreviation token or a hyphen-delimited L-U range (either side may be
// empty).
func parseSection(section string) (Range, error) {
	if i := strings.IndexByte(section, '-'); i >= 0 {
		lower, upper := section[:i], section[i+1:]

		min := xversion.MinVersion
		if lower != "" {
			var err error
			min, err = expandLower(lower)
			if err != nil {
				return Range{}, err
			}
		}

		max := xversion.MaxVersion
		if upper != "" {
			var err error
			max, err = expandUpper(upper)
			if err != nil {
				return Range{}, err
			}
		}

		if xversion.Less(max, min) {
			return Range{}, fmt.Errorf("invalid_selection: %q has min > max", section)
		}
		return Range{Min: min, Max: max}, nil
	}

	if hasPreReleaseMarker(section) {
		v, err := xversion.Parse(section)
		if err != nil {
			return Range{}, fmt.Errorf("invalid_selection: %w", err)
		}
		return Range{Min: v, Max: v}, nil
	}

	min, err := expandLower(section)
	if err != nil {
		return Range{}, err
	}
	max, err := expandUpper(section)
	if err != nil {
		return Range{}, err
	}
	return Range{Min: min, Max: max}, nil
}

// expandLower expands a (possibly abbreviated) lower-bound token. An exact
// pre-release token is used as-is; otherwise missing components default to
// zero and the range starts at the earliest pre-release of that prefix.
func expandLower(token string) (xversion.Version, error) {
	if hasPreReleaseMarker(token) {
		v, err := xversion.Parse(token)
		if err != nil {
			return xversion.Version{}, fmt.Errorf("invalid_selection: %w", err)
		}
		return v, nil
	}

	comps, _, _, err := xversion.SplitComponents(token)
	if err != nil {
		return xversion.Version{}, fmt.Errorf("invalid_selection: %w", err)
	}
	var padded [3]int
	copy(padded[:], comps)

	return xversion.Version{
		Major: padded[0], Minor: padded[1], Patch: padded[2],
		Pre: xversion.Alpha, PreNum: 1,
	}, nil
}

// expandUpper expands a (possibly abbreviated) upper-bound token. An exact
// pre-release token is used as-is; otherwise missing minor/patch default to
// 999 (the widest value for that prefix).
func expandUpper(token string) (xversion.Version, error) {
	if hasPreReleaseMarker(token) {
		v, err := xversion.Parse(token)
		if err != nil {
			return xversion.Version{}, fmt.Errorf("invalid_selection: %w", err)
		}
		return v, nil
	}

	comps, _, _, err := xversion.SplitComponents(token)
	if err != nil {
		return xversion.Version{}, fmt.Errorf("invalid_selection: %w", err)
	}
	padded := [3]int{0, 999, 999}
	copy(padded[:len(comps)], comps)

	return xversion.Version{Major: padded[0], Minor: padded[1], Patch: padded[2]}, nil
}

func hasPreReleaseMarker(s string) bool {
	for _, r := range s {
		if r == 'a' || r == 'b' || r == 'r' {
			return true
		}
	}
	return false
}

// normalize sorts ranges by lower bound and merges any that overlap.
func normalize(ranges []Range) []Range {
	sort.Slice(ranges, func(i, j int) bool {
		return xversion.Less(ranges[i].Min, ranges[j].Min)
	})

	merged := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if n := len(merged); n > 0 && !xversion.Less(merged[n-1].Max, r.Min) {
			if xversion.Less(merged[n-1].Max, r.Max) {
				merged[n-1].Max = r.Max
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// String renders s in canonical form: the minimal string that re-parses to
// the same normalized selection.
func (s Selection) String() string {
	if len(s.Ranges) == 1 && s.Ranges[0].Min == xversion.MinVersion && s.Ranges[0].Max == xversion.MaxVersion {
		return "*"
	}

	parts := make([]string, len(s.Ranges))
	for i, r := range s.Ranges {
		parts[i] = r.string()
	}
	return strings.Join(parts, ",")
}

func (r Range) string() string {
	switch {
	case r.Min == r.Max:
		return asMinString(r.Min)
	case r.Min == xversion.MinVersion:
		return "-" + asMaxString(r.Max)
	case r.Max == xversion.MaxVersion:
		return asMinString(r.Min) + "-"
	default:
		return asMinString(r.Min) + "-" + asMaxString(r.Max)
	}
}

// asMinString renders v the way it would appear as a lower-bound token,
// dropping the implicit "a1" abbreviation marker and any zero trailing
// components that expandLower would reattach on re-parse.
func asMinString(v xversion.Version) string {
	if v.Pre == xversion.Alpha && v.PreNum == 1 {
		switch {
		case v.Minor == 0 && v.Patch == 0:
			return fmt.Sprintf("%d", v.Major)
		case v.Patch == 0:
			return fmt.Sprintf("%d.%d", v.Major, v.Minor)
		default:
			return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
		}
	}
	return v.String()
}

// asMaxString renders v the way it would appear as an upper-bound token,
// dropping trailing 999 components that expandUpper would refill on re-parse.
func asMaxString(v xversion.Version) string {
	if v.Pre == xversion.None {
		switch {
		case v.Minor == 999 && v.Patch == 999:
			return fmt.Sprintf("%d", v.Major)
		case v.Patch == 999:
			return fmt.Sprintf("%d.%d", v.Major, v.Minor)
		default:
			return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
		}
	}
	return v.String()
}
