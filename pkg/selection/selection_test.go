package selection

import (
	"testing"

	"github.com/ArkinSolomon/xpkg-core/pkg/xversion"
)

func mustParseVersion(t *testing.T, s string) xversion.Version {
	t.Helper()
	v, err := xversion.Parse(s)
	if err != nil {
		t.Fatalf("xversion.Parse(%q) returned error: %v", s, err)
	}
	return v
}

func TestUniversalSelection(t *testing.T) {
	sel, err := Parse("*")
	if err != nil {
		t.Fatalf("Parse(\"*\") returned error: %v", err)
	}
	if !sel.Contains(mustParseVersion(t, "0.0.1a1")) || !sel.Contains(mustParseVersion(t, "999.999.999")) {
		t.Error("universal selection should contain the full version space")
	}
	if got := sel.String(); got != "*" {
		t.Errorf("String() = %q, want \"*\"", got)
	}
}

func TestAbbreviationExpansion(t *testing.T) {
	cases := []struct {
		in       string
		min, max string
	}{
		{"1", "1.0.0a1", "1.999.999"},
		{"1.2", "1.2.0a1", "1.2.999"},
		{"1.2.3", "1.2.3a1", "1.2.3"},
		{"1.2.3b4", "1.2.3b4", "1.2.3b4"},
	}
	for _, c := range cases {
		sel, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", c.in, err)
		}
		if len(sel.Ranges) != 1 {
			t.Fatalf("Parse(%q) produced %d ranges, want 1", c.in, len(sel.Ranges))
		}
		wantMin, wantMax := mustParseVersion(t, c.min), mustParseVersion(t, c.max)
		if sel.Ranges[0].Min != wantMin || sel.Ranges[0].Max != wantMax {
			t.Errorf("Parse(%q) = [%s, %s], want [%s, %s]",
				c.in, sel.Ranges[0].Min, sel.Ranges[0].Max, wantMin, wantMax)
		}
	}
}

func TestHyphenRangeOpenSides(t *testing.T) {
	sel, err := Parse("-2.0.0")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if sel.Ranges[0].Min != xversion.MinVersion {
		t.Errorf("empty lower side should default to MinVersion, got %s", sel.Ranges[0].Min)
	}

	sel, err = Parse("1.0.0-")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if sel.Ranges[0].Max != xversion.MaxVersion {
		t.Errorf("empty upper side should default to MaxVersion, got %s", sel.Ranges[0].Max)
	}
}

func TestSectionRejectsInvertedRange(t *testing.T) {
	if _, err := Parse("2.0.0-1.0.0"); err == nil {
		t.Error("Parse should reject a section where min > max")
	}
}

func TestWorkedExampleMergesAndAbbreviates(t *testing.T) {
	sel, err := Parse("1,1.5-2,1.7")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(sel.Ranges) != 1 {
		t.Fatalf("expected the three overlapping sections to merge into one range, got %d", len(sel.Ranges))
	}
	if got, want := sel.String(), "1-2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseThenPrintIdempotent(t *testing.T) {
	cases := []string{"*", "1", "1.2", "1.2.3", "1.2.3b4", "-2.0.0", "1.0.0-", "1,1.5-2,1.7", "1.0.0-2.0.0,5.0.0"}
	for _, in := range cases {
		sel, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", in, err)
		}
		printed := sel.String()

		reparsed, err := Parse(printed)
		if err != nil {
			t.Fatalf("Parse(String(Parse(%q))) returned error: %v", in, err)
		}
		if reparsed.String() != printed {
			t.Errorf("parse-then-print not idempotent for %q: got %q then %q", in, printed, reparsed.String())
		}
	}
}

func TestContainsEveryVersionInSet(t *testing.T) {
	sel, err := Parse("1.0.0-2.0.0")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	for _, v := range []string{"1.0.0", "1.5.3", "2.0.0"} {
		if !sel.Contains(mustParseVersion(t, v)) {
			t.Errorf("expected selection to contain %s", v)
		}
	}
	if sel.Contains(mustParseVersion(t, "2.0.1")) {
		t.Error("expected selection to exclude 2.0.1")
	}
	if sel.Contains(mustParseVersion(t, "0.999.999")) {
		t.Error("expected selection to exclude 0.999.999")
	}
}

func TestNormalizationProducesSortedNonOverlappingRanges(t *testing.T) {
	sel, err := Parse("3.0.0-4.0.0,1.0.0-2.0.0,1.5.0-3.5.0")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	for i := 1; i < len(sel.Ranges); i++ {
		if !xversion.Less(sel.Ranges[i-1].Max, sel.Ranges[i].Min) {
			t.Errorf("ranges %d and %d are not strictly ordered/non-overlapping: %+v", i-1, i, sel.Ranges)
		}
	}
}

func TestMonotoneNormalization(t *testing.T) {
	// {1.0.0} is a subset of {1.0.0-2.0.0}; every range of the smaller
	// selection should fall within a range of the larger after merging.
	small, err := Parse("1.0.0")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	large, err := Parse("1.0.0-2.0.0")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	for _, r := range small.Ranges {
		if !large.Contains(r.Min) || !large.Contains(r.Max) {
			t.Errorf("expected %+v to be contained within %+v", r, large.Ranges)
		}
	}
}

func TestRejectsEmptySection(t *testing.T) {
	if _, err := Parse("1.0.0,,2.0.0"); err == nil {
		t.Error("Parse should reject an empty section between commas")
	}
}

func TestRejectsInvalidToken(t *testing.T) {
	if _, err := Parse("1.2.3.4"); err == nil {
		t.Error("Parse should reject a token with too many components")
	}
}
