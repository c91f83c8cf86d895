package xversion

import "testing"

func TestParseValid(t *testing.T) {
	cases := []struct {
		in   string
		want Version
	}{
		{"1", Version{Major: 1}},
		{"1.2", Version{Major: 1, Minor: 2}},
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"1.2.3a4", Version{Major: 1, Minor: 2, Patch: 3, Pre: Alpha, PreNum: 4}},
		{"1.2.3b4", Version{Major: 1, Minor: 2, Patch: 3, Pre: Beta, PreNum: 4}},
		{"1.2.3r4", Version{Major: 1, Minor: 2, Patch: 3, Pre: ReleaseCandidate, PreNum: 4}},
		{"999.999.999", MaxVersion},
		{"0.0.1a1", MinVersion},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"0.0.0",
		"1000",
		"1.2.3.4",
		"1.2.a",
		"1.2.3a",
		"1.2.3a0",
		"1.2.3a1000",
		"1.2.3c1",
		"1.2.3.",
		"1.2.3A4",
		"0123456789012345",
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) = nil error, want error", in)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"1.0.0", "1.2.3", "1.2.3a4", "1.2.3b4", "1.2.3r4", "999.999.999", "0.0.1a1"}
	for _, in := range cases {
		v, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", in, err)
		}
		if got := v.String(); got != in {
			t.Errorf("Parse(%q).String() = %q, want %q", in, got, in)
		}
	}
}

func TestOrderPreReleaseBelowRelease(t *testing.T) {
	release := mustParse(t, "1.2.3")
	for _, pre := range []string{"1.2.3a1", "1.2.3a999", "1.2.3b1", "1.2.3b999", "1.2.3r1", "1.2.3r999"} {
		v := mustParse(t, pre)
		if !Less(v, release) {
			t.Errorf("expected %s < 1.2.3", pre)
		}
	}
}

func TestOrderAlphaBetaRC(t *testing.T) {
	a := mustParse(t, "1.2.3a500")
	b := mustParse(t, "1.2.3b500")
	r := mustParse(t, "1.2.3r500")
	if !Less(a, b) {
		t.Error("expected alpha < beta at the same pre-release number")
	}
	if !Less(b, r) {
		t.Error("expected beta < rc at the same pre-release number")
	}
	if !Less(a, r) {
		t.Error("expected alpha < rc")
	}
}

func TestOrderPreNumMonotone(t *testing.T) {
	for _, preType := range []string{"a", "b", "r"} {
		lo := mustParse(t, "1.2.3"+preType+"1")
		hi := mustParse(t, "1.2.3"+preType+"999")
		if !Less(lo, hi) {
			t.Errorf("expected 1.2.3%s1 < 1.2.3%s999", preType, preType)
		}
	}
}

func TestOrderMajorMinorPatch(t *testing.T) {
	if !Less(mustParse(t, "1.0.0"), mustParse(t, "2.0.0")) {
		t.Error("expected 1.0.0 < 2.0.0")
	}
	if !Less(mustParse(t, "1.1.0"), mustParse(t, "1.2.0")) {
		t.Error("expected 1.1.0 < 1.2.0")
	}
	if !Less(mustParse(t, "1.1.1"), mustParse(t, "1.1.2")) {
		t.Error("expected 1.1.1 < 1.1.2")
	}
}

func TestCompare(t *testing.T) {
	v := mustParse(t, "1.2.3")
	if Compare(v, v) != 0 {
		t.Error("Compare(v, v) != 0")
	}
	if Compare(mustParse(t, "1.0.0"), mustParse(t, "2.0.0")) != -1 {
		t.Error("Compare(1.0.0, 2.0.0) != -1")
	}
	if Compare(mustParse(t, "2.0.0"), mustParse(t, "1.0.0")) != 1 {
		t.Error("Compare(2.0.0, 1.0.0) != 1")
	}
}

func TestMinMaxOrdering(t *testing.T) {
	if !Less(MinVersion, MaxVersion) {
		t.Error("expected MinVersion < MaxVersion")
	}
	other := mustParse(t, "500.500.500")
	if !Less(MinVersion, other) || !Less(other, MaxVersion) {
		t.Error("expected MinVersion < 500.500.500 < MaxVersion")
	}
}

func mustParse(t *testing.T, s string) Version {
	t.Helper()
	v, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", s, err)
	}
	return v
}
