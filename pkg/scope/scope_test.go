package scope

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := []Scope{RegistryUpload, RegistryViewAnalytics, EmailChange}
	p := Encode(want...)

	got := Decode(p)
	if len(got) != len(want) {
		t.Fatalf("Decode(%v) = %v, want %d scopes", p, got, len(want))
	}

	for _, w := range want {
		found := false
		for _, g := range got {
			if g.Name == w.Name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Decode(%v) missing scope %q", p, w.Name)
		}
	}
}

func TestAny(t *testing.T) {
	p := Encode(RegistryUpload)

	if !Any(p, RegistryUpload) {
		t.Error("Any() = false, want true for a held scope")
	}
	if !Any(p, RegistryUpload, AccountManage) {
		t.Error("Any() = false, want true when at least one scope is held")
	}
	if Any(p, AccountManage, EmailChange) {
		t.Error("Any() = true, want false when none of the scopes are held")
	}
	if Any(0) {
		t.Error("Any() with no scopes requested should be false")
	}
}

func TestAll(t *testing.T) {
	p := Encode(RegistryUpload, RegistryViewAnalytics)

	if !All(p, RegistryUpload) {
		t.Error("All() = false, want true for a single held scope")
	}
	if !All(p, RegistryUpload, RegistryViewAnalytics) {
		t.Error("All() = false, want true when every scope is held")
	}
	if All(p, RegistryUpload, AccountManage) {
		t.Error("All() = true, want false when one scope is missing")
	}
}

func TestParseValid(t *testing.T) {
	p, err := Parse("RegistryUpload RegistryViewAnalytics")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := Encode(RegistryUpload, RegistryViewAnalytics)
	if p != want {
		t.Errorf("Parse() = %v, want %v", p, want)
	}
}

func TestParseEmpty(t *testing.T) {
	p, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") returned error: %v", err)
	}
	if p != 0 {
		t.Errorf("Parse(\"\") = %v, want 0", p)
	}
}

func TestParseUnknownScope(t *testing.T) {
	if _, err := Parse("RegistryUpload NotAScope"); err == nil {
		t.Error("Parse with unknown scope name should fail")
	}
}

func TestParseDuplicateScope(t *testing.T) {
	if _, err := Parse("RegistryUpload RegistryUpload"); err == nil {
		t.Error("Parse with duplicated scope name should fail")
	}
}

func TestParseWhitespaceInsensitive(t *testing.T) {
	p, err := Parse("  RegistryUpload   EmailChange  ")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p != Encode(RegistryUpload, EmailChange) {
		t.Errorf("Parse() = %v, want RegistryUpload|EmailChange", p)
	}
}

func TestStringRoundTrip(t *testing.T) {
	p := Encode(RegistryUpload, EmailChange, AccountManage)
	s := String(p)

	reparsed, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(String(p)) returned error: %v", err)
	}
	if reparsed != p {
		t.Errorf("round trip: Parse(String(%v)) = %v, want %v", p, reparsed, p)
	}
}

func TestSubset(t *testing.T) {
	have := Encode(RegistryUpload, RegistryViewAnalytics, AccountManage)
	want := Encode(RegistryUpload)

	if !Subset(want, have) {
		t.Error("Subset() = false, want true when want ⊆ have")
	}
	if Subset(have, want) {
		t.Error("Subset() = true, want false when have ⊄ want")
	}
}
