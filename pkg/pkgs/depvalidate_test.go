package pkgs

import "testing"

func TestValidateListsNormalizesAndPrefixes(t *testing.T) {
	deps := []RawDependency{{ID: "Foo", Selection: "1.2"}}
	got, _, err := ValidateLists("xpkg/self", deps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].FullID != "xpkg/foo" {
		t.Fatalf("got %+v, want a single xpkg/foo entry", got)
	}
}

func TestValidateListsCollapsesDuplicates(t *testing.T) {
	deps := []RawDependency{
		{ID: "xpkg/foo", Selection: "1"},
		{ID: "xpkg/foo", Selection: "2"},
	}
	got, _, err := ValidateLists("xpkg/self", deps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1 collapsed entry", len(got))
	}
}

func TestValidateListsRejectsSelfReference(t *testing.T) {
	deps := []RawDependency{{ID: "xpkg/self", Selection: "1"}}
	_, _, err := ValidateLists("xpkg/self", deps, nil)
	if err == nil {
		t.Fatal("expected self-reference error")
	}
}

func TestValidateListsRejectsOverlap(t *testing.T) {
	deps := []RawDependency{{ID: "xpkg/foo", Selection: "1"}}
	incompat := []RawDependency{{ID: "xpkg/foo", Selection: "2"}}
	_, _, err := ValidateLists("xpkg/self", deps, incompat)
	if err == nil {
		t.Fatal("expected dep_or_self_inc error for overlapping id")
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusProcessing, StatusProcessed) {
		t.Error("Processing -> Processed should be allowed")
	}
	if !CanTransition(StatusFailedServer, StatusProcessing) {
		t.Error("a failure state should be retryable back to Processing")
	}
	if CanTransition(StatusProcessed, StatusProcessing) {
		t.Error("Processed -> Processing should not be allowed")
	}
	if CanTransition(StatusRemoved, StatusProcessing) {
		t.Error("Removed is terminal")
	}
}
