package pkgs

import (
	"strings"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/pkg/selection"
)

// RawDependency is an unvalidated (id, selection) pair as received over the
// wire, before normalization.
type RawDependency struct {
	ID        string `json:"id"`
	Selection string `json:"selection"`
}

// normalizeID lower-cases id and attaches the xpkg/ prefix when none is
// present (spec.md §4.4).
func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if !strings.Contains(id, "/") {
		id = "xpkg/" + id
	}
	return id
}

// ValidateLists normalizes and cross-validates a package's dependency and
// incompatibility lists per spec.md §4.4:
//   - ids normalize to lower-case with an xpkg/ prefix when omitted
//   - duplicate entries for the same id collapse by concatenating their
//     selections with a comma and re-normalizing
//   - an id equal to selfID is rejected (self-reference)
//   - an id appearing in both lists is rejected
//
// Returns the normalized, deduplicated lists in stable order.
func ValidateLists(selfID string, deps, incompat []RawDependency) ([]DependencyEntry, []DependencyEntry, error) {
	depList, err := normalizeList(selfID, deps)
	if err != nil {
		return nil, nil, err
	}
	incompatList, err := normalizeList(selfID, incompat)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool, len(depList))
	for _, d := range depList {
		seen[d.FullID] = true
	}
	for _, inc := range incompatList {
		if seen[inc.FullID] {
			return nil, nil, &apperrors.InvalidListError{Code: apperrors.CodeDepOrSelfInc, Detail: "id " + inc.FullID + " appears in both dependencies and incompatibilities"}
		}
	}

	return depList, incompatList, nil
}

func normalizeList(selfID string, raw []RawDependency) ([]DependencyEntry, error) {
	order := make([]string, 0, len(raw))
	bySelections := make(map[string][]string, len(raw))

	for _, r := range raw {
		id := normalizeID(r.ID)
		if r.Selection == "" {
			return nil, &apperrors.InvalidListError{Code: apperrors.CodeBadDepTuple, Detail: "missing selection for " + id}
		}
		if id == normalizeID(selfID) {
			return nil, &apperrors.InvalidListError{Code: apperrors.CodeSelfDep, Detail: "package cannot depend on or be incompatible with itself"}
		}
		if _, ok := bySelections[id]; !ok {
			order = append(order, id)
		}
		bySelections[id] = append(bySelections[id], r.Selection)
	}

	entries := make([]DependencyEntry, 0, len(order))
	for _, id := range order {
		combined := strings.Join(bySelections[id], ",")
		sel, err := selection.Parse(combined)
		if err != nil {
			return nil, &apperrors.InvalidListError{Code: apperrors.CodeInvalidDepSel, Detail: "invalid selection for " + id + ": " + err.Error()}
		}
		entries = append(entries, DependencyEntry{FullID: id, Selection: sel.String()})
	}

	return entries, nil
}
