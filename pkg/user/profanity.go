package user

import "strings"

// blockedSubstrings is a minimal denylist backing the "non-profane name"
// invariant (spec.md §3). No ecosystem profanity-filter library appears
// anywhere in the retrieved examples, so this stays a small, explicit
// substring check rather than reaching for ungrounded tooling; see
// DESIGN.md.
var blockedSubstrings = []string{
	"fuck", "shit", "bitch", "cunt", "nigger", "faggot",
}

// IsProfane reports whether name contains a blocked substring, checked
// case-insensitively.
func IsProfane(name string) bool {
	lower := strings.ToLower(name)
	for _, blocked := range blockedSubstrings {
		if strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}
