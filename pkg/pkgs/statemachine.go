package pkgs

import "fmt"

// validTransitions enumerates the Version.status state machine (spec.md
// §3): initial Processing; terminal Processed/Removed/Aborted and the
// failure states; a failed state may transition back to Processing via an
// explicit retry, and no other transition is permitted.
var validTransitions = map[Status]map[Status]bool{
	StatusProcessing: {
		StatusProcessed:              true,
		StatusAborted:                true,
		StatusFailedMACOSX:           true,
		StatusFailedNoFileDir:        true,
		StatusFailedManifestExists:   true,
		StatusFailedInvalidFileTypes: true,
		StatusFailedFileTooLarge:     true,
		StatusFailedNotEnoughSpace:   true,
		StatusFailedServer:           true,
	},
	StatusProcessed: {
		StatusRemoved: true,
	},
}

// CanTransition reports whether moving a Version from `from` to `to` is
// permitted. A failure status may always retry back to Processing.
func CanTransition(from, to Status) bool {
	if from.IsFailure() && to == StatusProcessing {
		return true
	}
	if allowed, ok := validTransitions[from]; ok {
		return allowed[to]
	}
	return false
}

// Transition validates and returns the new status, or an error naming the
// illegal transition.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("pkgs: illegal version status transition %s -> %s", from, to)
	}
	return to, nil
}
