// Package pkgs implements the registry's Package and Version records: CRUD,
// the dependency/incompatibility list validation shared by upload and the
// description-administration endpoints, and the Version status state
// machine (spec.md §3, §4.4, §4.6). Named pkgs to avoid colliding with the
// package keyword.
package pkgs

import (
	"regexp"
	"time"
)

// Type is one of the package categories spec.md §3 enumerates.
type Type string

const (
	TypeAircraft   Type = "Aircraft"
	TypeScenery    Type = "Scenery"
	TypePlugin     Type = "Plugin"
	TypeLivery     Type = "Livery"
	TypeExecutable Type = "Executable"
	TypeOther      Type = "Other"
)

// idPattern is the partial packageId grammar: repo/ prefix is attached
// separately (spec.md §6).
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*(\.[a-z][a-z0-9_-]*)*$`)

// ValidID reports whether id (without any repo/ prefix) satisfies spec.md
// §3's packageId grammar and length bounds.
func ValidID(id string) bool {
	if len(id) < 6 || len(id) > 32 {
		return false
	}
	return idPattern.MatchString(id)
}

// Package is a registered package (spec.md §3).
type Package struct {
	PackageID   string
	PackageName string
	AuthorID    string
	AuthorName  string
	Description string
	PackageType Type
}

// DependencyEntry is one (fullId, selection) pair referenced by a Version's
// dependency or incompatibility list. Selection is stored in its canonical
// string form.
type DependencyEntry struct {
	FullID    string `json:"id"`
	Selection string `json:"selection"`
}

// Platforms is the set of OSes a Version artifact supports.
type Platforms struct {
	MacOS   bool `json:"macOS"`
	Windows bool `json:"windows"`
	Linux   bool `json:"linux"`
}

// Status is a Version's state in the upload pipeline state machine
// (spec.md §3).
type Status string

const (
	StatusProcessing             Status = "Processing"
	StatusProcessed              Status = "Processed"
	StatusRemoved                Status = "Removed"
	StatusAborted                Status = "Aborted"
	StatusFailedMACOSX           Status = "FailedMACOSX"
	StatusFailedNoFileDir        Status = "FailedNoFileDir"
	StatusFailedManifestExists   Status = "FailedManifestExists"
	StatusFailedInvalidFileTypes Status = "FailedInvalidFileTypes"
	StatusFailedFileTooLarge     Status = "FailedFileTooLarge"
	StatusFailedNotEnoughSpace   Status = "FailedNotEnoughSpace"
	StatusFailedServer           Status = "FailedServer"
)

// IsFailure reports whether status is one of the terminal failure states a
// retry may transition out of.
func (s Status) IsFailure() bool {
	switch s {
	case StatusFailedMACOSX, StatusFailedNoFileDir, StatusFailedManifestExists,
		StatusFailedInvalidFileTypes, StatusFailedFileTooLarge, StatusFailedNotEnoughSpace, StatusFailedServer:
		return true
	default:
		return false
	}
}

// Version is a published or in-flight artifact of a Package (spec.md §3).
type Version struct {
	PackageID         string
	VersionString     string
	Hash              *string
	IsPublic          bool
	IsStored          bool
	Loc               *string
	PrivateKey        *string
	Downloads         int64
	UploadDate        time.Time
	Status            Status
	Dependencies      []DependencyEntry
	Incompatibilities []DependencyEntry
	Size              *int64
	InstalledSize     *int64
	XPSelection       string
	Platforms         Platforms
}

// AccessConfigValid enforces spec.md §4.4's access-config invariants:
// isPublic <=> not isPrivate (there is no isPrivate field; public and
// private are complements), and isPublic => isStored.
func (v Version) AccessConfigValid() bool {
	if v.IsPublic && !v.IsStored {
		return false
	}
	return true
}

// SupportsAnyPlatform reports whether at least one platform is enabled, a
// required invariant for upload pre-checks (spec.md §4.4).
func (p Platforms) SupportsAnyPlatform() bool {
	return p.MacOS || p.Windows || p.Linux
}
