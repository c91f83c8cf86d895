// Package catalog builds and serves the public package catalog snapshot:
// a periodically regenerated JSON index of every published version,
// cached in Redis and mirrored to object storage, served unauthenticated
// (spec.md §3, §4.4, SPEC_FULL §4.8).
package catalog

import (
	"time"

	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

// RedisKey is the fixed, always-overwritten key the latest snapshot is
// cached under (SPEC_FULL §4.8 — no TTL, next tick replaces it).
const RedisKey = "xpkg:catalog:snapshot"

// ObjectKey is the object-storage path the snapshot is mirrored to for a
// CDN/static read path.
const ObjectKey = "catalog/snapshot.json"

// RebuildInterval is the periodic task's fixed cadence.
const RebuildInterval = 60 * time.Second

// VersionEntry is one published version within a catalog package entry.
type VersionEntry struct {
	Version           string                 `json:"version"`
	Dependencies      []pkgs.DependencyEntry `json:"dependencies"`
	Incompatibilities []pkgs.DependencyEntry `json:"incompatibilities"`
	XPlaneSelection   string                 `json:"xplaneSelection"`
	Platforms         pkgs.Platforms         `json:"platforms"`
}

// PackageEntry is one package and its published versions in a snapshot.
type PackageEntry struct {
	PackageID   string         `json:"packageId"`
	PackageName string         `json:"packageName"`
	AuthorID    string         `json:"authorId"`
	AuthorName  string         `json:"authorName"`
	Description string         `json:"description"`
	PackageType pkgs.Type      `json:"packageType"`
	Versions    []VersionEntry `json:"versions"`
}

// Snapshot is the full catalog document (spec.md §6).
type Snapshot struct {
	Generated time.Time      `json:"generated"`
	Packages  []PackageEntry `json:"packages"`
}

// Build assembles a Snapshot from every (isPublic ∧ status=Processed)
// version, grouping by package and excluding packages with no published
// version (spec.md §4.4).
func Build(packages []pkgs.Package, versions []pkgs.Version) Snapshot {
	versionsByPackage := make(map[string][]pkgs.Version, len(packages))
	for _, v := range versions {
		if !v.IsPublic || v.Status != pkgs.StatusProcessed {
			continue
		}
		versionsByPackage[v.PackageID] = append(versionsByPackage[v.PackageID], v)
	}

	entries := make([]PackageEntry, 0, len(packages))
	for _, p := range packages {
		pubVersions := versionsByPackage[p.PackageID]
		if len(pubVersions) == 0 {
			continue
		}

		versionEntries := make([]VersionEntry, len(pubVersions))
		for i, v := range pubVersions {
			versionEntries[i] = VersionEntry{
				Version:           v.VersionString,
				Dependencies:      v.Dependencies,
				Incompatibilities: v.Incompatibilities,
				XPlaneSelection:   v.XPSelection,
				Platforms:         v.Platforms,
			}
		}

		entries = append(entries, PackageEntry{
			PackageID:   p.PackageID,
			PackageName: p.PackageName,
			AuthorID:    p.AuthorID,
			AuthorName:  p.AuthorName,
			Description: p.Description,
			PackageType: p.PackageType,
			Versions:    versionEntries,
		})
	}

	return Snapshot{Generated: time.Now().UTC(), Packages: entries}
}
