package catalog

import (
	"testing"

	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

func TestBuildExcludesPackagesWithoutPublishedVersions(t *testing.T) {
	packages := []pkgs.Package{
		{PackageID: "xpkg/withver", PackageName: "With Version"},
		{PackageID: "xpkg/noversions", PackageName: "No Versions"},
	}
	versions := []pkgs.Version{
		{PackageID: "xpkg/withver", VersionString: "1.0.0", IsPublic: true, Status: pkgs.StatusProcessed},
	}

	snap := Build(packages, versions)
	if len(snap.Packages) != 1 {
		t.Fatalf("expected 1 package in snapshot, got %d", len(snap.Packages))
	}
	if snap.Packages[0].PackageID != "xpkg/withver" {
		t.Errorf("unexpected package in snapshot: %q", snap.Packages[0].PackageID)
	}
}

func TestBuildExcludesPrivateAndUnprocessedVersions(t *testing.T) {
	packages := []pkgs.Package{{PackageID: "xpkg/mixed", PackageName: "Mixed"}}
	versions := []pkgs.Version{
		{PackageID: "xpkg/mixed", VersionString: "1.0.0", IsPublic: false, Status: pkgs.StatusProcessed},
		{PackageID: "xpkg/mixed", VersionString: "2.0.0", IsPublic: true, Status: pkgs.StatusProcessing},
		{PackageID: "xpkg/mixed", VersionString: "3.0.0", IsPublic: true, Status: pkgs.StatusProcessed},
	}

	snap := Build(packages, versions)
	if len(snap.Packages) != 1 {
		t.Fatalf("expected 1 package in snapshot, got %d", len(snap.Packages))
	}
	if len(snap.Packages[0].Versions) != 1 || snap.Packages[0].Versions[0].Version != "3.0.0" {
		t.Errorf("expected only version 3.0.0 published, got %+v", snap.Packages[0].Versions)
	}
}
