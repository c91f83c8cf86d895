package worker

import (
	"testing"

	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

func TestIsChaff(t *testing.T) {
	cases := map[string]bool{
		"xpkg.mypackage/.DS_Store":     true,
		"xpkg.mypackage/sub/.DS_Store": true,
		"xpkg.mypackage/desktop.ini":   true,
		"xpkg.mypackage/manifest.json": false,
		"xpkg.mypackage/bin/tool":      false,
	}
	for name, want := range cases {
		if got := isChaff(name); got != want {
			t.Errorf("isChaff(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsMacOSXEntry(t *testing.T) {
	if !isMacOSXEntry("__MACOSX/xpkg.mypackage/._manifest.json") {
		t.Error("expected __MACOSX entry to be detected")
	}
	if isMacOSXEntry("xpkg.mypackage/__MACOSX/file") {
		t.Error("nested __MACOSX-named directory should not trigger the top-level check")
	}
}

func TestRejectsExecutable(t *testing.T) {
	if rejectsExecutable(pkgs.TypeExecutable, true) {
		t.Error("Executable packages may contain executable files")
	}
	if !rejectsExecutable(pkgs.TypeAircraft, true) {
		t.Error("non-Executable packages must reject executable bits")
	}
	if rejectsExecutable(pkgs.TypeAircraft, false) {
		t.Error("a non-executable file should never be rejected")
	}
}

func TestTopLevelDir(t *testing.T) {
	dir, ok := topLevelDir([]string{"xpkg.mypackage/manifest.json", "xpkg.mypackage/sub/file.txt"})
	if !ok || dir != "xpkg.mypackage" {
		t.Fatalf("topLevelDir() = (%q, %v), want (xpkg.mypackage, true)", dir, ok)
	}

	if _, ok := topLevelDir([]string{"root-file.txt"}); ok {
		t.Error("a root-level file should fail the single-top-level-directory check")
	}

	if _, ok := topLevelDir([]string{"pkg-a/file.txt", "pkg-b/file.txt"}); ok {
		t.Error("more than one top-level directory should fail the check")
	}
}

func TestHasManifestCollision(t *testing.T) {
	if !hasManifestCollision([]string{"xpkg.mypackage/manifest.json"}, "xpkg.mypackage") {
		t.Error("expected a manifest.json collision to be detected")
	}
	if hasManifestCollision([]string{"xpkg.mypackage/readme.txt"}, "xpkg.mypackage") {
		t.Error("did not expect a collision")
	}
}
