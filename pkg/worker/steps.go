package worker

import (
	"path"
	"strings"

	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

// chaffNames are OS-generated files the pipeline silently deletes rather
// than rejecting the whole archive over (spec.md §4.4 step 7).
var chaffNames = map[string]bool{
	".DS_Store":   true,
	"desktop.ini": true,
	"Thumbs.db":   true,
}

// isChaff reports whether name (a file's base name within the archive) is
// OS-generated clutter that should be silently removed.
func isChaff(name string) bool {
	return chaffNames[path.Base(name)]
}

// isMacOSXEntry reports whether an archive entry lives under a top-level
// __MACOSX directory. Such entries are stripped before the top-level-dir
// check; the whole upload is only disqualified when __MACOSX is the
// archive's sole content (spec.md §4.4 step 3).
func isMacOSXEntry(name string) bool {
	clean := strings.TrimPrefix(name, "/")
	return clean == "__MACOSX" || strings.HasPrefix(clean, "__MACOSX/")
}

// rejectsExecutable reports whether a regular file's executable bit must
// fail the upload: any executable bit set is only permitted for the
// Executable package type (spec.md §4.4 step 7).
func rejectsExecutable(packageType pkgs.Type, isExecutableBit bool) bool {
	return isExecutableBit && packageType != pkgs.TypeExecutable
}

// topLevelDir returns the single top-level directory name shared by every
// entry, or ok=false if the archive has more than one top-level entry or
// any file directly at the root (spec.md §4.4 step 5: the archive must
// contain exactly one top-level directory, named for the packageId).
func topLevelDir(names []string) (dir string, ok bool) {
	for _, name := range names {
		clean := strings.TrimPrefix(name, "/")
		if clean == "" {
			continue
		}
		parts := strings.SplitN(clean, "/", 2)
		if len(parts) < 2 {
			// a file sitting directly at the archive root
			return "", false
		}
		if dir == "" {
			dir = parts[0]
		} else if dir != parts[0] {
			return "", false
		}
	}
	if dir == "" {
		return "", false
	}
	return dir, true
}

// hasManifestCollision reports whether the archive already carries a
// manifest.json, which the pipeline always writes itself (spec.md §4.4
// step 6).
func hasManifestCollision(names []string, topDir string) bool {
	want := topDir + "/manifest.json"
	for _, name := range names {
		if strings.TrimPrefix(name, "/") == want {
			return true
		}
	}
	return false
}
