package worker

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

// fileTypeError reports why the file-type walk rejected an archive
// (spec.md §4.4 step 7).
type fileTypeError struct {
	path   string
	reason string
}

func (e *fileTypeError) Error() string {
	return fmt.Sprintf("invalid file %q: %s", e.path, e.reason)
}

// extractClean unpacks zr into dir, dropping OS-generated chaff files and
// rejecting symlinks and disallowed executables (spec.md §4.4 step 7).
func extractClean(zr *zip.ReadCloser, dir string, packageType pkgs.Type) error {
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "/")
		if name == "" {
			continue
		}
		if isMacOSXEntry(name) {
			continue
		}
		if isChaff(name) {
			continue
		}

		target := filepath.Join(dir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return &fileTypeError{path: name, reason: "escapes extraction directory"}
		}

		mode := f.Mode()
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return fmt.Errorf("creating directory %q: %w", name, err)
			}
			continue
		}
		if mode&os.ModeSymlink != 0 {
			return &fileTypeError{path: name, reason: "symlinks are not permitted"}
		}
		if rejectsExecutable(packageType, mode&0o111 != 0) {
			return &fileTypeError{path: name, reason: "executable bit set on a non-Executable package"}
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return fmt.Errorf("creating directory for %q: %w", name, err)
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extracting %q: %w", name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm()|0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// zipDirectory packages the contents of dir into a new zip archive at
// destPath, with paths relative to dir (spec.md §4.4 step 9: the
// repackaged .xpkg artifact).
func zipDirectory(dir, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			_, err := zw.Create(rel + "/")
			return err
		}

		w, err := zw.Create(rel)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
}
