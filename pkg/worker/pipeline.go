package worker

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ArkinSolomon/xpkg-core/internal/telemetry"
	"github.com/ArkinSolomon/xpkg-core/pkg/jobsclient"
	"github.com/ArkinSolomon/xpkg-core/pkg/jobsproto"
	"github.com/ArkinSolomon/xpkg-core/pkg/mailport"
	"github.com/ArkinSolomon/xpkg-core/pkg/objectstore"
	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

const maxUnzippedSize int64 = 16 << 30 // spec.md §4.4 step 2

type startTimeKey struct{}

// elapsed returns the time since run's context was created, for labeling
// WorkerPipelineDuration at each terminal branch.
func elapsed(ctx context.Context) time.Duration {
	start, _ := ctx.Value(startTimeKey{}).(time.Time)
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

// run drives one job from coordinator registration through to its final
// Version status (spec.md §4.4 steps 1-14, §4.5).
func (s *Service) run(ctx context.Context, packageID, versionString string) error {
	ctx = context.WithValue(ctx, startTimeKey{}, time.Now())

	p, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		return fmt.Errorf("loading package: %w", err)
	}
	v, err := s.versions.Get(ctx, packageID, versionString)
	if err != nil {
		return fmt.Errorf("loading version: %w", err)
	}
	a, err := s.authors.GetByID(ctx, p.AuthorID)
	if err != nil {
		return fmt.Errorf("loading author: %w", err)
	}
	authorEmail := a.AuthorEmail

	ch, err := jobsclient.Dial(jobsclient.Config{
		CoordinatorURL:  s.cfg.CoordinatorURL,
		TrustHash:       s.cfg.TrustHash,
		ServicePassword: s.cfg.ServicePassword,
	})
	if err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("dialing coordinator: %w", err), nil)
	}
	defer ch.Close()

	if err := ch.RegisterJob(jobsproto.NewPackagingJob(packageID, versionString)); err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("registering job: %w", err), ch)
	}

	aborts := ch.Aborts()
	jobDir := filepath.Join(s.cfg.ScratchDir, packageID+"-"+versionString)
	defer os.RemoveAll(jobDir)

	if aborted := checkAbort(aborts); aborted {
		return s.abort(ctx, p, v, authorEmail, jobDir, ch)
	}

	archivePath, err := s.downloadStaged(ctx, jobDir, packageID, versionString)
	if err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, err, ch)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("opening archive: %w", err), ch)
	}
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	var totalUncompressed int64
	var sawContent bool
	for _, f := range zr.File {
		totalUncompressed += int64(f.UncompressedSize64)
		if isMacOSXEntry(f.Name) {
			continue
		}
		clean := strings.TrimPrefix(f.Name, "/")
		if clean != "" {
			sawContent = true
		}
		names = append(names, f.Name)
	}
	if !sawContent {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedMACOSX, fmt.Errorf("archive contains only __MACOSX entries"), ch)
	}
	if totalUncompressed > maxUnzippedSize {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedFileTooLarge, fmt.Errorf("unzipped size %d exceeds limit", totalUncompressed), ch)
	}

	topDir, ok := topLevelDir(names)
	if !ok || topDir != packageID {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedNoFileDir, fmt.Errorf("archive must contain a single top-level directory named %q", packageID), ch)
	}
	if hasManifestCollision(names, topDir) {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedManifestExists, fmt.Errorf("archive already contains manifest.json"), ch)
	}

	if checkAbort(aborts) {
		return s.abort(ctx, p, v, authorEmail, jobDir, ch)
	}

	extractDir := filepath.Join(jobDir, "extracted")
	if err := extractClean(zr, extractDir, p.PackageType); err != nil {
		if fe, ok := err.(*fileTypeError); ok {
			return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedInvalidFileTypes, fe, ch)
		}
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("extracting archive: %w", err), ch)
	}

	manifest := Manifest{
		ManifestVersion: 1,
		PackageName:     p.PackageName,
		PackageID:       p.PackageID,
		PackageVersion:  versionString,
		AuthorID:        p.AuthorID,
		Dependencies:    v.Dependencies,
		Platforms:       v.Platforms,
	}
	packageDir := filepath.Join(extractDir, topDir)
	if err := writeManifestAndScripts(packageDir, manifest, p.PackageType); err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("writing manifest: %w", err), ch)
	}

	installedSize, err := dirSize(extractDir)
	if err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("measuring installed size: %w", err), ch)
	}

	if checkAbort(aborts) {
		return s.abort(ctx, p, v, authorEmail, jobDir, ch)
	}

	artifactPath := filepath.Join(jobDir, "artifact.xpkg")
	if err := zipDirectory(extractDir, artifactPath); err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("packaging artifact: %w", err), ch)
	}

	hash, size, err := hashAndSize(artifactPath)
	if err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("hashing artifact: %w", err), ch)
	}

	reserved, err := s.authors.ReserveStorage(ctx, p.AuthorID, size)
	if err != nil {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("reserving storage: %w", err), ch)
	}
	if !reserved {
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedNotEnoughSpace, fmt.Errorf("author has insufficient storage quota"), ch)
	}

	loc, err := s.store(ctx, p.PackageID, versionString, v, artifactPath)
	if err != nil {
		_ = s.authors.ReleaseStorage(ctx, p.AuthorID, size)
		return s.fail(ctx, p, v, authorEmail, pkgs.StatusFailedServer, fmt.Errorf("uploading artifact: %w", err), ch)
	}

	if err := s.versions.MarkProcessed(ctx, p.PackageID, versionString, hash, loc, size, installedSize); err != nil {
		_ = s.authors.ReleaseStorage(ctx, p.AuthorID, size)
		return fmt.Errorf("marking version processed: %w", err)
	}

	_ = s.objects.Delete(ctx, stagingKey(p.PackageID, versionString))

	telemetry.VersionStatusTotal.WithLabelValues(string(pkgs.StatusProcessed)).Inc()
	telemetry.WorkerPipelineDuration.WithLabelValues("processed").Observe(elapsed(ctx).Seconds())
	s.notify(ctx, authorEmail, p.PackageName, versionString, "processed successfully")
	return ch.Done(jobsproto.DoneNormal)
}

// checkAbort performs a non-blocking check of the coordinator's abort
// signal between pipeline steps.
func checkAbort(aborts <-chan struct{}) bool {
	select {
	case <-aborts:
		return true
	default:
		return false
	}
}

// abort unwinds a job the coordinator has signaled should stop (spec.md
// §4.5): acknowledge, drive the version to Aborted, clean up, and report.
func (s *Service) abort(ctx context.Context, p pkgInfo, v pkgs.Version, authorEmail, jobDir string, ch *jobsclient.Channel) error {
	_ = ch.AcknowledgeAbort()
	_ = s.versions.UpdateStatus(ctx, p.PackageID, v.VersionString, pkgs.StatusAborted, nil)
	os.RemoveAll(jobDir)
	telemetry.VersionStatusTotal.WithLabelValues(string(pkgs.StatusAborted)).Inc()
	telemetry.WorkerPipelineDuration.WithLabelValues("aborted").Observe(elapsed(ctx).Seconds())
	s.notify(ctx, authorEmail, p.PackageName, v.VersionString, "processing was aborted")
	return ch.Done(jobsproto.DoneAborted)
}

// fail drives the version to a failure status, notifies the author, and
// tells the coordinator the job is done. ch may be nil if the failure
// happened before the handshake completed.
func (s *Service) fail(ctx context.Context, p pkgInfo, v pkgs.Version, authorEmail string, to pkgs.Status, cause error, ch *jobsclient.Channel) error {
	_ = s.versions.UpdateStatus(ctx, p.PackageID, v.VersionString, to, nil)
	telemetry.VersionStatusTotal.WithLabelValues(string(to)).Inc()
	telemetry.WorkerPipelineDuration.WithLabelValues("failed").Observe(elapsed(ctx).Seconds())
	s.notify(ctx, authorEmail, p.PackageName, v.VersionString, fmt.Sprintf("processing failed: %s", to))
	if ch != nil {
		_ = ch.Done(jobsproto.DoneNormal)
	}
	return cause
}

func (s *Service) notify(ctx context.Context, to, packageName, versionString, outcome string) {
	if to == "" {
		return
	}
	msg := mailport.Message{
		To:      to,
		Subject: fmt.Sprintf("%s %s: %s", packageName, versionString, outcome),
		Body:    fmt.Sprintf("Your upload of %s version %s: %s.", packageName, versionString, outcome),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warn("worker: failed to send notification email", "error", err)
	}
}

func (s *Service) downloadStaged(ctx context.Context, jobDir, packageID, versionString string) (string, error) {
	if err := os.MkdirAll(jobDir, 0o750); err != nil {
		return "", fmt.Errorf("creating job directory: %w", err)
	}
	rc, err := s.objects.Get(ctx, stagingKey(packageID, versionString))
	if err != nil {
		return "", fmt.Errorf("fetching staged archive: %w", err)
	}
	defer rc.Close()

	archivePath := filepath.Join(jobDir, "upload.zip")
	f, err := os.OpenFile(archivePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	return archivePath, nil
}

// store uploads the finished artifact, routing by the version's access
// configuration (spec.md §4.4 step 12): a public version goes to the
// public bucket key space, a stored private version to the private key
// space, and a not-stored version is kept only long enough to mint a
// time-limited download URL.
func (s *Service) store(ctx context.Context, packageID, versionString string, v pkgs.Version, artifactPath string) (string, error) {
	f, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	var key string
	switch {
	case v.IsPublic:
		key = fmt.Sprintf("public/%s/%s.xpkg", packageID, versionString)
	case v.IsStored:
		key = fmt.Sprintf("private/%s/%s.xpkg", packageID, versionString)
	default:
		key = fmt.Sprintf("temporary/%s/%s.xpkg", packageID, versionString)
	}

	if err := s.objects.Put(ctx, key, f, "application/octet-stream"); err != nil {
		return "", fmt.Errorf("uploading artifact: %w", err)
	}

	if !v.IsStored {
		presigner, ok := s.objects.(objectstore.Presigner)
		if !ok {
			return "", fmt.Errorf("object store does not support presigned URLs")
		}
		url, err := presigner.PresignGet(ctx, key, s.cfg.PresignTTL)
		if err != nil {
			return "", fmt.Errorf("presigning download url: %w", err)
		}
		return url, nil
	}
	return key, nil
}

func hashAndSize(path string) (hash string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

func writeManifestAndScripts(packageDir string, manifest Manifest, packageType pkgs.Type) error {
	if err := os.MkdirAll(packageDir, 0o750); err != nil {
		return err
	}
	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(packageDir, "manifest.json"), body, 0o640); err != nil {
		return err
	}

	for name, content := range defaultScripts(packageType) {
		scriptPath := filepath.Join(packageDir, name)
		if _, err := os.Stat(scriptPath); err == nil {
			continue // contributor already supplied this script
		}
		if err := os.WriteFile(scriptPath, []byte(content), 0o640); err != nil {
			return err
		}
	}
	return nil
}

// pkgInfo is the subset of pkgs.Package the pipeline needs; kept as its
// own type alias so signatures read clearly without repeating the package
// name everywhere.
type pkgInfo = pkgs.Package
