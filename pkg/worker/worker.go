// Package worker implements the fourteen-step upload pipeline (spec.md
// §4.4): it unpacks a staged archive, validates and cleans its contents,
// repackages it into the canonical .xpkg artifact, reserves storage,
// uploads to object storage, and reports the outcome back through the
// jobs coordinator (spec.md §4.5).
package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ArkinSolomon/xpkg-core/pkg/author"
	"github.com/ArkinSolomon/xpkg-core/pkg/jobsclient"
	"github.com/ArkinSolomon/xpkg-core/pkg/mailport"
	"github.com/ArkinSolomon/xpkg-core/pkg/objectstore"
	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

// Config holds a worker's filesystem, coordinator, and storage-routing
// parameters.
type Config struct {
	// ScratchDir is the root a job's working directory is created under.
	ScratchDir string
	// CoordinatorURL, TrustHash and ServicePassword configure the
	// handshake with the jobs coordinator (spec.md §4.5).
	CoordinatorURL  string
	TrustHash       string
	ServicePassword string
	// PresignTTL is how long a not-stored version's download URL remains
	// valid (spec.md §4.4 step 12).
	PresignTTL time.Duration
}

// stagingKey is where a just-submitted archive waits for a worker to pick
// it up, before the pipeline moves it into its permanent location.
func stagingKey(packageID, versionString string) string {
	return fmt.Sprintf("staging/%s/%s.zip", packageID, versionString)
}

// Service runs worker pipelines. It implements pkg/upload.Stager and
// pkg/upload.Launcher.
type Service struct {
	cfg      Config
	packages *pkgs.PackageStore
	versions *pkgs.VersionStore
	authors  *author.Store
	objects  objectstore.Store
	mail     mailport.Sender
	logger   *slog.Logger
}

// NewService builds a worker Service.
func NewService(cfg Config, packages *pkgs.PackageStore, versions *pkgs.VersionStore, authors *author.Store, objects objectstore.Store, mail mailport.Sender, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, packages: packages, versions: versions, authors: authors, objects: objects, mail: mail, logger: logger}
}

// Stage persists the raw uploaded archive to object storage under its
// staging key, for a worker to read back once launched.
func (s *Service) Stage(ctx context.Context, packageID, versionString string, content io.Reader) error {
	return s.objects.Put(ctx, stagingKey(packageID, versionString), content, "application/zip")
}

// Launch starts a pipeline run in the background. The HTTP request that
// triggered it has already returned a response; failures are reported
// through the Version's status and a notification email, not a return
// value.
func (s *Service) Launch(packageID, versionString string) {
	go func() {
		ctx := context.Background()
		if err := s.run(ctx, packageID, versionString); err != nil {
			s.logger.Error("worker pipeline failed", "package_id", packageID, "version", versionString, "error", err)
		}
	}()
}
