package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/telemetry"
	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
	"github.com/ArkinSolomon/xpkg-core/pkg/xtoken"
)

const privateKeyLen = 32

// Launcher starts the worker pipeline for a newly persisted Processing
// version. Implemented by pkg/worker; kept as an interface here so upload
// depends on worker's contract, not its implementation.
type Launcher interface {
	Launch(packageID, versionString string)
}

// Stager persists the raw uploaded archive somewhere the worker can read
// it back from once launched, since the HTTP request that carries the
// bytes won't still be open by the time a worker picks the job up.
// Implemented by pkg/worker.
type Stager interface {
	Stage(ctx context.Context, packageID, versionString string, content io.Reader) error
}

// Service runs the upload pre-checks and hands off to a Launcher.
type Service struct {
	packages *pkgs.PackageStore
	versions *pkgs.VersionStore
	stager   Stager
	launcher Launcher
}

// NewService builds an upload Service.
func NewService(packages *pkgs.PackageStore, versions *pkgs.VersionStore, stager Stager, launcher Launcher) *Service {
	return &Service{packages: packages, versions: versions, stager: stager, launcher: launcher}
}

// Submit runs every pre-check (spec.md §4.4), persists the version in
// Processing status on success, and launches a worker.
func (s *Service) Submit(ctx context.Context, authorID string, req Request) (pkgs.Version, error) {
	if !req.HasFile {
		return pkgs.Version{}, apperrors.NewClientError(apperrors.CodeNoFile, "no archive uploaded")
	}
	if err := validateAccessConfig(req); err != nil {
		return pkgs.Version{}, err
	}
	if !req.Platforms.SupportsAnyPlatform() {
		return pkgs.Version{}, apperrors.NewClientError(apperrors.CodePlatSupp, "at least one platform must be supported")
	}

	p, err := s.packages.GetByID(ctx, req.PackageID)
	if err != nil {
		return pkgs.Version{}, err
	}
	if p.AuthorID != authorID {
		return pkgs.Version{}, apperrors.NewClientError(apperrors.CodeForbidden, "not the owning author")
	}

	exists, err := s.versions.Exists(ctx, req.PackageID, req.PackageVersion)
	if err != nil {
		return pkgs.Version{}, fmt.Errorf("checking version existence: %w", err)
	}
	if exists {
		return pkgs.Version{}, apperrors.NewClientError(apperrors.CodeVersionExists, "this version already exists")
	}

	deps, incompat, err := pkgs.ValidateLists(req.PackageID, req.Dependencies, req.Incompatibilities)
	if err != nil {
		return pkgs.Version{}, err
	}

	var privateKey *string
	if !req.IsPublic && req.IsStored {
		key, err := xtoken.RandomAlnum(privateKeyLen)
		if err != nil {
			return pkgs.Version{}, fmt.Errorf("generating private key: %w", err)
		}
		privateKey = &key
	}

	v := pkgs.Version{
		PackageID:         req.PackageID,
		VersionString:     req.PackageVersion,
		IsPublic:          req.IsPublic,
		IsStored:          req.IsStored,
		PrivateKey:        privateKey,
		UploadDate:        time.Now().UTC(),
		Status:            pkgs.StatusProcessing,
		Dependencies:      deps,
		Incompatibilities: incompat,
		Platforms:         req.Platforms,
	}
	if err := s.stager.Stage(ctx, req.PackageID, req.PackageVersion, req.File); err != nil {
		return pkgs.Version{}, fmt.Errorf("staging archive: %w", err)
	}

	if err := s.versions.Create(ctx, v); err != nil {
		return pkgs.Version{}, fmt.Errorf("creating version: %w", err)
	}

	telemetry.UploadsSubmittedTotal.Inc()
	s.launcher.Launch(req.PackageID, req.PackageVersion)
	return v, nil
}

// Retry resubmits a failed version for processing: owner must match and
// status must currently be a failure state (spec.md §4.4 "Retry").
func (s *Service) Retry(ctx context.Context, authorID, packageID, versionString string) error {
	p, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		return err
	}
	if p.AuthorID != authorID {
		return apperrors.NewClientError(apperrors.CodeForbidden, "not the owning author")
	}

	v, err := s.versions.Get(ctx, packageID, versionString)
	if err != nil {
		return err
	}
	if !v.Status.IsFailure() {
		return apperrors.NewClientError(apperrors.CodeCantRetry, "version is not in a failure state")
	}

	now := time.Now().UTC()
	if err := s.versions.UpdateStatus(ctx, packageID, versionString, pkgs.StatusProcessing, &now); err != nil {
		return fmt.Errorf("resetting version to processing: %w", err)
	}

	s.launcher.Launch(packageID, versionString)
	return nil
}
