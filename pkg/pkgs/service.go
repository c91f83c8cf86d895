package pkgs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/audit"
	"github.com/ArkinSolomon/xpkg-core/pkg/author"
	"github.com/ArkinSolomon/xpkg-core/pkg/mailport"
)

// CreateRequest is the JSON body for POST /packages/new.
type CreateRequest struct {
	PackageID   string `json:"package_id" validate:"required"`
	PackageName string `json:"package_name" validate:"required,min=3"`
	Description string `json:"description" validate:"required"`
	PackageType Type   `json:"package_type" validate:"required"`
}

// UpdateDescriptionRequest is the JSON body for PATCH /packages/description.
type UpdateDescriptionRequest struct {
	PackageID   string `json:"package_id" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// UpdateIncompatibilitiesRequest is the JSON body for PATCH
// /packages/incompatibilities.
type UpdateIncompatibilitiesRequest struct {
	PackageID         string          `json:"package_id" validate:"required"`
	VersionString     string          `json:"version" validate:"required"`
	Dependencies      []RawDependency `json:"dependencies"`
	Incompatibilities []RawDependency `json:"incompatibilities"`
}

// UpdateXPSelectionRequest is the JSON body for PATCH /packages/xpselection.
type UpdateXPSelectionRequest struct {
	PackageID     string `json:"package_id" validate:"required"`
	VersionString string `json:"version" validate:"required"`
	XPSelection   string `json:"xp_selection" validate:"required"`
}

// Service implements package and version administration (spec.md §4.6).
type Service struct {
	packages *PackageStore
	versions *VersionStore
	authors  *author.Store
	mail     mailport.Sender
	audit    *audit.Writer
	logger   *slog.Logger
}

// NewService creates a pkgs Service. audit may be nil, in which case
// mutations simply aren't logged (tests construct Service this way).
func NewService(packages *PackageStore, versions *VersionStore, authors *author.Store, mail mailport.Sender, auditWriter *audit.Writer, logger *slog.Logger) *Service {
	return &Service{packages: packages, versions: versions, authors: authors, mail: mail, audit: auditWriter, logger: logger}
}

// CreatePackage registers a new Package, rejecting on id_in_use or
// name_in_use (spec.md §4.6).
func (s *Service) CreatePackage(ctx context.Context, authorID, authorName string, req CreateRequest) (Package, error) {
	if !ValidID(req.PackageID) {
		return Package{}, apperrors.NewClientError(apperrors.CodeInvalidIDOrRepo, "invalid package id")
	}

	if exists, err := s.packages.IDExists(ctx, req.PackageID); err != nil {
		return Package{}, fmt.Errorf("checking package id: %w", err)
	} else if exists {
		return Package{}, apperrors.NewClientError(apperrors.CodeIDInUse, "package id already in use")
	}
	if exists, err := s.packages.NameExists(ctx, req.PackageName); err != nil {
		return Package{}, fmt.Errorf("checking package name: %w", err)
	} else if exists {
		return Package{}, apperrors.NewClientError(apperrors.CodeNameInUse, "package name already in use")
	}

	p := Package{
		PackageID:   req.PackageID,
		PackageName: req.PackageName,
		AuthorID:    authorID,
		AuthorName:  authorName,
		Description: req.Description,
		PackageType: req.PackageType,
	}
	if err := s.packages.Create(ctx, p); err != nil {
		return Package{}, fmt.Errorf("creating package: %w", err)
	}
	s.audit.Log(audit.Entry{ActorID: authorID, Action: "package.create", TargetType: "package", TargetID: p.PackageID})
	return p, nil
}

// UpdateDescription replaces a package's description, authorized only for
// the owning author (enforced by the caller's scope/ownership check), and
// emails the author on success (spec.md §4.6).
func (s *Service) UpdateDescription(ctx context.Context, authorID string, req UpdateDescriptionRequest) error {
	p, err := s.packages.GetByID(ctx, req.PackageID)
	if err != nil {
		return err
	}
	if p.AuthorID != authorID {
		return apperrors.NewClientError(apperrors.CodeForbidden, "not the owning author")
	}

	if err := s.packages.UpdateDescription(ctx, req.PackageID, req.Description); err != nil {
		return fmt.Errorf("updating description: %w", err)
	}
	s.audit.Log(audit.Entry{ActorID: authorID, Action: "package.update_description", TargetType: "package", TargetID: req.PackageID})

	a, err := s.authors.GetByID(ctx, authorID)
	if err != nil {
		s.logger.Warn("looking up author for description-update email", "error", err, "package_id", req.PackageID)
		return nil
	}
	if err := s.mail.Send(ctx, mailport.Message{
		To:      a.AuthorEmail,
		Subject: fmt.Sprintf("Description updated for %s", p.PackageName),
		Body:    "Your package description was updated successfully.",
	}); err != nil {
		s.logger.Warn("sending description-update email", "error", err, "package_id", req.PackageID)
	}
	return nil
}

// UpdateIncompatibilities revalidates and replaces a version's combined
// dependency/incompatibility lists (spec.md §4.6).
func (s *Service) UpdateIncompatibilities(ctx context.Context, authorID string, req UpdateIncompatibilitiesRequest) error {
	p, err := s.packages.GetByID(ctx, req.PackageID)
	if err != nil {
		return err
	}
	if p.AuthorID != authorID {
		return apperrors.NewClientError(apperrors.CodeForbidden, "not the owning author")
	}

	selfID := "xpkg/" + req.PackageID
	deps, incompat, err := ValidateLists(selfID, req.Dependencies, req.Incompatibilities)
	if err != nil {
		return err
	}

	if err := s.versions.UpdateIncompatibilities(ctx, req.PackageID, req.VersionString, deps, incompat); err != nil {
		return err
	}
	s.audit.Log(audit.Entry{ActorID: authorID, Action: "version.update_incompatibilities", TargetType: "version", TargetID: req.PackageID + "@" + req.VersionString})
	return nil
}

// UpdateXPSelection replaces a version's host-application version
// selection, owner-only (spec.md §4.6).
func (s *Service) UpdateXPSelection(ctx context.Context, authorID string, req UpdateXPSelectionRequest) error {
	p, err := s.packages.GetByID(ctx, req.PackageID)
	if err != nil {
		return err
	}
	if p.AuthorID != authorID {
		return apperrors.NewClientError(apperrors.CodeForbidden, "not the owning author")
	}

	if err := s.versions.UpdateXPSelection(ctx, req.PackageID, req.VersionString, req.XPSelection); err != nil {
		return err
	}
	s.audit.Log(audit.Entry{ActorID: authorID, Action: "version.update_xpselection", TargetType: "version", TargetID: req.PackageID + "@" + req.VersionString})
	return nil
}
