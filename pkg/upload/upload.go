// Package upload implements the upload pipeline's synchronous HTTP-edge
// pre-checks: request validation, access-config invariants, dependency
// list normalization, and persisting the initial Processing Version
// before a worker is launched (spec.md §4.4).
package upload

import (
	"io"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

// Request is the pre-check input: the upload's declared metadata plus the
// archive itself, staged verbatim ahead of the worker pipeline (which
// alone inspects its contents).
type Request struct {
	PackageID         string
	PackageVersion    string
	IsPublic          bool
	IsPrivate         bool
	IsStored          bool
	Dependencies      []pkgs.RawDependency
	Incompatibilities []pkgs.RawDependency
	Platforms         pkgs.Platforms
	HasFile           bool
	File              io.Reader
}

// validateAccessConfig enforces isPublic ⇔ ¬isPrivate and isPublic ⇒
// isStored (spec.md §4.4).
func validateAccessConfig(req Request) error {
	if req.IsPublic == req.IsPrivate {
		return apperrors.NewClientError(apperrors.CodeInvalidAccessConfig, "isPublic and isPrivate must be opposite")
	}
	if req.IsPublic && !req.IsStored {
		return apperrors.NewClientError(apperrors.CodeInvalidAccessConfig, "a public version must be stored")
	}
	return nil
}
