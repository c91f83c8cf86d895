package upload

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/internal/httpserver"
	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

const maxUploadBytes = 16 << 30 // 16 GiB, spec.md §4.4 step 2's unzipped-size ceiling; the stored archive itself is smaller

// Handler exposes the upload pre-check and retry endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates an upload Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi.Router with the upload and retry endpoints mounted,
// both requiring RegistryUpload.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth)
	r.With(auth.RequireScopes(scope.RegistryUpload)).Post("/", h.handleSubmit)
	r.With(auth.RequireScopes(scope.RegistryUpload)).Post("/retry/{pkg}/{ver}", h.handleRetry)
	return r
}

type uploadMetadata struct {
	PackageID         string               `json:"package_id" validate:"required"`
	PackageVersion    string               `json:"package_version" validate:"required"`
	IsPublic          bool                 `json:"is_public"`
	IsPrivate         bool                 `json:"is_private"`
	IsStored          bool                 `json:"is_stored"`
	Dependencies      []pkgs.RawDependency `json:"dependencies"`
	Incompatibilities []pkgs.RawDependency `json:"incompatibilities"`
	Platforms         pkgs.Platforms       `json:"platforms"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "could not parse multipart upload")
		return
	}

	var meta uploadMetadata
	if !httpserver.DecodeAndValidate(w, r, &meta) {
		return
	}

	file, _, fileErr := r.FormFile("file")
	if fileErr == nil {
		defer file.Close()
	}
	req := Request{
		PackageID:         meta.PackageID,
		PackageVersion:    meta.PackageVersion,
		IsPublic:          meta.IsPublic,
		IsPrivate:         meta.IsPrivate,
		IsStored:          meta.IsStored,
		Dependencies:      meta.Dependencies,
		Incompatibilities: meta.Incompatibilities,
		Platforms:         meta.Platforms,
		HasFile:           fileErr == nil,
		File:              file,
	}

	v, err := h.service.Submit(r.Context(), id.UserID, req)
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusAccepted, v)
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	packageID := chi.URLParam(r, "pkg")
	versionString := chi.URLParam(r, "ver")

	if err := h.service.Retry(r.Context(), id.UserID, packageID, versionString); err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusAccepted, nil)
}
