package pkgs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/internal/httpserver"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

// Handler provides HTTP handlers for package administration (spec.md §4.6).
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a pkgs Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi.Router with all package administration routes
// mounted, all of which require an authenticated, scoped identity.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth)

	r.With(auth.RequireScopes(scope.RegistryManagePackages)).Post("/new", h.handleCreate)
	r.With(auth.RequireAnyScope(scope.UpdateDescriptionSelf, scope.UpdateDescriptionOther)).Patch("/description", h.handleUpdateDescription)
	r.With(auth.RequireScopes(scope.RegistryManagePackages)).Patch("/incompatibilities", h.handleUpdateIncompatibilities)
	r.With(auth.RequireScopes(scope.RegistryManagePackages)).Patch("/xpselection", h.handleUpdateXPSelection)

	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req CreateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.service.CreatePackage(r.Context(), id.UserID, "", req)
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdateDescription(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req UpdateDescriptionRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.UpdateDescription(r.Context(), id.UserID, req); err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleUpdateIncompatibilities(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req UpdateIncompatibilitiesRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.UpdateIncompatibilities(r.Context(), id.UserID, req); err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleUpdateXPSelection(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req UpdateXPSelectionRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.UpdateXPSelection(r.Context(), id.UserID, req); err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "updated"})
}
