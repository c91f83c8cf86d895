package oauthclient

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/internal/httpserver"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

// Handler exposes the developer-portal client registration endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates an oauthclient Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes mounts the developer-portal registration endpoints, all of which
// require the DeveloperPortal scope.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth, auth.RequireScopes(scope.DeveloperPortal))
	r.Post("/", h.handleRegister)
	r.Post("/{clientId}/secret", h.handleRegenerateSecret)
	return r
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req RegisterRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), id.UserID, req)
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusCreated, resp)
}

type regenerateSecretResponse struct {
	ClientSecret string `json:"client_secret"`
}

func (h *Handler) handleRegenerateSecret(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	clientID := chi.URLParam(r, "clientId")
	secret, err := h.service.RegenerateSecret(r.Context(), id.UserID, clientID)
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, regenerateSecretResponse{ClientSecret: secret})
}
