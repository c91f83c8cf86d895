package user

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/internal/httpserver"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

// Handler provides HTTP handlers for account signup, login, and profile
// management.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a user Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi.Router with all account routes mounted. Signup and
// login are unauthenticated; the rest require a bearer token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Put("/name", h.handleChangeName)
		r.With(auth.RequireScopes(scope.EmailChange)).Post("/email-change", h.handleRequestEmailChange)
		r.With(auth.RequireScopes(scope.EmailChange)).Post("/email-change/confirm", h.handleConfirmEmailChange)
		r.With(auth.RequireScopes(scope.EmailChangeRevoke)).Delete("/email-change", h.handleRevokeEmailChange)
	})

	return r
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Signup(r.Context(), req)
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusCreated, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.service.Login(r.Context(), req)
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, u.ToResponse())
}

type changeNameRequest struct {
	Name string `json:"name" validate:"required,min=3,max=32"`
}

func (h *Handler) handleChangeName(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req changeNameRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.ChangeName(r.Context(), id.UserID, req.Name, time.Now().UTC()); err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{"name": req.Name})
}

func (h *Handler) handleRequestEmailChange(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req RequestEmailChangeRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.RequestEmailChange(r.Context(), id.UserID, req, time.Now().UTC()); err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

type confirmEmailChangeRequest struct {
	Code string `json:"code" validate:"required,len=32"`
}

func (h *Handler) handleConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req confirmEmailChangeRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.ConfirmEmailChange(r.Context(), id.UserID, req.Code, time.Now().UTC()); err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (h *Handler) handleRevokeEmailChange(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	if err := h.service.RevokeEmailChange(r.Context(), id.UserID); err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusNoContent, nil)
}
