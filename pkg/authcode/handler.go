package authcode

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/internal/httpserver"
)

// Handler exposes the OAuth authorize and token endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds an authcode Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes mounts the authorize endpoint (requires a logged-in user, since it
// is the consent step) and the token endpoint (client-credentials driven,
// no bearer auth).
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireAuth).Post("/authorize", h.handleAuthorize)
	r.Post("/token", h.handleExchange)
	return r
}

type authorizeRequest struct {
	ClientID            string `json:"client_id" validate:"required"`
	RedirectURI         string `json:"redirect_uri" validate:"required,url"`
	Scope               string `json:"scope" validate:"required"`
	CodeChallenge       string `json:"code_challenge" validate:"required"`
	CodeChallengeMethod string `json:"code_challenge_method" validate:"required"`
	State               string `json:"state"`
}

type authorizeResponse struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

// authorizeTokenTTL is the fixed lifetime of the bearer token minted on
// exchange of the code this endpoint issues (spec.md §4.2 step 1).
const authorizeTokenTTL = time.Hour

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req authorizeRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	code, err := h.service.Authorize(r.Context(), AuthorizeRequest{
		ClientID:            req.ClientID,
		UserID:              id.UserID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		TokenTTL:            authorizeTokenTTL,
	})
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, authorizeResponse{Code: code, State: req.State})
}

type exchangeRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code" validate:"required"`
	CodeVerifier string `json:"code_verifier" validate:"required"`
	RedirectURI  string `json:"redirect_uri" validate:"required,url"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if !ValidCodeVerifier(req.CodeVerifier) {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "malformed code_verifier")
		return
	}

	token, err := h.service.Exchange(r.Context(), ExchangeRequest{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Code:         req.Code,
		CodeVerifier: req.CodeVerifier,
		RedirectURI:  req.RedirectURI,
	})
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, exchangeResponse{AccessToken: token, TokenType: "bearer"})
}
