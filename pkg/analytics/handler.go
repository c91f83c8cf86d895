package analytics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/internal/httpserver"
	"github.com/ArkinSolomon/xpkg-core/pkg/scope"
)

// Handler exposes the download-analytics read endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates an analytics Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi.Router mounting the analytics read endpoint, gated
// on either the developer-portal scope or the dedicated analytics scope.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth)
	r.With(auth.RequireAnyScope(scope.DeveloperPortal, scope.RegistryViewAnalytics)).
		Get("/{pkg}/{ver}", h.handleWindow)
	return r
}

type bucketResponse struct {
	HourStart time.Time `json:"hour_start"`
	Downloads int64     `json:"downloads"`
}

func (h *Handler) handleWindow(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "pkg")
	versionString := chi.URLParam(r, "ver")

	after, err := parseTimeParam(r, "after")
	if err != nil {
		apperrors.Write(w, h.logger, apperrors.NewClientError(apperrors.CodeBadAfterDate, err.Error()))
		return
	}
	before, err := parseTimeParam(r, "before")
	if err != nil {
		apperrors.Write(w, h.logger, apperrors.NewClientError(apperrors.CodeBadBeforeDate, err.Error()))
		return
	}

	buckets, err := h.service.Window(r.Context(), packageID, versionString, after, before)
	if err != nil {
		apperrors.Write(w, h.logger, err)
		return
	}

	resp := make([]bucketResponse, len(buckets))
	for i, b := range buckets {
		resp[i] = bucketResponse{HourStart: b.HourStart, Downloads: b.Downloads}
	}
	httpserver.Respond(w, http.StatusOK, resp)
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 timestamp", name)
	}
	return t, nil
}
