package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler serves the unauthenticated catalog snapshot.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a catalog Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes mounts the catalog read endpoint. It takes no auth middleware:
// this is the one registry surface served unauthenticated (spec.md §4.4).
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleGet)
	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	body, err := h.service.Read(r.Context())
	if err != nil {
		h.logger.Error("serving catalog snapshot", "error", err)
		http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
