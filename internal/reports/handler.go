package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deristok/deristok/internal/platform/httpx"
)

// Handler wires HTTP endpoints for reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/summary", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("build summary failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, summary)
}
