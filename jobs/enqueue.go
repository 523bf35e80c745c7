package jobs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/deristok/deristok/internal/platform/httpx"
)

// Handler exposes manual triggers for background tasks.
type Handler struct {
	logger *slog.Logger
	client *asynq.Client
}

// NewHandler constructs jobs handler.
func NewHandler(logger *slog.Logger, client *asynq.Client) *Handler {
	return &Handler{logger: logger, client: client}
}

// MountRoutes registers job trigger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/integrity-scan", h.trigger(NewIntegrityScanTask))
		r.Post("/idempotency-cleanup", h.trigger(NewIdempotencyCleanupTask))
		r.Post("/report-warmup", h.trigger(NewReportWarmupTask))
	})
}

func (h *Handler) trigger(build func() *asynq.Task) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task := build()
		info, err := h.client.EnqueueContext(r.Context(), task)
		if err != nil {
			h.logger.Error("enqueue failed", slog.String("type", task.Type()), slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, "enqueue failed")
			return
		}
		httpx.OK(w, map[string]any{"task_id": info.ID, "queue": info.Queue})
	}
}
