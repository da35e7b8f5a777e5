// Package alerts accepts operator notifications from camera agents and
// hands them to the background queue.
package alerts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/sentra-vms/sentra/internal/platform/httpx"
	"github.com/sentra-vms/sentra/jobs"
)

// Enqueuer submits notification tasks.
type Enqueuer interface {
	EnqueueNotifyAlert(ctx context.Context, payload jobs.NotifyAlertPayload) (*asynq.TaskInfo, error)
}

// Handler wires the alert ingest endpoint.
type Handler struct {
	logger    *slog.Logger
	enqueuer  Enqueuer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, enqueuer Enqueuer) *Handler {
	return &Handler{
		logger:    logger,
		enqueuer:  enqueuer,
		validator: validator.New(),
	}
}

// MountRoutes registers alert routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/ingest/alert", h.handleIngestAlert)
}

type ingestAlertRequest struct {
	CameraID int64  `json:"camera_id" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=motion tamper offline"`
	Message  string `json:"message" validate:"max=512"`
}

func (h *Handler) handleIngestAlert(w http.ResponseWriter, r *http.Request) {
	var req ingestAlertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if h.enqueuer == nil {
		httpx.Message(w, http.StatusServiceUnavailable, "Notifications unavailable")
		return
	}
	info, err := h.enqueuer.EnqueueNotifyAlert(r.Context(), jobs.NotifyAlertPayload{
		CameraID: req.CameraID,
		Kind:     req.Kind,
		Message:  req.Message,
	})
	if err != nil {
		h.logger.Error("enqueue alert", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"task_id": info.ID})
}
