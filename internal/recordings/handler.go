package recordings

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentra-vms/sentra/internal/platform/httpx"
	"github.com/sentra-vms/sentra/internal/shared"
)

// Handler wires recorded video endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers recording routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/get_recorded_videos", h.handleList)
	r.Delete("/delete_video", h.handleDelete)
}

type recordingView struct {
	ID         int64  `json:"id"`
	CameraID   int64  `json:"camera_id"`
	URL        string `json:"url"`
	SizeBytes  int64  `json:"size_bytes"`
	RecordedAt string `json:"recorded_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := time.Parse("2006-01-02", q.Get("start_date"))
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", q.Get("end_date"))
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	// Inclusive end of day.
	end = end.Add(24*time.Hour - time.Nanosecond)

	list, err := h.service.ListBetween(r.Context(), start, end)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]recordingView, 0, len(list))
	for _, rec := range list {
		views = append(views, recordingView{
			ID:         rec.ID,
			CameraID:   rec.CameraID,
			URL:        rec.URL,
			SizeBytes:  rec.SizeBytes,
			RecordedAt: rec.RecordedAt.Format(time.RFC3339),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"videos": views})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		httpx.Message(w, http.StatusBadRequest, "url query parameter required")
		return
	}
	if err := h.service.Delete(r.Context(), *sess, url); err != nil {
		h.logger.Error("delete recording", slog.String("url", url), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Video deleted")
}
