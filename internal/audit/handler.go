package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentra-vms/sentra/internal/platform/httpx"
)

// Handler wires the audit trail endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/video_audit_trail", h.handleTrail)
}

type trailRowView struct {
	VideoURL  string `json:"video_url"`
	DeletedBy string `json:"deleted_by"`
	DeletedAt string `json:"deleted_at"`
}

func (h *Handler) handleTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := Filters{Actor: q.Get("deleted_by")}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Message(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		filters.From = t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Message(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		// Inclusive end of day.
		filters.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	result, err := h.service.Trail(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit trail", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	rows := make([]trailRowView, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, trailRowView{
			VideoURL:  row.VideoURL,
			DeletedBy: row.DeletedBy,
			DeletedAt: row.DeletedAt.Format(time.RFC3339),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"audit_trail": rows,
		"paging": map[string]any{
			"page":      result.Paging.Page,
			"page_size": result.Paging.PageSize,
			"has_next":  result.Paging.HasNext,
		},
	})
}
