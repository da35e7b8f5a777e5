package cameras

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sentra-vms/sentra/internal/platform/httpx"
	"github.com/sentra-vms/sentra/internal/shared"
)

// Handler wires HTTP endpoints for the camera registry.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers camera routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cameras", h.handleList)
	r.Get("/cameras/{id}", h.handleGet)
	r.Post("/cameras", h.handleCreate)
	r.Put("/cameras/{id}", h.handleUpdate)
	r.Delete("/cameras/{id}", h.handleDelete)
	r.Get("/open_camera/{id}", h.handleOpen)
	r.Get("/close_camera/{id}", h.handleClose)
}

type cameraView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	SourceURL string `json:"source_url"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func toView(c Camera) cameraView {
	return cameraView{
		ID:        c.ID,
		Name:      c.Name,
		Location:  c.Location,
		SourceURL: c.SourceURL,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list cameras", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]cameraView, 0, len(list))
	for _, c := range list {
		views = append(views, toView(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cameras": views})
}

func cameraID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := cameraID(r)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid camera id")
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*c))
}

type createCameraRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=128"`
	Location  string `json:"location" validate:"max=256"`
	SourceURL string `json:"source_url" validate:"required,url"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCameraRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid input")
		return
	}
	c, err := h.service.Create(r.Context(), CreateCameraInput{
		Name:      req.Name,
		Location:  req.Location,
		SourceURL: req.SourceURL,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			httpx.Message(w, http.StatusConflict, "A camera with this name already exists")
			return
		}
		h.logger.Error("create camera", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(*c))
}

type updateCameraRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=128"`
	Location  *string `json:"location" validate:"omitempty,max=256"`
	SourceURL *string `json:"source_url" validate:"omitempty,url"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := cameraID(r)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid camera id")
		return
	}
	var req updateCameraRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid input")
		return
	}
	c, err := h.service.Update(r.Context(), id, UpdateCameraInput{
		Name:      req.Name,
		Location:  req.Location,
		SourceURL: req.SourceURL,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*c))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := cameraID(r)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid camera id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Camera deleted")
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	id, err := cameraID(r)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid camera id")
		return
	}
	c, err := h.service.Open(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"camera_id": c.ID, "status": string(c.Status)})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	id, err := cameraID(r)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid camera id")
		return
	}
	c, err := h.service.Close(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"camera_id": c.ID, "status": string(c.Status)})
}
