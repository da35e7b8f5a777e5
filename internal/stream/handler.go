package stream

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sentra-vms/sentra/internal/cameras"
	"github.com/sentra-vms/sentra/internal/platform/httpx"
	"github.com/sentra-vms/sentra/internal/shared"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
)

// Handler wires the socket endpoint, frame ingest and the MJPEG feed.
type Handler struct {
	logger       *slog.Logger
	hub          *Hub
	cameras      *cameras.Service
	maxFrameSize int64
	upgrader     websocket.Upgrader
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, hub *Hub, cameraService *cameras.Service, maxFrameSize int64) *Handler {
	return &Handler{
		logger:       logger,
		hub:          hub,
		cameras:      cameraService,
		maxFrameSize: maxFrameSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The bearer token already authenticates the socket.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// MountRoutes registers streaming routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ws", h.handleSocket)
	r.Get("/video_feed/{id}", h.handleVideoFeed)
	r.Post("/ingest/frame", h.handleIngestFrame)
}

func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("socket upgrade failed", slog.Any("error", err))
		return
	}

	viewer := h.hub.Register(*sess)
	done := make(chan struct{})

	if err := h.sendSnapshot(r, conn); err != nil {
		h.logger.Warn("snapshot send failed", slog.Any("error", err))
		h.hub.Unregister(viewer)
		conn.Close()
		return
	}

	go h.writePump(conn, viewer, done)
	h.readPump(r, conn, viewer)

	close(done)
	h.hub.Unregister(viewer)
	conn.Close()
}

// sendSnapshot gives a fresh connection the current registry state so the
// viewer never renders from remembered state after a reconnect.
func (h *Handler) sendSnapshot(r *http.Request, conn *websocket.Conn) error {
	list, err := h.cameras.List(r.Context())
	if err != nil {
		return fmt.Errorf("snapshot registry: %w", err)
	}
	snap := snapshotEvent{Type: EventSnapshot, Cameras: make([]snapshotCamera, 0, len(list))}
	for _, c := range list {
		snap.Cameras = append(snap.Cameras, snapshotCamera{
			CameraID: c.ID,
			Name:     c.Name,
			Status:   string(c.Status),
		})
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Handler) readPump(r *http.Request, conn *websocket.Conn, viewer *Viewer) {
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				h.logger.Warn("socket read error",
					slog.String("viewer_id", viewer.ID),
					slog.Any("error", err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		h.handleCommand(r, viewer, message)
	}
}

func (h *Handler) writePump(conn *websocket.Conn, viewer *Viewer, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-viewer.Events():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) handleCommand(r *http.Request, viewer *Viewer, message []byte) {
	var cmd command
	if err := json.Unmarshal(message, &cmd); err != nil {
		viewer.enqueue(encodeErrorEvent("malformed command"))
		return
	}

	switch cmd.Action {
	case "open":
		// Optimistic local transition first, then the registry call. The
		// status broadcast that follows settles the final state.
		viewer.RequestOpen(cmd.CameraID)
		if _, err := h.cameras.Open(r.Context(), cmd.CameraID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				viewer.enqueue(encodeErrorEvent("unknown camera"))
				viewer.RequestClose(cmd.CameraID)
				return
			}
			h.logger.Error("open camera", slog.Int64("camera_id", cmd.CameraID), slog.Any("error", err))
			viewer.enqueue(encodeErrorEvent("open failed"))
		}
	case "close":
		viewer.RequestClose(cmd.CameraID)
		if _, err := h.cameras.Close(r.Context(), cmd.CameraID); err != nil && !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("close camera", slog.Int64("camera_id", cmd.CameraID), slog.Any("error", err))
		}
	case "ping":
		viewer.enqueue(encodePongEvent())
	default:
		viewer.enqueue(encodeErrorEvent("unknown action"))
	}
}

type ingestFrameRequest struct {
	CameraID int64  `json:"camera_id"`
	Frame    string `json:"frame"`
}

// handleIngestFrame accepts one encoded frame from a camera agent and fans
// it out. Frames for cameras that are not open are dropped.
func (h *Handler) handleIngestFrame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFrameSize)

	var req ingestFrameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Message(w, http.StatusRequestEntityTooLarge, "Frame too large")
			return
		}
		httpx.Message(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.CameraID == 0 || req.Frame == "" {
		httpx.Message(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	frame, err := base64.StdEncoding.DecodeString(req.Frame)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Frame must be base64 encoded")
		return
	}

	cam, err := h.cameras.Get(r.Context(), req.CameraID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if cam.Status != cameras.StatusOpen {
		httpx.JSON(w, http.StatusOK, map[string]any{"accepted": false, "reason": "camera not open"})
		return
	}

	h.hub.PublishFrame(req.CameraID, frame)
	httpx.JSON(w, http.StatusOK, map[string]any{"accepted": true})
}

// handleVideoFeed serves a camera as an MJPEG stream over a single long
// response, for clients without socket support.
func (h *Handler) handleVideoFeed(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid camera id")
		return
	}
	cam, err := h.cameras.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if cam.Status != cameras.StatusOpen {
		httpx.Message(w, http.StatusConflict, "Camera is not open")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Message(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	const boundary = "sentraframe"
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	frames, cancel := h.hub.Tap(id)
	defer cancel()

	// Start with the retained frame so the picture appears immediately.
	if last, _, ok := h.hub.LastFrame(id); ok {
		if err := writeMJPEGPart(w, boundary, last); err != nil {
			return
		}
		flusher.Flush()
	}

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := writeMJPEGPart(w, boundary, frame); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeMJPEGPart(w http.ResponseWriter, boundary string, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
