package stream

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sentra-vms/sentra/internal/cameras"
	"github.com/sentra-vms/sentra/internal/shared"
)

const viewerSendBuffer = 64

// Viewer is one socket connection and its per-camera view states. A
// reconnect always produces a fresh Viewer, so no view state survives a
// dropped connection.
type Viewer struct {
	ID      string
	Session shared.Session

	send chan []byte

	mu     sync.Mutex
	states map[int64]ViewState
}

// Events exposes the outbound queue consumed by the write pump.
func (v *Viewer) Events() <-chan []byte {
	return v.send
}

// State returns the view state for one camera.
func (v *Viewer) State(cameraID int64) ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[cameraID]
}

// RequestOpen applies a local open action for one camera.
func (v *Viewer) RequestOpen(cameraID int64) ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := v.states[cameraID].RequestOpen()
	v.states[cameraID] = next
	return next
}

// RequestClose applies a local close action for one camera.
func (v *Viewer) RequestClose(cameraID int64) ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := v.states[cameraID].RequestClose()
	v.states[cameraID] = next
	return next
}

func (v *Viewer) applyStatus(cameraID int64, status cameras.Status) ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := v.states[cameraID].ApplyStatus(status)
	v.states[cameraID] = next
	return next
}

func (v *Viewer) displaying(cameraID int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[cameraID].Displaying()
}

// enqueue hands a payload to the write pump without blocking. A slow
// consumer loses frames instead of stalling the hub.
func (v *Viewer) enqueue(payload []byte) bool {
	select {
	case v.send <- payload:
		return true
	default:
		return false
	}
}

type frameRecord struct {
	data []byte
	at   time.Time
}

// Hub fans frames and status broadcasts out to connected viewers. Delivery
// is best effort per viewer. Drop frames, never queue.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	viewers map[*Viewer]struct{}
	last    map[int64]frameRecord
	taps    map[int64]map[chan []byte]struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		viewers: make(map[*Viewer]struct{}),
		last:    make(map[int64]frameRecord),
		taps:    make(map[int64]map[chan []byte]struct{}),
	}
}

// Register creates a viewer for a new connection.
func (h *Hub) Register(session shared.Session) *Viewer {
	v := &Viewer{
		ID:      uuid.NewString(),
		Session: session,
		send:    make(chan []byte, viewerSendBuffer),
		states:  make(map[int64]ViewState),
	}
	h.mu.Lock()
	h.viewers[v] = struct{}{}
	count := len(h.viewers)
	h.mu.Unlock()

	h.logger.Info("viewer connected",
		slog.String("viewer_id", v.ID),
		slog.String("username", session.Username),
		slog.Int("viewers", count))
	return v
}

// Unregister drops a viewer and its queue.
func (h *Hub) Unregister(v *Viewer) {
	h.mu.Lock()
	_, ok := h.viewers[v]
	delete(h.viewers, v)
	count := len(h.viewers)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.logger.Info("viewer disconnected",
		slog.String("viewer_id", v.ID),
		slog.Int("viewers", count))
}

// PublishFrame delivers one frame to every viewer currently displaying the
// camera, and to any direct feed taps. The latest frame per camera is kept
// so new consumers start with a picture.
func (h *Hub) PublishFrame(cameraID int64, frame []byte) {
	now := time.Now()

	h.mu.Lock()
	h.last[cameraID] = frameRecord{data: frame, at: now}
	targets := make([]*Viewer, 0, len(h.viewers))
	for v := range h.viewers {
		targets = append(targets, v)
	}
	// Tap channels are closed under the same lock, so delivery here cannot
	// race a close. Sends never block, a slow tap just skips a frame.
	for ch := range h.taps[cameraID] {
		select {
		case ch <- frame:
		default:
			h.dropped.Add(1)
		}
	}
	h.mu.Unlock()

	payload := encodeFrameEvent(cameraID, frame)
	for _, v := range targets {
		if !v.displaying(cameraID) {
			continue
		}
		if v.enqueue(payload) {
			h.delivered.Add(1)
		} else {
			h.dropped.Add(1)
		}
	}
}

// NotifyStatus folds a registry transition into every viewer and broadcasts
// the event. Opening resets the frame clock so staleness is measured from
// the transition, closing discards the retained frame.
func (h *Hub) NotifyStatus(cameraID int64, status cameras.Status) {
	h.mu.Lock()
	switch status {
	case cameras.StatusOpen:
		h.last[cameraID] = frameRecord{at: time.Now()}
	default:
		delete(h.last, cameraID)
	}
	targets := make([]*Viewer, 0, len(h.viewers))
	for v := range h.viewers {
		targets = append(targets, v)
	}
	h.mu.Unlock()

	payload := encodeStatusEvent(cameraID, string(status))
	for _, v := range targets {
		v.applyStatus(cameraID, status)
		if !v.enqueue(payload) {
			h.dropped.Add(1)
		}
	}
}

// DetachCamera is called when a camera leaves the registry. Every viewer
// sees it closed and its retained frame is discarded.
func (h *Hub) DetachCamera(cameraID int64) {
	h.NotifyStatus(cameraID, cameras.StatusClosed)
	h.mu.Lock()
	for ch := range h.taps[cameraID] {
		close(ch)
	}
	delete(h.taps, cameraID)
	h.mu.Unlock()
}

// MarkActive starts the activity clock for a camera without broadcasting.
func (h *Hub) MarkActive(cameraID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rec, ok := h.last[cameraID]; !ok || rec.at.IsZero() {
		h.last[cameraID] = frameRecord{at: time.Now()}
	}
}

// LastFrame returns the retained frame for a camera, if any.
func (h *Hub) LastFrame(cameraID int64) ([]byte, time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.last[cameraID]
	return rec.data, rec.at, ok && rec.data != nil
}

// LastFrameAt returns when the camera last produced activity. The clock also
// starts on an open transition so a camera that never sends is held to the
// same staleness deadline.
func (h *Hub) LastFrameAt(cameraID int64) (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.last[cameraID]
	return rec.at, ok
}

// Tap subscribes a raw frame channel for one camera. The returned cancel
// must be called when the consumer is done.
func (h *Hub) Tap(cameraID int64) (<-chan []byte, func()) {
	ch := make(chan []byte, 1)
	h.mu.Lock()
	if h.taps[cameraID] == nil {
		h.taps[cameraID] = make(map[chan []byte]struct{})
	}
	h.taps[cameraID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.taps[cameraID][ch]; ok {
				delete(h.taps[cameraID], ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// ViewerCount reports the number of connected viewers.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Stats reports delivered and dropped payload counts since start.
func (h *Hub) Stats() (delivered, dropped uint64) {
	return h.delivered.Load(), h.dropped.Load()
}
