package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/sentra-vms/sentra/internal/cameras"
)

// Monitor watches open cameras and flags the ones that stop producing
// frames. The deadline is measured from the last frame, or from the open
// transition for a camera that never sent one.
type Monitor struct {
	logger     *slog.Logger
	hub        *Hub
	cameras    *cameras.Service
	staleAfter time.Duration
}

// NewMonitor constructs a Monitor instance.
func NewMonitor(logger *slog.Logger, hub *Hub, cameraService *cameras.Service, staleAfter time.Duration) *Monitor {
	return &Monitor{
		logger:     logger,
		hub:        hub,
		cameras:    cameraService,
		staleAfter: staleAfter,
	}
}

// Run blocks until ctx is cancelled, sweeping at half the staleness window.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.staleAfter / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	list, err := m.cameras.List(ctx)
	if err != nil {
		m.logger.Warn("staleness sweep failed", slog.Any("error", err))
		return
	}
	now := time.Now()
	for _, cam := range list {
		if cam.Status != cameras.StatusOpen {
			continue
		}
		at, ok := m.hub.LastFrameAt(cam.ID)
		if !ok {
			// Opened before this process started; begin the clock now.
			m.hub.MarkActive(cam.ID)
			continue
		}
		if now.Sub(at) < m.staleAfter {
			continue
		}
		m.logger.Warn("camera feed stale",
			slog.Int64("camera_id", cam.ID),
			slog.Duration("since_last_frame", now.Sub(at)))
		if _, err := m.cameras.MarkUnavailable(ctx, cam.ID); err != nil {
			m.logger.Error("mark unavailable", slog.Int64("camera_id", cam.ID), slog.Any("error", err))
		}
	}
}
