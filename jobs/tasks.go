package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sentra-vms/sentra/internal/jobs"
	"github.com/sentra-vms/sentra/internal/recordings"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyAlert is the task type for operator notifications.
	TaskTypeNotifyAlert = "notify:alert"
	// TaskTypeRecordingsCleanup is the task type for retention sweeps.
	TaskTypeRecordingsCleanup = "recordings:cleanup"
)

// NotifyAlertPayload describes an operator notification.
type NotifyAlertPayload struct {
	CameraID int64  `json:"camera_id"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// NewNotifyAlertTask constructs an Asynq task.
func NewNotifyAlertTask(payload NotifyAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyAlert, data), nil
}

// NewRecordingsCleanupTask constructs the retention sweep task.
func NewRecordingsCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeRecordingsCleanup, nil)
}

// NewNotifyAlertHandler returns the handler for TaskTypeNotifyAlert. With no
// webhook configured the alert is only logged.
func NewNotifyAlertHandler(logger *slog.Logger, webhookURL string) asynq.HandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}
	metrics := jobmetrics.NewMetrics(nil)
	deliver := func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyAlertPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("alert",
			slog.Int64("camera_id", payload.CameraID),
			slog.String("kind", payload.Kind),
			slog.String("message", payload.Message))
		if webhookURL == "" {
			return nil
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return asynq.SkipRetry
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook responded %d", resp.StatusCode)
		}
		return nil
	}
	return func(ctx context.Context, t *asynq.Task) error {
		return metrics.Track(TaskTypeNotifyAlert).End(deliver(ctx, t))
	}
}

// NewRecordingsCleanupHandler returns the retention sweep handler.
func NewRecordingsCleanupHandler(logger *slog.Logger, svc *recordings.Service, retention time.Duration) asynq.HandlerFunc {
	metrics := jobmetrics.NewMetrics(nil)
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeRecordingsCleanup)
		count, err := svc.Expire(ctx, retention)
		if err != nil {
			return tracker.End(fmt.Errorf("retention sweep: %w", err))
		}
		logger.Info("retention sweep finished", slog.Int("expired", count))
		return tracker.End(nil)
	}
}
