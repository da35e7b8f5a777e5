package cameras

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/sentra-vms/sentra/internal/shared"
)

// StatusNotifier receives registry state changes so connected viewers learn
// about them without polling.
type StatusNotifier interface {
	NotifyStatus(cameraID int64, status Status)
	DetachCamera(cameraID int64)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyStatus(int64, Status) {}
func (NopNotifier) DetachCamera(int64)         {}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles camera registry business logic.
type Service struct {
	repo     Repository
	notifier StatusNotifier
	audit    AuditPort
	logger   *slog.Logger
	group    singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo Repository, notifier StatusNotifier, audit AuditPort, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{repo: repo, notifier: notifier, audit: audit, logger: logger}
}

func (s *Service) recordAudit(ctx context.Context, action string, cameraID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if sess := shared.SessionFromContext(ctx); sess != nil {
		actorID = sess.UserID
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "cameras:" + action,
		Entity:   "camera",
		EntityID: strconv.FormatInt(cameraID, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}

// List returns all cameras. Concurrent callers share one registry query.
func (s *Service) List(ctx context.Context) ([]Camera, error) {
	v, err, _ := s.group.Do("cameras:list", func() (any, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Camera), nil
}

// Get returns one camera.
func (s *Service) Get(ctx context.Context, id int64) (*Camera, error) {
	return s.repo.FindByID(ctx, id)
}

// Create registers a camera in the closed state.
func (s *Service) Create(ctx context.Context, input CreateCameraInput) (*Camera, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("camera name required: %w", shared.ErrValidation)
	}
	if input.SourceURL == "" {
		return nil, fmt.Errorf("camera source URI required: %w", shared.ErrValidation)
	}
	c := &Camera{
		Name:      input.Name,
		Location:  input.Location,
		SourceURL: input.SourceURL,
		Status:    StatusClosed,
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	s.logger.Info("camera registered", slog.Int64("camera_id", id), slog.String("name", c.Name))
	s.recordAudit(ctx, "create", id, map[string]any{"name": c.Name, "source_url": c.SourceURL})
	return s.repo.FindByID(ctx, id)
}

// Update applies registry changes.
func (s *Service) Update(ctx context.Context, id int64, input UpdateCameraInput) (*Camera, error) {
	if err := s.repo.Update(ctx, id, input); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "update", id, nil)
	return s.repo.FindByID(ctx, id)
}

// Open marks a camera as streaming and broadcasts the transition. Opening an
// already open camera is a no-op that still reports success so retried
// requests converge.
func (s *Service) Open(ctx context.Context, id int64) (*Camera, error) {
	return s.transition(ctx, id, StatusOpen)
}

// Close stops a camera feed and broadcasts the transition.
func (s *Service) Close(ctx context.Context, id int64) (*Camera, error) {
	return s.transition(ctx, id, StatusClosed)
}

// MarkUnavailable flags a camera whose source stopped responding.
func (s *Service) MarkUnavailable(ctx context.Context, id int64) (*Camera, error) {
	return s.transition(ctx, id, StatusUnavailable)
}

func (s *Service) transition(ctx context.Context, id int64, status Status) (*Camera, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == status {
		return c, nil
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	c.Status = status
	s.notifier.NotifyStatus(id, status)
	s.logger.Info("camera status changed",
		slog.Int64("camera_id", id),
		slog.String("status", string(status)))
	return c, nil
}

// Delete removes a camera and disconnects any viewers subscribed to it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.DetachCamera(id)
	s.logger.Info("camera deleted", slog.Int64("camera_id", id))
	s.recordAudit(ctx, "delete", id, nil)
	return nil
}
