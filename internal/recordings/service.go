package recordings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentra-vms/sentra/internal/shared"
)

// Trail records deletions so they show up in the audit trail.
type Trail interface {
	Record(ctx context.Context, videoURL, deletedBy string) error
}

// Service handles recorded video business logic.
type Service struct {
	repo   Repository
	trail  Trail
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, trail Trail, logger *slog.Logger) *Service {
	return &Service{repo: repo, trail: trail, logger: logger}
}

// ListBetween returns clips recorded inside the inclusive date window.
func (s *Service) ListBetween(ctx context.Context, from, to time.Time) ([]Recording, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("end date precedes start date: %w", shared.ErrValidation)
	}
	return s.repo.ListBetween(ctx, from, to)
}

// Add registers a stored clip.
func (s *Service) Add(ctx context.Context, rec *Recording) (int64, error) {
	if rec.URL == "" {
		return 0, fmt.Errorf("recording url required: %w", shared.ErrValidation)
	}
	return s.repo.Create(ctx, rec)
}

// Delete removes one clip and writes the deletion to the audit trail. The
// trail row is written first so a crash between the two never loses the
// evidence of who asked.
func (s *Service) Delete(ctx context.Context, actor shared.Session, url string) error {
	if _, err := s.repo.FindByURL(ctx, url); err != nil {
		return err
	}
	if err := s.trail.Record(ctx, url, actor.Username); err != nil {
		return fmt.Errorf("record deletion: %w", err)
	}
	if err := s.repo.DeleteByURL(ctx, url); err != nil {
		return err
	}
	s.logger.Info("recording deleted",
		slog.String("url", url),
		slog.String("actor", actor.Username))
	return nil
}

// Expire removes clips older than the retention cutoff, auditing each one
// under the system actor.
func (s *Service) Expire(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	urls, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, url := range urls {
		if err := s.trail.Record(ctx, url, "system:retention"); err != nil {
			s.logger.Warn("audit retention deletion", slog.String("url", url), slog.Any("error", err))
		}
	}
	if len(urls) > 0 {
		s.logger.Info("recordings expired", slog.Int("count", len(urls)))
	}
	return len(urls), nil
}
