package audit

import (
	"context"
	"fmt"

	"github.com/sentra-vms/sentra/internal/shared"
)

// Service coordinates trail reads and writes.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one deletion to the trail.
func (s *Service) Record(ctx context.Context, videoURL, deletedBy string) error {
	if s.repo == nil {
		return fmt.Errorf("audit: repository not configured")
	}
	return s.repo.Insert(ctx, videoURL, deletedBy)
}

// Trail returns one page of deletions. One extra row is fetched to learn
// whether a next page exists without counting the table.
func (s *Service) Trail(ctx context.Context, filters Filters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	page, pageSize, offset := shared.PageWindow(filters.Page, filters.PageSize, 50)

	rows, err := s.repo.Window(ctx, filters, offset, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}
