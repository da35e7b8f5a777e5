package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	rows       []TrailRow
	inserted   []TrailRow
	lastOffset int
	lastLimit  int
}

func (s *stubRepo) Insert(_ context.Context, videoURL, deletedBy string) error {
	s.inserted = append(s.inserted, TrailRow{VideoURL: videoURL, DeletedBy: deletedBy, DeletedAt: time.Now()})
	return nil
}

func (s *stubRepo) Window(_ context.Context, _ Filters, offset, limit int) ([]TrailRow, error) {
	s.lastOffset = offset
	s.lastLimit = limit
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func makeRows(n int) []TrailRow {
	rows := make([]TrailRow, n)
	for i := range rows {
		rows[i] = TrailRow{ID: int64(i + 1), VideoURL: "recordings/clip.mp4", DeletedBy: "admin"}
	}
	return rows
}

func TestTrailDefaultsAndProbeRow(t *testing.T) {
	repo := &stubRepo{rows: makeRows(25)}
	svc := NewService(repo)

	result, err := svc.Trail(context.Background(), Filters{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 20)
	require.Equal(t, 21, repo.lastLimit, "fetches one probe row past the page")
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Equal(t, 0, result.Paging.PrevPage)
}

func TestTrailLastPage(t *testing.T) {
	repo := &stubRepo{rows: makeRows(25)}
	svc := NewService(repo)

	result, err := svc.Trail(context.Background(), Filters{Page: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)
	require.Equal(t, 20, repo.lastOffset)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 1, result.Paging.PrevPage)
}

func TestTrailClampsPageSize(t *testing.T) {
	repo := &stubRepo{rows: makeRows(100)}
	svc := NewService(repo)

	result, err := svc.Trail(context.Background(), Filters{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, result.Rows, 50)
	require.Equal(t, 50, result.Paging.PageSize)
}

func TestRecord(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	require.NoError(t, svc.Record(context.Background(), "recordings/front.mp4", "admin"))
	require.Len(t, repo.inserted, 1)
	require.Equal(t, "recordings/front.mp4", repo.inserted[0].VideoURL)
	require.Equal(t, "admin", repo.inserted[0].DeletedBy)
}

func TestTrailWithoutRepository(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Trail(context.Background(), Filters{})
	require.Error(t, err)
	require.Error(t, svc.Record(context.Background(), "x", "y"))
}
