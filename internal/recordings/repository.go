package recordings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentra-vms/sentra/internal/shared"
)

// Repository defines data access for stored clips.
type Repository interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]Recording, error)
	FindByURL(ctx context.Context, url string) (*Recording, error)
	Create(ctx context.Context, rec *Recording) (int64, error)
	DeleteByURL(ctx context.Context, url string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const recordingColumns = `id, camera_id, url, size_bytes, recorded_at, created_at`

func scanRecording(row pgx.Row) (*Recording, error) {
	var rec Recording
	if err := row.Scan(&rec.ID, &rec.CameraID, &rec.URL, &rec.SizeBytes, &rec.RecordedAt, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListBetween returns clips recorded inside the window, newest first.
func (r *PGRepository) ListBetween(ctx context.Context, from, to time.Time) ([]Recording, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordingColumns+`
		FROM recordings
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// FindByURL returns one clip or shared.ErrNotFound.
func (r *PGRepository) FindByURL(ctx context.Context, url string) (*Recording, error) {
	rec, err := scanRecording(r.pool.QueryRow(ctx, `SELECT `+recordingColumns+` FROM recordings WHERE url = $1`, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find recording %q: %w", url, err)
	}
	return rec, nil
}

// Create inserts a clip row.
func (r *PGRepository) Create(ctx context.Context, rec *Recording) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO recordings (camera_id, url, size_bytes, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, rec.CameraID, rec.URL, rec.SizeBytes, rec.RecordedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create recording: %w", err)
	}
	return id, nil
}

// DeleteByURL removes one clip row.
func (r *PGRepository) DeleteByURL(ctx context.Context, url string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recordings WHERE url = $1`, url)
	if err != nil {
		return fmt.Errorf("delete recording %q: %w", url, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes expired clips and returns their URLs so storage
// and the audit trail can follow.
func (r *PGRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM recordings WHERE recorded_at < $1 RETURNING url`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire recordings: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
