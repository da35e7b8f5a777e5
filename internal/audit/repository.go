package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access for the deletion trail.
type Repository interface {
	Insert(ctx context.Context, videoURL, deletedBy string) error
	Window(ctx context.Context, filters Filters, offset, limit int) ([]TrailRow, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert records one deletion.
func (r *PGRepository) Insert(ctx context.Context, videoURL, deletedBy string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO video_audit_trail (video_url, deleted_by, deleted_at)
		VALUES ($1, $2, NOW())
	`, videoURL, deletedBy)
	if err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}
	return nil
}

// Window returns one page of the trail, newest first. NULL filter arguments
// are skipped inside the query so one statement serves every combination.
func (r *PGRepository) Window(ctx context.Context, filters Filters, offset, limit int) ([]TrailRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, video_url, deleted_by, deleted_at
		FROM video_audit_trail
		WHERE ($1::timestamptz IS NULL OR deleted_at >= $1)
		  AND ($2::timestamptz IS NULL OR deleted_at <= $2)
		  AND ($3::text IS NULL OR deleted_by = $3)
		ORDER BY deleted_at DESC, id DESC
		OFFSET $4 LIMIT $5
	`, optionalTime(filters.From), optionalTime(filters.To), optionalText(filters.Actor), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("audit window: %w", err)
	}
	defer rows.Close()

	var out []TrailRow
	for rows.Next() {
		var row TrailRow
		if err := rows.Scan(&row.ID, &row.VideoURL, &row.DeletedBy, &row.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
