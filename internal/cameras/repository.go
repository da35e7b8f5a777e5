package cameras

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentra-vms/sentra/internal/shared"
)

// Repository defines data access for the camera registry.
type Repository interface {
	List(ctx context.Context) ([]Camera, error)
	FindByID(ctx context.Context, id int64) (*Camera, error)
	Create(ctx context.Context, c *Camera) (int64, error)
	Update(ctx context.Context, id int64, input UpdateCameraInput) error
	SetStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const cameraColumns = `id, name, location, source_url, status, created_at, updated_at`

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

func scanCamera(row pgx.Row) (*Camera, error) {
	var c Camera
	var status string
	if err := row.Scan(&c.ID, &c.Name, &c.Location, &c.SourceURL, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

// List returns all cameras ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]Camera, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cameraColumns+` FROM cameras ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var out []Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// FindByID returns one camera or shared.ErrNotFound.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Camera, error) {
	c, err := scanCamera(r.pool.QueryRow(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find camera %d: %w", id, err)
	}
	return c, nil
}

// Create inserts a camera. A name collision maps to shared.ErrDuplicate.
func (r *PGRepository) Create(ctx context.Context, c *Camera) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cameras (name, location, source_url, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.Name, c.Location, c.SourceURL, string(StatusClosed)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "uq_cameras_name") {
			return 0, shared.ErrDuplicate
		}
		return 0, fmt.Errorf("create camera: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of input.
func (r *PGRepository) Update(ctx context.Context, id int64, input UpdateCameraInput) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cameras SET
			name       = COALESCE($2, name),
			location   = COALESCE($3, location),
			source_url = COALESCE($4, source_url),
			updated_at = NOW()
		WHERE id = $1
	`, id, input.Name, input.Location, input.SourceURL)
	if err != nil {
		if isUniqueViolation(err, "uq_cameras_name") {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("update camera %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetStatus records the current feed state.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cameras SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("set camera %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a camera.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cameras WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete camera %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
