package cameras

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_cameras_name"}

	require.True(t, isUniqueViolation(dup, "uq_cameras_name"))
	require.True(t, isUniqueViolation(fmt.Errorf("create camera: %w", dup), "uq_cameras_name"),
		"wrapped driver errors must still map to a duplicate")

	require.False(t, isUniqueViolation(dup, "uq_users_username"))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "uq_cameras_name"}, "uq_cameras_name"))
	require.False(t, isUniqueViolation(fmt.Errorf("plain failure"), "uq_cameras_name"))
}
