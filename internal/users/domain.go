package users

import (
	"time"

	"github.com/sentra-vms/sentra/internal/shared"
)

// User is an operator account for the console.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         shared.Role
	FullName     string
	Email        string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserInput carries validated fields for account registration.
type CreateUserInput struct {
	Username string
	Password string
	Role     shared.Role
	FullName string
	Email    string
}

// UpdateUserInput carries mutable account fields. Nil pointers leave the
// stored value untouched.
type UpdateUserInput struct {
	FullName *string
	Email    *string
	Role     *shared.Role
	IsActive *bool
}
