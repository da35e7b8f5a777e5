package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/sentra-vms/sentra/internal/shared"
)

// ErrRegistrationDenied signals the actor may not create an account with the
// requested role.
var ErrRegistrationDenied = fmt.Errorf("registration denied: %w", shared.ErrForbiddenAction)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles account business logic.
type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Session, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   "users:" + action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("record audit log", slog.Any("error", err))
	}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// Register creates an account on behalf of actor. Administrators may create
// accounts of any role; assistant administrators may only create security
// staff accounts.
func (s *Service) Register(ctx context.Context, actor shared.Session, input CreateUserInput) (*User, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", input.Role, shared.ErrValidation)
	}
	switch actor.Role {
	case shared.RoleAdministrator:
	case shared.RoleAssistantAdministrator:
		if input.Role != shared.RoleSecurityStaff {
			return nil, ErrRegistrationDenied
		}
	default:
		return nil, ErrRegistrationDenied
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         input.Role,
		FullName:     input.FullName,
		Email:        input.Email,
		IsActive:     true,
	}
	id, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id
	s.logger.Info("user registered",
		slog.String("username", u.Username),
		slog.String("role", string(u.Role)),
		slog.String("actor", actor.Username))
	s.recordAudit(ctx, actor, "register", id, map[string]any{"username": u.Username, "role": string(u.Role)})
	return u, nil
}

// Update applies account changes. Only administrators may change roles or
// deactivate accounts.
func (s *Service) Update(ctx context.Context, actor shared.Session, id int64, input UpdateUserInput) (*User, error) {
	if (input.Role != nil || input.IsActive != nil) && actor.Role != shared.RoleAdministrator {
		return nil, shared.ErrForbiddenAction
	}
	if input.Role != nil && !input.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", *input.Role, shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, id, input); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "update", id, nil)
	return s.repo.FindByID(ctx, id)
}

// Delete removes an account. Self-deletion is refused so the console cannot
// be locked out by its last administrator.
func (s *Service) Delete(ctx context.Context, actor shared.Session, id int64) error {
	if actor.UserID == id {
		return shared.ErrForbiddenAction
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.Int64("user_id", id), slog.String("actor", actor.Username))
	s.recordAudit(ctx, actor, "delete", id, nil)
	return nil
}

// Profile returns the actor's own account.
func (s *Service) Profile(ctx context.Context, actor shared.Session) (*User, error) {
	return s.repo.FindByUsername(ctx, actor.Username)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, actor shared.Session, current, next string) error {
	u, err := s.repo.FindByUsername(ctx, actor.Username)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "change-password", u.ID, nil)
	return nil
}
