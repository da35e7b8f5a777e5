package users

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sentra-vms/sentra/internal/shared"
)

type memoryRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[int64]*User{}, nextID: 1}
}

func (m *memoryRepo) List(context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memoryRepo) FindByID(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memoryRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) Create(_ context.Context, u *User) (int64, error) {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return 0, shared.ErrDuplicate
		}
	}
	id := m.nextID
	m.nextID++
	clone := *u
	clone.ID = id
	m.users[id] = &clone
	return id, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, input UpdateUserInput) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	if input.FullName != nil {
		u.FullName = *input.FullName
	}
	if input.Email != nil {
		u.Email = *input.Email
	}
	if input.Role != nil {
		u.Role = *input.Role
	}
	if input.IsActive != nil {
		u.IsActive = *input.IsActive
	}
	return nil
}

func (m *memoryRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func testService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	return NewService(repo, &memoryAudit{}, slog.Default()), repo
}

func adminSession() shared.Session {
	return shared.Session{UserID: 99, Username: "root-admin", Role: shared.RoleAdministrator}
}

func assistantSession() shared.Session {
	return shared.Session{UserID: 98, Username: "assistant", Role: shared.RoleAssistantAdministrator}
}

func TestRegisterAdministratorCreatesAnyRole(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	for _, role := range shared.Roles() {
		u, err := svc.Register(ctx, adminSession(), CreateUserInput{
			Username: "user-" + string(role),
			Password: "strongpass1",
			Role:     role,
		})
		require.NoError(t, err)
		require.Equal(t, role, u.Role)
		require.True(t, u.IsActive)
	}
}

func TestRegisterAssistantLimitedToSecurityStaff(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, assistantSession(), CreateUserInput{
		Username: "guard1",
		Password: "strongpass1",
		Role:     shared.RoleSecurityStaff,
	})
	require.NoError(t, err)
	require.Equal(t, shared.RoleSecurityStaff, u.Role)

	_, err = svc.Register(ctx, assistantSession(), CreateUserInput{
		Username: "admin2",
		Password: "strongpass1",
		Role:     shared.RoleAdministrator,
	})
	require.ErrorIs(t, err, ErrRegistrationDenied)
}

func TestRegisterSecurityStaffDenied(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Register(context.Background(), shared.Session{Role: shared.RoleSecurityStaff}, CreateUserInput{
		Username: "guard2",
		Password: "strongpass1",
		Role:     shared.RoleSecurityStaff,
	})
	require.ErrorIs(t, err, ErrRegistrationDenied)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, adminSession(), CreateUserInput{
		Username: "taken",
		Password: "strongpass1",
		Role:     shared.RoleSecurityStaff,
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, adminSession(), CreateUserInput{
		Username: "taken",
		Password: "strongpass1",
		Role:     shared.RoleSecurityStaff,
	})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateRoleRequiresAdministrator(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()
	repo.users[1] = &User{ID: 1, Username: "guard3", Role: shared.RoleSecurityStaff, IsActive: true}

	role := shared.RoleAssistantAdministrator
	_, err := svc.Update(ctx, assistantSession(), 1, UpdateUserInput{Role: &role})
	require.ErrorIs(t, err, shared.ErrForbiddenAction)

	u, err := svc.Update(ctx, adminSession(), 1, UpdateUserInput{Role: &role})
	require.NoError(t, err)
	require.Equal(t, role, u.Role)
}

func TestDeleteRefusesSelf(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()
	actor := adminSession()
	repo.users[actor.UserID] = &User{ID: actor.UserID, Username: actor.Username, Role: actor.Role}
	repo.users[5] = &User{ID: 5, Username: "guard4", Role: shared.RoleSecurityStaff}

	require.ErrorIs(t, svc.Delete(ctx, actor, actor.UserID), shared.ErrForbiddenAction)
	require.NoError(t, svc.Delete(ctx, actor, 5))
	require.ErrorIs(t, svc.Delete(ctx, actor, 5), shared.ErrNotFound)
}

func TestAccountMutationsAreAudited(t *testing.T) {
	repo := newMemoryRepo()
	auditLog := &memoryAudit{}
	svc := NewService(repo, auditLog, slog.Default())
	ctx := context.Background()
	actor := adminSession()

	u, err := svc.Register(ctx, actor, CreateUserInput{
		Username: "guard5",
		Password: "strongpass1",
		Role:     shared.RoleSecurityStaff,
	})
	require.NoError(t, err)

	active := false
	_, err = svc.Update(ctx, actor, u.ID, UpdateUserInput{IsActive: &active})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, actor, u.ID))

	require.Len(t, auditLog.logs, 3)
	require.Equal(t, "users:register", auditLog.logs[0].Action)
	require.Equal(t, "users:update", auditLog.logs[1].Action)
	require.Equal(t, "users:delete", auditLog.logs[2].Action)
	for _, entry := range auditLog.logs {
		require.Equal(t, actor.UserID, entry.ActorID)
		require.Equal(t, "user", entry.Entity)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users[7] = &User{ID: 7, Username: "operator", PasswordHash: string(hash), Role: shared.RoleSecurityStaff}
	actor := shared.Session{UserID: 7, Username: "operator", Role: shared.RoleSecurityStaff}

	require.ErrorIs(t, svc.ChangePassword(ctx, actor, "wrong", "new-secret-1"), shared.ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, actor, "old-secret", "new-secret-1"))

	stored := repo.users[7].PasswordHash
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("new-secret-1")))
}
