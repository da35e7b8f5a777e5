package cameras

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentra-vms/sentra/internal/shared"
)

type memoryRepo struct {
	mu      sync.Mutex
	cameras map[int64]*Camera
	nextID  int64
	lists   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{cameras: map[int64]*Camera{}, nextID: 1}
}

func (m *memoryRepo) List(context.Context) ([]Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]Camera, 0, len(m.cameras))
	for _, c := range m.cameras {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memoryRepo) FindByID(_ context.Context, id int64) (*Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cameras[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *memoryRepo) Create(_ context.Context, c *Camera) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.cameras {
		if existing.Name == c.Name {
			return 0, shared.ErrDuplicate
		}
	}
	id := m.nextID
	m.nextID++
	clone := *c
	clone.ID = id
	clone.CreatedAt = time.Now()
	m.cameras[id] = &clone
	return id, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, input UpdateCameraInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cameras[id]
	if !ok {
		return shared.ErrNotFound
	}
	if input.Name != nil {
		c.Name = *input.Name
	}
	if input.Location != nil {
		c.Location = *input.Location
	}
	if input.SourceURL != nil {
		c.SourceURL = *input.SourceURL
	}
	return nil
}

func (m *memoryRepo) SetStatus(_ context.Context, id int64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cameras[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cameras[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.cameras, id)
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []Status
	detached []int64
}

func (n *recordingNotifier) NotifyStatus(_ int64, status Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, status)
}

func (n *recordingNotifier) DetachCamera(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.detached = append(n.detached, id)
}

type memoryAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func testService(t *testing.T) (*Service, *memoryRepo, *recordingNotifier, *memoryAudit) {
	t.Helper()
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	auditLog := &memoryAudit{}
	return NewService(repo, notifier, auditLog, slog.Default()), repo, notifier, auditLog
}

func TestCreateStartsClosed(t *testing.T) {
	svc, _, _, _ := testService(t)

	c, err := svc.Create(context.Background(), CreateCameraInput{Name: "lobby", Location: "ground floor", SourceURL: "rtsp://cams/lobby"})
	require.NoError(t, err)
	require.Equal(t, StatusClosed, c.Status)

	_, err = svc.Create(context.Background(), CreateCameraInput{Name: "lobby", SourceURL: "rtsp://cams/lobby2"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateRequiresNameAndSource(t *testing.T) {
	svc, _, _, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCameraInput{Name: "", SourceURL: "rtsp://cams/x"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, CreateCameraInput{Name: "lobby", SourceURL: ""})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestMutationsAreAudited(t *testing.T) {
	svc, _, _, auditLog := testService(t)
	ctx := shared.ContextWithSession(context.Background(),
		&shared.Session{UserID: 42, Username: "admin", Role: shared.RoleAdministrator})

	c, err := svc.Create(ctx, CreateCameraInput{Name: "dock", SourceURL: "rtsp://cams/dock"})
	require.NoError(t, err)

	name := "dock east"
	_, err = svc.Update(ctx, c.ID, UpdateCameraInput{Name: &name})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))

	require.Len(t, auditLog.logs, 3)
	actions := []string{auditLog.logs[0].Action, auditLog.logs[1].Action, auditLog.logs[2].Action}
	require.Equal(t, []string{"cameras:create", "cameras:update", "cameras:delete"}, actions)
	for _, entry := range auditLog.logs {
		require.Equal(t, int64(42), entry.ActorID)
		require.Equal(t, "camera", entry.Entity)
		require.NotEmpty(t, entry.EntityID)
	}
}

func TestOpenCloseBroadcastsTransitions(t *testing.T) {
	svc, _, notifier, _ := testService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateCameraInput{Name: "gate", SourceURL: "rtsp://cams/gate"})
	require.NoError(t, err)

	opened, err := svc.Open(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOpen, opened.Status)

	// Repeated open succeeds without a second broadcast.
	_, err = svc.Open(ctx, c.ID)
	require.NoError(t, err)

	closed, err := svc.Close(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Status)

	require.Equal(t, []Status{StatusOpen, StatusClosed}, notifier.statuses)
}

func TestOpenUnknownCamera(t *testing.T) {
	svc, _, _, _ := testService(t)
	_, err := svc.Open(context.Background(), 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteDetachesViewers(t *testing.T) {
	svc, _, notifier, _ := testService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateCameraInput{Name: "vault", SourceURL: "rtsp://cams/vault"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	require.Equal(t, []int64{c.ID}, notifier.detached)
	require.ErrorIs(t, svc.Delete(ctx, c.ID), shared.ErrNotFound)
}

func TestListCoalescesConcurrentCalls(t *testing.T) {
	svc, repo, _, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCameraInput{Name: "yard", SourceURL: "rtsp://cams/yard"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.List(ctx)
			require.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	repo.mu.Lock()
	lists := repo.lists
	repo.mu.Unlock()
	require.LessOrEqual(t, lists, 16)
	require.GreaterOrEqual(t, lists, 1)
}
