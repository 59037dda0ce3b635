package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/internal/rbac"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m, err := NewManager(ManagerConfig{
		Store:         NewRedisStore(client, time.Hour),
		Authenticator: ownerAuth(),
		Roles:         rbac.DefaultRegistry(rbac.DefaultCatalog()),
		Logger:        discardLogger(),
		CookieName:    "test_session",
		TTL:           time.Hour,
	})
	require.NoError(t, err)
	return m, mr
}

func TestManagerLoginCookieRestore(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	h, err := m.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusUnauthenticated, h.Status())
	assert.Empty(t, mr.Keys())

	require.True(t, h.Login(ctx, "john@x.com", "pw"))
	res := httptest.NewRecorder()
	m.Commit(res, req, h)

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "test_session", cookies[0].Name)
	assert.Equal(t, h.ID(), cookies[0].Value)
	assert.True(t, mr.Exists(recordKey(h.ID())))

	next := httptest.NewRequest(http.MethodGet, "/roles", nil)
	next.AddCookie(cookies[0])
	restored, err := m.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, restored.Status())
	assert.True(t, restored.HasPermission(rbac.PermRolesManage))
}

func TestManagerLogoutExpiresCookie(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)

	h, err := m.Load(ctx, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	require.NoError(t, err)
	require.True(t, h.Login(ctx, "john@x.com", "pw"))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: h.ID()})
	loaded, err := m.Load(ctx, req)
	require.NoError(t, err)
	loaded.Logout(ctx)

	res := httptest.NewRecorder()
	m.Commit(res, req, loaded)
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.False(t, mr.Exists(recordKey(h.ID())))
}

func TestManagerIgnoresForgedCookie(t *testing.T) {
	m, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: "../../etc"})
	h, err := m.Load(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusUnauthenticated, h.Status())
	assert.NotEqual(t, "../../etc", h.ID())
}

func TestManagerCorruptRecordIsUnauthenticated(t *testing.T) {
	m, mr := newTestManager(t)
	id := "5f0c6a43-61a4-4c57-9d0d-1ee7c8a1a111"
	require.NoError(t, mr.Set(recordKey(id), "{truncated"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: id})
	h, err := m.Load(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusUnauthenticated, h.Status())
	assert.False(t, mr.Exists(recordKey(id)))
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(ManagerConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewManager(ManagerConfig{
		Store:         NewMemoryStore(),
		Authenticator: ownerAuth(),
		Roles:         rbac.DefaultRegistry(rbac.DefaultCatalog()),
	})
	assert.Error(t, err)
}

func TestManagerRotatesIDOnLogin(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)
	planted := "11111111-2222-4333-8444-555555555555"

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: planted})
	h, err := m.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, planted, h.ID())

	require.True(t, h.Login(ctx, "john@x.com", "pw"))
	assert.NotEqual(t, planted, h.ID())
	assert.False(t, mr.Exists(recordKey(planted)))
	assert.True(t, mr.Exists(recordKey(h.ID())))

	res := httptest.NewRecorder()
	m.Commit(res, req, h)
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, h.ID(), cookies[0].Value)

	replay := httptest.NewRequest(http.MethodGet, "/roles", nil)
	replay.AddCookie(&http.Cookie{Name: m.CookieName(), Value: planted})
	other, err := m.Load(ctx, replay)
	require.NoError(t, err)
	assert.Equal(t, StatusUnauthenticated, other.Status())
	assert.False(t, other.HasPermission(rbac.PermUsersDelete))
}

func TestManagerReloginDropsPreviousRecord(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)

	first, err := m.Load(ctx, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	require.NoError(t, err)
	require.True(t, first.Login(ctx, "john@x.com", "pw"))
	oldID := first.ID()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: oldID})
	again, err := m.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, again.Status())
	require.True(t, again.Login(ctx, "john@x.com", "pw"))

	assert.NotEqual(t, oldID, again.ID())
	assert.False(t, mr.Exists(recordKey(oldID)))
	assert.True(t, mr.Exists(recordKey(again.ID())))
}

type switchableStore struct {
	Store
	down atomic.Bool
}

func (s *switchableStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.down.Load() {
		return nil, errors.New("connection refused")
	}
	return s.Store.Load(ctx, key)
}

func TestManagerStoreOutageKeepsCookie(t *testing.T) {
	ctx := context.Background()
	store := &switchableStore{Store: NewMemoryStore()}
	m, err := NewManager(ManagerConfig{
		Store:         store,
		Authenticator: ownerAuth(),
		Roles:         rbac.DefaultRegistry(rbac.DefaultCatalog()),
		Logger:        discardLogger(),
		CookieName:    "test_session",
		TTL:           time.Hour,
	})
	require.NoError(t, err)

	h, err := m.Load(ctx, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	require.NoError(t, err)
	require.True(t, h.Login(ctx, "john@x.com", "pw"))
	cookie := &http.Cookie{Name: m.CookieName(), Value: h.ID()}

	store.down.Store(true)
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.AddCookie(cookie)
	_, err = m.Load(ctx, req)
	require.Error(t, err)

	called := false
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Empty(t, res.Result().Cookies())

	store.down.Store(false)
	restored, err := m.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, restored.Status())
}

type gatedStore struct {
	Store
	gate    chan struct{}
	started chan context.Context
	once    sync.Once
}

func (s *gatedStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.once.Do(func() { s.started <- ctx })
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Store.Load(ctx, key)
}

func TestSharedLoadSurvivesCallerCancel(t *testing.T) {
	mem := NewMemoryStore()
	require.NoError(t, mem.Save(context.Background(), "k", []byte("v")))
	store := &gatedStore{Store: mem, gate: make(chan struct{}), started: make(chan context.Context, 1)}
	loads := &sharedLoads{Store: store}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := loads.Load(ctx, "k")
		firstErr <- err
	}()
	backendCtx := <-store.started

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.NoError(t, backendCtx.Err())

	close(store.gate)
	data, err := loads.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}
