package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/internal/rbac"
	"github.com/innkeep/innkeep/internal/session"
)

type recordingObserver struct{ decisions []string }

func (o *recordingObserver) ObserveGuard(decision string) {
	o.decisions = append(o.decisions, decision)
}

type roleAuth string

func (r roleAuth) Authenticate(_ context.Context, email, _ string) (session.Identity, error) {
	return session.Identity{ID: "7", Email: email, RoleID: string(r)}, nil
}

func holderFor(t *testing.T, roleID string) *session.Holder {
	t.Helper()
	h, err := session.NewHolder(session.Config{
		Store:         session.NewMemoryStore(),
		Authenticator: roleAuth(roleID),
		Roles:         rbac.DefaultRegistry(rbac.DefaultCatalog()),
	})
	require.NoError(t, err)
	if roleID == "" {
		h.Restore(context.Background())
		return h
	}
	require.True(t, h.Login(context.Background(), "staff@x.com", "pw"))
	return h
}

func serve(mw func(http.Handler) http.Handler, h *session.Holder) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/finance", nil)
	if h != nil {
		req = req.WithContext(session.ContextWithHolder(req.Context(), h))
	}
	res := httptest.NewRecorder()
	mw(next).ServeHTTP(res, req)
	return res
}

func TestMiddlewareGrantsAndDenies(t *testing.T) {
	obs := &recordingObserver{}
	m := Middleware{Observer: obs}

	res := serve(m.RequireAny(rbac.PermFinanceView), holderFor(t, rbac.RoleAccountant))
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = serve(m.RequireAll(rbac.PermBookingsView, rbac.PermFinanceView), holderFor(t, rbac.RoleReceptionist))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "Access Denied")

	assert.Equal(t, []string{"granted", "denied"}, obs.decisions)
}

func TestMiddlewareUnauthenticated(t *testing.T) {
	m := Middleware{}

	res := serve(m.RequireAny(rbac.PermFinanceView), holderFor(t, ""))
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = serve(m.RequireAny(rbac.PermFinanceView), nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMiddlewareNormalizesPermissions(t *testing.T) {
	m := Middleware{}
	res := serve(m.RequireAll(" Finance.View ", "finance.view", ""), holderFor(t, rbac.RoleAccountant))
	assert.Equal(t, http.StatusNoContent, res.Code)

	assert.Equal(t, []string{"finance.view"}, normalizePermissions([]string{" Finance.View ", "finance.view", ""}))
}

func TestMiddlewareCustomFallback(t *testing.T) {
	m := Middleware{}
	g := Guard{
		Requirement: Requirement{Permission: rbac.PermUsersDelete},
		Fallback:    &Fallback{Title: "Owners only", Message: "Only owners can remove staff."},
	}
	res := serve(m.Require(g), holderFor(t, rbac.RoleManager))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "Owners only")
}
