package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingmatch/ping/internal/auth"
	"github.com/pingmatch/ping/internal/db"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	p := auth.Principal{UserID: 42, Email: "glow@test.com", Role: db.RoleBusiness}

	token, err := auth.IssueToken(testSecret, p, time.Hour)
	require.NoError(t, err)

	parsed, err := auth.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, p, *parsed)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := auth.IssueToken(testSecret, auth.Principal{UserID: 1}, time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	token, err := auth.IssueToken(testSecret, auth.Principal{UserID: 1}, -time.Minute)
	require.NoError(t, err)

	_, err = auth.ParseToken(testSecret, token)
	assert.Error(t, err)
}

func protectedHandler(t *testing.T, want uint64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFrom(r.Context())
		require.True(t, ok)
		assert.Equal(t, want, p.UserID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddlewareInjectsPrincipal(t *testing.T) {
	token, err := auth.IssueToken(testSecret, auth.Principal{UserID: 7, Role: db.RoleInfluencer}, time.Hour)
	require.NoError(t, err)

	handler := auth.Middleware(testSecret)(protectedHandler(t, 7))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareRejectsMissingOrBadCookie(t *testing.T) {
	handler := auth.Middleware(testSecret)(protectedHandler(t, 0))

	// no cookie
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// garbage cookie
	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "garbage"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	adminToken, err := auth.IssueToken(testSecret, auth.Principal{UserID: 1, Role: db.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	bizToken, err := auth.IssueToken(testSecret, auth.Principal{UserID: 2, Role: db.RoleBusiness}, time.Hour)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := auth.Middleware(testSecret)(auth.RequireRole(db.RoleAdmin)(ok))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: adminToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: bizToken})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
