package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/identity"
)

// stubProvider resolves exactly one session token to one identity. Only the
// session-resolution methods matter for the guards.
type stubProvider struct {
	token string
	ident *identity.Identity
}

func (s *stubProvider) CurrentPrincipal(ctx context.Context, sessionToken string) (*identity.Identity, error) {
	if s.ident != nil && sessionToken == s.token {
		return s.ident, nil
	}
	return nil, identity.ErrNoPrincipal
}

func (s *stubProvider) CreateIdentity(ctx context.Context, email, password string) (*identity.Identity, error) {
	return nil, identity.ErrNoPrincipal
}
func (s *stubProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	return nil
}
func (s *stubProvider) VerifyCredentials(ctx context.Context, email, password string) (*identity.Identity, string, error) {
	return nil, "", identity.ErrNoPrincipal
}
func (s *stubProvider) EndSession(ctx context.Context, sessionToken string) error   { return nil }
func (s *stubProvider) SendVerificationEmail(ctx context.Context, uid string) error { return nil }
func (s *stubProvider) SendPasswordReset(ctx context.Context, email string) error   { return nil }

func newGuardedRouter(provider identity.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/api/protected", SessionGuard(provider, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"uid":      common.GetUserUIDFromContext(c),
			"identity": GetIdentityFromContext(c),
		})
	})
	router.GET("/private", RequireSession(provider), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/public", RedirectAuthenticated(provider), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func get(router *gin.Engine, path, bearer string, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSessionGuard(t *testing.T) {
	provider := &stubProvider{token: "tok", ident: &identity.Identity{UID: "u1"}}
	router := newGuardedRouter(provider)

	t.Run("valid bearer token passes and fills the context", func(t *testing.T) {
		rec := get(router, "/api/protected", "tok", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"uid":"u1"`)
	})

	t.Run("missing token aborts with 401", func(t *testing.T) {
		rec := get(router, "/api/protected", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "No está autenticado")
	})

	t.Run("unknown token aborts with 401", func(t *testing.T) {
		rec := get(router, "/api/protected", "forged", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("session cookie is accepted", func(t *testing.T) {
		rec := get(router, "/api/protected", "", "tok")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireSession(t *testing.T) {
	provider := &stubProvider{token: "tok", ident: &identity.Identity{UID: "u1"}}
	router := newGuardedRouter(provider)

	rec := get(router, "/private", "", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = get(router, "/private", "tok", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedirectAuthenticated(t *testing.T) {
	provider := &stubProvider{token: "tok", ident: &identity.Identity{UID: "u1"}}
	router := newGuardedRouter(provider)

	rec := get(router, "/public", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(router, "/public", "tok", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// A stale token does not bounce the visitor away from the public page.
	rec = get(router, "/public", "stale", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
