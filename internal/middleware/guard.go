// File: internal/middleware/guard.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/identity"
)

// SessionGuard protects API routes. It resolves the session token to a
// principal and stores the uid in the context, or aborts with 401.
func SessionGuard(provider identity.Provider, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		ident, err := provider.CurrentPrincipal(c.Request.Context(), token)
		if err != nil {
			logger.Debug("Session guard rejected request",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No está autenticado"})
			return
		}

		c.Set(common.UserUIDKey, ident.UID)
		c.Set(common.IdentityKey, ident)
		c.Next()
	}
}

// RequireSession protects page routes. Unauthenticated visitors are redirected
// to the login page instead of receiving a JSON error.
func RequireSession(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		ident, err := provider.CurrentPrincipal(c.Request.Context(), token)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		c.Set(common.UserUIDKey, ident.UID)
		c.Set(common.IdentityKey, ident)
		c.Next()
	}
}

// RedirectAuthenticated keeps signed-in users off public-only pages such as
// login and register by redirecting them to the home page.
func RedirectAuthenticated(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		if token == "" {
			c.Next()
			return
		}
		if _, err := provider.CurrentPrincipal(c.Request.Context(), token); err == nil {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentityFromContext retrieves the resolved identity stored by a guard.
func GetIdentityFromContext(c *gin.Context) *identity.Identity {
	val, exists := c.Get(common.IdentityKey)
	if !exists {
		return nil
	}
	ident, ok := val.(*identity.Identity)
	if !ok {
		return nil
	}
	return ident
}
