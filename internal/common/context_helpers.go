// File: internal/common/context_helpers.go
package common

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// GetTokenFromContext retrieves the session token from the Authorization header,
// falling back to the session cookie. Returns an empty string if neither is set.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], AuthorizationTypeBearer) {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// GetUserUIDFromContext retrieves the authenticated uid from the Gin context.
func GetUserUIDFromContext(c *gin.Context) string {
	val, exists := c.Get(UserUIDKey)
	if !exists {
		return ""
	}
	uid, ok := val.(string)
	if !ok {
		return ""
	}
	return uid
}
