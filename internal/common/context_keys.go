// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// SessionCookieName is the cookie the page guards fall back to when no header is present
	SessionCookieName = "session"
	// IdentityKey is the context key for storing the authenticated identity
	IdentityKey = "identity"
	// UserUIDKey is the context key for storing the authenticated user's uid
	UserUIDKey = "userUID"
)
