// File: internal/identity/provider.go
package identity

import (
	"context"
)

// Identity is the authentication provider's record of a principal. The
// application treats it as opaque and immutable except DisplayName, which is set
// once at registration.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"-"`
}

// Provider is the capability interface over the identity backend. Both the
// Firebase-backed and the SQL-backed implementations satisfy it, so the auth
// controller never touches provider specifics.
//
// Every failure is a *Failure; session-resolution misses are ErrNoPrincipal.
type Provider interface {
	// CreateIdentity registers a new principal with email/password credentials.
	CreateIdentity(ctx context.Context, email, password string) (*Identity, error)

	// UpdateDisplayName sets the display name on an existing identity.
	UpdateDisplayName(ctx context.Context, uid, displayName string) error

	// VerifyCredentials checks an email/password pair and, on success, returns
	// the identity together with a session token for subsequent requests.
	VerifyCredentials(ctx context.Context, email, password string) (*Identity, string, error)

	// CurrentPrincipal resolves a session token to its identity, or ErrNoPrincipal.
	CurrentPrincipal(ctx context.Context, sessionToken string) (*Identity, error)

	// EndSession invalidates the session referenced by the token.
	EndSession(ctx context.Context, sessionToken string) error

	// SendVerificationEmail dispatches an email-verification message for the uid.
	SendVerificationEmail(ctx context.Context, uid string) error

	// SendPasswordReset dispatches a password-recovery message to the email.
	SendPasswordReset(ctx context.Context, email string) error
}

// EmailVerifier is implemented by providers that manage their own verification
// tokens (the SQL provider). Firebase handles verification links itself.
type EmailVerifier interface {
	MarkEmailVerified(ctx context.Context, verificationToken string) error
}

// SessionJanitor is implemented by providers that keep local session or
// verification state needing periodic cleanup.
type SessionJanitor interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
