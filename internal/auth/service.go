// File: internal/auth/service.go
package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"clinic_backend/internal/identity"
	"clinic_backend/internal/profile"
)

// ErrEmailNotVerified is returned by Login when credentials are valid but the
// account's email address has not been verified yet.
var ErrEmailNotVerified = errors.New("email not verified")

// ErrNotAuthenticated is returned by CheckAuth when no valid session exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// Service orchestrates the authentication operations against the identity
// provider and the profile store.
type Service struct {
	provider identity.Provider
	profiles profile.Repository
	logger   *zap.Logger
}

// NewService creates a new auth service.
func NewService(provider identity.Provider, profiles profile.Repository, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		profiles: profiles,
		logger:   logger.Named("AuthService"),
	}
}

// Register creates the identity, sets its display name, writes the profile row
// and sends the verification email, in that order. The steps are not
// transactional: a failure after the first one leaves an identity without a
// complete profile, which is logged with the uid so it can be reconciled.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	base := req.Base()

	ident, err := s.provider.CreateIdentity(ctx, base.Email, base.Password)
	if err != nil {
		return err
	}

	if err := s.provider.UpdateDisplayName(ctx, ident.UID, base.Username); err != nil {
		s.logPartialRegistration(ident.UID, "display name update", err)
		return err
	}

	if err := s.profiles.Write(ctx, req.Profile(ident.UID)); err != nil {
		s.logPartialRegistration(ident.UID, "profile write", err)
		return err
	}

	if err := s.provider.SendVerificationEmail(ctx, ident.UID); err != nil {
		s.logPartialRegistration(ident.UID, "verification email", err)
		return err
	}

	s.logger.Info("User registered",
		zap.String("uid", ident.UID),
		zap.String("role", req.Role()),
	)
	return nil
}

// Login verifies credentials and returns the identity with its session token.
// Valid credentials on an unverified account fail with ErrEmailNotVerified.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*identity.Identity, string, error) {
	ident, token, err := s.provider.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, "", err
	}
	if !ident.EmailVerified {
		return nil, "", ErrEmailNotVerified
	}

	s.logger.Info("User logged in", zap.String("uid", ident.UID))
	return ident, token, nil
}

// Logout revokes the session behind the given token.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	return s.provider.EndSession(ctx, sessionToken)
}

// RecoverPassword sends a password reset link to the given address.
func (s *Service) RecoverPassword(ctx context.Context, email string) error {
	return s.provider.SendPasswordReset(ctx, email)
}

// CheckAuth resolves the session token to its principal and profile. The
// profile may be nil when the identity exists but no profile row does; callers
// then respond with the uid alone.
func (s *Service) CheckAuth(ctx context.Context, sessionToken string) (*identity.Identity, *profile.Profile, error) {
	ident, err := s.provider.CurrentPrincipal(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, identity.ErrNoPrincipal) {
			return nil, nil, ErrNotAuthenticated
		}
		return nil, nil, err
	}

	prof, err := s.profiles.Read(ctx, ident.UID)
	if err != nil {
		// A missing or unreadable profile does not invalidate the session.
		s.logger.Warn("Could not read profile for authenticated user",
			zap.String("uid", ident.UID),
			zap.Error(err),
		)
		return ident, nil, nil
	}
	return ident, prof, nil
}

// VerifyEmail consumes a verification token. Only providers that manage their
// own verification flow support it.
func (s *Service) VerifyEmail(ctx context.Context, verificationToken string) error {
	verifier, ok := s.provider.(identity.EmailVerifier)
	if !ok {
		return identity.Coded("auth/operation-not-allowed", errors.New("provider verifies email out of band"))
	}
	return verifier.MarkEmailVerified(ctx, verificationToken)
}

func (s *Service) logPartialRegistration(uid, step string, err error) {
	s.logger.Warn("Registration left a partially provisioned identity",
		zap.String("uid", uid),
		zap.String("failed_step", step),
		zap.Error(err),
	)
}
