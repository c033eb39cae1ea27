package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/identity"
	"clinic_backend/internal/profile"
)

// fakeProvider is an in-memory identity.Provider with per-call overrides.
type fakeProvider struct {
	identities map[string]*identity.Identity

	createErr        error
	displayNameErr   error
	verifyErr        error
	endSessionErr    error
	passwordResetErr error

	sessionToken string
	principal    *identity.Identity
	sentEmails   []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		identities:   make(map[string]*identity.Identity),
		sessionToken: "session-token",
	}
}

func (f *fakeProvider) CreateIdentity(ctx context.Context, email, password string) (*identity.Identity, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	ident := &identity.Identity{UID: "uid-" + email, Email: email}
	f.identities[ident.UID] = ident
	return ident, nil
}

func (f *fakeProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	if f.displayNameErr != nil {
		return f.displayNameErr
	}
	if ident, ok := f.identities[uid]; ok {
		ident.DisplayName = displayName
	}
	return nil
}

func (f *fakeProvider) VerifyCredentials(ctx context.Context, email, password string) (*identity.Identity, string, error) {
	if f.verifyErr != nil {
		return nil, "", f.verifyErr
	}
	return f.principal, f.sessionToken, nil
}

func (f *fakeProvider) CurrentPrincipal(ctx context.Context, sessionToken string) (*identity.Identity, error) {
	if f.principal == nil || sessionToken != f.sessionToken {
		return nil, identity.ErrNoPrincipal
	}
	return f.principal, nil
}

func (f *fakeProvider) EndSession(ctx context.Context, sessionToken string) error {
	return f.endSessionErr
}

func (f *fakeProvider) SendVerificationEmail(ctx context.Context, uid string) error {
	f.sentEmails = append(f.sentEmails, uid)
	return nil
}

func (f *fakeProvider) SendPasswordReset(ctx context.Context, email string) error {
	return f.passwordResetErr
}

// fakeProfileRepo stores profiles in memory.
type fakeProfileRepo struct {
	profiles map[string]*profile.Profile
	writeErr error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*profile.Profile)}
}

func (r *fakeProfileRepo) Write(ctx context.Context, p *profile.Profile) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.profiles[p.UID] = p
	return nil
}

func (r *fakeProfileRepo) Read(ctx context.Context, uid string) (*profile.Profile, error) {
	p, ok := r.profiles[uid]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func newTestService(provider *fakeProvider, repo *fakeProfileRepo) *Service {
	return NewService(provider, repo, zap.NewNop())
}

func mustParse(t *testing.T, form RegisterForm) RegisterRequest {
	t.Helper()
	req, verr := ParseRegister(form)
	require.Nil(t, verr)
	return req
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("medic registration writes the profile and sends verification", func(t *testing.T) {
		provider := newFakeProvider()
		repo := newFakeProfileRepo()
		svc := newTestService(provider, repo)

		err := svc.Register(ctx, mustParse(t, validForm("medic")))
		require.NoError(t, err)

		uid := "uid-laura@clinic.example"
		prof := repo.profiles[uid]
		require.NotNil(t, prof)
		assert.Equal(t, "medic", prof.Role)
		require.NotNil(t, prof.Specialty)
		assert.Equal(t, "Cardiología", *prof.Specialty)
		assert.Nil(t, prof.DateOfBirth)
		assert.Equal(t, []string{uid}, provider.sentEmails)
		assert.Equal(t, "lauragomez", provider.identities[uid].DisplayName)
	})

	t.Run("patient profile carries dateOfBirth only", func(t *testing.T) {
		provider := newFakeProvider()
		repo := newFakeProfileRepo()
		svc := newTestService(provider, repo)

		err := svc.Register(ctx, mustParse(t, validForm("patient")))
		require.NoError(t, err)

		prof := repo.profiles["uid-laura@clinic.example"]
		require.NotNil(t, prof)
		require.NotNil(t, prof.DateOfBirth)
		assert.Equal(t, "1990-04-23", *prof.DateOfBirth)
		assert.Nil(t, prof.Specialty)
	})

	t.Run("duplicate email surfaces the provider code", func(t *testing.T) {
		provider := newFakeProvider()
		provider.createErr = identity.Coded("auth/email-already-in-use", errors.New("exists"))
		svc := newTestService(provider, newFakeProfileRepo())

		err := svc.Register(ctx, mustParse(t, validForm("admin")))
		require.Error(t, err)
		code, ok := identity.CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, "auth/email-already-in-use", code)
	})

	t.Run("profile write failure aborts but leaves the identity", func(t *testing.T) {
		provider := newFakeProvider()
		repo := newFakeProfileRepo()
		repo.writeErr = identity.Coded("firestore/write-failed", errors.New("db down"))
		svc := newTestService(provider, repo)

		err := svc.Register(ctx, mustParse(t, validForm("admin")))
		require.Error(t, err)

		// The identity was created before the write failed and no rollback is
		// attempted; registration reports the error and moves on.
		assert.Len(t, provider.identities, 1)
		assert.Empty(t, provider.sentEmails)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("verified user gets a session token", func(t *testing.T) {
		provider := newFakeProvider()
		provider.principal = &identity.Identity{UID: "u1", Email: "a@b.co", EmailVerified: true}
		svc := newTestService(provider, newFakeProfileRepo())

		ident, token, err := svc.Login(ctx, &LoginRequest{Email: "a@b.co", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "u1", ident.UID)
		assert.Equal(t, "session-token", token)
	})

	t.Run("unverified user is rejected even with valid credentials", func(t *testing.T) {
		provider := newFakeProvider()
		provider.principal = &identity.Identity{UID: "u1", Email: "a@b.co", EmailVerified: false}
		svc := newTestService(provider, newFakeProfileRepo())

		_, _, err := svc.Login(ctx, &LoginRequest{Email: "a@b.co", Password: "secret1"})
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("wrong password propagates the provider code", func(t *testing.T) {
		provider := newFakeProvider()
		provider.verifyErr = identity.Coded("auth/wrong-password", errors.New("mismatch"))
		svc := newTestService(provider, newFakeProfileRepo())

		_, _, err := svc.Login(ctx, &LoginRequest{Email: "a@b.co", Password: "nope00"})
		code, ok := identity.CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, "auth/wrong-password", code)
	})
}

func TestService_CheckAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("no principal maps to ErrNotAuthenticated", func(t *testing.T) {
		svc := newTestService(newFakeProvider(), newFakeProfileRepo())

		_, _, err := svc.CheckAuth(ctx, "bogus")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("principal with profile returns both", func(t *testing.T) {
		provider := newFakeProvider()
		provider.principal = &identity.Identity{UID: "u1", EmailVerified: true}
		repo := newFakeProfileRepo()
		repo.profiles["u1"] = &profile.Profile{UID: "u1", Role: "patient", Name: "Laura"}
		svc := newTestService(provider, repo)

		ident, prof, err := svc.CheckAuth(ctx, "session-token")
		require.NoError(t, err)
		assert.Equal(t, "u1", ident.UID)
		require.NotNil(t, prof)
		assert.Equal(t, "patient", prof.Role)
	})

	t.Run("missing profile still authenticates", func(t *testing.T) {
		provider := newFakeProvider()
		provider.principal = &identity.Identity{UID: "u1", EmailVerified: true}
		svc := newTestService(provider, newFakeProfileRepo())

		ident, prof, err := svc.CheckAuth(ctx, "session-token")
		require.NoError(t, err)
		assert.Equal(t, "u1", ident.UID)
		assert.Nil(t, prof)
	})
}

func TestService_Logout(t *testing.T) {
	provider := newFakeProvider()
	svc := newTestService(provider, newFakeProfileRepo())
	require.NoError(t, svc.Logout(context.Background(), "session-token"))

	provider.endSessionErr = identity.Coded("auth/logout-failed", errors.New("revocation failed"))
	err := svc.Logout(context.Background(), "session-token")
	code, ok := identity.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, "auth/logout-failed", code)
}

func TestService_VerifyEmail_UnsupportedProvider(t *testing.T) {
	svc := newTestService(newFakeProvider(), newFakeProfileRepo())

	err := svc.VerifyEmail(context.Background(), "some-token")
	require.Error(t, err)
	code, ok := identity.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, "auth/operation-not-allowed", code)
}
