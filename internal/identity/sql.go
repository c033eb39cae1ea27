// File: internal/identity/sql.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clinic_backend/internal/common"
	"clinic_backend/internal/config"
	platformcrypto "clinic_backend/internal/platform/crypto"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
	oneShotTokenBytes    = 32
)

// sessionClaims is the JWT payload of a SQL-provider session token.
type sessionClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SQLProvider implements Provider against a GORM database: bcrypt credentials,
// HS256 session tokens and an in-memory JTI blocklist for logout.
type SQLProvider struct {
	db        *gorm.DB
	cfg       *config.Config
	logger    *zap.Logger
	blocklist *cache.Cache
}

var (
	_ Provider       = (*SQLProvider)(nil)
	_ EmailVerifier  = (*SQLProvider)(nil)
	_ SessionJanitor = (*SQLProvider)(nil)
)

// NewSQLProvider creates the SQL-backed identity provider and migrates its table.
func NewSQLProvider(db *gorm.DB, cfg *config.Config, logger *zap.Logger) (*SQLProvider, error) {
	if err := db.AutoMigrate(&Account{}); err != nil {
		return nil, fmt.Errorf("failed to migrate identities table: %w", err)
	}
	return &SQLProvider{
		db:        db,
		cfg:       cfg,
		logger:    logger,
		blocklist: cache.New(cfg.JWTSessionExpiry, 10*time.Minute),
	}, nil
}

func (p *SQLProvider) CreateIdentity(ctx context.Context, email, password string) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Unknown(err)
	}

	account := &Account{
		BaseModel:    common.BaseModel{ID: uuid.New()},
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
	}
	if err := p.db.WithContext(ctx).Create(account).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, Coded("auth/email-already-in-use", err)
		}
		return nil, Unknown(err)
	}
	return identityFromAccount(account), nil
}

func (p *SQLProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	account, err := p.findByUID(ctx, uid)
	if err != nil {
		return err
	}
	account.DisplayName = &displayName
	if err := p.db.WithContext(ctx).Save(account).Error; err != nil {
		return Coded("auth/profile-update-failed", err)
	}
	return nil
}

func (p *SQLProvider) VerifyCredentials(ctx context.Context, email, password string) (*Identity, string, error) {
	account, err := p.findByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if account.Disabled {
		return nil, "", Coded("auth/user-disabled", errors.New("account disabled"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", Coded("auth/wrong-password", err)
	}

	token, err := p.signSessionToken(account)
	if err != nil {
		return nil, "", Unknown(err)
	}
	return identityFromAccount(account), token, nil
}

func (p *SQLProvider) CurrentPrincipal(ctx context.Context, sessionToken string) (*Identity, error) {
	claims, err := p.parseSessionToken(sessionToken)
	if err != nil {
		return nil, ErrNoPrincipal
	}
	if _, revoked := p.blocklist.Get(claims.ID); revoked {
		return nil, ErrNoPrincipal
	}

	account, err := p.findByUID(ctx, claims.UID)
	if err != nil {
		// The account may have been deleted after the token was issued.
		return nil, ErrNoPrincipal
	}
	return identityFromAccount(account), nil
}

func (p *SQLProvider) EndSession(ctx context.Context, sessionToken string) error {
	claims, err := p.parseSessionToken(sessionToken)
	if err != nil {
		return Coded("auth/logout-failed", err)
	}

	if claims.ExpiresAt == nil {
		return nil
	}

	// Blocklist the JTI for exactly as long as the token would remain valid.
	duration := time.Until(claims.ExpiresAt.Time)
	if duration <= 0 {
		return nil
	}
	p.blocklist.Set(claims.ID, true, duration)
	return nil
}

func (p *SQLProvider) SendVerificationEmail(ctx context.Context, uid string) error {
	account, err := p.findByUID(ctx, uid)
	if err != nil {
		return err
	}

	token, err := platformcrypto.GenerateSecureRandomString(oneShotTokenBytes)
	if err != nil {
		return Unknown(err)
	}
	expiry := time.Now().Add(verificationTokenTTL)
	account.VerificationToken = &token
	account.VerificationExpiresAt = &expiry
	if err := p.db.WithContext(ctx).Save(account).Error; err != nil {
		return Unknown(err)
	}

	// No SMTP relay is wired up; the link is logged for delivery by an external
	// mailer, same as the hosted-Firebase flow.
	p.logger.Info("Verification email link generated",
		zap.String("uid", uid),
		zap.String("link", fmt.Sprintf("%s/verify-email?token=%s", p.cfg.ClientURL, token)),
	)
	return nil
}

func (p *SQLProvider) SendPasswordReset(ctx context.Context, email string) error {
	account, err := p.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := platformcrypto.GenerateSecureRandomString(oneShotTokenBytes)
	if err != nil {
		return Unknown(err)
	}
	expiry := time.Now().Add(resetTokenTTL)
	account.ResetToken = &token
	account.ResetTokenExpiresAt = &expiry
	if err := p.db.WithContext(ctx).Save(account).Error; err != nil {
		return Unknown(err)
	}

	p.logger.Info("Password reset link generated",
		zap.String("email", account.Email),
		zap.String("link", fmt.Sprintf("%s/reset-password?token=%s", p.cfg.ClientURL, token)),
	)
	return nil
}

// MarkEmailVerified consumes a verification token and flips the verified flag.
func (p *SQLProvider) MarkEmailVerified(ctx context.Context, verificationToken string) error {
	if verificationToken == "" {
		return Coded("auth/invalid-credential", errors.New("empty verification token"))
	}
	var account Account
	err := p.db.WithContext(ctx).
		Where("verification_token = ?", verificationToken).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Coded("auth/invalid-credential", err)
		}
		return Unknown(err)
	}
	if account.VerificationExpiresAt == nil || time.Now().After(*account.VerificationExpiresAt) {
		return Coded("auth/invalid-credential", errors.New("verification token expired"))
	}

	account.EmailVerified = true
	account.VerificationToken = nil
	account.VerificationExpiresAt = nil
	if err := p.db.WithContext(ctx).Save(&account).Error; err != nil {
		return Unknown(err)
	}
	return nil
}

// PurgeExpired clears expired verification and reset tokens. The JTI blocklist
// evicts itself; this keeps the identities table from accumulating dead tokens.
func (p *SQLProvider) PurgeExpired(ctx context.Context) (int64, error) {
	now := time.Now()
	var purged int64

	res := p.db.WithContext(ctx).Model(&Account{}).
		Where("verification_expires_at IS NOT NULL AND verification_expires_at < ?", now).
		Updates(map[string]interface{}{
			"verification_token":      nil,
			"verification_expires_at": nil,
		})
	if res.Error != nil {
		return purged, res.Error
	}
	purged += res.RowsAffected

	res = p.db.WithContext(ctx).Model(&Account{}).
		Where("reset_token_expires_at IS NOT NULL AND reset_token_expires_at < ?", now).
		Updates(map[string]interface{}{
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		})
	if res.Error != nil {
		return purged, res.Error
	}
	purged += res.RowsAffected

	p.blocklist.DeleteExpired()
	return purged, nil
}

func (p *SQLProvider) signSessionToken(account *Account) (string, error) {
	expiresAt := time.Now().Add(p.cfg.JWTSessionExpiry)
	claims := &sessionClaims{
		UID:   account.ID.String(),
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "clinic_backend",
			Subject:   account.ID.String(),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(p.cfg.JWTSecretKey))
	if err != nil {
		p.logger.Error("Failed to sign session token", zap.Error(err))
		return "", fmt.Errorf("could not sign session token: %w", err)
	}
	return signed, nil
}

func (p *SQLProvider) parseSessionToken(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(p.cfg.JWTSecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session token claims")
	}
	return claims, nil
}

func (p *SQLProvider) findByUID(ctx context.Context, uid string) (*Account, error) {
	id, err := uuid.Parse(uid)
	if err != nil {
		return nil, Coded("auth/user-not-found", err)
	}
	var account Account
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Coded("auth/user-not-found", err)
		}
		return nil, Unknown(err)
	}
	return &account, nil
}

func (p *SQLProvider) findByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Coded("auth/user-not-found", err)
		}
		return nil, Unknown(err)
	}
	return &account, nil
}

func identityFromAccount(account *Account) *Identity {
	displayName := ""
	if account.DisplayName != nil {
		displayName = *account.DisplayName
	}
	return &Identity{
		UID:           account.ID.String(),
		Email:         account.Email,
		DisplayName:   displayName,
		EmailVerified: account.EmailVerified,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
