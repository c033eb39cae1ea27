// File: internal/identity/sqlmodel.go
package identity

import (
	"time"

	"clinic_backend/internal/common"
)

// Account is the SQL provider's identity row.
type Account struct {
	common.BaseModel          // Embeds ID, CreatedAt, UpdatedAt
	Email             string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash      string  `gorm:"type:varchar(255);not null"`
	DisplayName       *string `gorm:"type:varchar(100)"`
	EmailVerified     bool    `gorm:"not null;default:false"`
	Disabled          bool    `gorm:"not null;default:false"`

	// Outstanding one-shot tokens. Cleared on use, purged by the session job
	// once expired.
	VerificationToken     *string    `gorm:"type:varchar(64);index"`
	VerificationExpiresAt *time.Time
	ResetToken            *string    `gorm:"type:varchar(64);index"`
	ResetTokenExpiresAt   *time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "identities"
}
