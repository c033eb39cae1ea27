// File: internal/profile/model.go
package profile

import (
	"time"
)

// Profile is the application-owned per-user record, keyed by the identity
// provider's uid. Created at registration, read at session check, never updated.
type Profile struct {
	UID         string  `gorm:"type:varchar(128);primary_key" json:"uid"`
	Email       string  `gorm:"type:varchar(255);not null" json:"email"`
	Role        string  `gorm:"type:varchar(50);not null" json:"role"`
	Name        string  `gorm:"type:varchar(100);not null" json:"name"`
	Username    string  `gorm:"type:varchar(100);not null" json:"username"`
	Specialty   *string `gorm:"type:varchar(100)" json:"specialty,omitempty"`
	DateOfBirth *string `gorm:"type:varchar(10)" json:"dateOfBirth,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"-"`
}

// TableName specifies the table name for the Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// ToMap flattens the profile for the check-auth response, which spreads profile
// fields next to the uid. Role-specific fields are omitted when absent.
func (p *Profile) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"uid":      p.UID,
		"email":    p.Email,
		"role":     p.Role,
		"name":     p.Name,
		"username": p.Username,
	}
	if p.Specialty != nil {
		m["specialty"] = *p.Specialty
	}
	if p.DateOfBirth != nil {
		m["dateOfBirth"] = *p.DateOfBirth
	}
	return m
}
