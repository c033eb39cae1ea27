// File: internal/common/model.go
package common

import (
	"time"

	"github.com/google/uuid"
)

// Role values accepted by the registration form.
const (
	RolePatient = "patient"
	RoleMedic   = "medic"
	RoleAdmin   = "admin"
)

// BaseModel defines common fields for GORM models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:current_timestamp"`
}
