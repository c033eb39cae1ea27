// File: internal/profile/repository.go
package profile

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"clinic_backend/internal/common"
	"clinic_backend/internal/identity"
)

// Repository defines the interface for profile data operations.
type Repository interface {
	Write(ctx context.Context, profile *Profile) error
	Read(ctx context.Context, uid string) (*Profile, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM profile repository and migrates its table.
func NewGORMRepository(db *gorm.DB) (Repository, error) {
	if err := db.AutoMigrate(&Profile{}); err != nil {
		return nil, fmt.Errorf("failed to migrate profiles table: %w", err)
	}
	return &gormRepository{db: db}, nil
}

// Write inserts the profile record created at registration.
func (r *gormRepository) Write(ctx context.Context, profile *Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return identity.Coded("firestore/write-failed", err)
	}
	return nil
}

// Read retrieves a profile by uid. Returns common.ErrNotFound when absent.
func (r *gormRepository) Read(ctx context.Context, uid string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found for this uid.")
		}
		return nil, identity.Coded("firestore/read-failed", err)
	}
	return &p, nil
}
