// File: cmd/server/providers.go
package main

import (
	"fmt"
	"log"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic_backend/internal/config"
	"clinic_backend/internal/identity"
	"clinic_backend/internal/platform/database"
)

// provideIdentityProvider selects the identity provider implementation from
// AUTH_PROVIDER. The SQL provider shares the application's GORM database.
func provideIdentityProvider(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (identity.Provider, error) {
	switch cfg.AuthProvider {
	case config.ProviderFirebase:
		return identity.NewFirebaseProvider(cfg, logger)
	case config.ProviderSQL:
		return identity.NewSQLProvider(db, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown auth provider: %q", cfg.AuthProvider)
	}
}

// provideSessionJanitor exposes the provider's purge hook when it has one.
// The hosted Firebase provider expires sessions itself and returns nil.
func provideSessionJanitor(provider identity.Provider) identity.SessionJanitor {
	if janitor, ok := provider.(identity.SessionJanitor); ok {
		return janitor
	}
	return nil
}

func provideCleanup(logger *zap.Logger, db *gorm.DB) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
