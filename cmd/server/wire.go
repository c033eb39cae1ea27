// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"clinic_backend/internal/app"
	"clinic_backend/internal/auth"
	"clinic_backend/internal/config"
	"clinic_backend/internal/jobs"
	"clinic_backend/internal/platform/database"
	"clinic_backend/internal/platform/logger"
	"clinic_backend/internal/profile"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		provideCleanup,

		// Identity capability
		provideIdentityProvider,
		provideSessionJanitor,

		// Profile store
		profile.NewGORMRepository,

		// Auth module
		auth.NewService,
		auth.NewHandler,

		// Jobs
		jobs.NewSessionPurgeJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
