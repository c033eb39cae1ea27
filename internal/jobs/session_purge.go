// File: internal/jobs/session_purge.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"clinic_backend/internal/config"
	"clinic_backend/internal/identity"
)

// SessionPurgeJob periodically asks the identity provider to discard expired
// verification tokens, reset tokens and revoked-session entries.
type SessionPurgeJob struct {
	janitor       identity.SessionJanitor
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewSessionPurgeJob creates a new SessionPurgeJob. The janitor may be nil when
// the active provider has nothing to purge (the hosted Firebase provider).
func NewSessionPurgeJob(
	janitor identity.SessionJanitor,
	logger *zap.Logger,
	cfg *config.Config,
) *SessionPurgeJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &SessionPurgeJob{
		janitor:       janitor,
		logger:        logger.Named("SessionPurgeJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *SessionPurgeJob) SetupAndStart() error {
	if j.janitor == nil {
		j.logger.Info("Active identity provider manages its own session expiry. Purge job will not run.")
		return nil
	}

	jobSpec := j.cfg.SessionPurgeSchedule
	if jobSpec == "" {
		j.logger.Warn("Session purge schedule not defined (SESSION_PURGE_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule session purge job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Session purge job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *SessionPurgeJob) runJob() {
	j.logger.Info("Starting session purge job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purged, err := j.janitor.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("Session purge job run failed", zap.Error(err))
	} else {
		j.logger.Info("Session purge job run completed", zap.Int64("tokens_purged", purged))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *SessionPurgeJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping session purge job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Session purge job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Session purge job scheduler stop timed out.")
	}
}

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
