package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EmailSyncJobName is the name of the inbound email sync job
const EmailSyncJobName = "email_sync"

// EmailSyncer defines the interface for pulling inbound email into the CRM.
// This interface allows the job to call the service without importing the
// service package directly.
type EmailSyncer interface {
	// SyncOnce fetches new messages and records the attributable ones.
	// Returns the number of activities created.
	SyncOnce(ctx context.Context) (int, error)
}

// EmailSyncJob runs the inbound email sync on a schedule.
type EmailSyncJob struct {
	syncer  EmailSyncer
	logger  *zap.Logger
	timeout time.Duration
}

// NewEmailSyncJob creates a new email sync job. The timeout controls how
// long one sync pass is allowed to run.
func NewEmailSyncJob(syncer EmailSyncer, logger *zap.Logger, timeout time.Duration) *EmailSyncJob {
	return &EmailSyncJob{
		syncer:  syncer,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one sync pass. This is called by the scheduler according to
// the cron expression.
func (j *EmailSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	created, err := j.syncer.SyncOnce(ctx)
	if err != nil {
		j.logger.Error("email sync job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("email sync job completed",
		zap.Int("activities_created", created),
		zap.Duration("duration", time.Since(start)))
}

// RegisterEmailSyncJob registers the email sync job with the scheduler.
// The cronExpr should be a valid cron expression (e.g., "@every 15m").
func RegisterEmailSyncJob(scheduler *Scheduler, syncer EmailSyncer, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewEmailSyncJob(syncer, logger, timeout)
	return scheduler.AddJob(EmailSyncJobName, cronExpr, job.Run)
}
