package jobs

import (
	"context"
	"time"

	"reviewhub-backend/internal/config"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/repository"
	"reviewhub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	repos  Repositories
	email  service.EmailService
	config *config.Config
}

// Repositories holds the read paths the jobs need
type Repositories struct {
	Tasks     repository.TaskRepository
	Recharges repository.RechargeRepository
	Payments  repository.PaymentRepository
	Wallets   repository.WalletRepository
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(repos Repositories, email service.EmailService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		repos:  repos,
		email:  email,
		config: cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and a deadline
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	if err := jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
}

// RunReconcileLedger is the cron entry point for ReconcileLedger
func (jr *JobRunner) RunReconcileLedger() {
	jr.runWithRecovery("ReconcileLedger", func(ctx context.Context) error {
		_, err := jr.ReconcileLedger(ctx)
		return err
	})
}

// RunPendingApprovalDigest is the cron entry point for SendPendingApprovalDigest
func (jr *JobRunner) RunPendingApprovalDigest() {
	jr.runWithRecovery("SendPendingApprovalDigest", jr.SendPendingApprovalDigest)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.RunReconcileLedger()
	jr.RunPendingApprovalDigest()
}
