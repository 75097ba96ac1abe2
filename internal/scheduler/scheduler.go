package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"reviewhub-backend/internal/config"
	"reviewhub-backend/internal/logger"
)

// Runner is the set of jobs the scheduler drives
type Runner interface {
	Config() *config.Config
	RunReconcileLedger()
	RunPendingApprovalDigest()
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs Runner
}

// NewScheduler creates a new scheduler with the provided job runner. An
// invalid cron spec is an error.
func NewScheduler(jobRunner Runner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// Nightly ledger reconciliation
	if _, err := s.cron.AddFunc(cfg.ReconcileLedger, s.jobs.RunReconcileLedger); err != nil {
		return fmt.Errorf("failed to register ReconcileLedger job: %w", err)
	}

	// Daily digest of pending approvals
	if _, err := s.cron.AddFunc(cfg.PendingApprovalDigest, s.jobs.RunPendingApprovalDigest); err != nil {
		return fmt.Errorf("failed to register PendingApprovalDigest job: %w", err)
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
