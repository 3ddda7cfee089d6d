package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"reconledger-backend/internal/jobs"
	"reconledger-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner. It
// fails when a configured schedule does not parse.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
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

	// Nightly: move past-due obligations to overdue
	if _, err := s.cron.AddFunc(cfg.SweepOverdue, s.jobs.SweepOverdue); err != nil {
		logger.Error("Failed to register SweepOverdue job", "error", err, "spec", cfg.SweepOverdue)
		return err
	}

	// Monthly: commission payables for the month just closed
	if _, err := s.cron.AddFunc(cfg.CalculateCommissions, s.jobs.CalculateCommissions); err != nil {
		logger.Error("Failed to register CalculateCommissions job", "error", err, "spec", cfg.CalculateCommissions)
		return err
	}

	logger.Info("All cron jobs registered successfully", "jobs", len(s.cron.Entries()))
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

// Entries returns the registered jobs with their next run time
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
