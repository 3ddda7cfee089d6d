package jobs

import (
	"context"
	"time"

	"reconledger-backend/internal/config"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
	"reconledger-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    repository.Store
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Obligations service.ObligationService
	Commissions service.CommissionService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// forEachTenant runs fn for every tenant that owns an account. A failure for
// one tenant is logged and does not stop the others; the failure count is
// returned.
func (jr *JobRunner) forEachTenant(ctx context.Context, jobName string, fn func(ctx context.Context, tenantID int32) error) int {
	log := logger.WithJob(jobName)
	tenants, err := jr.store.Repos().Accounts.ListTenants(ctx)
	if err != nil {
		log.Error("Failed to list tenants", "error", err)
		return 1
	}

	failed := 0
	for _, tenantID := range tenants {
		tctx := logger.WithTenant(ctx, tenantID)
		if err := fn(tctx, tenantID); err != nil {
			log.ErrorContext(tctx, "Job failed for tenant", "error", err)
			failed++
		}
	}
	log.Info("Processed tenants", "total", len(tenants), "failed", failed)
	return failed
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.SweepOverdue()
}

// RunAllMonthlyJobs runs all monthly jobs (for manual execution)
func (jr *JobRunner) RunAllMonthlyJobs() {
	jr.CalculateCommissions()
}
