package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconledger-backend/internal/config"
	"reconledger-backend/internal/jobs"
	"reconledger-backend/internal/repository/memory"
)

func runner(sweep, commissions string) *jobs.JobRunner {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{SweepOverdue: sweep, CalculateCommissions: commissions}}
	return jobs.NewJobRunner(memory.NewStore(), &jobs.Services{}, cfg)
}

func TestNewScheduler_RegistersJobs(t *testing.T) {
	s, err := NewScheduler(runner("0 0 2 * * *", "0 0 3 1 * *"))
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 2)

	from := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 16, 2, 0, 0, 0, time.UTC), entries[0].Schedule.Next(from))
	assert.Equal(t, time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC), entries[1].Schedule.Next(from))
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(runner("every night", "0 0 3 1 * *"))
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler(runner("0 0 2 * * *", "0 0 3 1 * *"))
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
