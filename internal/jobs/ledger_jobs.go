package jobs

import (
	"context"
	"time"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
)

// SweepOverdue moves open receivables and payables past their due date to
// overdue. Reads sweep lazily too; the nightly run keeps stored statuses
// current for reports that bypass the API.
func (jr *JobRunner) SweepOverdue() {
	jr.runWithRecovery("SweepOverdue", func() {
		var total int64
		jr.forEachTenant(context.Background(), "SweepOverdue", func(ctx context.Context, tenantID int32) error {
			n, err := jr.services.Obligations.SweepOverdue(ctx, tenantID)
			total += n
			return err
		})
		logger.Info("Overdue sweep finished", "marked", total)
	})
}

// CalculateCommissions derives commission payables for the month before the
// current one.
func (jr *JobRunner) CalculateCommissions() {
	jr.runWithRecovery("CalculateCommissions", func() {
		period := PreviousMonth(jr.now())
		jr.forEachTenant(context.Background(), "CalculateCommissions", func(ctx context.Context, tenantID int32) error {
			res, err := jr.services.Commissions.Calculate(ctx, tenantID, period)
			if err != nil {
				return err
			}
			if len(res.Retained) > 0 {
				logger.WarnContext(ctx, "Commission payables kept despite missing beneficiaries",
					"period", res.Period, "payables", res.Retained)
			}
			return nil
		})
	})
}

// PreviousMonth is the calendar month before the one containing t.
func PreviousMonth(t time.Time) domain.Period {
	return domain.MonthPeriod(domain.MonthPeriod(t).Start.AddDate(0, -1, 0))
}
