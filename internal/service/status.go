package service

import (
	"context"
	"fmt"
	"time"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
	"reconledger-backend/internal/settlement"
)

// statusEngine recomputes the cached status of allocation targets. It always
// runs inside the transaction of the mutation that changed the allocations.
type statusEngine struct {
	clock Clock
}

func (e statusEngine) recompute(ctx context.Context, r *repository.Repositories, tenantID int32, target domain.Target) error {
	totals, err := r.Allocations.TotalsByTarget(ctx, tenantID, target)
	if err != nil {
		return fmt.Errorf("failed to total allocations of %s: %w", target, err)
	}

	switch target.Kind {
	case domain.TargetReceivable, domain.TargetPayable:
		kind := obligationKindOf(target.Kind)
		o, err := r.Obligations.GetByID(ctx, tenantID, kind, target.ID)
		if err != nil {
			return err
		}
		status := settlement.ObligationStatus(o.Amount, totals.Total(), o.DueDate, e.clock())
		var paidDate *time.Time
		if status == domain.ObligationPaid {
			paidDate = totals.LastPaymentDate
		}
		return r.Obligations.UpdateStatus(ctx, tenantID, kind, target.ID, status, paidDate)

	case domain.TargetCustody:
		c, err := r.Custodies.GetByID(ctx, tenantID, target.ID)
		if err != nil {
			return err
		}
		settled := settlement.CustodySettled(totals.Inflow, totals.Outflow)
		return r.Custodies.UpdateSettlement(ctx, tenantID, target.ID, settled, settlement.CustodyStatus(c.TotalAmount, settled))

	case domain.TargetTransfer:
		if _, err := r.Transfers.GetByID(ctx, tenantID, target.ID); err != nil {
			return err
		}
		return r.Transfers.UpdateStatus(ctx, tenantID, target.ID, settlement.TransferStatus(totals.Outflow, totals.Inflow))
	}
	return domain.NewValidationError("target", "kind %q is not a valid allocation target", target.Kind)
}

// recomputeAll recomputes each distinct target once, in the given order.
func (e statusEngine) recomputeAll(ctx context.Context, r *repository.Repositories, tenantID int32, targets []domain.Target) error {
	seen := make(map[domain.Target]bool, len(targets))
	for _, t := range targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		if err := e.recompute(ctx, r, tenantID, t); err != nil {
			return err
		}
	}
	return nil
}

// sweepOverdue flags open receivables and payables whose due date has passed.
func (e statusEngine) sweepOverdue(ctx context.Context, r *repository.Repositories, tenantID int32) (int64, error) {
	today := e.clock()
	var total int64
	for _, kind := range []domain.ObligationKind{domain.ObligationReceivable, domain.ObligationPayable} {
		n, err := r.Obligations.MarkOverdue(ctx, tenantID, kind, today)
		if err != nil {
			return total, fmt.Errorf("failed to mark overdue %ss: %w", kind, err)
		}
		total += n
	}
	if total > 0 {
		logger.Info("Obligations marked overdue", "tenantID", tenantID, "count", total)
	}
	return total, nil
}

func obligationKindOf(k domain.TargetKind) domain.ObligationKind {
	if k == domain.TargetPayable {
		return domain.ObligationPayable
	}
	return domain.ObligationReceivable
}

// publish audits and sends events after commit. A failed publish is logged
// and never fails the request that produced the events.
func publish(ctx context.Context, pub events.Publisher, evts ...events.Event) {
	for _, e := range evts {
		logger.Audit(ctx, string(e.Type), "eventID", e.ID)
	}
	if pub == nil || len(evts) == 0 {
		return
	}
	if err := pub.Publish(ctx, evts...); err != nil {
		logger.Warn("Failed to publish events", "error", err, "count", len(evts), "type", evts[0].Type)
	}
}
