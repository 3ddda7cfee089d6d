package service

import (
	"context"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/reconcile"
	"reconledger-backend/internal/repository"
)

type reconciliationService struct {
	store     repository.Store
	publisher events.Publisher
	status    statusEngine
	opts      reconcile.Options
}

func NewReconciliationService(store repository.Store, publisher events.Publisher, clock Clock, maxSuggestions int) ReconciliationService {
	return &reconciliationService{
		store:     store,
		publisher: publisher,
		status:    statusEngine{clock: clock},
		opts:      reconcile.Options{MaxSuggestions: maxSuggestions},
	}
}

// Reconcile matches the period's unallocated payments in one transaction; a
// failure on any match rolls back every match of the run.
func (s *reconciliationService) Reconcile(ctx context.Context, tenantID int32, period domain.Period) (*domain.ReconciliationResult, error) {
	logger.EnterMethod("reconciliationService.Reconcile", "tenantID", tenantID, "period", period.String())

	result := &domain.ReconciliationResult{Period: period.Label()}
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		if _, err := s.status.sweepOverdue(ctx, r, tenantID); err != nil {
			return err
		}
		payments, err := r.Payments.ListUnallocated(ctx, tenantID, period)
		if err != nil {
			return err
		}
		result.Scanned = len(payments)
		if len(payments) == 0 {
			return nil
		}
		pool, err := loadPool(ctx, r, tenantID)
		if err != nil {
			return err
		}

		matched := reconcile.Match(payments, pool, s.opts)
		for i := range matched.Matches {
			m := &matched.Matches[i]
			a, err := allocate(ctx, r, s.status, tenantID, domain.AllocationInput{
				PaymentID: m.PaymentID,
				Target:    m.Target,
				Amount:    m.Amount,
			})
			if err != nil {
				return err
			}
			m.AllocationID = a.ID
		}
		result.Matches = matched.Matches
		result.Suggestions = matched.Suggestions
		result.Unmatched = matched.Unmatched
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("reconciliationService.Reconcile", err, "tenantID", tenantID)
		return nil, err
	}

	if len(result.Matches) > 0 {
		publish(ctx, s.publisher, events.New(tenantID, events.ReconciliationCompleted, result))
	}
	logger.ExitMethod("reconciliationService.Reconcile", "tenantID", tenantID,
		"scanned", result.Scanned, "matched", len(result.Matches), "suggested", len(result.Suggestions))
	return result, nil
}

func loadPool(ctx context.Context, r *repository.Repositories, tenantID int32) (reconcile.Pool, error) {
	var pool reconcile.Pool
	unpaid := []domain.ObligationStatus{domain.ObligationOpen, domain.ObligationOverdue}
	for _, kind := range []domain.ObligationKind{domain.ObligationReceivable, domain.ObligationPayable} {
		obligations, err := r.Obligations.List(ctx, tenantID, kind, unpaid)
		if err != nil {
			return pool, err
		}
		for _, o := range obligations {
			pool.Obligations = append(pool.Obligations, reconcile.FromObligation(o))
		}
	}

	custodies, err := r.Custodies.List(ctx, tenantID, []domain.CustodyStatus{domain.CustodyOpen, domain.CustodyPartial})
	if err != nil {
		return pool, err
	}
	for _, c := range custodies {
		pool.Custodies = append(pool.Custodies, reconcile.FromCustody(c))
	}
	return pool, nil
}

func (s *reconciliationService) ConfirmSuggestion(ctx context.Context, tenantID, paymentID int32, target domain.Target) (*domain.Allocation, error) {
	logger.EnterMethod("reconciliationService.ConfirmSuggestion", "tenantID", tenantID, "paymentID", paymentID, "target", target.String())

	if err := target.Validate(); err != nil {
		return nil, err
	}
	var a *domain.Allocation
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		p, err := r.Payments.GetForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		existing, err := r.Allocations.ListByPayment(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return domain.NewConflictError("payment %d was allocated after the suggestion was made", paymentID)
		}

		var candidate reconcile.Candidate
		switch target.Kind {
		case domain.TargetReceivable, domain.TargetPayable:
			o, err := r.Obligations.GetByID(ctx, tenantID, obligationKindOf(target.Kind), target.ID)
			if err != nil {
				return err
			}
			candidate = reconcile.FromObligation(*o)
		case domain.TargetCustody:
			c, err := r.Custodies.GetByID(ctx, tenantID, target.ID)
			if err != nil {
				return err
			}
			candidate = reconcile.FromCustody(*c)
		default:
			return domain.NewValidationError("target", "%s targets are never suggested", target.Kind)
		}
		if !reconcile.ValueMatches(*p, candidate) {
			return domain.NewConflictError("%s no longer has %s open for payment %d", target, p.Amount, paymentID)
		}

		a, err = allocate(ctx, r, s.status, tenantID, domain.AllocationInput{PaymentID: p.ID, Target: target, Amount: p.Amount})
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("reconciliationService.ConfirmSuggestion", err, "paymentID", paymentID)
		return nil, err
	}

	publish(ctx, s.publisher, events.New(tenantID, events.AllocationCreated, a))
	logger.ExitMethod("reconciliationService.ConfirmSuggestion", "allocationID", a.ID)
	return a, nil
}
