package service

import (
	"context"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

type allocationService struct {
	store     repository.Store
	publisher events.Publisher
	status    statusEngine
}

func NewAllocationService(store repository.Store, publisher events.Publisher, clock Clock) AllocationService {
	return &allocationService{store: store, publisher: publisher, status: statusEngine{clock: clock}}
}

func (s *allocationService) CreateAllocation(ctx context.Context, tenantID int32, in domain.AllocationInput) (*domain.Allocation, error) {
	logger.EnterMethod("allocationService.CreateAllocation", "tenantID", tenantID, "paymentID", in.PaymentID, "target", in.Target.String())

	var a *domain.Allocation
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		var err error
		a, err = allocate(ctx, r, s.status, tenantID, in)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("allocationService.CreateAllocation", err, "paymentID", in.PaymentID)
		return nil, err
	}

	publish(ctx, s.publisher, events.New(tenantID, events.AllocationCreated, a))
	logger.ExitMethod("allocationService.CreateAllocation", "allocationID", a.ID)
	return a, nil
}

// allocate validates and stores one allocation, then recomputes its target,
// all inside the caller's transaction. The payment row stays locked until
// the transaction ends so concurrent allocations cannot overspend it.
func allocate(ctx context.Context, r *repository.Repositories, status statusEngine, tenantID int32, in domain.AllocationInput) (*domain.Allocation, error) {
	if err := in.Target.Validate(); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be greater than zero")
	}

	p, err := r.Payments.GetForUpdate(ctx, tenantID, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(ctx, r, tenantID, p, in.Target, in.Amount, nil); err != nil {
		return nil, err
	}
	if err := checkPaymentCapacity(ctx, r, p, in.Amount, nil); err != nil {
		return nil, err
	}

	a := &domain.Allocation{TenantID: tenantID, PaymentID: p.ID, Target: in.Target, Amount: in.Amount}
	if err := r.Allocations.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := status.recompute(ctx, r, tenantID, a.Target); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *allocationService) UpdateAllocation(ctx context.Context, tenantID, id int32, upd domain.AllocationUpdate) (*domain.Allocation, error) {
	logger.EnterMethod("allocationService.UpdateAllocation", "tenantID", tenantID, "allocationID", id)

	var updated domain.Allocation
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		old, err := r.Allocations.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		updated = *old
		if upd.Target != nil {
			updated.Target = *upd.Target
		}
		if upd.Amount != nil {
			updated.Amount = *upd.Amount
		}
		if err := updated.Target.Validate(); err != nil {
			return err
		}
		if !updated.Amount.IsPositive() {
			return domain.NewValidationError("amount", "must be greater than zero")
		}

		p, err := r.Payments.GetForUpdate(ctx, tenantID, old.PaymentID)
		if err != nil {
			return err
		}
		if err := checkTarget(ctx, r, tenantID, p, updated.Target, updated.Amount, old); err != nil {
			return err
		}
		if err := checkPaymentCapacity(ctx, r, p, updated.Amount, old); err != nil {
			return err
		}
		if err := r.Allocations.Update(ctx, &updated); err != nil {
			return err
		}
		return s.status.recomputeAll(ctx, r, tenantID, []domain.Target{old.Target, updated.Target})
	})
	if err != nil {
		logger.ExitMethodWithError("allocationService.UpdateAllocation", err, "allocationID", id)
		return nil, err
	}

	publish(ctx, s.publisher, events.New(tenantID, events.AllocationUpdated, updated))
	logger.ExitMethod("allocationService.UpdateAllocation", "allocationID", id)
	return &updated, nil
}

func (s *allocationService) DeleteAllocation(ctx context.Context, tenantID, id int32) error {
	logger.EnterMethod("allocationService.DeleteAllocation", "tenantID", tenantID, "allocationID", id)

	var old *domain.Allocation
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		var err error
		old, err = r.Allocations.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := r.Allocations.Delete(ctx, tenantID, id); err != nil {
			return err
		}
		return s.status.recompute(ctx, r, tenantID, old.Target)
	})
	if err != nil {
		logger.ExitMethodWithError("allocationService.DeleteAllocation", err, "allocationID", id)
		return err
	}

	publish(ctx, s.publisher, events.New(tenantID, events.AllocationDeleted, old))
	logger.ExitMethod("allocationService.DeleteAllocation", "allocationID", id)
	return nil
}

func (s *allocationService) ListAllocations(ctx context.Context, tenantID, paymentID int32) ([]domain.Allocation, error) {
	if _, err := s.store.Repos().Payments.GetByID(ctx, tenantID, paymentID); err != nil {
		return nil, err
	}
	return s.store.Repos().Allocations.ListByPayment(ctx, tenantID, paymentID)
}

// checkPaymentCapacity enforces that a payment's allocations never add up to
// more than its amount. exclude is the allocation being replaced, if any.
func checkPaymentCapacity(ctx context.Context, r *repository.Repositories, p *domain.Payment, amount decimal.Decimal, exclude *domain.Allocation) error {
	existing, err := r.Allocations.ListByPayment(ctx, p.TenantID, p.ID)
	if err != nil {
		return err
	}
	allocated := decimal.Zero
	for _, a := range existing {
		if exclude != nil && a.ID == exclude.ID {
			continue
		}
		allocated = allocated.Add(a.Amount)
	}
	if allocated.Add(amount).GreaterThan(p.Amount) {
		return domain.NewValidationError("amount",
			"allocating %s would exceed payment %d: %s of %s already allocated", amount, p.ID, allocated, p.Amount)
	}
	return nil
}

// checkTarget resolves the target inside the tenant and applies the per-kind
// limits: a custody or transfer leg never exceeds the face amount, and a
// transfer leg must sit on the matching account.
func checkTarget(ctx context.Context, r *repository.Repositories, tenantID int32, p *domain.Payment, target domain.Target, amount decimal.Decimal, exclude *domain.Allocation) error {
	switch target.Kind {
	case domain.TargetReceivable, domain.TargetPayable:
		_, err := r.Obligations.GetByID(ctx, tenantID, obligationKindOf(target.Kind), target.ID)
		return err

	case domain.TargetCustody:
		c, err := r.Custodies.GetByID(ctx, tenantID, target.ID)
		if err != nil {
			return err
		}
		return checkLeg(ctx, r, tenantID, p, target, amount, exclude, c.TotalAmount)

	case domain.TargetTransfer:
		t, err := r.Transfers.GetByID(ctx, tenantID, target.ID)
		if err != nil {
			return err
		}
		if err := legAccount(t, p); err != nil {
			return err
		}
		return checkLeg(ctx, r, tenantID, p, target, amount, exclude, t.Amount)
	}
	return domain.NewValidationError("target", "kind %q is not a valid allocation target", target.Kind)
}

func checkLeg(ctx context.Context, r *repository.Repositories, tenantID int32, p *domain.Payment, target domain.Target, amount decimal.Decimal, exclude *domain.Allocation, limit decimal.Decimal) error {
	totals, err := r.Allocations.TotalsByTarget(ctx, tenantID, target)
	if err != nil {
		return err
	}
	leg := totals.Leg(p.Direction)
	if exclude != nil && exclude.Target == target {
		leg = leg.Sub(exclude.Amount)
	}
	if leg.Add(amount).GreaterThan(limit) {
		return domain.NewValidationError("amount",
			"%s leg of %s would reach %s, above its amount %s", p.Direction, target, leg.Add(amount), limit)
	}
	return nil
}

// checkLegLimits verifies, after a payment changed, that neither leg of a
// custody or transfer target exceeds its face amount.
func checkLegLimits(ctx context.Context, r *repository.Repositories, tenantID int32, target domain.Target) error {
	var limit decimal.Decimal
	switch target.Kind {
	case domain.TargetCustody:
		c, err := r.Custodies.GetByID(ctx, tenantID, target.ID)
		if err != nil {
			return err
		}
		limit = c.TotalAmount
	case domain.TargetTransfer:
		t, err := r.Transfers.GetByID(ctx, tenantID, target.ID)
		if err != nil {
			return err
		}
		limit = t.Amount
	default:
		return nil
	}
	totals, err := r.Allocations.TotalsByTarget(ctx, tenantID, target)
	if err != nil {
		return err
	}
	for _, d := range []domain.Direction{domain.DirectionInflow, domain.DirectionOutflow} {
		if leg := totals.Leg(d); leg.GreaterThan(limit) {
			return domain.NewValidationError("amount",
				"%s leg of %s would reach %s, above its amount %s", d, target, leg, limit)
		}
	}
	return nil
}

// checkTransferLeg requires outflow legs on the source account and inflow
// legs on the destination account.
func checkTransferLeg(ctx context.Context, r *repository.Repositories, tenantID int32, p *domain.Payment, target domain.Target) error {
	if target.Kind != domain.TargetTransfer {
		return nil
	}
	t, err := r.Transfers.GetByID(ctx, tenantID, target.ID)
	if err != nil {
		return err
	}
	return legAccount(t, p)
}

func legAccount(t *domain.Transfer, p *domain.Payment) error {
	if want := t.LegAccount(p.Direction); want != p.AccountID {
		return domain.NewValidationError("payment_id",
			"%s leg of transfer %d must be on account %d, payment %d is on account %d", p.Direction, t.ID, want, p.ID, p.AccountID)
	}
	return nil
}
