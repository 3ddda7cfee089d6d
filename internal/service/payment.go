package service

import (
	"context"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

type paymentService struct {
	store     repository.Store
	publisher events.Publisher
	status    statusEngine
}

func NewPaymentService(store repository.Store, publisher events.Publisher, clock Clock) PaymentService {
	return &paymentService{store: store, publisher: publisher, status: statusEngine{clock: clock}}
}

func (s *paymentService) CreatePayment(ctx context.Context, tenantID int32, in domain.PaymentInput) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.CreatePayment", "tenantID", tenantID, "accountID", in.AccountID, "direction", in.Direction)

	if err := in.Validate(); err != nil {
		logger.ExitMethodWithError("paymentService.CreatePayment", err, "tenantID", tenantID)
		return nil, err
	}

	p := &domain.Payment{
		TenantID:  tenantID,
		AccountID: in.AccountID,
		Direction: in.Direction,
		Amount:    in.Amount,
		Date:      domain.Today(in.Date),
		Memo:      in.Memo,
	}
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		return createPayment(ctx, r, p)
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreatePayment", err, "tenantID", tenantID)
		return nil, err
	}

	publish(ctx, s.publisher, events.New(tenantID, events.PaymentCreated, p))
	logger.ExitMethod("paymentService.CreatePayment", "paymentID", p.ID)
	return p, nil
}

// createPayment inserts the payment and posts its delta in the caller's
// transaction.
func createPayment(ctx context.Context, r *repository.Repositories, p *domain.Payment) error {
	if err := r.Payments.Create(ctx, p); err != nil {
		return err
	}
	return apply(ctx, r, p.TenantID, p.AccountID, p.SignedAmount())
}

func (s *paymentService) GetPayment(ctx context.Context, tenantID, id int32) (*domain.Payment, error) {
	return s.store.Repos().Payments.GetByID(ctx, tenantID, id)
}

func (s *paymentService) ListPayments(ctx context.Context, tenantID int32, filter domain.PaymentFilter) ([]domain.Payment, error) {
	return s.store.Repos().Payments.List(ctx, tenantID, filter)
}

func (s *paymentService) UpdatePayment(ctx context.Context, tenantID, id int32, upd domain.PaymentUpdate) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.UpdatePayment", "tenantID", tenantID, "paymentID", id)

	var updated domain.Payment
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		old, err := r.Payments.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		updated = upd.Apply(*old)
		updated.Date = domain.Today(updated.Date)
		if err := (domain.PaymentInput{
			AccountID: updated.AccountID,
			Direction: updated.Direction,
			Amount:    updated.Amount,
			Date:      updated.Date,
		}).Validate(); err != nil {
			return err
		}

		allocations, err := r.Allocations.ListByPayment(ctx, tenantID, id)
		if err != nil {
			return err
		}
		allocated := decimal.Zero
		targets := make([]domain.Target, 0, len(allocations))
		for _, a := range allocations {
			allocated = allocated.Add(a.Amount)
			targets = append(targets, a.Target)
			if err := checkTransferLeg(ctx, r, tenantID, &updated, a.Target); err != nil {
				return err
			}
		}
		if updated.Amount.LessThan(allocated) {
			return domain.NewValidationError("amount",
				"%s is below the %s already allocated from this payment", updated.Amount, allocated)
		}

		if err := apply(ctx, r, tenantID, old.AccountID, old.SignedAmount().Neg()); err != nil {
			return err
		}
		if err := r.Payments.Update(ctx, &updated); err != nil {
			return err
		}
		if err := apply(ctx, r, tenantID, updated.AccountID, updated.SignedAmount()); err != nil {
			return err
		}
		// A new direction moves every allocation of the payment onto the other leg.
		for _, t := range targets {
			if err := checkLegLimits(ctx, r, tenantID, t); err != nil {
				return err
			}
		}
		return s.status.recomputeAll(ctx, r, tenantID, targets)
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.UpdatePayment", err, "paymentID", id)
		return nil, err
	}

	publish(ctx, s.publisher, events.New(tenantID, events.PaymentUpdated, updated))
	logger.ExitMethod("paymentService.UpdatePayment", "paymentID", id)
	return &updated, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, tenantID, id int32) error {
	logger.EnterMethod("paymentService.DeletePayment", "tenantID", tenantID, "paymentID", id)

	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		p, err := r.Payments.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		allocations, err := r.Allocations.ListByPayment(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := apply(ctx, r, tenantID, p.AccountID, p.SignedAmount().Neg()); err != nil {
			return err
		}
		if err := r.Allocations.DeleteByPayment(ctx, tenantID, id); err != nil {
			return err
		}
		if err := r.Payments.Delete(ctx, tenantID, id); err != nil {
			return err
		}
		targets := make([]domain.Target, len(allocations))
		for i, a := range allocations {
			targets[i] = a.Target
		}
		return s.status.recomputeAll(ctx, r, tenantID, targets)
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.DeletePayment", err, "paymentID", id)
		return err
	}

	publish(ctx, s.publisher, events.New(tenantID, events.PaymentDeleted, map[string]int32{"payment_id": id}))
	logger.ExitMethod("paymentService.DeletePayment", "paymentID", id)
	return nil
}
