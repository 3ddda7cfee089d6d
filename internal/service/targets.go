package service

import (
	"context"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
	"reconledger-backend/internal/settlement"
)

type obligationService struct {
	store  repository.Store
	status statusEngine
}

func NewObligationService(store repository.Store, clock Clock) ObligationService {
	return &obligationService{store: store, status: statusEngine{clock: clock}}
}

func (s *obligationService) CreateObligation(ctx context.Context, tenantID int32, kind domain.ObligationKind, in domain.ObligationInput) (*domain.Obligation, error) {
	logger.EnterMethod("obligationService.CreateObligation", "tenantID", tenantID, "kind", kind, "counterpartyID", in.CounterpartyID)

	if !kind.Valid() {
		return nil, domain.NewValidationError("kind", "must be receivable or payable, got %q", kind)
	}
	if err := in.Validate(); err != nil {
		logger.ExitMethodWithError("obligationService.CreateObligation", err, "tenantID", tenantID)
		return nil, err
	}

	repos := s.store.Repos()
	cp, err := repos.Counterparties.GetByID(ctx, tenantID, in.CounterpartyID)
	if err != nil {
		logger.ExitMethodWithError("obligationService.CreateObligation", err, "counterpartyID", in.CounterpartyID)
		return nil, err
	}

	due := domain.Today(in.DueDate)
	o := &domain.Obligation{
		TenantID:         tenantID,
		Kind:             kind,
		CounterpartyID:   cp.ID,
		CounterpartyName: cp.Name,
		Description:      in.Description,
		Amount:           in.Amount,
		PaidTotal:        decimal.Zero,
		DueDate:          due,
		Status:           settlement.ObligationStatus(in.Amount, decimal.Zero, due, s.status.clock()),
	}
	if err := repos.Obligations.Create(ctx, o); err != nil {
		logger.ExitMethodWithError("obligationService.CreateObligation", err, "tenantID", tenantID)
		return nil, err
	}

	logger.ExitMethod("obligationService.CreateObligation", "kind", kind, "id", o.ID)
	return o, nil
}

// GetObligation and ListObligations sweep date-driven transitions before
// reading so a past-due obligation never reads as open.
func (s *obligationService) GetObligation(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) (*domain.Obligation, error) {
	repos := s.store.Repos()
	if _, err := s.status.sweepOverdue(ctx, repos, tenantID); err != nil {
		return nil, err
	}
	return repos.Obligations.GetByID(ctx, tenantID, kind, id)
}

func (s *obligationService) ListObligations(ctx context.Context, tenantID int32, kind domain.ObligationKind, statuses []domain.ObligationStatus) ([]domain.Obligation, error) {
	if !kind.Valid() {
		return nil, domain.NewValidationError("kind", "must be receivable or payable, got %q", kind)
	}
	repos := s.store.Repos()
	if _, err := s.status.sweepOverdue(ctx, repos, tenantID); err != nil {
		return nil, err
	}
	return repos.Obligations.List(ctx, tenantID, kind, statuses)
}

func (s *obligationService) UpdateObligation(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32, in domain.ObligationInput) (*domain.Obligation, error) {
	logger.EnterMethod("obligationService.UpdateObligation", "tenantID", tenantID, "kind", kind, "id", id)

	var out *domain.Obligation
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		o, err := r.Obligations.GetByID(ctx, tenantID, kind, id)
		if err != nil {
			return err
		}
		in.CounterpartyID = o.CounterpartyID
		if err := in.Validate(); err != nil {
			return err
		}
		o.Description = in.Description
		o.Amount = in.Amount
		o.DueDate = domain.Today(in.DueDate)
		if err := r.Obligations.Update(ctx, o); err != nil {
			return err
		}
		if err := s.status.recompute(ctx, r, tenantID, o.Target()); err != nil {
			return err
		}
		out, err = r.Obligations.GetByID(ctx, tenantID, kind, id)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("obligationService.UpdateObligation", err, "id", id)
		return nil, err
	}

	logger.ExitMethod("obligationService.UpdateObligation", "id", id, "status", out.Status)
	return out, nil
}

func (s *obligationService) DeleteObligation(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) error {
	return s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		o, err := r.Obligations.GetByID(ctx, tenantID, kind, id)
		if err != nil {
			return err
		}
		n, err := r.Allocations.CountByTarget(ctx, tenantID, o.Target())
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.NewConflictError("%s %d still has %d allocations", kind, id, n)
		}
		return r.Obligations.Delete(ctx, tenantID, kind, id)
	})
}

func (s *obligationService) SweepOverdue(ctx context.Context, tenantID int32) (int64, error) {
	return s.status.sweepOverdue(ctx, s.store.Repos(), tenantID)
}

type custodyService struct {
	store repository.Store
}

func NewCustodyService(store repository.Store) CustodyService {
	return &custodyService{store: store}
}

func (s *custodyService) CreateCustody(ctx context.Context, tenantID int32, in domain.CustodyInput) (*domain.Custody, error) {
	logger.EnterMethod("custodyService.CreateCustody", "tenantID", tenantID, "kind", in.Kind)

	if err := in.Validate(); err != nil {
		logger.ExitMethodWithError("custodyService.CreateCustody", err, "tenantID", tenantID)
		return nil, err
	}
	repos := s.store.Repos()
	cp, err := repos.Counterparties.GetByID(ctx, tenantID, in.CounterpartyID)
	if err != nil {
		logger.ExitMethodWithError("custodyService.CreateCustody", err, "counterpartyID", in.CounterpartyID)
		return nil, err
	}

	c := &domain.Custody{
		TenantID:         tenantID,
		Kind:             in.Kind,
		CounterpartyID:   cp.ID,
		CounterpartyName: cp.Name,
		Description:      in.Description,
		TotalAmount:      in.TotalAmount,
		SettledAmount:    decimal.Zero,
		InflowTotal:      decimal.Zero,
		OutflowTotal:     decimal.Zero,
		Status:           domain.CustodyOpen,
	}
	if err := repos.Custodies.Create(ctx, c); err != nil {
		logger.ExitMethodWithError("custodyService.CreateCustody", err, "tenantID", tenantID)
		return nil, err
	}

	logger.ExitMethod("custodyService.CreateCustody", "custodyID", c.ID)
	return c, nil
}

func (s *custodyService) GetCustody(ctx context.Context, tenantID, id int32) (*domain.Custody, error) {
	return s.store.Repos().Custodies.GetByID(ctx, tenantID, id)
}

func (s *custodyService) ListCustodies(ctx context.Context, tenantID int32, statuses []domain.CustodyStatus) ([]domain.Custody, error) {
	return s.store.Repos().Custodies.List(ctx, tenantID, statuses)
}

type transferService struct {
	store repository.Store
	clock Clock
}

func NewTransferService(store repository.Store, clock Clock) TransferService {
	return &transferService{store: store, clock: clock}
}

func (s *transferService) CreateTransfer(ctx context.Context, tenantID int32, in domain.TransferInput) (*domain.Transfer, error) {
	logger.EnterMethod("transferService.CreateTransfer", "tenantID", tenantID, "from", in.FromAccountID, "to", in.ToAccountID)

	if err := in.Validate(); err != nil {
		logger.ExitMethodWithError("transferService.CreateTransfer", err, "tenantID", tenantID)
		return nil, err
	}
	repos := s.store.Repos()
	for _, id := range []int32{in.FromAccountID, in.ToAccountID} {
		if _, err := repos.Accounts.GetByID(ctx, tenantID, id); err != nil {
			logger.ExitMethodWithError("transferService.CreateTransfer", err, "accountID", id)
			return nil, err
		}
	}

	date := in.Date
	if date.IsZero() {
		date = s.clock()
	}
	t := &domain.Transfer{
		TenantID:      tenantID,
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Amount:        in.Amount,
		Date:          domain.Today(date),
		Status:        domain.TransferPending,
	}
	if err := repos.Transfers.Create(ctx, t); err != nil {
		logger.ExitMethodWithError("transferService.CreateTransfer", err, "tenantID", tenantID)
		return nil, err
	}

	logger.ExitMethod("transferService.CreateTransfer", "transferID", t.ID)
	return t, nil
}

func (s *transferService) GetTransfer(ctx context.Context, tenantID, id int32) (*domain.Transfer, error) {
	return s.store.Repos().Transfers.GetByID(ctx, tenantID, id)
}

func (s *transferService) ListTransfers(ctx context.Context, tenantID int32) ([]domain.Transfer, error) {
	return s.store.Repos().Transfers.List(ctx, tenantID)
}
