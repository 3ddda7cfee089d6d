package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

type ledgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) LedgerService {
	return &ledgerService{store: store}
}

func (s *ledgerService) CreateAccount(ctx context.Context, tenantID int32, name string, opening decimal.Decimal) (*domain.BankAccount, error) {
	logger.EnterMethod("ledgerService.CreateAccount", "tenantID", tenantID, "name", name)

	name = strings.TrimSpace(name)
	if name == "" {
		err := domain.NewValidationError("name", "is required")
		logger.ExitMethodWithError("ledgerService.CreateAccount", err, "tenantID", tenantID)
		return nil, err
	}
	acc := &domain.BankAccount{TenantID: tenantID, Name: name, Balance: opening}
	if err := s.store.Repos().Accounts.Create(ctx, acc); err != nil {
		logger.ExitMethodWithError("ledgerService.CreateAccount", err, "tenantID", tenantID)
		return nil, err
	}

	logger.ExitMethod("ledgerService.CreateAccount", "accountID", acc.ID)
	return acc, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, tenantID, id int32) (*domain.BankAccount, error) {
	return s.store.Repos().Accounts.GetByID(ctx, tenantID, id)
}

func (s *ledgerService) ListAccounts(ctx context.Context, tenantID int32) ([]domain.BankAccount, error) {
	return s.store.Repos().Accounts.List(ctx, tenantID)
}

// apply posts a signed delta to an account balance. It is the only way a
// balance changes; a reversal is apply with the negated delta.
func apply(ctx context.Context, r *repository.Repositories, tenantID, accountID int32, delta decimal.Decimal) error {
	balance, err := r.Accounts.ApplyDelta(ctx, tenantID, accountID, delta)
	if err != nil {
		return err
	}
	logger.Debug("Balance applied", "accountID", accountID, "delta", delta.String(), "balance", balance.String())
	return nil
}

type counterpartyService struct {
	store repository.Store
}

func NewCounterpartyService(store repository.Store) CounterpartyService {
	return &counterpartyService{store: store}
}

func (s *counterpartyService) CreateCounterparty(ctx context.Context, tenantID int32, name, document string) (*domain.Counterparty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	c := &domain.Counterparty{TenantID: tenantID, Name: name, Document: strings.TrimSpace(document)}
	if err := s.store.Repos().Counterparties.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *counterpartyService) GetCounterparty(ctx context.Context, tenantID, id int32) (*domain.Counterparty, error) {
	return s.store.Repos().Counterparties.GetByID(ctx, tenantID, id)
}

func (s *counterpartyService) ListCounterparties(ctx context.Context, tenantID int32) ([]domain.Counterparty, error) {
	return s.store.Repos().Counterparties.List(ctx, tenantID)
}
