package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

// Every method takes the tenant explicitly; nothing reads it from the context.

type LedgerService interface {
	CreateAccount(ctx context.Context, tenantID int32, name string, opening decimal.Decimal) (*domain.BankAccount, error)
	GetAccount(ctx context.Context, tenantID, id int32) (*domain.BankAccount, error)
	ListAccounts(ctx context.Context, tenantID int32) ([]domain.BankAccount, error)
}

type PaymentService interface {
	CreatePayment(ctx context.Context, tenantID int32, in domain.PaymentInput) (*domain.Payment, error)
	GetPayment(ctx context.Context, tenantID, id int32) (*domain.Payment, error)
	ListPayments(ctx context.Context, tenantID int32, filter domain.PaymentFilter) ([]domain.Payment, error)
	UpdatePayment(ctx context.Context, tenantID, id int32, upd domain.PaymentUpdate) (*domain.Payment, error)
	DeletePayment(ctx context.Context, tenantID, id int32) error
}

type AllocationService interface {
	CreateAllocation(ctx context.Context, tenantID int32, in domain.AllocationInput) (*domain.Allocation, error)
	UpdateAllocation(ctx context.Context, tenantID, id int32, upd domain.AllocationUpdate) (*domain.Allocation, error)
	DeleteAllocation(ctx context.Context, tenantID, id int32) error
	ListAllocations(ctx context.Context, tenantID, paymentID int32) ([]domain.Allocation, error)
}

type ObligationService interface {
	CreateObligation(ctx context.Context, tenantID int32, kind domain.ObligationKind, in domain.ObligationInput) (*domain.Obligation, error)
	GetObligation(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) (*domain.Obligation, error)
	ListObligations(ctx context.Context, tenantID int32, kind domain.ObligationKind, statuses []domain.ObligationStatus) ([]domain.Obligation, error)
	UpdateObligation(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32, in domain.ObligationInput) (*domain.Obligation, error)
	DeleteObligation(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) error
	// SweepOverdue moves the tenant's open obligations past due to overdue.
	SweepOverdue(ctx context.Context, tenantID int32) (int64, error)
}

type CustodyService interface {
	CreateCustody(ctx context.Context, tenantID int32, in domain.CustodyInput) (*domain.Custody, error)
	GetCustody(ctx context.Context, tenantID, id int32) (*domain.Custody, error)
	ListCustodies(ctx context.Context, tenantID int32, statuses []domain.CustodyStatus) ([]domain.Custody, error)
}

type TransferService interface {
	CreateTransfer(ctx context.Context, tenantID int32, in domain.TransferInput) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, tenantID, id int32) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, tenantID int32) ([]domain.Transfer, error)
}

type CounterpartyService interface {
	CreateCounterparty(ctx context.Context, tenantID int32, name, document string) (*domain.Counterparty, error)
	GetCounterparty(ctx context.Context, tenantID, id int32) (*domain.Counterparty, error)
	ListCounterparties(ctx context.Context, tenantID int32) ([]domain.Counterparty, error)
}

type ReconciliationService interface {
	Reconcile(ctx context.Context, tenantID int32, period domain.Period) (*domain.ReconciliationResult, error)
	ConfirmSuggestion(ctx context.Context, tenantID, paymentID int32, target domain.Target) (*domain.Allocation, error)
}

type ImportService interface {
	ImportStatement(ctx context.Context, tenantID, accountID int32, rows []domain.StatementRow) (*domain.ImportResult, error)
	// ConfirmImport imports a staged batch; flagged rows go through only when
	// their index is listed in forceRows.
	ConfirmImport(ctx context.Context, tenantID int32, token string, forceRows []int) (*domain.ImportResult, error)
}

type CommissionService interface {
	SetRules(ctx context.Context, tenantID int32, owner domain.RuleOwner, rules []domain.CommissionRule) error
	GetRules(ctx context.Context, tenantID int32, owner domain.RuleOwner) ([]domain.CommissionRule, error)
	Calculate(ctx context.Context, tenantID int32, period domain.Period) (*domain.CommissionResult, error)
}

// Clock returns the current time; services take one so date-driven status
// can be tested.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }
