package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

// Every method takes the tenant explicitly; implementations never return rows
// of another tenant and report them as domain.NotFoundError instead.

type BankAccountRepository interface {
	Create(ctx context.Context, acc *domain.BankAccount) error
	GetByID(ctx context.Context, tenantID, id int32) (*domain.BankAccount, error)
	List(ctx context.Context, tenantID int32) ([]domain.BankAccount, error)
	// ApplyDelta adds a signed delta to the balance in place and returns the
	// new balance. The row stays locked until the surrounding transaction ends.
	ApplyDelta(ctx context.Context, tenantID, id int32, delta decimal.Decimal) (decimal.Decimal, error)
	// ListTenants returns every tenant owning at least one account; used by
	// the scheduled jobs.
	ListTenants(ctx context.Context) ([]int32, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, tenantID, id int32) (*domain.Payment, error)
	// GetForUpdate reads the payment and locks it for the transaction.
	GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Payment, error)
	Update(ctx context.Context, p *domain.Payment) error
	Delete(ctx context.Context, tenantID, id int32) error
	List(ctx context.Context, tenantID int32, filter domain.PaymentFilter) ([]domain.Payment, error)
	// ListUnallocated returns payments in the period without any allocation.
	ListUnallocated(ctx context.Context, tenantID int32, period domain.Period) ([]domain.Payment, error)
	// FindSimilar returns payments on the account with the same date, amount and direction.
	FindSimilar(ctx context.Context, tenantID, accountID int32, date time.Time, amount decimal.Decimal, direction domain.Direction) ([]domain.Payment, error)
}

type AllocationRepository interface {
	Create(ctx context.Context, a *domain.Allocation) error
	GetByID(ctx context.Context, tenantID, id int32) (*domain.Allocation, error)
	Update(ctx context.Context, a *domain.Allocation) error
	Delete(ctx context.Context, tenantID, id int32) error
	ListByPayment(ctx context.Context, tenantID, paymentID int32) ([]domain.Allocation, error)
	DeleteByPayment(ctx context.Context, tenantID, paymentID int32) error
	CountByTarget(ctx context.Context, tenantID int32, target domain.Target) (int, error)
	// TotalsByTarget sums allocations on a target split by payment direction.
	TotalsByTarget(ctx context.Context, tenantID int32, target domain.Target) (domain.TargetTotals, error)
	// ListCommissionable returns allocations on paid receivables whose payment
	// is dated inside the period.
	ListCommissionable(ctx context.Context, tenantID int32, period domain.Period) ([]domain.CommissionableAllocation, error)
}

type ObligationRepository interface {
	Create(ctx context.Context, o *domain.Obligation) error
	GetByID(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) (*domain.Obligation, error)
	List(ctx context.Context, tenantID int32, kind domain.ObligationKind, statuses []domain.ObligationStatus) ([]domain.Obligation, error)
	// Update persists amount, description, due date and the derived fields.
	Update(ctx context.Context, o *domain.Obligation) error
	UpdateStatus(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32, status domain.ObligationStatus, paidDate *time.Time) error
	Delete(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) error
	// MarkOverdue moves open obligations due before today to overdue.
	MarkOverdue(ctx context.Context, tenantID int32, kind domain.ObligationKind, today time.Time) (int64, error)
	ListCommissionPayables(ctx context.Context, tenantID int32, period string) ([]domain.Obligation, error)
}

type CustodyRepository interface {
	Create(ctx context.Context, c *domain.Custody) error
	GetByID(ctx context.Context, tenantID, id int32) (*domain.Custody, error)
	List(ctx context.Context, tenantID int32, statuses []domain.CustodyStatus) ([]domain.Custody, error)
	UpdateSettlement(ctx context.Context, tenantID, id int32, settled decimal.Decimal, status domain.CustodyStatus) error
}

type TransferRepository interface {
	Create(ctx context.Context, t *domain.Transfer) error
	GetByID(ctx context.Context, tenantID, id int32) (*domain.Transfer, error)
	List(ctx context.Context, tenantID int32) ([]domain.Transfer, error)
	UpdateStatus(ctx context.Context, tenantID, id int32, status domain.TransferStatus) error
}

type CounterpartyRepository interface {
	Create(ctx context.Context, c *domain.Counterparty) error
	GetByID(ctx context.Context, tenantID, id int32) (*domain.Counterparty, error)
	List(ctx context.Context, tenantID int32) ([]domain.Counterparty, error)
}

type CommissionRuleRepository interface {
	// Replace swaps the full rule set of an owner.
	Replace(ctx context.Context, tenantID int32, owner domain.RuleOwner, rules []domain.CommissionRule) error
	List(ctx context.Context, tenantID int32, owner domain.RuleOwner) ([]domain.CommissionRule, error)
}

// Repositories groups the repositories that share one connection or transaction.
type Repositories struct {
	Accounts        BankAccountRepository
	Payments        PaymentRepository
	Allocations     AllocationRepository
	Obligations     ObligationRepository
	Custodies       CustodyRepository
	Transfers       TransferRepository
	Counterparties  CounterpartyRepository
	CommissionRules CommissionRuleRepository
}

// Store is the transaction boundary of the ledger. WithinTx commits when fn
// returns nil and rolls everything back otherwise.
type Store interface {
	Repos() *Repositories
	WithinTx(ctx context.Context, fn func(r *Repositories) error) error
}
