package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/repository/memory"
	"reconledger-backend/internal/staging"
)

const tenant int32 = 1

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	t   *testing.T
	ctx context.Context

	store    *memory.Store
	recorder *events.Recorder

	ledger         LedgerService
	payments       PaymentService
	allocations    AllocationService
	obligations    ObligationService
	custodies      CustodyService
	transfers      TransferService
	counterparties CounterpartyService
	reconciliation ReconciliationService
	imports        ImportService
	commissions    CommissionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	rec := &events.Recorder{}
	clock := func() time.Time { return now }
	return &fixture{
		t:              t,
		ctx:            context.Background(),
		store:          store,
		recorder:       rec,
		ledger:         NewLedgerService(store),
		payments:       NewPaymentService(store, rec, clock),
		allocations:    NewAllocationService(store, rec, clock),
		obligations:    NewObligationService(store, clock),
		custodies:      NewCustodyService(store),
		transfers:      NewTransferService(store, clock),
		counterparties: NewCounterpartyService(store),
		reconciliation: NewReconciliationService(store, rec, clock, 5),
		imports:        NewImportService(store, staging.NewMemoryStager(time.Hour), rec, clock),
		commissions:    NewCommissionService(store, rec, clock, 10),
	}
}

func (f *fixture) account(name string) *domain.BankAccount {
	f.t.Helper()
	acc, err := f.ledger.CreateAccount(f.ctx, tenant, name, decimal.Zero)
	require.NoError(f.t, err)
	return acc
}

func (f *fixture) counterparty(name string) *domain.Counterparty {
	f.t.Helper()
	cp, err := f.counterparties.CreateCounterparty(f.ctx, tenant, name, "")
	require.NoError(f.t, err)
	return cp
}

func (f *fixture) payment(accountID int32, dir domain.Direction, amount string, date time.Time, memo string) *domain.Payment {
	f.t.Helper()
	p, err := f.payments.CreatePayment(f.ctx, tenant, domain.PaymentInput{
		AccountID: accountID, Direction: dir, Amount: dec(amount), Date: date, Memo: memo,
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) obligation(kind domain.ObligationKind, cpID int32, amount string, due time.Time, desc string) *domain.Obligation {
	f.t.Helper()
	o, err := f.obligations.CreateObligation(f.ctx, tenant, kind, domain.ObligationInput{
		CounterpartyID: cpID, Description: desc, Amount: dec(amount), DueDate: due,
	})
	require.NoError(f.t, err)
	return o
}

func (f *fixture) allocate(paymentID int32, target domain.Target, amount string) (*domain.Allocation, error) {
	return f.allocations.CreateAllocation(f.ctx, tenant, domain.AllocationInput{
		PaymentID: paymentID, Target: target, Amount: dec(amount),
	})
}

func (f *fixture) balance(accountID int32) decimal.Decimal {
	f.t.Helper()
	acc, err := f.ledger.GetAccount(f.ctx, tenant, accountID)
	require.NoError(f.t, err)
	return acc.Balance
}

func (f *fixture) getObligation(kind domain.ObligationKind, id int32) *domain.Obligation {
	f.t.Helper()
	o, err := f.obligations.GetObligation(f.ctx, tenant, kind, id)
	require.NoError(f.t, err)
	return o
}
