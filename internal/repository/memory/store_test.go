package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/repository"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc := &domain.BankAccount{TenantID: 1, Name: "Main", Balance: decimal.Zero}
	require.NoError(t, s.Repos().Accounts.Create(ctx, acc))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(r *repository.Repositories) error {
		_, err := r.Accounts.ApplyDelta(ctx, 1, acc.ID, decimal.NewFromInt(100))
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Repos().Accounts.GetByID(ctx, 1, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestWithinTx_Commits(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc := &domain.BankAccount{TenantID: 1, Name: "Main", Balance: decimal.Zero}
	require.NoError(t, s.Repos().Accounts.Create(ctx, acc))

	err := s.WithinTx(ctx, func(r *repository.Repositories) error {
		_, err := r.Accounts.ApplyDelta(ctx, 1, acc.ID, decimal.NewFromInt(250))
		return err
	})
	require.NoError(t, err)

	got, err := s.Repos().Accounts.GetByID(ctx, 1, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(250)))
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc := &domain.BankAccount{TenantID: 1, Name: "Main"}
	require.NoError(t, s.Repos().Accounts.Create(ctx, acc))

	_, err := s.Repos().Accounts.GetByID(ctx, 2, acc.ID)
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))

	list, err := s.Repos().Accounts.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestObligationReadModel(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := s.Repos()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	cp := &domain.Counterparty{TenantID: 1, Name: "João Silva"}
	require.NoError(t, r.Counterparties.Create(ctx, cp))
	rec := &domain.Obligation{TenantID: 1, Kind: domain.ObligationReceivable, CounterpartyID: cp.ID,
		Amount: decimal.NewFromInt(1000), DueDate: day}
	require.NoError(t, r.Obligations.Create(ctx, rec))
	p := &domain.Payment{TenantID: 1, AccountID: 1, Direction: domain.DirectionInflow,
		Amount: decimal.NewFromInt(400), Date: day}
	require.NoError(t, r.Payments.Create(ctx, p))
	require.NoError(t, r.Allocations.Create(ctx, &domain.Allocation{TenantID: 1, PaymentID: p.ID,
		Target: rec.Target(), Amount: decimal.NewFromInt(400)}))

	got, err := r.Obligations.GetByID(ctx, 1, domain.ObligationReceivable, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "João Silva", got.CounterpartyName)
	assert.True(t, got.PaidTotal.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, domain.ObligationOpen, got.Status)

	_, err = r.Obligations.GetByID(ctx, 1, domain.ObligationPayable, rec.ID)
	assert.Error(t, err)
}

func TestMarkOverdue(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := s.Repos()
	past := &domain.Obligation{TenantID: 1, Kind: domain.ObligationPayable, Amount: decimal.NewFromInt(10),
		DueDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)}
	future := &domain.Obligation{TenantID: 1, Kind: domain.ObligationPayable, Amount: decimal.NewFromInt(10),
		DueDate: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, r.Obligations.Create(ctx, past))
	require.NoError(t, r.Obligations.Create(ctx, future))

	n, err := r.Obligations.MarkOverdue(ctx, 1, domain.ObligationPayable, time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	overdue, err := r.Obligations.List(ctx, 1, domain.ObligationPayable, []domain.ObligationStatus{domain.ObligationOverdue})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, past.ID, overdue[0].ID)
}

func TestFindSimilarAndUnallocated(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := s.Repos()
	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	a := &domain.Payment{TenantID: 1, AccountID: 7, Direction: domain.DirectionInflow, Amount: decimal.NewFromInt(50), Date: day, Memo: "a"}
	b := &domain.Payment{TenantID: 1, AccountID: 7, Direction: domain.DirectionOutflow, Amount: decimal.NewFromInt(50), Date: day, Memo: "b"}
	require.NoError(t, r.Payments.Create(ctx, a))
	require.NoError(t, r.Payments.Create(ctx, b))
	require.NoError(t, r.Allocations.Create(ctx, &domain.Allocation{TenantID: 1, PaymentID: b.ID,
		Target: domain.Target{Kind: domain.TargetPayable, ID: 99}, Amount: decimal.NewFromInt(50)}))

	similar, err := r.Payments.FindSimilar(ctx, 1, 7, day, decimal.RequireFromString("50.00"), domain.DirectionInflow)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, a.ID, similar[0].ID)

	unallocated, err := r.Payments.ListUnallocated(ctx, 1, domain.MonthPeriod(day))
	require.NoError(t, err)
	require.Len(t, unallocated, 1)
	assert.Equal(t, a.ID, unallocated[0].ID)
}
