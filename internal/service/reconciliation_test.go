package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/repository"
	"reconledger-backend/internal/repository/memory"
)

func TestReconcile_AutoMatchOnSharedWords(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("João Silva Advocacia")
	rec := f.obligation(domain.ObligationReceivable, cp.ID, "1500", day(2026, 3, 20), "")
	p := f.payment(acc.ID, domain.DirectionInflow, "1500", day(2026, 3, 12), "PIX João Silva")

	res, err := f.reconciliation.Reconcile(f.ctx, tenant, domain.MonthPeriod(now))
	require.NoError(t, err)
	assert.Equal(t, "2026-03", res.Period)
	assert.Equal(t, 1, res.Scanned)
	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, p.ID, m.PaymentID)
	assert.Equal(t, rec.Target(), m.Target)
	assert.NotZero(t, m.AllocationID)
	assert.ElementsMatch(t, []string{"joao", "silva"}, m.Evidence.SharedWords)

	got := f.getObligation(domain.ObligationReceivable, rec.ID)
	assert.Equal(t, domain.ObligationPaid, got.Status)
	require.NotNil(t, got.PaidDate)
	assert.Equal(t, day(2026, 3, 12), *got.PaidDate)
	assert.Contains(t, f.recorder.Types(), events.ReconciliationCompleted)

	again, err := f.reconciliation.Reconcile(f.ctx, tenant, domain.MonthPeriod(now))
	require.NoError(t, err)
	assert.Zero(t, again.Scanned, "allocated payments are not scanned again")
}

func TestReconcile_ValueOnlyYieldsSuggestion(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("João Silva Advocacia")
	rec := f.obligation(domain.ObligationReceivable, cp.ID, "1500", day(2026, 3, 20), "")
	p := f.payment(acc.ID, domain.DirectionInflow, "1500", day(2026, 3, 12), "PIX recebido")

	res, err := f.reconciliation.Reconcile(f.ctx, tenant, domain.MonthPeriod(now))
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, p.ID, res.Suggestions[0].PaymentID)
	require.Len(t, res.Suggestions[0].Candidates, 1)
	assert.Equal(t, rec.Target(), res.Suggestions[0].Candidates[0].Target)

	assert.Equal(t, domain.ObligationOpen, f.getObligation(domain.ObligationReceivable, rec.ID).Status)
	assert.NotContains(t, f.recorder.Types(), events.ReconciliationCompleted)
}

func TestReconcile_UnmatchedAndOutOfPeriod(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("João Silva Advocacia")
	f.obligation(domain.ObligationReceivable, cp.ID, "1500", day(2026, 3, 20), "")
	f.payment(acc.ID, domain.DirectionInflow, "1500", day(2026, 2, 27), "PIX João Silva")
	odd := f.payment(acc.ID, domain.DirectionInflow, "77.10", day(2026, 3, 3), "TED diversos")

	res, err := f.reconciliation.Reconcile(f.ctx, tenant, domain.MonthPeriod(now))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Empty(t, res.Matches)
	assert.Equal(t, []int32{odd.ID}, res.Unmatched)
}

func TestReconcile_SweepsOverdueFirst(t *testing.T) {
	f := newFixture(t)
	cp := f.counterparty("Maria Souza")
	stale := &domain.Obligation{TenantID: tenant, Kind: domain.ObligationReceivable, CounterpartyID: cp.ID,
		Amount: dec("100"), DueDate: day(2026, 3, 1), Status: domain.ObligationOpen}
	require.NoError(t, f.store.Repos().Obligations.Create(f.ctx, stale))

	_, err := f.reconciliation.Reconcile(f.ctx, tenant, domain.MonthPeriod(now))
	require.NoError(t, err)

	got, err := f.store.Repos().Obligations.GetByID(f.ctx, tenant, domain.ObligationReceivable, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationOverdue, got.Status)
}

func TestConfirmSuggestion(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("João Silva Advocacia")
	rec := f.obligation(domain.ObligationReceivable, cp.ID, "1500", day(2026, 3, 20), "")
	first := f.payment(acc.ID, domain.DirectionInflow, "1500", day(2026, 3, 12), "PIX recebido")
	second := f.payment(acc.ID, domain.DirectionInflow, "1500", day(2026, 3, 13), "DEP DINHEIRO")

	res, err := f.reconciliation.Reconcile(f.ctx, tenant, domain.MonthPeriod(now))
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 2)

	a, err := f.reconciliation.ConfirmSuggestion(f.ctx, tenant, first.ID, rec.Target())
	require.NoError(t, err)
	assert.True(t, a.Amount.Equal(dec("1500")))
	assert.Equal(t, domain.ObligationPaid, f.getObligation(domain.ObligationReceivable, rec.ID).Status)

	t.Run("stale suggestion conflicts", func(t *testing.T) {
		_, err := f.reconciliation.ConfirmSuggestion(f.ctx, tenant, second.ID, rec.Target())
		var ce *domain.ConflictError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("already allocated payment conflicts", func(t *testing.T) {
		_, err := f.reconciliation.ConfirmSuggestion(f.ctx, tenant, first.ID, rec.Target())
		var ce *domain.ConflictError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("transfers are never suggested", func(t *testing.T) {
		_, err := f.reconciliation.ConfirmSuggestion(f.ctx, tenant, second.ID, domain.Target{Kind: domain.TargetTransfer, ID: 1})
		var ve *domain.ValidationError
		assert.True(t, errors.As(err, &ve))
	})
}

// failingStore fails the failAt-th allocation created through its
// transactions.
type failingStore struct {
	*memory.Store
	failAt  int
	created int
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(r *repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(r *repository.Repositories) error {
		wrapped := *r
		wrapped.Allocations = failingAllocations{AllocationRepository: r.Allocations, store: s}
		return fn(&wrapped)
	})
}

type failingAllocations struct {
	repository.AllocationRepository
	store *failingStore
}

func (a failingAllocations) Create(ctx context.Context, al *domain.Allocation) error {
	a.store.created++
	if a.store.created == a.store.failAt {
		return errors.New("connection reset")
	}
	return a.AllocationRepository.Create(ctx, al)
}

func TestReconcile_FailedMatchRollsBackWholeRun(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	joao := f.counterparty("João Silva Advocacia")
	maria := f.counterparty("Maria Souza Consultoria")
	r1 := f.obligation(domain.ObligationReceivable, joao.ID, "1500", day(2026, 3, 20), "")
	r2 := f.obligation(domain.ObligationReceivable, maria.ID, "2000", day(2026, 3, 25), "")
	p1 := f.payment(acc.ID, domain.DirectionInflow, "1500", day(2026, 3, 10), "PIX João Silva")
	p2 := f.payment(acc.ID, domain.DirectionInflow, "2000", day(2026, 3, 11), "PIX Maria Souza")

	store := &failingStore{Store: f.store, failAt: 2}
	rec := &events.Recorder{}
	svc := NewReconciliationService(store, rec, func() time.Time { return now }, 5)

	_, err := svc.Reconcile(f.ctx, tenant, domain.MonthPeriod(now))
	require.Error(t, err)
	assert.Equal(t, 2, store.created)

	for _, p := range []*domain.Payment{p1, p2} {
		allocations, err := f.allocations.ListAllocations(f.ctx, tenant, p.ID)
		require.NoError(t, err)
		assert.Empty(t, allocations, "payment %d", p.ID)
	}
	for _, o := range []*domain.Obligation{r1, r2} {
		got := f.getObligation(domain.ObligationReceivable, o.ID)
		assert.Equal(t, domain.ObligationOpen, got.Status)
		assert.Nil(t, got.PaidDate)
	}
	assert.Empty(t, rec.Types())

	res, err := f.reconciliation.Reconcile(f.ctx, tenant, domain.MonthPeriod(now))
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
}
