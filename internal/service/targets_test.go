package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconledger-backend/internal/domain"
)

func TestCustody_NeedsBothLegs(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("Cliente Depositante")
	c, err := f.custodies.CreateCustody(f.ctx, tenant, domain.CustodyInput{
		Kind: domain.CustodyLiability, CounterpartyID: cp.ID, TotalAmount: dec("12600"),
	})
	require.NoError(t, err)

	in := f.payment(acc.ID, domain.DirectionInflow, "12600", day(2026, 3, 2), "deposito judicial")
	_, err = f.allocate(in.ID, c.Target(), "12600")
	require.NoError(t, err)

	got, err := f.custodies.GetCustody(f.ctx, tenant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CustodyOpen, got.Status)
	assert.True(t, got.SettledAmount.IsZero())
	assert.True(t, got.InflowTotal.Equal(dec("12600")))

	out := f.payment(acc.ID, domain.DirectionOutflow, "12600", day(2026, 3, 5), "repasse")
	_, err = f.allocate(out.ID, c.Target(), "12600")
	require.NoError(t, err)

	got, err = f.custodies.GetCustody(f.ctx, tenant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CustodySettled, got.Status)
	assert.True(t, got.SettledAmount.Equal(dec("12600")))
}

func TestCustody_PartialAndLegLimit(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("Cliente")
	c, err := f.custodies.CreateCustody(f.ctx, tenant, domain.CustodyInput{
		Kind: domain.CustodyAsset, CounterpartyID: cp.ID, TotalAmount: dec("1000"),
	})
	require.NoError(t, err)

	in := f.payment(acc.ID, domain.DirectionInflow, "1000", day(2026, 3, 2), "")
	_, err = f.allocate(in.ID, c.Target(), "1000")
	require.NoError(t, err)
	out := f.payment(acc.ID, domain.DirectionOutflow, "400", day(2026, 3, 3), "")
	_, err = f.allocate(out.ID, c.Target(), "400")
	require.NoError(t, err)

	got, err := f.custodies.GetCustody(f.ctx, tenant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CustodyPartial, got.Status)
	assert.True(t, got.SettledAmount.Equal(dec("400")))

	extra := f.payment(acc.ID, domain.DirectionInflow, "50", day(2026, 3, 4), "")
	_, err = f.allocate(extra.ID, c.Target(), "50")
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))

	got, err = f.custodies.GetCustody(f.ctx, tenant, c.ID)
	require.NoError(t, err)
	assert.True(t, got.SettledAmount.LessThanOrEqual(got.TotalAmount))
}

func TestCustody_PaymentDirectionChangeKeepsLegCap(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("Cliente")
	c, err := f.custodies.CreateCustody(f.ctx, tenant, domain.CustodyInput{
		Kind: domain.CustodyLiability, CounterpartyID: cp.ID, TotalAmount: dec("100"),
	})
	require.NoError(t, err)

	in := f.payment(acc.ID, domain.DirectionInflow, "100", day(2026, 3, 2), "")
	_, err = f.allocate(in.ID, c.Target(), "100")
	require.NoError(t, err)
	out := f.payment(acc.ID, domain.DirectionOutflow, "100", day(2026, 3, 3), "")
	_, err = f.allocate(out.ID, c.Target(), "100")
	require.NoError(t, err)

	inflow := domain.DirectionInflow
	_, err = f.payments.UpdatePayment(f.ctx, tenant, out.ID, domain.PaymentUpdate{Direction: &inflow})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)

	got, err := f.custodies.GetCustody(f.ctx, tenant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CustodySettled, got.Status)
	assert.True(t, got.InflowTotal.Equal(dec("100")))
	assert.True(t, got.OutflowTotal.Equal(dec("100")))
	assert.True(t, f.balance(acc.ID).IsZero())

	p, err := f.payments.GetPayment(f.ctx, tenant, out.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionOutflow, p.Direction)
}

func TestTransfer_Statuses(t *testing.T) {
	f := newFixture(t)
	a := f.account("A")
	b := f.account("B")
	tr, err := f.transfers.CreateTransfer(f.ctx, tenant, domain.TransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("500"), Date: day(2026, 3, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransferPending, tr.Status)

	out := f.payment(a.ID, domain.DirectionOutflow, "500", day(2026, 3, 3), "")
	_, err = f.allocate(out.ID, tr.Target(), "500")
	require.NoError(t, err)
	got, err := f.transfers.GetTransfer(f.ctx, tenant, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferMismatched, got.Status)

	in := f.payment(b.ID, domain.DirectionInflow, "500", day(2026, 3, 3), "")
	inAlloc, err := f.allocate(in.ID, tr.Target(), "400")
	require.NoError(t, err)
	got, _ = f.transfers.GetTransfer(f.ctx, tenant, tr.ID)
	assert.Equal(t, domain.TransferMismatched, got.Status)

	full := dec("500")
	_, err = f.allocations.UpdateAllocation(f.ctx, tenant, inAlloc.ID, domain.AllocationUpdate{Amount: &full})
	require.NoError(t, err)
	got, _ = f.transfers.GetTransfer(f.ctx, tenant, tr.ID)
	assert.Equal(t, domain.TransferComplete, got.Status)
}

func TestTransfer_LegValidation(t *testing.T) {
	f := newFixture(t)
	a := f.account("A")
	b := f.account("B")

	_, err := f.transfers.CreateTransfer(f.ctx, tenant, domain.TransferInput{
		FromAccountID: a.ID, ToAccountID: a.ID, Amount: dec("500"),
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))

	tr, err := f.transfers.CreateTransfer(f.ctx, tenant, domain.TransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("500"),
	})
	require.NoError(t, err)
	assert.Equal(t, day(2026, 3, 15), tr.Date)

	wrongAccount := f.payment(a.ID, domain.DirectionInflow, "500", day(2026, 3, 3), "")
	_, err = f.allocate(wrongAccount.ID, tr.Target(), "500")
	assert.True(t, errors.As(err, &ve))

	tooMuch := f.payment(a.ID, domain.DirectionOutflow, "600", day(2026, 3, 3), "")
	_, err = f.allocate(tooMuch.ID, tr.Target(), "600")
	assert.True(t, errors.As(err, &ve))
}

func TestObligations_LazyOverdueSweep(t *testing.T) {
	f := newFixture(t)
	cp := f.counterparty("Maria Souza")

	// Stored as open before its due date passed.
	stale := &domain.Obligation{TenantID: tenant, Kind: domain.ObligationPayable, CounterpartyID: cp.ID,
		Amount: dec("100"), DueDate: day(2026, 3, 1), Status: domain.ObligationOpen}
	require.NoError(t, f.store.Repos().Obligations.Create(f.ctx, stale))
	current := f.obligation(domain.ObligationPayable, cp.ID, "100", day(2026, 3, 15), "")
	assert.Equal(t, domain.ObligationOpen, current.Status)

	list, err := f.obligations.ListObligations(f.ctx, tenant, domain.ObligationPayable, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.ObligationOverdue, list[0].Status)
	assert.Equal(t, domain.ObligationOpen, list[1].Status)
	assert.Equal(t, "Maria Souza", list[0].CounterpartyName)
}

func TestObligations_CreatedPastDueIsOverdue(t *testing.T) {
	f := newFixture(t)
	cp := f.counterparty("Maria Souza")
	o := f.obligation(domain.ObligationReceivable, cp.ID, "100", day(2026, 2, 1), "")
	assert.Equal(t, domain.ObligationOverdue, o.Status)
}

func TestObligations_UpdateAmountRecomputes(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("Maria Souza")
	rec := f.obligation(domain.ObligationReceivable, cp.ID, "1000", day(2026, 3, 31), "")
	p := f.payment(acc.ID, domain.DirectionInflow, "800", day(2026, 3, 10), "")
	_, err := f.allocate(p.ID, rec.Target(), "800")
	require.NoError(t, err)

	updated, err := f.obligations.UpdateObligation(f.ctx, tenant, domain.ObligationReceivable, rec.ID, domain.ObligationInput{
		Amount: dec("800"), DueDate: rec.DueDate, Description: "renegociado",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationPaid, updated.Status)
	assert.Equal(t, "renegociado", updated.Description)
}

func TestObligations_DeleteWithAllocationsConflicts(t *testing.T) {
	f := newFixture(t)
	acc := f.account("Conta X")
	cp := f.counterparty("Maria Souza")
	rec := f.obligation(domain.ObligationReceivable, cp.ID, "1000", day(2026, 3, 31), "")
	p := f.payment(acc.ID, domain.DirectionInflow, "100", day(2026, 3, 10), "")
	_, err := f.allocate(p.ID, rec.Target(), "100")
	require.NoError(t, err)

	err = f.obligations.DeleteObligation(f.ctx, tenant, domain.ObligationReceivable, rec.ID)
	var ce *domain.ConflictError
	assert.True(t, errors.As(err, &ce))
}
