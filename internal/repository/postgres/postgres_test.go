package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/repository"
)

func TestBankAccountRepository_ApplyDelta(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewBankAccountRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("UPDATE bank_accounts SET balance = balance \\+ \\$1").
			WithArgs(decimal.NewFromInt(-250), int32(3), int32(1)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("750.00"))

		balance, err := repo.ApplyDelta(ctx, 1, 3, decimal.NewFromInt(-250))
		assert.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(750)))
	})

	t.Run("OtherTenant", func(t *testing.T) {
		mock.ExpectQuery("UPDATE bank_accounts").
			WithArgs(sqlmock.AnyArg(), int32(3), int32(2)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))

		_, err := repo.ApplyDelta(ctx, 2, 3, decimal.NewFromInt(10))
		var nf *domain.NotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_CreateAndLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewPaymentRepository(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	p := &domain.Payment{TenantID: 1, AccountID: 2, Direction: domain.DirectionInflow,
		Amount: decimal.NewFromInt(1500), Date: day, Memo: "PIX João Silva"}
	mock.ExpectQuery("INSERT INTO payments").
		WithArgs(int32(1), int32(2), domain.DirectionInflow, decimal.NewFromInt(1500), day, "PIX João Silva", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(9, now, now))
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, int32(9), p.ID)

	mock.ExpectQuery("FROM payments p WHERE p.id = \\$1 AND p.tenant_id = \\$2 FOR UPDATE").
		WithArgs(int32(9), int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "account_id", "direction", "amount", "date", "memo", "created_at", "updated_at"}).
			AddRow(9, 1, 2, "inflow", "1500.00", day, "PIX João Silva", now, now))
	got, err := repo.GetForUpdate(ctx, 1, 9)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionInflow, got.Direction)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1500)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepository_TotalsByTarget(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewAllocationRepository(db)
	target := domain.Target{Kind: domain.TargetCustody, ID: 5}
	last := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM allocations a\\s+JOIN payments p").
		WithArgs(int32(1), domain.TargetCustody, int32(5)).
		WillReturnRows(sqlmock.NewRows([]string{"inflow", "outflow", "max"}).AddRow("12600.00", "3000.00", last))

	totals, err := repo.TotalsByTarget(context.Background(), 1, target)
	require.NoError(t, err)
	assert.True(t, totals.Inflow.Equal(decimal.NewFromInt(12600)))
	assert.True(t, totals.Outflow.Equal(decimal.NewFromInt(3000)))
	require.NotNil(t, totals.LastPaymentDate)
	assert.Equal(t, last, *totals.LastPaymentDate)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObligationRepository_MarkOverdue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewObligationRepository(db)
	today := time.Date(2026, 6, 10, 14, 30, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE receivables SET status = 'overdue'").
		WithArgs(sqlmock.AnyArg(), int32(1), time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkOverdue(context.Background(), 1, domain.ObligationReceivable, today)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObligationRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewObligationRepository(db)
	mock.ExpectQuery("FROM payables o").
		WithArgs(int32(4), int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByID(context.Background(), 1, domain.ObligationPayable, 4)
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "payable", nf.Entity)
}

func TestCommissionRuleRepository_Replace(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewCommissionRuleRepository(db)
	owner := domain.RuleOwner{Kind: domain.RuleOwnerCounterparty, ID: 7}

	mock.ExpectExec("DELETE FROM commission_rules").
		WithArgs(int32(1), domain.RuleOwnerCounterparty, int32(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO commission_rules").
		WithArgs(int32(1), domain.RuleOwnerCounterparty, int32(7), int32(11), decimal.NewFromInt(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Replace(context.Background(), 1, owner, []domain.CommissionRule{{BeneficiaryID: 11, Percentage: decimal.NewFromInt(10)}})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE bank_accounts").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("100.00"))
		mock.ExpectCommit()

		err := store.WithinTx(ctx, func(r *repository.Repositories) error {
			_, err := r.Accounts.ApplyDelta(ctx, 1, 1, decimal.NewFromInt(100))
			return err
		})
		assert.NoError(t, err)
	})

	t.Run("Rollback", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(r *repository.Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
