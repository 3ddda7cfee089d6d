package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

const paymentColumns = `p.id, p.tenant_id, p.account_id, p.direction, p.amount, p.date, p.memo, p.created_at, p.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner, p *domain.Payment) error {
	return s.Scan(&p.ID, &p.TenantID, &p.AccountID, &p.Direction, &p.Amount, &p.Date, &p.Memo, &p.CreatedAt, &p.UpdatedAt)
}

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	logger.EnterMethod("paymentRepository.Create", "tenantID", p.TenantID, "accountID", p.AccountID, "direction", p.Direction)

	query := `INSERT INTO payments (tenant_id, account_id, direction, amount, date, memo, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, updated_at`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		p.TenantID, p.AccountID, p.Direction, p.Amount, p.Date, p.Memo, now, now,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Create", err, "accountID", p.AccountID)
		return err
	}

	logger.ExitMethod("paymentRepository.Create", "paymentID", p.ID)
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.Payment, error) {
	return r.get(ctx, tenantID, id, "")
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Payment, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r *paymentRepository) get(ctx context.Context, tenantID, id int32, lock string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1 AND p.tenant_id = $2` + lock
	p := &domain.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, id, tenantID), p); err != nil {
		return nil, notFound(err, "payment", id)
	}
	return p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	logger.EnterMethod("paymentRepository.Update", "paymentID", p.ID)

	query := `UPDATE payments SET account_id = $1, direction = $2, amount = $3, date = $4, memo = $5, updated_at = $6
	          WHERE id = $7 AND tenant_id = $8`
	p.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, p.AccountID, p.Direction, p.Amount, p.Date, p.Memo, p.UpdatedAt, p.ID, p.TenantID)
	if err == nil {
		err = expectRow(res, "payment", p.ID)
	}
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Update", err, "paymentID", p.ID)
		return err
	}

	logger.ExitMethod("paymentRepository.Update", "paymentID", p.ID)
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, tenantID, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	return expectRow(res, "payment", id)
}

func (r *paymentRepository) List(ctx context.Context, tenantID int32, filter domain.PaymentFilter) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.tenant_id = $1`
	args := []interface{}{tenantID}
	argIndex := 2

	if filter.AccountID > 0 {
		query += fmt.Sprintf(" AND p.account_id = $%d", argIndex)
		args = append(args, filter.AccountID)
		argIndex++
	}
	if filter.Direction != "" {
		query += fmt.Sprintf(" AND p.direction = $%d", argIndex)
		args = append(args, filter.Direction)
		argIndex++
	}
	if filter.Period != nil {
		query += fmt.Sprintf(" AND p.date >= $%d AND p.date < $%d", argIndex, argIndex+1)
		args = append(args, filter.Period.Start, filter.Period.End)
	}
	query += " ORDER BY p.date, p.id"

	return r.list(ctx, "paymentRepository.List", query, args...)
}

func (r *paymentRepository) ListUnallocated(ctx context.Context, tenantID int32, period domain.Period) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p
	          WHERE p.tenant_id = $1 AND p.date >= $2 AND p.date < $3
	            AND NOT EXISTS (SELECT 1 FROM allocations a WHERE a.payment_id = p.id)
	          ORDER BY p.date, p.id`
	return r.list(ctx, "paymentRepository.ListUnallocated", query, tenantID, period.Start, period.End)
}

func (r *paymentRepository) FindSimilar(ctx context.Context, tenantID, accountID int32, date time.Time, amount decimal.Decimal, direction domain.Direction) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p
	          WHERE p.tenant_id = $1 AND p.account_id = $2 AND p.date = $3 AND p.amount = $4 AND p.direction = $5
	          ORDER BY p.id`
	return r.list(ctx, "paymentRepository.FindSimilar", query, tenantID, accountID, domain.Today(date), amount, direction)
}

func (r *paymentRepository) list(ctx context.Context, method, query string, args ...interface{}) ([]domain.Payment, error) {
	logger.EnterMethod(method, "args", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError(method, err)
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := scanPayment(rows, &p); err != nil {
			logger.ExitMethodWithError(method, err)
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		logger.ExitMethodWithError(method, err)
		return nil, err
	}

	logger.ExitMethod(method, "count", len(payments))
	return payments, nil
}
