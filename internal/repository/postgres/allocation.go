package postgres

import (
	"context"
	"database/sql"
	"time"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

const allocationColumns = `id, tenant_id, payment_id, target_kind, target_id, amount, created_at, updated_at`

func scanAllocation(s scanner, a *domain.Allocation) error {
	return s.Scan(&a.ID, &a.TenantID, &a.PaymentID, &a.Target.Kind, &a.Target.ID, &a.Amount, &a.CreatedAt, &a.UpdatedAt)
}

type allocationRepository struct {
	db DBTX
}

func NewAllocationRepository(db DBTX) repository.AllocationRepository {
	return &allocationRepository{db: db}
}

func (r *allocationRepository) Create(ctx context.Context, a *domain.Allocation) error {
	logger.EnterMethod("allocationRepository.Create", "paymentID", a.PaymentID, "target", a.Target.String())

	query := `INSERT INTO allocations (tenant_id, payment_id, target_kind, target_id, amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		a.TenantID, a.PaymentID, a.Target.Kind, a.Target.ID, a.Amount, now, now,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("allocationRepository.Create", err, "paymentID", a.PaymentID)
		return err
	}

	logger.ExitMethod("allocationRepository.Create", "allocationID", a.ID)
	return nil
}

func (r *allocationRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1 AND tenant_id = $2`
	a := &domain.Allocation{}
	if err := scanAllocation(r.db.QueryRowContext(ctx, query, id, tenantID), a); err != nil {
		return nil, notFound(err, "allocation", id)
	}
	return a, nil
}

func (r *allocationRepository) Update(ctx context.Context, a *domain.Allocation) error {
	logger.EnterMethod("allocationRepository.Update", "allocationID", a.ID, "target", a.Target.String())

	query := `UPDATE allocations SET target_kind = $1, target_id = $2, amount = $3, updated_at = $4
	          WHERE id = $5 AND tenant_id = $6`
	a.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, a.Target.Kind, a.Target.ID, a.Amount, a.UpdatedAt, a.ID, a.TenantID)
	if err == nil {
		err = expectRow(res, "allocation", a.ID)
	}
	if err != nil {
		logger.ExitMethodWithError("allocationRepository.Update", err, "allocationID", a.ID)
		return err
	}

	logger.ExitMethod("allocationRepository.Update", "allocationID", a.ID)
	return nil
}

func (r *allocationRepository) Delete(ctx context.Context, tenantID, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM allocations WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	return expectRow(res, "allocation", id)
}

func (r *allocationRepository) ListByPayment(ctx context.Context, tenantID, paymentID int32) ([]domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE tenant_id = $1 AND payment_id = $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Allocation
	for rows.Next() {
		var a domain.Allocation
		if err := scanAllocation(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *allocationRepository) DeleteByPayment(ctx context.Context, tenantID, paymentID int32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM allocations WHERE tenant_id = $1 AND payment_id = $2`, tenantID, paymentID)
	return err
}

func (r *allocationRepository) CountByTarget(ctx context.Context, tenantID int32, target domain.Target) (int, error) {
	var n int
	query := `SELECT count(*) FROM allocations WHERE tenant_id = $1 AND target_kind = $2 AND target_id = $3`
	err := r.db.QueryRowContext(ctx, query, tenantID, target.Kind, target.ID).Scan(&n)
	return n, err
}

func (r *allocationRepository) TotalsByTarget(ctx context.Context, tenantID int32, target domain.Target) (domain.TargetTotals, error) {
	query := `
		SELECT COALESCE(SUM(a.amount) FILTER (WHERE p.direction = 'inflow'), 0),
		       COALESCE(SUM(a.amount) FILTER (WHERE p.direction = 'outflow'), 0),
		       MAX(p.date)
		FROM allocations a
		JOIN payments p ON p.id = a.payment_id
		WHERE a.tenant_id = $1 AND a.target_kind = $2 AND a.target_id = $3
	`
	logger.DatabaseCall("select", "allocations totals", "target", target.String())

	var totals domain.TargetTotals
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, query, tenantID, target.Kind, target.ID).Scan(&totals.Inflow, &totals.Outflow, &last)
	logger.DatabaseResult("select", 1, err, "target", target.String())
	if err != nil {
		return domain.TargetTotals{}, err
	}
	if last.Valid {
		totals.LastPaymentDate = &last.Time
	}
	return totals, nil
}

func (r *allocationRepository) ListCommissionable(ctx context.Context, tenantID int32, period domain.Period) ([]domain.CommissionableAllocation, error) {
	logger.EnterMethod("allocationRepository.ListCommissionable", "tenantID", tenantID, "period", period.Label())

	query := `
		SELECT a.id, r.id, r.counterparty_id, a.amount
		FROM allocations a
		JOIN receivables r ON r.id = a.target_id AND r.tenant_id = a.tenant_id
		JOIN payments p ON p.id = a.payment_id
		WHERE a.tenant_id = $1 AND a.target_kind = 'receivable' AND r.status = 'paid'
		  AND p.date >= $2 AND p.date < $3
		ORDER BY a.id
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, period.Start, period.End)
	if err != nil {
		logger.ExitMethodWithError("allocationRepository.ListCommissionable", err)
		return nil, err
	}
	defer rows.Close()

	var out []domain.CommissionableAllocation
	for rows.Next() {
		var c domain.CommissionableAllocation
		if err := rows.Scan(&c.AllocationID, &c.ReceivableID, &c.CounterpartyID, &c.Amount); err != nil {
			logger.ExitMethodWithError("allocationRepository.ListCommissionable", err)
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("allocationRepository.ListCommissionable", "count", len(out))
	return out, nil
}
