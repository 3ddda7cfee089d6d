package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

// Receivables and payables share one shape and live in two tables.
func obligationTable(kind domain.ObligationKind) string {
	if kind == domain.ObligationPayable {
		return "payables"
	}
	return "receivables"
}

func obligationSelect(kind domain.ObligationKind) string {
	return fmt.Sprintf(`
		SELECT o.id, o.tenant_id, o.counterparty_id, COALESCE(c.name, ''), o.description, o.amount,
		       COALESCE((SELECT SUM(a.amount) FROM allocations a
		                 WHERE a.tenant_id = o.tenant_id AND a.target_kind = '%s' AND a.target_id = o.id), 0),
		       o.due_date, o.paid_date, o.status, o.category, o.period, o.created_at, o.updated_at
		FROM %s o
		LEFT JOIN counterparties c ON c.id = o.counterparty_id
	`, kind.TargetKind(), obligationTable(kind))
}

func scanObligation(s scanner, kind domain.ObligationKind, o *domain.Obligation) error {
	o.Kind = kind
	return s.Scan(&o.ID, &o.TenantID, &o.CounterpartyID, &o.CounterpartyName, &o.Description, &o.Amount,
		&o.PaidTotal, &o.DueDate, &o.PaidDate, &o.Status, &o.Category, &o.Period, &o.CreatedAt, &o.UpdatedAt)
}

type obligationRepository struct {
	db DBTX
}

func NewObligationRepository(db DBTX) repository.ObligationRepository {
	return &obligationRepository{db: db}
}

func (r *obligationRepository) Create(ctx context.Context, o *domain.Obligation) error {
	logger.EnterMethod("obligationRepository.Create", "kind", o.Kind, "tenantID", o.TenantID, "counterpartyID", o.CounterpartyID)

	if o.Status == "" {
		o.Status = domain.ObligationOpen
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (tenant_id, counterparty_id, description, amount, due_date, paid_date, status,
		                category, period, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, obligationTable(o.Kind))
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		o.TenantID, o.CounterpartyID, o.Description, o.Amount, o.DueDate, o.PaidDate, o.Status,
		o.Category, o.Period, now, now,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("obligationRepository.Create", err, "kind", o.Kind)
		return err
	}

	logger.ExitMethod("obligationRepository.Create", "kind", o.Kind, "id", o.ID)
	return nil
}

func (r *obligationRepository) GetByID(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) (*domain.Obligation, error) {
	query := obligationSelect(kind) + ` WHERE o.id = $1 AND o.tenant_id = $2`
	o := &domain.Obligation{}
	if err := scanObligation(r.db.QueryRowContext(ctx, query, id, tenantID), kind, o); err != nil {
		return nil, notFound(err, string(kind), id)
	}
	return o, nil
}

func (r *obligationRepository) List(ctx context.Context, tenantID int32, kind domain.ObligationKind, statuses []domain.ObligationStatus) ([]domain.Obligation, error) {
	query := obligationSelect(kind) + ` WHERE o.tenant_id = $1`
	args := []interface{}{tenantID}
	if len(statuses) > 0 {
		statusStrs := make([]string, len(statuses))
		for i, s := range statuses {
			statusStrs[i] = string(s)
		}
		query += " AND o.status = ANY($2)"
		args = append(args, pq.Array(statusStrs))
	}
	query += " ORDER BY o.due_date, o.id"
	return r.list(ctx, kind, "obligationRepository.List", query, args...)
}

func (r *obligationRepository) ListCommissionPayables(ctx context.Context, tenantID int32, period string) ([]domain.Obligation, error) {
	query := obligationSelect(domain.ObligationPayable) +
		` WHERE o.tenant_id = $1 AND o.category = $2 AND o.period = $3 ORDER BY o.id`
	return r.list(ctx, domain.ObligationPayable, "obligationRepository.ListCommissionPayables", query,
		tenantID, domain.CategoryCommission, period)
}

func (r *obligationRepository) list(ctx context.Context, kind domain.ObligationKind, method, query string, args ...interface{}) ([]domain.Obligation, error) {
	logger.EnterMethod(method, "kind", kind)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError(method, err, "kind", kind)
		return nil, err
	}
	defer rows.Close()

	var out []domain.Obligation
	for rows.Next() {
		var o domain.Obligation
		if err := scanObligation(rows, kind, &o); err != nil {
			logger.ExitMethodWithError(method, err, "kind", kind)
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod(method, "kind", kind, "count", len(out))
	return out, nil
}

func (r *obligationRepository) Update(ctx context.Context, o *domain.Obligation) error {
	logger.EnterMethod("obligationRepository.Update", "kind", o.Kind, "id", o.ID)

	query := fmt.Sprintf(`
		UPDATE %s SET description = $1, amount = $2, due_date = $3, status = $4, paid_date = $5, updated_at = $6
		WHERE id = $7 AND tenant_id = $8
	`, obligationTable(o.Kind))
	o.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, o.Description, o.Amount, o.DueDate, o.Status, o.PaidDate, o.UpdatedAt, o.ID, o.TenantID)
	if err == nil {
		err = expectRow(res, string(o.Kind), o.ID)
	}
	if err != nil {
		logger.ExitMethodWithError("obligationRepository.Update", err, "id", o.ID)
		return err
	}

	logger.ExitMethod("obligationRepository.Update", "id", o.ID)
	return nil
}

func (r *obligationRepository) UpdateStatus(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32, status domain.ObligationStatus, paidDate *time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $1, paid_date = $2, updated_at = $3 WHERE id = $4 AND tenant_id = $5`,
		obligationTable(kind))
	res, err := r.db.ExecContext(ctx, query, status, paidDate, time.Now(), id, tenantID)
	if err != nil {
		return err
	}
	return expectRow(res, string(kind), id)
}

func (r *obligationRepository) Delete(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND tenant_id = $2`, obligationTable(kind))
	res, err := r.db.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		return err
	}
	return expectRow(res, string(kind), id)
}

// MarkOverdue is a single UPDATE so reads can run it before listing.
func (r *obligationRepository) MarkOverdue(ctx context.Context, tenantID int32, kind domain.ObligationKind, today time.Time) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET status = 'overdue', updated_at = $1
	                      WHERE tenant_id = $2 AND status = 'open' AND due_date < $3`, obligationTable(kind))
	logger.DatabaseCall("update", query, "tenantID", tenantID)
	res, err := r.db.ExecContext(ctx, query, time.Now(), tenantID, domain.Today(today))
	if err != nil {
		logger.DatabaseResult("update", 0, err, "kind", kind)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("update", n, err, "kind", kind)
	return n, err
}
